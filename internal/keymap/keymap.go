package keymap

import (
	evdev "github.com/gvalkov/golang-evdev"
)

// KeyCode is an X key code, the unit XTest operates on. It is distinct
// from evdev.EvCode: the two numbering spaces are related but not
// identical once a key has been remapped by the X server's own keyboard
// map (see RealKeyCode).
type KeyCode uint16

// altMapping is the "alternative" third-level mapping a key carries when
// Alternative mode is on.
type altMapping struct {
	name KeyName
	code KeyCode
}

// entry is one row of the Keymap table.
type entry struct {
	code      KeyCode
	realCode  KeyCode // the hardware key code before the daemon's own remap
	alt       *altMapping
	mediaCode *KeyCode
	asName    KeyName
	extra     []KeyName
}

// Keymap is the immutable evdev-code/key-name/X-key-code lookup table.
// It never changes after New returns, so it needs no locking.
type Keymap struct {
	byEvdev  map[evdev.EvCode]KeyName
	entries  map[KeyName]entry
	allMods  []KeyName
}

// New builds the default keymap: the evdev-code reverse table plus the
// per-key entries (X code, alternative mapping, media code, as-name,
// extra aliases) that the event interpreter consults on every event.
func New() *Keymap {
	k := &Keymap{
		byEvdev: make(map[evdev.EvCode]KeyName),
		entries: make(map[KeyName]entry),
	}

	// Modifiers. X key codes below follow the customary evdev+8 offset
	// used by a stock XFree86/Xorg "evdev" keyboard map.
	k.add(evdev.KEY_LEFTCTRL, ControlLeftKey, 37, nil, nil)
	k.add(evdev.KEY_RIGHTCTRL, ControlRightKey, 105, nil, nil)
	k.add(evdev.KEY_LEFTALT, AltLeftKey, 64, nil, nil)
	k.add(evdev.KEY_RIGHTALT, AltRightKey, 108, nil, nil)
	k.add(evdev.KEY_LEFTMETA, SuperLeftKey, 133, nil, nil)
	k.add(evdev.KEY_RIGHTMETA, SuperRightKey, 134, nil, nil)
	k.add(evdev.KEY_LEFTSHIFT, ShiftLeftKey, 50, nil, nil)
	k.add(evdev.KEY_RIGHTSHIFT, ShiftRightKey, 62, nil, nil)

	// CapsLock: real hardware code 66, remapped as-name Escape (9) by
	// default; --real-capslock keeps it as CapsLock (see internal/cli,
	// internal/interp rule C9).
	e := entry{code: 9, realCode: 66, asName: EscapeKey}
	k.entries[CapsLockKey] = e
	k.byEvdev[evdev.KEY_CAPSLOCK] = CapsLockKey

	// Enter: plain Enter code and as-name. Its ControlRight role in a
	// chord (rule C7/C8) is chosen by internal/interp, not by this entry.
	k.entries[EnterKey] = entry{code: 36, realCode: 36, asName: EnterKey}
	k.byEvdev[evdev.KEY_ENTER] = EnterKey

	// FN has no X key code of its own: it's a pure overlay key (rule
	// C3/C4) and is never forwarded to X by that code.
	k.entries[FNKey] = entry{asName: FNKey}
	k.byEvdev[evdev.KEY_FN] = FNKey

	k.entries[InsertKey] = entry{code: 118, realCode: 118, asName: InsertKey}
	k.entries[EscapeKey] = entry{code: 9, realCode: 9, asName: EscapeKey}
	k.byEvdev[evdev.KEY_ESC] = EscapeKey
	k.byEvdev[evdev.KEY_INSERT] = InsertKey

	// Media keys.
	k.addMedia(evdev.KEY_PLAYPAUSE, MediaPlayKey, 172)
	k.addMedia(evdev.KEY_NEXTSONG, MediaNextKey, 171)
	k.addMedia(evdev.KEY_PREVIOUSSONG, MediaPrevKey, 173)
	k.addMedia(evdev.KEY_STOP, MediaStopKey, 174)
	k.addMedia(evdev.KEY_VOLUMEUP, MediaVolumeUpKey, 123)
	k.addMedia(evdev.KEY_VOLUMEDOWN, MediaVolumeDownKey, 122)
	k.addMedia(evdev.KEY_MUTE, MediaMuteKey, 121)

	k.allMods = []KeyName{
		ControlLeftKey, ControlRightKey,
		AltLeftKey, AltRightKey,
		SuperLeftKey, SuperRightKey,
		ShiftLeftKey, ShiftRightKey,
	}

	// Alternative-mode third-level mapping: the number row retypes as
	// F-keys, the way a laptop's Fn overlay usually works.
	k.setAlternative(Ordinary(evdev.KEY_1), Ordinary(evdev.KEY_F1), 67)
	k.setAlternative(Ordinary(evdev.KEY_2), Ordinary(evdev.KEY_F2), 68)
	k.setAlternative(Ordinary(evdev.KEY_3), Ordinary(evdev.KEY_F3), 69)
	k.setAlternative(Ordinary(evdev.KEY_4), Ordinary(evdev.KEY_F4), 70)
	k.setAlternative(Ordinary(evdev.KEY_5), Ordinary(evdev.KEY_F5), 71)
	k.setAlternative(Ordinary(evdev.KEY_6), Ordinary(evdev.KEY_F6), 72)
	k.setAlternative(Ordinary(evdev.KEY_7), Ordinary(evdev.KEY_F7), 73)
	k.setAlternative(Ordinary(evdev.KEY_8), Ordinary(evdev.KEY_F8), 74)
	k.setAlternative(Ordinary(evdev.KEY_9), Ordinary(evdev.KEY_F9), 75)
	k.setAlternative(Ordinary(evdev.KEY_0), Ordinary(evdev.KEY_F10), 76)

	return k
}

func (k *Keymap) add(code evdev.EvCode, name KeyName, xcode KeyCode, asName *KeyName, extra []KeyName) {
	e := entry{code: xcode, realCode: xcode, extra: extra}
	if asName != nil {
		e.asName = *asName
	} else {
		e.asName = name
	}
	k.entries[name] = e
	k.byEvdev[code] = name
}

func (k *Keymap) addMedia(code evdev.EvCode, name KeyName, xcode KeyCode) {
	mc := xcode
	k.entries[name] = entry{code: xcode, realCode: xcode, mediaCode: &mc, asName: name}
	k.byEvdev[code] = name
}

// setAlternative registers an Alternative-mode third-level mapping for
// name without disturbing any existing table row (used for ordinary keys
// that have no other special entry).
func (k *Keymap) setAlternative(name, altName KeyName, altCode KeyCode) {
	e := k.entries[name]
	e.alt = &altMapping{name: altName, code: altCode}
	k.entries[name] = e
}

// AliasOf decodes a raw evdev scancode into the (KeyName, X key code)
// pair the rest of the pipeline operates on. Every code decodes: one
// without a named entry is returned as an ordinary key, so ok is always
// true.
func (k *Keymap) AliasOf(code evdev.EvCode) (name KeyName, xcode KeyCode, ok bool) {
	if n, found := k.byEvdev[code]; found {
		e := k.entries[n]
		return n, e.code, true
	}
	// Ordinary key: pass the evdev code straight through as its own X
	// key code, per the stock "evdev+8" offset.
	name = Ordinary(code)
	return name, KeyCode(code) + 8, true
}

// KeyCode returns the X key code currently bound to name.
func (k *Keymap) KeyCode(name KeyName) (KeyCode, bool) {
	if name.IsOrdinary() {
		return KeyCode(name-firstOrdinaryKey) + 8, true
	}
	e, ok := k.entries[name]
	if !ok || e.code == 0 {
		return 0, false
	}
	return e.code, true
}

// RealKeyCode returns the hardware X key code for name, before the
// daemon's own remap (e.g. CapsLock's physical code 66, as opposed to
// the Escape code it's remapped to by default).
func (k *Keymap) RealKeyCode(name KeyName) (KeyCode, bool) {
	if name.IsOrdinary() {
		return KeyCode(name-firstOrdinaryKey) + 8, true
	}
	e, ok := k.entries[name]
	if !ok || e.realCode == 0 {
		return 0, false
	}
	return e.realCode, true
}

// Alternative returns the third-level ("alternative mode") remapping for
// name, if the keymap defines one.
func (k *Keymap) Alternative(name KeyName) (KeyName, KeyCode, bool) {
	e, ok := k.entries[name]
	if !ok || e.alt == nil {
		return UnknownKey, 0, false
	}
	return e.alt.name, e.alt.code, true
}

// IsMedia reports whether name is a media key.
func (k *Keymap) IsMedia(name KeyName) bool {
	e, ok := k.entries[name]
	return ok && e.mediaCode != nil
}

// MediaCode returns the X key code for a media key.
func (k *Keymap) MediaCode(name KeyName) (KeyCode, bool) {
	e, ok := k.entries[name]
	if !ok || e.mediaCode == nil {
		return 0, false
	}
	return *e.mediaCode, true
}

// AsName returns the name under which name's remap target should be
// logged. Defaults to name itself.
func (k *Keymap) AsName(name KeyName) KeyName {
	e, ok := k.entries[name]
	if !ok {
		return name
	}
	return e.asName
}

// ExtraKeys returns the keys that an upstream layer already bound to
// name, and which must therefore count as name when computing the
// modifier set.
func (k *Keymap) ExtraKeys(name KeyName) []KeyName {
	return k.entries[name].extra
}

// AllModifiers returns the eight named modifier keys plus every key
// registered as an extra alias of one of them — the allModifiersKeys set
// the event classifier uses.
func (k *Keymap) AllModifiers() KeySet {
	s := make(KeySet, len(k.allMods))
	for _, m := range k.allMods {
		s[m] = struct{}{}
		for _, extra := range k.ExtraKeys(m) {
			s[extra] = struct{}{}
		}
	}
	return s
}
