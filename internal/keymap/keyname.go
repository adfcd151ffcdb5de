// Package keymap provides the pure, read-only lookup tables that connect
// evdev scancodes, symbolic key names, and the X key codes used to
// synthesize XTest events. See component A of the design.
package keymap

import (
	"fmt"

	evdev "github.com/gvalkov/golang-evdev"
)

// KeyName is a symbolic identifier for a key the daemon recognizes. The
// low range is reserved for named keys with special remapping behavior;
// everything else is an "ordinary" key addressed directly by evdev code,
// so the daemon never needs a table entry for every letter and digit.
type KeyName int

const (
	UnknownKey KeyName = iota

	CapsLockKey
	RealCapsLockKey
	EnterKey
	FNKey
	InsertKey
	EscapeKey

	AltLeftKey
	AltRightKey
	ControlLeftKey
	ControlRightKey
	SuperLeftKey
	SuperRightKey
	ShiftLeftKey
	ShiftRightKey

	MediaPlayKey
	MediaNextKey
	MediaPrevKey
	MediaStopKey
	MediaVolumeUpKey
	MediaVolumeDownKey
	MediaMuteKey

	// firstOrdinaryKey marks the start of the ordinary-key range: any
	// evdev code without a named entry above maps to
	// firstOrdinaryKey+KeyName(code), letting Keymap pass it through
	// without a dedicated table row.
	firstOrdinaryKey
)

// Ordinary returns the KeyName used for an evdev code that carries no
// special remapping behavior of its own (plain letters, digits, and
// punctuation).
func Ordinary(code evdev.EvCode) KeyName {
	return firstOrdinaryKey + KeyName(code)
}

// IsOrdinary reports whether name was produced by Ordinary.
func (n KeyName) IsOrdinary() bool {
	return n >= firstOrdinaryKey
}

var keyNames = map[KeyName]string{
	UnknownKey:         "Unknown",
	CapsLockKey:        "CapsLock",
	RealCapsLockKey:    "RealCapsLock",
	EnterKey:           "Enter",
	FNKey:              "FN",
	InsertKey:          "Insert",
	EscapeKey:          "Escape",
	AltLeftKey:         "AltLeft",
	AltRightKey:        "AltRight",
	ControlLeftKey:     "ControlLeft",
	ControlRightKey:    "ControlRight",
	SuperLeftKey:       "SuperLeft",
	SuperRightKey:      "SuperRight",
	ShiftLeftKey:       "ShiftLeft",
	ShiftRightKey:      "ShiftRight",
	MediaPlayKey:       "MediaPlay",
	MediaNextKey:       "MediaNext",
	MediaPrevKey:       "MediaPrev",
	MediaStopKey:       "MediaStop",
	MediaVolumeUpKey:   "MediaVolumeUp",
	MediaVolumeDownKey: "MediaVolumeDown",
	MediaMuteKey:       "MediaMute",
}

// String implements fmt.Stringer so log lines can name the remap target
// the way the daemon's "as-name" logging does.
func (n KeyName) String() string {
	if s, ok := keyNames[n]; ok {
		return s
	}
	if n.IsOrdinary() {
		return fmt.Sprintf("Key(%d)", int(n-firstOrdinaryKey))
	}
	return fmt.Sprintf("KeyName(%d)", int(n))
}

// KeySet is a lightweight set of KeyName, used for pressedKeys and the
// various combo substates in internal/state.
type KeySet map[KeyName]struct{}

// NewKeySet builds a KeySet from the given names.
func NewKeySet(names ...KeyName) KeySet {
	s := make(KeySet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set.
func (s KeySet) Has(name KeyName) bool {
	_, ok := s[name]
	return ok
}

// Clone returns an independent copy, used when a deferred handler needs
// a consistent snapshot that survives the set mutating underneath it.
func (s KeySet) Clone() KeySet {
	c := make(KeySet, len(s))
	for k := range s {
		c[k] = struct{}{}
	}
	return c
}

// Equal reports whether s and o contain exactly the same names.
func (s KeySet) Equal(o KeySet) bool {
	if len(s) != len(o) {
		return false
	}
	for k := range s {
		if _, ok := o[k]; !ok {
			return false
		}
	}
	return true
}

// Sub returns s minus o (a new set).
func (s KeySet) Sub(o KeySet) KeySet {
	r := make(KeySet, len(s))
	for k := range s {
		if _, ok := o[k]; !ok {
			r[k] = struct{}{}
		}
	}
	return r
}

// SortedByDiscriminant returns the set's members ordered by ascending
// KeyName value. resetAll uses this so a bulk release happens in a
// deterministic order instead of Go's randomized map iteration.
func (s KeySet) SortedByDiscriminant() []KeyName {
	out := make([]KeyName, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
