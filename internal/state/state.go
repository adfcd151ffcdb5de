// Package state holds the single mutable record the daemon's event
// pipeline reads and writes: the pressed-key set, LED state, Alternative
// mode flag, and combo bookkeeping. This package adds only typed
// accessors, not new state.
package state

import (
	"sync"

	"github.com/mervick/xlib-keys-hack/internal/keymap"
)

// LEDs is the last-observed LED state sampled from the X server.
type LEDs struct {
	CapsLock bool
	NumLock  bool
}

// ComboState is the daemon's additional-control and overlay bookkeeping.
// At most one of IsCapsLockUsedWithCombos and IsEnterUsedWithCombos is
// true at any time.
type ComboState struct {
	AppleMediaPressed         bool
	IsCapsLockUsedWithCombos  bool
	IsEnterUsedWithCombos     bool
	KeysPressedBeforeCapsLock keymap.KeySet
	KeysPressedBeforeEnter    keymap.KeySet

	// IsEnterPressedWithMods is nil when idle; non-nil holds the
	// modifier set Enter was pressed together with.
	IsEnterPressedWithMods keymap.KeySet

	// Pending mode-change slots, queued by internal/mode while the
	// keyboard still has other keys held. Nil/false means no change
	// pending.
	CapsLockModeChange    *bool
	AlternativeModeChange *bool
	ResetKbdLayout        bool
}

// State is the daemon's single mutable record, guarded by one mutex that
// covers the full classify-and-post-steps sequence per event. Callers
// take the lock once, at the top of event handling, and every accessor
// below assumes it is already held — State never takes the lock itself,
// by design, since rule C1's re-entry must not deadlock.
type State struct {
	mu sync.Mutex

	pressedKeys keymap.KeySet
	alternative bool
	leds        LEDs
	combo       ComboState
}

// New builds a State with empty sets and the given sampled LED state.
func New(initialLEDs LEDs) *State {
	return &State{
		pressedKeys: make(keymap.KeySet),
		leds:        initialLEDs,
		combo: ComboState{
			KeysPressedBeforeCapsLock: make(keymap.KeySet),
			KeysPressedBeforeEnter:    make(keymap.KeySet),
		},
	}
}

// Lock acquires the single mutex covering one event's full processing.
func (s *State) Lock() { s.mu.Lock() }

// Unlock releases it.
func (s *State) Unlock() { s.mu.Unlock() }

// Pressed returns the live pressedKeys set (invariant 1). Callers that
// need a stable view across an unlock should call Pressed().Clone().
func (s *State) Pressed() keymap.KeySet { return s.pressedKeys }

// IsPressed reports whether name is currently held.
func (s *State) IsPressed(name keymap.KeyName) bool { return s.pressedKeys.Has(name) }

// Press records name as held.
func (s *State) Press(name keymap.KeyName) { s.pressedKeys[name] = struct{}{} }

// Release records name as no longer held.
func (s *State) Release(name keymap.KeyName) { delete(s.pressedKeys, name) }

// SetPressed replaces the pressedKeys set wholesale. Used by resetAll and
// the apple-media-overlay release (abstractRelease), both of which
// compute the remainder of pressedKeys after a bulk release.
func (s *State) SetPressed(ks keymap.KeySet) { s.pressedKeys = ks }

// Alternative reports whether Alternative mode is currently on.
func (s *State) Alternative() bool { return s.alternative }

// SetAlternative flips Alternative mode.
func (s *State) SetAlternative(on bool) { s.alternative = on }

// LEDs returns the last-observed LED state.
func (s *State) LEDs() LEDs { return s.leds }

// SetLEDs updates the last-observed LED state.
func (s *State) SetLEDs(l LEDs) { s.leds = l }

// Combo returns a pointer to the combo substate for direct mutation by
// internal/mode and internal/interp, which own its invariants.
func (s *State) Combo() *ComboState { return &s.combo }

// Snapshot returns an independent copy of the parts of State a deferred
// handler needs to read after releasing and reacquiring the lock.
type Snapshot struct {
	Pressed     keymap.KeySet
	Alternative bool
	LEDs        LEDs
}

// Snapshot clones the current state.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Pressed:     s.pressedKeys.Clone(),
		Alternative: s.alternative,
		LEDs:        s.leds,
	}
}
