package state

import (
	"fmt"

	"github.com/mervick/xlib-keys-hack/internal/keymap"
)

// CheckInvariants validates the combo-state invariants that aren't
// already enforced structurally by construction: that CapsLock and
// Enter are never both "used with combos" at once, that their
// keysPressedBefore sets aren't both non-empty, and that a tracked
// Enter-with-mods combo implies Enter is actually held and hasn't
// separately been marked used-with-combos. The pressedKeys-reflects-
// every-press invariant is enforced by internal/interp's duplicate
// suppression, not checked here. Tests call this after simulated event
// sequences.
func (s *State) CheckInvariants() error {
	c := &s.combo

	if c.IsCapsLockUsedWithCombos && c.IsEnterUsedWithCombos {
		return fmt.Errorf("invariant 2 violated: both CapsLock and Enter used-with-combos")
	}
	if len(c.KeysPressedBeforeCapsLock) > 0 && len(c.KeysPressedBeforeEnter) > 0 {
		return fmt.Errorf("invariant 2 violated: both keysPressedBefore sets non-empty")
	}

	if c.IsEnterPressedWithMods != nil {
		if !s.IsPressed(keymap.EnterKey) {
			return fmt.Errorf("invariant 3 violated: isEnterPressedWithMods set but Enter not pressed")
		}
		if c.IsEnterUsedWithCombos {
			return fmt.Errorf("invariant 3 violated: Enter is both tracking a modifier combo and marked used-with-combos")
		}
	}

	return nil
}
