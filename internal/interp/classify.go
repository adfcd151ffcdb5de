package interp

import (
	"github.com/mervick/xlib-keys-hack/internal/keymap"
)

// classify is the per-event decision tree. It first runs the
// Enter-with-mods pre-check (C1), which may mutate state and/or emit
// before the event falls through to the main C2-C10 chain. C1's three
// sub-cases all end by letting the *same* (name, code, isPressed) event
// continue into C2-C10 — an inlined stand-in for recursive re-entry,
// which duplicate suppression already guarantees terminates in one
// extra pass, so there's no need for an actual recursive call.
func (ip *Interpreter) classify(name keymap.KeyName, code keymap.KeyCode, isPressed bool) {
	ip.handleEnterWithModsPreCheck(name, code, isPressed)
	ip.dispatch(name, code, isPressed)
}

// handleEnterWithModsPreCheck implements rule C1.
func (ip *Interpreter) handleEnterWithModsPreCheck(name keymap.KeyName, code keymap.KeyCode, isPressed bool) {
	combo := ip.st.Combo()
	s := combo.IsEnterPressedWithMods
	if s == nil || name == keymap.EnterKey {
		return
	}

	switch {
	case !isPressed && s.Has(name):
		// A modifier was released before Enter: the whole held combo
		// is S+Enter. Emit it now, then let the modifier's own
		// release proceed normally below.
		if enterCode, ok := ip.km.KeyCode(keymap.EnterKey); ok {
			ip.eff.PressRelease(enterCode)
		}
		combo.IsEnterPressedWithMods = nil
		ip.st.Release(keymap.EnterKey)

	case isPressed && ip.km.AllModifiers().Has(name):
		// A new modifier joined the held combo.
		next := s.Clone()
		next[name] = struct{}{}
		combo.IsEnterPressedWithMods = next

	default:
		// Any other key event downgrades Enter to an additional
		// control; C7/C8 will pick it up on this and future events
		// since Enter is still in pressedKeys.
		combo.IsEnterPressedWithMods = nil
	}
}

// dispatch runs rules C2-C10 in order, stopping at the first match.
func (ip *Interpreter) dispatch(name keymap.KeyName, code keymap.KeyCode, isPressed bool) {
	pressed := ip.st.Pressed()
	otherPressed := pressed.Sub(keymap.NewKeySet(name))
	combo := ip.st.Combo()

	// C2: both Alts pressed alone.
	if ip.cfg.AlternativeMode &&
		(name == keymap.AltLeftKey || name == keymap.AltRightKey) &&
		pressed.Equal(keymap.NewKeySet(keymap.AltLeftKey, keymap.AltRightKey)) {
		ip.releaseIfBound(keymap.AltLeftKey)
		ip.releaseIfBound(keymap.AltRightKey)
		ip.st.Release(keymap.AltLeftKey)
		ip.st.Release(keymap.AltRightKey)
		ip.coord.ToggleAlternative(ip.st, !ip.st.Alternative(), nil)
		return
	}

	// C3: FN key.
	if name == keymap.FNKey {
		switch {
		case isPressed:
			// No output, state unchanged.
		case combo.AppleMediaPressed:
			residual := ip.abstractRelease(ip.km.IsMedia, ip.km.MediaCode)
			combo.AppleMediaPressed = false
			ip.st.SetPressed(residual)
		default:
			if insertCode, ok := ip.km.KeyCode(keymap.InsertKey); ok {
				ip.eff.PressRelease(insertCode)
				ip.eff.Noise("FN acts as Insert")
			}
		}
		return
	}

	// C4: apple media overlay.
	if pressed.Has(keymap.FNKey) && ip.km.IsMedia(name) {
		ip.smartTrigger(name, code, isPressed)
		combo.AppleMediaPressed = true
		return
	}

	// C5: both-Controls chord, or (additional controls) CapsLock+Enter.
	if pressed.Equal(keymap.NewKeySet(keymap.ControlLeftKey, keymap.ControlRightKey)) ||
		(ip.cfg.AdditionalControls && pressed.Equal(keymap.NewKeySet(keymap.CapsLockKey, keymap.EnterKey))) {
		ip.releaseIfBound(keymap.ControlLeftKey)
		ip.releaseIfBound(keymap.ControlRightKey)
		ip.st.Release(keymap.ControlLeftKey)
		ip.st.Release(keymap.ControlRightKey)
		if ip.cfg.AdditionalControls {
			// Open question (b): these were never pressed at X by
			// this chord, so no release is emitted for them.
			ip.st.Release(keymap.CapsLockKey)
			ip.st.Release(keymap.EnterKey)
		}
		ip.coord.ToggleCapsLock(ip.st, !ip.st.LEDs().CapsLock, nil)
		return
	}

	// C6: Enter-only-with-modifiers edge.
	if ip.cfg.AdditionalControls && name == keymap.EnterKey &&
		((isPressed && len(otherPressed) > 0 && isSubsetOf(otherPressed, ip.km.AllModifiers())) ||
			(!isPressed && combo.IsEnterPressedWithMods != nil)) {
		if isPressed {
			combo.IsEnterPressedWithMods = otherPressed.Clone()
		} else {
			combo.IsEnterPressedWithMods = nil
			if enterCode, ok := ip.km.KeyCode(keymap.EnterKey); ok {
				ip.eff.PressRelease(enterCode)
			}
		}
		return
	}

	// C7: additional-control key (single CapsLock or Enter tap/chord
	// start).
	if ip.cfg.AdditionalControls && (name == keymap.CapsLockKey || name == keymap.EnterKey) &&
		!(name == keymap.EnterKey && combo.IsEnterPressedWithMods != nil) {
		ip.handleAdditionalControlKey(name, isPressed, otherPressed)
		return
	}

	// C8: combo with an already-held additional-control key. Enter only
	// counts as "already-held" once it's done tracking a modifier combo
	// of its own (combo.IsEnterPressedWithMods nil) — otherwise a third
	// modifier joining an Enter-with-mods combo would get mistaken for an
	// additional-control chord, pressing a Control key that never gets
	// released once the combo resolves through the early-release branch
	// above instead of this function's own release bookkeeping.
	if ip.cfg.AdditionalControls && (pressed.Has(keymap.CapsLockKey) ||
		(pressed.Has(keymap.EnterKey) && combo.IsEnterPressedWithMods == nil)) {
		ip.handleAdditionalControlCombo(name, code, isPressed, pressed)
		return
	}

	// C9: CapsLock remapped to Escape, falling through C7 (only
	// reachable when additional controls are disabled).
	if name == keymap.CapsLockKey && !ip.cfg.RealCapsLock {
		ip.asTrigger(name, isPressed)
		if !isPressed && ip.cfg.ResetByEscapeOnCapsLock {
			ip.resetAll()
		}
		return
	}

	// C10: default.
	ip.smartTrigger(name, code, isPressed)
}

// handleAdditionalControlKey implements rule C7.
func (ip *Interpreter) handleAdditionalControlKey(name keymap.KeyName, isPressed bool, otherPressed keymap.KeySet) {
	combo := ip.st.Combo()
	isCaps := name == keymap.CapsLockKey

	var withCombos *bool
	var pressedBefore *keymap.KeySet
	if isCaps {
		withCombos = &combo.IsCapsLockUsedWithCombos
		pressedBefore = &combo.KeysPressedBeforeCapsLock
	} else {
		withCombos = &combo.IsEnterUsedWithCombos
		pressedBefore = &combo.KeysPressedBeforeEnter
	}

	if isPressed {
		*pressedBefore = otherPressed.Clone()
		return
	}

	if *withCombos {
		controlKey := keymap.ControlRightKey
		if isCaps {
			controlKey = keymap.ControlLeftKey
		}
		if code, ok := ip.km.KeyCode(controlKey); ok {
			ip.eff.Release(code)
		}
		*withCombos = false
		return
	}

	if isCaps {
		if ip.cfg.RealCapsLock {
			if code, ok := ip.km.RealKeyCode(keymap.CapsLockKey); ok {
				ip.eff.PressRelease(code)
			}
		} else if code, ok := ip.km.KeyCode(ip.km.AsName(keymap.CapsLockKey)); ok {
			ip.eff.PressRelease(code)
		}
		if ip.cfg.ResetByEscapeOnCapsLock {
			ip.resetAll()
		}
		return
	}

	if code, ok := ip.km.KeyCode(keymap.EnterKey); ok {
		ip.eff.PressRelease(code)
	}
}

// handleAdditionalControlCombo implements rule C8.
func (ip *Interpreter) handleAdditionalControlCombo(name keymap.KeyName, code keymap.KeyCode, isPressed bool, pressed keymap.KeySet) {
	combo := ip.st.Combo()
	isCaps := pressed.Has(keymap.CapsLockKey)

	var withCombos *bool
	var pressedBefore *keymap.KeySet
	var controlKey keymap.KeyName
	if isCaps {
		withCombos = &combo.IsCapsLockUsedWithCombos
		pressedBefore = &combo.KeysPressedBeforeCapsLock
		controlKey = keymap.ControlLeftKey
	} else {
		withCombos = &combo.IsEnterUsedWithCombos
		pressedBefore = &combo.KeysPressedBeforeEnter
		controlKey = keymap.ControlRightKey
	}

	if !isPressed && pressedBefore.Has(name) {
		delete(*pressedBefore, name)
		ip.smartTrigger(name, code, isPressed)
		return
	}

	if *withCombos {
		ip.smartTrigger(name, code, isPressed)
		return
	}

	if controlCode, ok := ip.km.KeyCode(controlKey); ok {
		ip.eff.Press(controlCode)
	}
	*withCombos = true
	ip.smartTrigger(name, code, isPressed)
}

func (ip *Interpreter) releaseIfBound(name keymap.KeyName) {
	if code, ok := ip.km.KeyCode(name); ok {
		ip.eff.Release(code)
	}
}

func isSubsetOf(a, b keymap.KeySet) bool {
	for k := range a {
		if !b.Has(k) {
			return false
		}
	}
	return true
}
