// Package mode implements the deferred mode-change coordinator: Caps
// Lock toggle, Alternative mode toggle, and keyboard layout reset are
// all applied immediately if the physical keyboard is idle, or queued
// until it becomes idle otherwise.
package mode

import (
	"github.com/mervick/xlib-keys-hack/internal/effector"
	"github.com/mervick/xlib-keys-hack/internal/keymap"
	"github.com/mervick/xlib-keys-hack/internal/state"
)

// Result reports what a mode-change request actually did: an explicit
// three-way outcome instead of an early-return boolean, since "nothing
// to do" and "queued for later" need to be told apart from "applied".
type Result int

const (
	Skipped Result = iota // already at the target state; nothing to do
	Applied               // keyboard was idle; change applied now
	Pending               // keyboard still has keys down; change queued
)

// Already describes an idempotent turn-on/off check: the caller already
// knows the current state and wants no-op behavior if it matches the
// target.
type Already struct {
	Current bool
}

// Coordinator is the shared mode-change logic for all three deferred
// transitions.
type Coordinator struct {
	eff *effector.Effector
	km  *keymap.Keymap
}

// New builds a Coordinator.
func New(eff *effector.Effector, km *keymap.Keymap) *Coordinator {
	return &Coordinator{eff: eff, km: km}
}

// turnModeBool is the shared body of a mode-toggle request for the two
// substates whose pending slot is a *bool target: Caps Lock and
// Alternative mode.
func turnModeBool(st *state.State, slot **bool, targetOn bool, already *Already, handler func()) Result {
	if already != nil && already.Current == targetOn {
		*slot = nil
		return Skipped
	}
	if len(st.Pressed()) == 0 {
		handler()
		*slot = nil
		return Applied
	}
	target := targetOn
	*slot = &target
	return Pending
}

// handleModeChangeBool is the shared body of handle_mode_change for the
// *bool pending slots.
func handleModeChangeBool(st *state.State, slot **bool, isNowOn bool, handler func()) Result {
	if *slot == nil {
		return Skipped
	}
	if **slot == isNowOn {
		*slot = nil
		return Skipped
	}
	if len(st.Pressed()) == 0 {
		handler()
		*slot = nil
		return Applied
	}
	return Pending
}

// ToggleCapsLock requests that Caps Lock be turned on/off. Called from
// the event interpreter's rule C5/C7/C9/resetAll.
func (c *Coordinator) ToggleCapsLock(st *state.State, targetOn bool, already *Already) Result {
	combo := st.Combo()
	return turnModeBool(st, &combo.CapsLockModeChange, targetOn, already, func() {
		c.applyCapsLock(st, targetOn)
	})
}

// HandleCapsLockModeChange is the per-event post-step that applies a
// queued Caps Lock toggle once the keyboard goes idle.
func (c *Coordinator) HandleCapsLockModeChange(st *state.State) Result {
	combo := st.Combo()
	isNowOn := st.LEDs().CapsLock
	return handleModeChangeBool(st, &combo.CapsLockModeChange, isNowOn, func() {
		target := *combo.CapsLockModeChange
		c.applyCapsLock(st, target)
	})
}

func (c *Coordinator) applyCapsLock(st *state.State, targetOn bool) {
	code, ok := c.km.RealKeyCode(keymap.CapsLockKey)
	if !ok {
		return
	}
	c.eff.ChangeCapsLock(code)
	leds := st.LEDs()
	leds.CapsLock = targetOn
	st.SetLEDs(leds)
	c.eff.NotifyCapsLock(targetOn)
}

// ToggleAlternative requests that Alternative mode be turned on/off.
// Called from rule C2 and resetAll.
func (c *Coordinator) ToggleAlternative(st *state.State, targetOn bool, already *Already) Result {
	combo := st.Combo()
	return turnModeBool(st, &combo.AlternativeModeChange, targetOn, already, func() {
		c.applyAlternative(st, targetOn)
	})
}

// HandleAlternativeModeChange is the per-event post-step for a queued
// Alternative mode toggle.
func (c *Coordinator) HandleAlternativeModeChange(st *state.State) Result {
	combo := st.Combo()
	isNowOn := st.Alternative()
	return handleModeChangeBool(st, &combo.AlternativeModeChange, isNowOn, func() {
		target := *combo.AlternativeModeChange
		c.applyAlternative(st, target)
	})
}

func (c *Coordinator) applyAlternative(st *state.State, targetOn bool) {
	st.SetAlternative(targetOn)
	c.eff.NotifyAlternative(targetOn)
}

// RequestLayoutReset queues (or immediately performs, if the keyboard is
// idle) a keyboard-group reset to layout 0.
func (c *Coordinator) RequestLayoutReset(st *state.State) Result {
	combo := st.Combo()
	if len(st.Pressed()) == 0 {
		c.applyLayoutReset()
		combo.ResetKbdLayout = false
		return Applied
	}
	combo.ResetKbdLayout = true
	return Pending
}

// HandleResetKbdLayout is the per-event post-step for a queued layout
// reset.
func (c *Coordinator) HandleResetKbdLayout(st *state.State) Result {
	combo := st.Combo()
	if !combo.ResetKbdLayout {
		return Skipped
	}
	if len(st.Pressed()) != 0 {
		return Pending
	}
	c.applyLayoutReset()
	combo.ResetKbdLayout = false
	return Applied
}

func (c *Coordinator) applyLayoutReset() {
	layout, err := c.eff.X().XkbGetCurrentLayout()
	if err != nil {
		c.eff.Fatal(err)
		return
	}
	if layout == 0 {
		return
	}
	if err := c.eff.X().XkbSetGroup(0); err != nil {
		c.eff.Fatal(err)
	}
}
