package mode

import (
	"testing"

	"github.com/mervick/xlib-keys-hack/internal/effector"
	"github.com/mervick/xlib-keys-hack/internal/keymap"
	"github.com/mervick/xlib-keys-hack/internal/state"
)

type stubX struct {
	layout    int
	groupSets []int
}

func (s *stubX) PressKey(keymap.KeyCode) error              { return nil }
func (s *stubX) ReleaseKey(keymap.KeyCode) error             { return nil }
func (s *stubX) PressRelease(keymap.KeyCode) error           { return nil }
func (s *stubX) FakeKeyEvent(keymap.KeyCode, bool) error     { return nil }
func (s *stubX) GetLEDs() (bool, bool, error)                { return false, false, nil }
func (s *stubX) XkbGetCurrentLayout() (int, error)           { return s.layout, nil }
func (s *stubX) XkbSetGroup(group int) error {
	s.layout = group
	s.groupSets = append(s.groupSets, group)
	return nil
}
func (s *stubX) ActiveWindow() (uint32, error) { return 0, nil }

type stubNotifier struct{ capsLock, alternative []bool }

func (n *stubNotifier) NotifyCapsLock(on bool)    { n.capsLock = append(n.capsLock, on) }
func (n *stubNotifier) NotifyNumLock(bool)        {}
func (n *stubNotifier) NotifyAlternative(on bool) { n.alternative = append(n.alternative, on) }

func newTestCoordinator(layout int) (*Coordinator, *state.State, *stubX) {
	x := &stubX{layout: layout}
	km := keymap.New()
	eff := effector.New(x, &stubNotifier{}, nil, func(error) {})
	return New(eff, km), state.New(state.LEDs{}), x
}

func TestToggleCapsLockAppliedWhenIdle(t *testing.T) {
	co, st, _ := newTestCoordinator(0)
	result := co.ToggleCapsLock(st, true, nil)
	if result != Applied {
		t.Fatalf("ToggleCapsLock() = %v, want Applied", result)
	}
	if !st.LEDs().CapsLock {
		t.Fatalf("LED not updated")
	}
}

func TestToggleCapsLockPendingWhileKeysHeld(t *testing.T) {
	co, st, _ := newTestCoordinator(0)
	st.Press(keymap.ShiftLeftKey)

	result := co.ToggleCapsLock(st, true, nil)
	if result != Pending {
		t.Fatalf("ToggleCapsLock() = %v, want Pending", result)
	}
	if st.LEDs().CapsLock {
		t.Fatalf("LED should not change while pending")
	}

	st.Release(keymap.ShiftLeftKey)
	result = co.HandleCapsLockModeChange(st)
	if result != Applied {
		t.Fatalf("HandleCapsLockModeChange() = %v, want Applied", result)
	}
	if !st.LEDs().CapsLock {
		t.Fatalf("LED not applied once idle")
	}
}

func TestToggleCapsLockSkippedWhenAlreadyAtTarget(t *testing.T) {
	co, st, _ := newTestCoordinator(0)
	result := co.ToggleCapsLock(st, false, &Already{Current: false})
	if result != Skipped {
		t.Fatalf("ToggleCapsLock() = %v, want Skipped", result)
	}
}

func TestRequestLayoutResetAppliedWhenIdle(t *testing.T) {
	co, st, x := newTestCoordinator(2)
	result := co.RequestLayoutReset(st)
	if result != Applied {
		t.Fatalf("RequestLayoutReset() = %v, want Applied", result)
	}
	if len(x.groupSets) != 1 || x.groupSets[0] != 0 {
		t.Fatalf("layout group sets = %v, want [0]", x.groupSets)
	}
}

func TestRequestLayoutResetNoopWhenAlreadyZero(t *testing.T) {
	co, st, x := newTestCoordinator(0)
	result := co.RequestLayoutReset(st)
	if result != Applied {
		t.Fatalf("RequestLayoutReset() = %v, want Applied", result)
	}
	if len(x.groupSets) != 0 {
		t.Fatalf("layout should not be re-set when already 0: %v", x.groupSets)
	}
}

func TestRequestLayoutResetPendingWhileKeysHeld(t *testing.T) {
	co, st, x := newTestCoordinator(1)
	st.Press(keymap.ShiftLeftKey)

	if result := co.RequestLayoutReset(st); result != Pending {
		t.Fatalf("RequestLayoutReset() = %v, want Pending", result)
	}
	if len(x.groupSets) != 0 {
		t.Fatalf("layout should not be set while pending: %v", x.groupSets)
	}

	st.Release(keymap.ShiftLeftKey)
	if result := co.HandleResetKbdLayout(st); result != Applied {
		t.Fatalf("HandleResetKbdLayout() = %v, want Applied", result)
	}
	if len(x.groupSets) != 1 {
		t.Fatalf("layout should be set once idle: %v", x.groupSets)
	}
}
