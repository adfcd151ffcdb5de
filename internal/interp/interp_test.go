package interp

import (
	"testing"

	"github.com/mervick/xlib-keys-hack/internal/effector"
	"github.com/mervick/xlib-keys-hack/internal/keymap"
	"github.com/mervick/xlib-keys-hack/internal/mode"
	"github.com/mervick/xlib-keys-hack/internal/state"
)

// fakeX is a recording stand-in for effector.XServer.
type fakeX struct {
	events   []string
	layout   int
	capsLock bool
	numLock  bool
}

func (f *fakeX) PressKey(code keymap.KeyCode) error {
	f.events = append(f.events, eventStr("press", code))
	return nil
}

func (f *fakeX) ReleaseKey(code keymap.KeyCode) error {
	f.events = append(f.events, eventStr("release", code))
	return nil
}

func (f *fakeX) PressRelease(code keymap.KeyCode) error {
	f.events = append(f.events, eventStr("pressrelease", code))
	return nil
}

func (f *fakeX) FakeKeyEvent(code keymap.KeyCode, isPress bool) error {
	if isPress {
		return f.PressKey(code)
	}
	return f.ReleaseKey(code)
}

func (f *fakeX) GetLEDs() (bool, bool, error) { return f.capsLock, f.numLock, nil }

func (f *fakeX) XkbGetCurrentLayout() (int, error) { return f.layout, nil }

func (f *fakeX) XkbSetGroup(group int) error {
	f.layout = group
	return nil
}

func (f *fakeX) ActiveWindow() (uint32, error) { return 1, nil }

func eventStr(kind string, code keymap.KeyCode) string {
	return kind + ":" + itoa(int(code))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// fakeNotifier is a recording stand-in for effector.Notifier.
type fakeNotifier struct {
	capsLock    []bool
	numLock     []bool
	alternative []bool
}

func (n *fakeNotifier) NotifyCapsLock(on bool)    { n.capsLock = append(n.capsLock, on) }
func (n *fakeNotifier) NotifyNumLock(on bool)     { n.numLock = append(n.numLock, on) }
func (n *fakeNotifier) NotifyAlternative(on bool) { n.alternative = append(n.alternative, on) }

type harness struct {
	km   *keymap.Keymap
	st   *state.State
	x    *fakeX
	not  *fakeNotifier
	eff  *effector.Effector
	co   *mode.Coordinator
	ip   *Interpreter
	fail error
}

func newHarness(cfg Config) *harness {
	km := keymap.New()
	st := state.New(state.LEDs{})
	x := &fakeX{}
	not := &fakeNotifier{}
	h := &harness{km: km, st: st, x: x, not: not}
	eff := effector.New(x, not, nil, func(err error) { h.fail = err })
	co := mode.New(eff, km)
	h.eff = eff
	h.co = co
	h.ip = New(km, st, eff, co, cfg, nil)
	return h
}

func (h *harness) press(name keymap.KeyName) {
	code, _ := h.km.KeyCode(name)
	h.ip.HandleEvent(name, code, true)
}

func (h *harness) release(name keymap.KeyName) {
	code, _ := h.km.KeyCode(name)
	h.ip.HandleEvent(name, code, false)
}

func TestRoundTripPlainKeyPressRelease(t *testing.T) {
	h := newHarness(DefaultConfig())
	a := keymap.Ordinary(30) // KEY_A
	h.press(a)
	h.release(a)
	if len(h.x.events) != 2 || h.x.events[0][:5] != "press" || h.x.events[1][:7] != "release" {
		t.Fatalf("unexpected events: %v", h.x.events)
	}
}

func TestDuplicatePressIsIgnored(t *testing.T) {
	h := newHarness(DefaultConfig())
	a := keymap.Ordinary(30)
	h.press(a)
	h.press(a) // duplicate, must be a no-op per invariant 1
	if len(h.x.events) != 1 {
		t.Fatalf("duplicate press was not suppressed: %v", h.x.events)
	}
}

func TestCapsLockTapActsAsEscapeAndResets(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.press(keymap.CapsLockKey)
	h.release(keymap.CapsLockKey)
	escapeCode, _ := h.km.KeyCode(keymap.EscapeKey)
	found := false
	for _, e := range h.x.events {
		if e == eventStr("pressrelease", escapeCode) {
			found = true
		}
	}
	if !found {
		t.Fatalf("remapped CapsLock tap did not emit Escape: %v", h.x.events)
	}
	if len(h.st.Pressed()) != 0 {
		t.Fatalf("ResetByEscapeOnCapsLock should have run resetAll: %v", h.st.Pressed())
	}
}

func TestRealCapsLockTapUsesHardwareCode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RealCapsLock = true
	cfg.ResetByEscapeOnCapsLock = false
	h := newHarness(cfg)
	h.press(keymap.CapsLockKey)
	h.release(keymap.CapsLockKey)
	realCode, _ := h.km.RealKeyCode(keymap.CapsLockKey)
	found := false
	for _, e := range h.x.events {
		if e == eventStr("pressrelease", realCode) {
			found = true
		}
	}
	if !found {
		t.Fatalf("RealCapsLock tap should use the hardware code: %v", h.x.events)
	}
}

func TestBothAltsTogglesAlternativeMode(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.press(keymap.AltLeftKey)
	h.press(keymap.AltRightKey)
	if !h.st.Alternative() {
		t.Fatalf("Alternative mode did not turn on")
	}
	if h.st.IsPressed(keymap.AltLeftKey) || h.st.IsPressed(keymap.AltRightKey) {
		t.Fatalf("both-Alts chord should remove both Alts from pressedKeys")
	}
}

func TestBothControlsTogglesCapsLock(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.press(keymap.ControlLeftKey)
	h.press(keymap.ControlRightKey)
	if !h.st.LEDs().CapsLock {
		t.Fatalf("both-Controls chord did not toggle CapsLock on")
	}
}

func TestCapsLockPlusEnterChordDoesNotEmitReleasesForThem(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.press(keymap.CapsLockKey)
	h.press(keymap.EnterKey)
	if h.st.IsPressed(keymap.CapsLockKey) || h.st.IsPressed(keymap.EnterKey) {
		t.Fatalf("CapsLock+Enter chord should clear both from pressedKeys")
	}
	// Open question (b): neither key was ever forwarded to X by this
	// chord, so no release event should exist for either of them.
	enterCode, _ := h.km.KeyCode(keymap.EnterKey)
	capsCode, _ := h.km.KeyCode(keymap.CapsLockKey)
	for _, e := range h.x.events {
		if e == eventStr("release", enterCode) || e == eventStr("release", capsCode) {
			t.Fatalf("unexpected release for CapsLock/Enter: %v", h.x.events)
		}
	}
}

func TestAdditionalControlCapsLockChordPressesControlLeft(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.press(keymap.CapsLockKey)
	b := keymap.Ordinary(48) // KEY_B
	h.press(b)
	if !h.st.Combo().IsCapsLockUsedWithCombos {
		t.Fatalf("CapsLock+other key should mark IsCapsLockUsedWithCombos")
	}
	controlLeftCode, _ := h.km.KeyCode(keymap.ControlLeftKey)
	found := false
	for _, e := range h.x.events {
		if e == eventStr("press", controlLeftCode) {
			found = true
		}
	}
	if !found {
		t.Fatalf("CapsLock+B should press ControlLeft: %v", h.x.events)
	}
	h.release(b)
	h.release(keymap.CapsLockKey)
	if h.st.Combo().IsCapsLockUsedWithCombos {
		t.Fatalf("IsCapsLockUsedWithCombos should clear once CapsLock is released")
	}
}

func TestLoneFNTapActsAsInsert(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.press(keymap.FNKey)
	h.release(keymap.FNKey)
	insertCode, _ := h.km.KeyCode(keymap.InsertKey)
	found := false
	for _, e := range h.x.events {
		if e == eventStr("pressrelease", insertCode) {
			found = true
		}
	}
	if !found {
		t.Fatalf("FN tap did not emit Insert pressrelease: %v", h.x.events)
	}
}

func TestFNPlusMediaDoesNotActAsInsert(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.press(keymap.FNKey)
	h.press(keymap.MediaPlayKey)
	h.release(keymap.MediaPlayKey)
	h.release(keymap.FNKey)
	insertCode, _ := h.km.KeyCode(keymap.InsertKey)
	for _, e := range h.x.events {
		if e == eventStr("pressrelease", insertCode) {
			t.Fatalf("FN+media should not emit Insert: %v", h.x.events)
		}
	}
}

func TestResetAllReleasesEverythingHeld(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.press(keymap.ShiftLeftKey)
	h.press(keymap.SuperLeftKey)
	sorted := h.st.Pressed().SortedByDiscriminant()
	h.ip.resetAll()
	if len(h.st.Pressed()) != 0 {
		t.Fatalf("resetAll left keys pressed: %v", h.st.Pressed())
	}
	if len(sorted) != 2 || sorted[0] >= sorted[1] {
		t.Fatalf("SortedByDiscriminant() not ascending before resetAll: %v", sorted)
	}
}

func TestThirdModifierWhileEnterArmedDoesNotStickControl(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.press(keymap.ShiftLeftKey)
	h.press(keymap.EnterKey)       // arms IsEnterPressedWithMods = {Shift}
	h.press(keymap.AltLeftKey)     // re-arms it to {Shift, AltLeft}; must not trip C8
	h.release(keymap.AltLeftKey)   // resolves the combo via the early-release branch

	controlRightCode, _ := h.km.KeyCode(keymap.ControlRightKey)
	for _, e := range h.x.events {
		if e == eventStr("press", controlRightCode) {
			t.Fatalf("a modifier joining an armed Enter combo must not press ControlRight: %v", h.x.events)
		}
	}
	if h.st.Combo().IsEnterUsedWithCombos {
		t.Fatalf("IsEnterUsedWithCombos should not be set by a modifier that only ever joined an armed Enter combo")
	}
	if err := h.st.CheckInvariants(); err != nil {
		t.Fatalf("invariants violated: %v", err)
	}
}

func TestInvariantsHoldAfterEventSequence(t *testing.T) {
	h := newHarness(DefaultConfig())
	a := keymap.Ordinary(30)
	h.press(keymap.CapsLockKey)
	h.press(a)
	h.release(a)
	h.release(keymap.CapsLockKey)
	if err := h.st.CheckInvariants(); err != nil {
		t.Fatalf("invariants violated: %v", err)
	}
}
