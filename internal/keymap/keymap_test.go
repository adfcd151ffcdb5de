package keymap

import (
	"testing"

	evdev "github.com/gvalkov/golang-evdev"
)

func TestAliasOfCapsLock(t *testing.T) {
	k := New()
	name, code, ok := k.AliasOf(evdev.KEY_CAPSLOCK)
	if !ok || name != CapsLockKey {
		t.Fatalf("AliasOf(KEY_CAPSLOCK) = %v, %v, %v", name, code, ok)
	}
	if code != 9 {
		t.Fatalf("CapsLock default code = %d, want 9 (Escape)", code)
	}
}

func TestRealKeyCodeSurvivesRemap(t *testing.T) {
	k := New()
	real, ok := k.RealKeyCode(CapsLockKey)
	if !ok || real != 66 {
		t.Fatalf("RealKeyCode(CapsLock) = %d, %v, want 66", real, ok)
	}
	remapped, ok := k.KeyCode(CapsLockKey)
	if !ok || remapped != 9 {
		t.Fatalf("KeyCode(CapsLock) = %d, %v, want 9", remapped, ok)
	}
}

func TestOrdinaryKeyPassesThrough(t *testing.T) {
	k := New()
	name, code, ok := k.AliasOf(evdev.KEY_A)
	if !ok || !name.IsOrdinary() {
		t.Fatalf("AliasOf(KEY_A) = %v, %v, %v; want ordinary", name, code, ok)
	}
	if code != KeyCode(evdev.KEY_A)+8 {
		t.Fatalf("ordinary code = %d, want %d", code, KeyCode(evdev.KEY_A)+8)
	}
}

func TestIsMedia(t *testing.T) {
	k := New()
	if !k.IsMedia(MediaPlayKey) {
		t.Fatalf("MediaPlayKey should be reported as media")
	}
	if k.IsMedia(EnterKey) {
		t.Fatalf("EnterKey should not be reported as media")
	}
	code, ok := k.MediaCode(MediaPlayKey)
	if !ok || code != 172 {
		t.Fatalf("MediaCode(MediaPlayKey) = %d, %v, want 172", code, ok)
	}
}

func TestAlternativeOnOrdinaryKey(t *testing.T) {
	k := New()
	one := Ordinary(evdev.KEY_1)
	altName, altCode, ok := k.Alternative(one)
	if !ok || altName != Ordinary(evdev.KEY_F1) || altCode != 67 {
		t.Fatalf("Alternative(1) = %v, %v, %v", altName, altCode, ok)
	}
	// An ordinary key with no registered alternative reports none.
	if _, _, ok := k.Alternative(Ordinary(evdev.KEY_B)); ok {
		t.Fatalf("Alternative(B) should not exist")
	}
}

func TestAllModifiersIncludesNamedModifiers(t *testing.T) {
	k := New()
	mods := k.AllModifiers()
	for _, m := range []KeyName{ControlLeftKey, ControlRightKey, AltLeftKey, AltRightKey,
		SuperLeftKey, SuperRightKey, ShiftLeftKey, ShiftRightKey} {
		if !mods.Has(m) {
			t.Fatalf("AllModifiers() missing %v", m)
		}
	}
}

func TestKeySetSortedByDiscriminant(t *testing.T) {
	s := NewKeySet(EnterKey, CapsLockKey, FNKey)
	sorted := s.SortedByDiscriminant()
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1] > sorted[i] {
			t.Fatalf("KeySet.SortedByDiscriminant() not ascending: %v", sorted)
		}
	}
}

func TestKeySetSubAndEqual(t *testing.T) {
	a := NewKeySet(ControlLeftKey, ControlRightKey)
	b := NewKeySet(ControlLeftKey)
	diff := a.Sub(b)
	if !diff.Equal(NewKeySet(ControlRightKey)) {
		t.Fatalf("Sub() = %v, want {ControlRightKey}", diff)
	}
	if a.Equal(b) {
		t.Fatalf("a and b should not be equal")
	}
}
