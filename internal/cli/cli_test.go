package cli

import "testing"

func TestParseDefaults(t *testing.T) {
	opt, err := Parse([]string{})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	cfg := opt.Config()
	if !cfg.AlternativeMode || !cfg.AdditionalControls || cfg.RealCapsLock || !cfg.ResetByEscapeOnCapsLock {
		t.Fatalf("unexpected default config: %+v", cfg)
	}
}

func TestParseRealCapsLockForcesResetOff(t *testing.T) {
	opt, err := Parse([]string{"--real-capslock"})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	cfg := opt.Config()
	if !cfg.RealCapsLock || cfg.ResetByEscapeOnCapsLock {
		t.Fatalf("--real-capslock should force ResetByEscapeOnCapsLock off: %+v", cfg)
	}
}

func TestParseDisableFlagsAndPositionalDevices(t *testing.T) {
	opt, err := Parse([]string{
		"--no-alternative-mode",
		"--no-additional-controls",
		"--disable-xinput-device-name", "Some Touchpad",
		"--xmobar-pipe", "/tmp/xmobar.pipe",
		"/dev/input/event3", "/dev/input/event4",
	})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	cfg := opt.Config()
	if cfg.AlternativeMode || cfg.AdditionalControls {
		t.Fatalf("disable flags not applied: %+v", cfg)
	}
	if opt.XmobarPipe != "/tmp/xmobar.pipe" {
		t.Fatalf("XmobarPipe = %q", opt.XmobarPipe)
	}
	if len(opt.DisableXinputDeviceName) != 1 || opt.DisableXinputDeviceName[0] != "Some Touchpad" {
		t.Fatalf("DisableXinputDeviceName = %v", opt.DisableXinputDeviceName)
	}
	if len(opt.DevicePaths) != 2 {
		t.Fatalf("DevicePaths = %v", opt.DevicePaths)
	}
}
