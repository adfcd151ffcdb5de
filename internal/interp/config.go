package interp

// Config holds the policy flags the CLI carries into the event
// interpreter. Every field defaults to the daemon's out-of-the-box
// behavior; internal/cli flips them per the corresponding flag.
type Config struct {
	// AlternativeMode enables the third-level remap layer (rule C2,
	// and the alternative()/onAlternativeKey checks throughout).
	// Disabled by --no-alternative-mode.
	AlternativeMode bool

	// AdditionalControls enables CapsLock-as-Ctrl / Enter-as-Ctrl
	// chording (rules C5-C8). Disabled by --no-additional-controls.
	AdditionalControls bool

	// RealCapsLock keeps CapsLock as CapsLock instead of remapping it
	// to Escape. Set by --real-capslock, which also forces
	// ResetByEscapeOnCapsLock off.
	RealCapsLock bool

	// ResetByEscapeOnCapsLock runs resetAll when a tapped (remapped)
	// CapsLock is released. Disabled by
	// --disable-reset-by-escape-on-capslock or implicitly by
	// --real-capslock.
	ResetByEscapeOnCapsLock bool

	// ResetByWindowFocusEvent runs resetAll whenever the X input focus
	// moves to a different window, the way the teacher's own
	// checkAppend calls getActiveWindowId/dropBuffers on every event.
	// Disabled by --disable-reset-by-window-focus-event.
	ResetByWindowFocusEvent bool
}

// DefaultConfig is the daemon's out-of-the-box policy.
func DefaultConfig() Config {
	return Config{
		AlternativeMode:          true,
		AdditionalControls:       true,
		RealCapsLock:             false,
		ResetByEscapeOnCapsLock:  true,
		ResetByWindowFocusEvent:  true,
	}
}
