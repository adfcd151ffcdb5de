// Package effector wraps the side-effecting calls the event interpreter
// triggers: XTest key synthesis and status-bar notification (component C
// of the design). It never decides policy; it only executes what
// internal/interp and internal/mode tell it to.
package effector

import (
	"go.uber.org/zap"

	"github.com/mervick/xlib-keys-hack/internal/keymap"
)

// XServer is the abstract X11/XTest/XKB binding layer, kept out of the
// core's scope so the classifier and state machine never import cgo.
// internal/xserver provides the one concrete, cgo-backed implementation
// this daemon ships with.
type XServer interface {
	PressKey(code keymap.KeyCode) error
	ReleaseKey(code keymap.KeyCode) error
	PressRelease(code keymap.KeyCode) error
	FakeKeyEvent(code keymap.KeyCode, isPress bool) error
	GetLEDs() (capsLock, numLock bool, err error)
	XkbGetCurrentLayout() (int, error)
	XkbSetGroup(group int) error
	ActiveWindow() (uint32, error)
}

// Notifier is the abstract IPC/status-bar layer, also kept out of the
// core's scope. internal/ipc provides the D-Bus implementation.
type Notifier interface {
	NotifyCapsLock(on bool)
	NotifyNumLock(on bool)
	NotifyAlternative(on bool)
}

// FatalFunc terminates the daemon with a diagnostic — an X server or
// XKB call that must succeed has failed. Supplied by main so tests can
// substitute a non-exiting stand-in.
type FatalFunc func(err error)

// Effector is the fire-and-forget side-effect boundary the interpreter
// and mode coordinator call into.
type Effector struct {
	x        XServer
	notifier Notifier
	log      *zap.SugaredLogger
	fatal    FatalFunc
}

// New builds an Effector. log may be nil, in which case log lines are
// dropped (useful in tests).
func New(x XServer, notifier Notifier, log *zap.SugaredLogger, fatal FatalFunc) *Effector {
	return &Effector{x: x, notifier: notifier, log: log, fatal: fatal}
}

// Press emits a key-down XTest event.
func (e *Effector) Press(code keymap.KeyCode) {
	if err := e.x.PressKey(code); err != nil {
		e.Noise("press %d failed: %v", code, err)
	}
}

// Release emits a key-up XTest event.
func (e *Effector) Release(code keymap.KeyCode) {
	if err := e.x.ReleaseKey(code); err != nil {
		e.Noise("release %d failed: %v", code, err)
	}
}

// PressRelease emits a key-down immediately followed by a key-up.
func (e *Effector) PressRelease(code keymap.KeyCode) {
	if err := e.x.PressRelease(code); err != nil {
		e.Noise("press-release %d failed: %v", code, err)
	}
}

// ChangeCapsLock toggles the CapsLock LED by press+release of its real
// key code.
func (e *Effector) ChangeCapsLock(code keymap.KeyCode) {
	e.Press(code)
	e.Release(code)
}

// NotifyAlternative forwards the Alternative mode state to the IPC layer
// and logs the transition as "alternative:on"/"alternative:off".
func (e *Effector) NotifyAlternative(on bool) {
	e.notifier.NotifyAlternative(on)
	if on {
		e.Noise("alternative:on")
	} else {
		e.Noise("alternative:off")
	}
}

// NotifyCapsLock emits the CapsLock indicator state to the IPC layer.
func (e *Effector) NotifyCapsLock(on bool) {
	e.notifier.NotifyCapsLock(on)
}

// NotifyNumLock emits the NumLock indicator state to the IPC layer.
func (e *Effector) NotifyNumLock(on bool) {
	e.notifier.NotifyNumLock(on)
}

// Noise logs a verbose diagnostic line; never fatal — a failed log or
// IPC emit shouldn't take the daemon down.
func (e *Effector) Noise(format string, args ...interface{}) {
	if e.log == nil {
		return
	}
	e.log.Debugf(format, args...)
}

// X exposes the underlying XServer for internal/mode, which needs
// XkbGetCurrentLayout/XkbSetGroup directly to implement layout reset.
func (e *Effector) X() XServer { return e.x }

// Fatal terminates the daemon with a diagnostic. Used when an XKB call
// that must succeed (xkb_set_group) fails.
func (e *Effector) Fatal(err error) {
	if e.log != nil {
		e.log.Errorw("fatal X/XKB failure", "error", err)
	}
	if e.fatal != nil {
		e.fatal(err)
	}
}
