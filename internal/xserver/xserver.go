// Package xserver is the one concrete, cgo-backed implementation of
// effector.XServer this daemon ships with: XTest key synthesis plus
// XKB group/LED queries, bound directly against Xlib the way the
// teacher's own cgo preamble does (component F of the design).
package xserver

// #cgo LDFLAGS: -lX11 -lXtst
// #include <stdlib.h>
// #include <X11/Xlib.h>
// #include <X11/XKBlib.h>
// #include <X11/extensions/XTest.h>
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/mervick/xlib-keys-hack/internal/keymap"
)

// XServer is the cgo-backed Xlib/XTest/XKB binding. A single *C.Display
// is opened once and reused for the daemon's lifetime; Xlib is not
// thread-safe across unsynchronized goroutines so every call serializes
// on mu.
type XServer struct {
	mu      sync.Mutex
	display *C.Display
}

// Open opens the X display named by name (empty string means $DISPLAY)
// and verifies the XKB extension is present, the way the teacher's own
// serve() does via XkbOpenDisplay before it ever starts reading evdev.
func Open(name string) (*XServer, error) {
	display, err := openDisplay(name)
	if err != nil {
		return nil, err
	}
	return &XServer{display: display}, nil
}

func openDisplay(name string) (*C.Display, error) {
	var cname *C.char
	if name != "" {
		cname = C.CString(name)
		defer C.free(unsafe.Pointer(cname))
	}

	var xkbEventType, xkbError, xkbReason C.int
	majorVers := C.int(C.XkbMajorVersion)
	minorVers := C.int(C.XkbMinorVersion)

	display := C.XkbOpenDisplay(cname, &xkbEventType, &xkbError, &majorVers, &minorVers, &xkbReason)
	if display == nil {
		switch xkbReason {
		case C.XkbOD_BadServerVersion, C.XkbOD_BadLibraryVersion:
			return nil, fmt.Errorf("xserver: incompatible XKB client/server versions")
		case C.XkbOD_ConnectionRefused:
			return nil, fmt.Errorf("xserver: connection to X server refused")
		case C.XkbOD_NonXkbServer:
			return nil, fmt.Errorf("xserver: XKB extension not present")
		default:
			return nil, fmt.Errorf("xserver: XkbOpenDisplay failed: reason %d", int(xkbReason))
		}
	}
	return display, nil
}

// Close releases the X display connection.
func (x *XServer) Close() {
	x.mu.Lock()
	defer x.mu.Unlock()
	C.XCloseDisplay(x.display)
}

// PressKey synthesizes an XTest key-down for code.
func (x *XServer) PressKey(code keymap.KeyCode) error {
	return x.fakeKeyEvent(code, true)
}

// ReleaseKey synthesizes an XTest key-up for code.
func (x *XServer) ReleaseKey(code keymap.KeyCode) error {
	return x.fakeKeyEvent(code, false)
}

// PressRelease synthesizes a key-down immediately followed by a key-up.
func (x *XServer) PressRelease(code keymap.KeyCode) error {
	if err := x.fakeKeyEvent(code, true); err != nil {
		return err
	}
	return x.fakeKeyEvent(code, false)
}

// FakeKeyEvent synthesizes a single XTest key event.
func (x *XServer) FakeKeyEvent(code keymap.KeyCode, isPress bool) error {
	return x.fakeKeyEvent(code, isPress)
}

func (x *XServer) fakeKeyEvent(code keymap.KeyCode, isPress bool) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	var isDown C.Bool
	if isPress {
		isDown = 1
	}
	ok := C.XTestFakeKeyEvent(x.display, C.uint(code), isDown, 0)
	if ok == 0 {
		return fmt.Errorf("xserver: XTestFakeKeyEvent(%d, %v) failed", code, isPress)
	}
	C.XFlush(x.display)
	return nil
}

// GetLEDs samples the current CapsLock and NumLock indicator state via
// XkbGetState, the same call the teacher's getXModifiers uses (mods mask
// 2, LockMask, is CapsLock; mask 16, Mod2Mask, is NumLock).
func (x *XServer) GetLEDs() (capsLock, numLock bool, err error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	var state C.XkbStateRec
	if C.XkbGetState(x.display, C.XkbUseCoreKbd, &state) != 0 {
		return false, false, fmt.Errorf("xserver: XkbGetState failed")
	}
	mods := uint32(state.mods)
	return mods&2 != 0, mods&16 != 0, nil
}

// XkbGetCurrentLayout returns the active keyboard group/layout index.
func (x *XServer) XkbGetCurrentLayout() (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	var state C.XkbStateRec
	if C.XkbGetState(x.display, C.XkbUseCoreKbd, &state) != 0 {
		return 0, fmt.Errorf("xserver: XkbGetState failed")
	}
	return int(state.group), nil
}

// ActiveWindow returns the X window ID currently holding input focus,
// via XGetInputFocus — the same call the teacher's own getActiveWindowId
// uses to detect focus changes on every keyboard event.
func (x *XServer) ActiveWindow() (uint32, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	var window C.Window
	var revertTo C.int
	if C.XGetInputFocus(x.display, &window, &revertTo) == 0 {
		return 0, fmt.Errorf("xserver: XGetInputFocus failed")
	}
	return uint32(window), nil
}

// XkbSetGroup locks the keyboard to the given group/layout index (used
// by the mode coordinator's layout reset).
func (x *XServer) XkbSetGroup(group int) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	result := C.XkbLockGroup(x.display, C.XkbUseCoreKbd, C.uint(group))
	if result == 0 {
		return fmt.Errorf("xserver: XkbLockGroup(%d) failed", group)
	}
	C.XFlush(x.display)
	return nil
}
