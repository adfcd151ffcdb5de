// Package device enumerates and reads Linux evdev keyboard nodes
// (component G, the decoding half): the teacher's own connectEvents /
// keyboard() pair, generalized to feed a single decoded-event channel
// instead of dispatching straight into global handler tables.
package device

import (
	"fmt"
	"os"
	"regexp"

	evdev "github.com/gvalkov/golang-evdev"
	"go.uber.org/zap"
)

// Event is one decoded keyboard event: a raw evdev scancode and whether
// it is now held down. Auto-repeat (value 2) and every non-EV_KEY event
// are dropped by the reader before they ever reach this channel, the
// same filtering the teacher's keyboard() loop does inline.
type Event struct {
	Code    evdev.EvCode
	Pressed bool
}

// Reader owns one open keyboard input device and decodes its raw event
// stream onto a shared channel until the device disappears (unplugged,
// or the daemon is shutting down).
type Reader struct {
	dev *evdev.InputDevice
	out chan<- Event
	log *zap.SugaredLogger
}

// NewReader wraps an already-opened input device.
func NewReader(dev *evdev.InputDevice, out chan<- Event, log *zap.SugaredLogger) *Reader {
	return &Reader{dev: dev, out: out, log: log}
}

// Run decodes events until the device read fails (typically because the
// device node went away) or stop is closed. stop is checked before each
// read, so a Run blocked in a read returns only once that read completes.
func (r *Reader) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		ev, err := r.dev.ReadOne()
		if err != nil {
			if r.log != nil {
				r.log.Infow("closing keyboard device", "device", r.dev.Name, "error", err)
			}
			return
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		switch ev.Value {
		case 0:
			r.out <- Event{Code: ev.Code, Pressed: false}
		case 1:
			r.out <- Event{Code: ev.Code, Pressed: true}
		// case 2 is auto-repeat; the daemon only cares about physical
		// press/release transitions, so it's dropped here.
		default:
		}
	}
}

// FindKeyboards enumerates /dev/input devices whose name does not match
// exclude and whose capabilities include EV_KEY but not EV_ABS/EV_REL
// (so mice and touchpads, which also report EV_KEY for their buttons,
// are skipped) — the same two-pass classification the teacher's
// connectEvents does, generalized from its single keyboard-or-mouse
// split into an explicit exclude pattern.
func FindKeyboards(exclude *regexp.Regexp) ([]*evdev.InputDevice, error) {
	devices, err := evdev.ListInputDevices()
	if err != nil {
		return nil, fmt.Errorf("device: listing input devices: %w", err)
	}

	var keyboards []*evdev.InputDevice
	for _, dev := range devices {
		if exclude != nil && exclude.MatchString(dev.Name) {
			continue
		}
		isPointer := false
		isKeyboard := false
		for evType := range dev.Capabilities {
			switch evType.Type {
			case evdev.EV_ABS, evdev.EV_REL:
				isPointer = true
			case evdev.EV_KEY:
				isKeyboard = true
			}
		}
		if isKeyboard && !isPointer {
			keyboards = append(keyboards, dev)
		}
	}
	return keyboards, nil
}

// OpenFDPath opens a device directly by file descriptor path, bypassing
// enumeration — used by the --device-fd-path override, useful when
// /dev/input/eventN is itself a symlink managed externally.
func OpenFDPath(path string) (*evdev.InputDevice, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("device: %s: %w", path, err)
	}
	return evdev.Open(path)
}
