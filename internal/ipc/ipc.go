// Package ipc is the daemon's status-bar notification boundary
// (component H): a D-Bus signal emitter implementing effector.Notifier,
// grounded on the one pack example that drives D-Bus (p-e-w-shin, whose
// ibus engine is itself plumbed entirely over a *dbus.Conn), plus a
// plain xmobar named-pipe writer for setups that read indicator state
// from a FIFO instead of the session bus.
package ipc

import (
	"fmt"
	"os"
	"sync"
	"syscall"

	"github.com/godbus/dbus"
	"go.uber.org/zap"
)

const (
	// busName and objectPath identify the daemon on the session bus.
	busName    = "org.xlib_keys_hack.Daemon"
	objectPath = "/org/xlib_keys_hack/Daemon"

	signalInterface = "org.xlib_keys_hack.Daemon"

	// RequestFlushAll is the inbound signal name a status bar (or any
	// other session-bus peer) can send to ask the daemon to republish
	// its current indicator state, e.g. after the bar itself restarts.
	RequestFlushAll = "request_flush_all"
)

// Notifier emits indicator-state signals on the session bus and listens
// for RequestFlushAll.
type Notifier struct {
	conn *dbus.Conn
	log  *zap.SugaredLogger
}

// New connects to the session bus and requests busName.
func New(log *zap.SugaredLogger) (*Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("ipc: connecting to session bus: %w", err)
	}
	reply, err := conn.RequestName(busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, fmt.Errorf("ipc: requesting bus name %s: %w", busName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return nil, fmt.Errorf("ipc: bus name %s already owned", busName)
	}
	return &Notifier{conn: conn, log: log}, nil
}

// Close releases the session bus connection.
func (n *Notifier) Close() error {
	return n.conn.Close()
}

func (n *Notifier) emit(signal string, on bool) {
	err := n.conn.Emit(dbus.ObjectPath(objectPath), signalInterface+"."+signal, on)
	if err != nil && n.log != nil {
		n.log.Debugw("dbus emit failed", "signal", signal, "error", err)
	}
}

// NotifyCapsLock emits the "capslock" signal.
func (n *Notifier) NotifyCapsLock(on bool) { n.emit("capslock", on) }

// NotifyNumLock emits the "numlock" signal.
func (n *Notifier) NotifyNumLock(on bool) { n.emit("numlock", on) }

// NotifyAlternative emits the "alternative" signal.
func (n *Notifier) NotifyAlternative(on bool) { n.emit("alternative", on) }

// FlushAllFunc republishes every current indicator, called when a
// request_flush_all signal arrives.
type FlushAllFunc func()

// ListenRequestFlushAll subscribes to RequestFlushAll and invokes flush
// for every matching signal received, until stop is closed. Run it in
// its own goroutine.
func (n *Notifier) ListenRequestFlushAll(stop <-chan struct{}, flush FlushAllFunc) error {
	matchRule := fmt.Sprintf("type='signal',interface='%s',member='%s'", signalInterface, RequestFlushAll)
	if err := n.conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchRule).Err; err != nil {
		return fmt.Errorf("ipc: subscribing to %s: %w", RequestFlushAll, err)
	}

	signals := make(chan *dbus.Signal, 8)
	n.conn.Signal(signals)
	defer n.conn.RemoveSignal(signals)

	for {
		select {
		case <-stop:
			return nil
		case sig, ok := <-signals:
			if !ok {
				return nil
			}
			if sig.Name == signalInterface+"."+RequestFlushAll {
				flush()
			}
		}
	}
}

// PipeWriter writes indicator-state lines to an xmobar named pipe, the
// way xmobar's own PipeReader plugin expects: one "<box>: <text>" line
// per update, non-blocking so a bar that isn't reading yet never stalls
// the event pipeline.
type PipeWriter struct {
	mu   sync.Mutex
	path string
	log  *zap.SugaredLogger
}

// NewPipeWriter targets the given FIFO path. The pipe is opened lazily
// on each write, in O_NONBLOCK mode, so the daemon never blocks
// waiting for a reader to attach.
func NewPipeWriter(path string, log *zap.SugaredLogger) *PipeWriter {
	return &PipeWriter{path: path, log: log}
}

func (p *PipeWriter) write(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := os.OpenFile(p.path, os.O_WRONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		if p.log != nil {
			p.log.Debugw("xmobar pipe write failed", "path", p.path, "error", err)
		}
		return
	}
	defer f.Close()
	fmt.Fprintln(f, line)
}

// NotifyCapsLock writes the capslock line.
func (p *PipeWriter) NotifyCapsLock(on bool) { p.write(fmt.Sprintf("capslock: %s", onOff(on))) }

// NotifyNumLock writes the numlock line.
func (p *PipeWriter) NotifyNumLock(on bool) { p.write(fmt.Sprintf("numlock: %s", onOff(on))) }

// NotifyAlternative writes the alternative line.
func (p *PipeWriter) NotifyAlternative(on bool) { p.write(fmt.Sprintf("alternative: %s", onOff(on))) }

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// MultiNotifier fans a single notification out to several notifiers
// (e.g. D-Bus plus the xmobar pipe). main builds one only when
// --xmobar-pipe is set; otherwise the D-Bus notifier is used alone.
type MultiNotifier []interface {
	NotifyCapsLock(bool)
	NotifyNumLock(bool)
	NotifyAlternative(bool)
}

func (m MultiNotifier) NotifyCapsLock(on bool) {
	for _, n := range m {
		n.NotifyCapsLock(on)
	}
}

func (m MultiNotifier) NotifyNumLock(on bool) {
	for _, n := range m {
		n.NotifyNumLock(on)
	}
}

func (m MultiNotifier) NotifyAlternative(on bool) {
	for _, n := range m {
		n.NotifyAlternative(on)
	}
}
