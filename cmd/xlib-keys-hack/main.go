// Command xlib-keys-hack is a low-level X11 keyboard remapping daemon:
// it reads raw evdev key events, classifies them against a layered
// remap policy, and synthesizes the result back at X via XTest, while
// driving Caps Lock/NumLock indicators and keyboard-layout resets
// through the X server's XKB extension. Wiring here follows
// miketth-hyprboard's own main(): a zap logger built up front, a context
// cancelled by signal.NotifyContext, and an errChan fan-in that lets any
// goroutine end the daemon.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"sync"
	"syscall"

	evdev "github.com/gvalkov/golang-evdev"
	"go.uber.org/zap"

	"github.com/mervick/xlib-keys-hack/internal/cli"
	"github.com/mervick/xlib-keys-hack/internal/device"
	"github.com/mervick/xlib-keys-hack/internal/effector"
	"github.com/mervick/xlib-keys-hack/internal/interp"
	"github.com/mervick/xlib-keys-hack/internal/ipc"
	"github.com/mervick/xlib-keys-hack/internal/keymap"
	xlog "github.com/mervick/xlib-keys-hack/internal/log"
	"github.com/mervick/xlib-keys-hack/internal/mode"
	"github.com/mervick/xlib-keys-hack/internal/state"
	"github.com/mervick/xlib-keys-hack/internal/xinput"
	"github.com/mervick/xlib-keys-hack/internal/xserver"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "xlib-keys-hack: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opt, err := cli.Parse(os.Args[1:])
	if err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}

	logger, err := xlog.New(opt.Verbose)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	x, err := xserver.Open("")
	if err != nil {
		return fmt.Errorf("opening X display: %w", err)
	}
	defer x.Close()

	for _, name := range opt.DisableXinputDeviceName {
		if err := xinput.DisableByName(name); err != nil {
			logger.Warnw("disabling xinput device by name failed", "name", name, "error", err)
		}
	}
	for _, id := range opt.DisableXinputDeviceID {
		if err := xinput.DisableByID(id); err != nil {
			logger.Warnw("disabling xinput device by id failed", "id", id, "error", err)
		}
	}

	notifier, err := buildNotifier(opt, logger)
	if err != nil {
		return fmt.Errorf("building notifier: %w", err)
	}
	if dbusNotifier, ok := notifier.(*ipc.Notifier); ok {
		defer dbusNotifier.Close()
	}

	km := keymap.New()

	capsLock, numLock, err := x.GetLEDs()
	if err != nil {
		return fmt.Errorf("sampling initial LED state: %w", err)
	}
	st := state.New(state.LEDs{CapsLock: capsLock, NumLock: numLock})

	errChan := make(chan error, 8)
	fatal := func(err error) { errChan <- err }

	eff := effector.New(x, notifier, logger, fatal)
	coord := mode.New(eff, km)
	cfg := opt.Config()
	ip := interp.New(km, st, eff, coord, cfg, logger)

	devices, err := openDevices(opt)
	if err != nil {
		return fmt.Errorf("opening keyboard devices: %w", err)
	}
	if len(devices) == 0 {
		return fmt.Errorf("no keyboard devices found")
	}

	var wg sync.WaitGroup
	events := make(chan device.Event, 64)

	readerStop := make(chan struct{})
	for _, dev := range devices {
		reader := device.NewReader(dev, events, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			reader.Run(readerStop)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		dispatchEvents(ctx, events, km, ip)
	}()

	if hotplugWatcher, err := device.NewWatcher("/dev/input", logger); err != nil {
		logger.Warnw("device hotplug watch disabled", "error", err)
	} else {
		added := make(chan string, 8)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer hotplugWatcher.Close()
			hotplugWatcher.Run(readerStop, added)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			watchHotplug(readerStop, &wg, added, events, logger)
		}()
	}

	if n, ok := notifier.(*ipc.Notifier); ok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			flush := func() {
				st.Lock()
				snap := st.Snapshot()
				st.Unlock()
				n.NotifyCapsLock(snap.LEDs.CapsLock)
				n.NotifyNumLock(snap.LEDs.NumLock)
				n.NotifyAlternative(snap.Alternative)
			}
			if err := n.ListenRequestFlushAll(ctx.Done(), flush); err != nil {
				errChan <- fmt.Errorf("dbus listener: %w", err)
			}
		}()
	}

	logger.Infow("xlib-keys-hack started", "devices", len(devices))

	var fatalErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errChan:
		if err != nil {
			logger.Errorw("fatal error", "error", err)
			fatalErr = err
		}
		stop()
	}

	close(readerStop)
	wg.Wait()
	return fatalErr
}

// buildNotifier wires the D-Bus notifier plus, when --xmobar-pipe is
// set, an xmobar pipe writer fanned out alongside it via
// ipc.MultiNotifier.
func buildNotifier(opt cli.Options, logger *zap.SugaredLogger) (effector.Notifier, error) {
	dbusNotifier, err := ipc.New(logger)
	if err != nil {
		return nil, err
	}
	if opt.XmobarPipe == "" {
		return dbusNotifier, nil
	}
	pipe := ipc.NewPipeWriter(opt.XmobarPipe, logger)
	return ipc.MultiNotifier{dbusNotifier, pipe}, nil
}

func openDevices(opt cli.Options) ([]*evdev.InputDevice, error) {
	if opt.DeviceFDPath != "" {
		dev, err := device.OpenFDPath(opt.DeviceFDPath)
		if err != nil {
			return nil, err
		}
		return []*evdev.InputDevice{dev}, nil
	}
	if len(opt.DevicePaths) > 0 {
		devices := make([]*evdev.InputDevice, 0, len(opt.DevicePaths))
		for _, path := range opt.DevicePaths {
			dev, err := device.OpenFDPath(path)
			if err != nil {
				return nil, err
			}
			devices = append(devices, dev)
		}
		return devices, nil
	}
	return device.FindKeyboards(regexp.MustCompile(`(?i)mouse|touchpad|trackpoint`))
}

// watchHotplug opens and starts reading every new /dev/input/eventN node
// device.Watcher reports, skipping only devices whose name matches the
// same exclusion pattern FindKeyboards uses at startup. The capability
// check FindKeyboards also applies is not run here.
func watchHotplug(stop <-chan struct{}, wg *sync.WaitGroup, added <-chan string, events chan<- device.Event, logger *zap.SugaredLogger) {
	exclude := regexp.MustCompile(`(?i)mouse|touchpad|trackpoint`)
	for path := range added {
		dev, err := device.OpenFDPath(path)
		if err != nil {
			logger.Warnw("opening hotplugged device failed", "path", path, "error", err)
			continue
		}
		if exclude.MatchString(dev.Name) {
			continue
		}
		logger.Infow("keyboard hotplugged", "path", path, "name", dev.Name)
		reader := device.NewReader(dev, events, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			reader.Run(stop)
		}()
	}
}

func dispatchEvents(ctx context.Context, events <-chan device.Event, km *keymap.Keymap, ip *interp.Interpreter) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			name, code, ok := km.AliasOf(ev.Code)
			if !ok {
				continue
			}
			ip.HandleEvent(name, code, ev.Pressed)
		}
	}
}
