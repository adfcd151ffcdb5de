// Package cli parses the daemon's command line, the way the teacher's
// own config() builds a pflag.FlagSet, minus the TOML config file: this
// daemon's whole policy fits in flags.
package cli

import (
	pflag "github.com/spf13/pflag"

	"github.com/mervick/xlib-keys-hack/internal/interp"
)

// Options is everything the CLI can set, plus the positional device
// paths.
type Options struct {
	Verbose bool

	RealCapsLock                     bool
	NoAlternativeMode                bool
	NoAdditionalControls              bool
	DisableResetByEscapeOnCapsLock   bool
	DisableResetByWindowFocusEvent   bool

	DisableXinputDeviceName []string
	DisableXinputDeviceID   []string

	DeviceFDPath string
	XmobarPipe   string

	DevicePaths []string
}

// Parse parses args (normally os.Args[1:]) into Options.
func Parse(args []string) (Options, error) {
	var opt Options

	fs := pflag.NewFlagSet("xlib-keys-hack", pflag.ContinueOnError)
	fs.BoolVarP(&opt.Verbose, "verbose", "v", false, "Increase log verbosity")
	fs.BoolVar(&opt.RealCapsLock, "real-capslock", false, "Keep Caps Lock as Caps Lock instead of remapping it to Escape")
	fs.BoolVar(&opt.NoAlternativeMode, "no-alternative-mode", false, "Disable the third-level Alternative mode remap layer")
	fs.BoolVar(&opt.NoAdditionalControls, "no-additional-controls", false, "Disable Caps Lock/Enter-as-Control chording")
	fs.BoolVar(&opt.DisableResetByEscapeOnCapsLock, "disable-reset-by-escape-on-capslock", false, "Do not reset held keys/layout when a tapped Caps Lock emits Escape")
	fs.BoolVar(&opt.DisableResetByWindowFocusEvent, "disable-reset-by-window-focus-event", false, "Do not reset held keys/layout on window focus change")
	fs.StringArrayVar(&opt.DisableXinputDeviceName, "disable-xinput-device-name", nil, "Disable an X input device by name at startup (repeatable)")
	fs.StringArrayVar(&opt.DisableXinputDeviceID, "disable-xinput-device-id", nil, "Disable an X input device by id at startup (repeatable)")
	fs.StringVar(&opt.DeviceFDPath, "device-fd-path", "", "Read exactly one keyboard device from this path instead of enumerating /dev/input")
	fs.StringVar(&opt.XmobarPipe, "xmobar-pipe", "", "Write indicator notifications to this xmobar named pipe")

	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	opt.DevicePaths = fs.Args()
	return opt, nil
}

// Config maps the parsed Options onto the event interpreter's policy.
// --real-capslock forces ResetByEscapeOnCapsLock off, since there's no
// remapped Escape tap left to reset on.
func (o Options) Config() interp.Config {
	cfg := interp.DefaultConfig()
	cfg.RealCapsLock = o.RealCapsLock
	cfg.AlternativeMode = !o.NoAlternativeMode
	cfg.AdditionalControls = !o.NoAdditionalControls
	cfg.ResetByEscapeOnCapsLock = !o.DisableResetByEscapeOnCapsLock && !o.RealCapsLock
	cfg.ResetByWindowFocusEvent = !o.DisableResetByWindowFocusEvent
	return cfg
}
