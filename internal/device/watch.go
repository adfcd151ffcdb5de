package device

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// eventNodePattern matches the /dev/input/eventN nodes udev creates for
// newly attached input devices.
var eventNodePattern = regexp.MustCompile(`^event[0-9]+$`)

// Watcher notices new /dev/input/eventN nodes as they appear, so a
// keyboard plugged in after the daemon starts gets picked up without a
// restart. The teacher's own go.mod already pulls in fsnotify for this
// purpose but never wires a watcher up; this is that watcher.
type Watcher struct {
	fsw *fsnotify.Watcher
	log *zap.SugaredLogger
}

// NewWatcher starts watching dir (typically /dev/input) for newly
// created device nodes.
func NewWatcher(dir string, log *zap.SugaredLogger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{fsw: fsw, log: log}, nil
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run emits the full path of every new eventN node onto added until stop
// is closed, then closes added.
func (w *Watcher) Run(stop <-chan struct{}, added chan<- string) {
	defer close(added)
	for {
		select {
		case <-stop:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if !eventNodePattern.MatchString(name) {
				continue
			}
			select {
			case added <- ev.Name:
			case <-stop:
				return
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.log != nil {
				w.log.Warnw("device hotplug watch error", "error", err)
			}
		}
	}
}

// IsKeyboardNode reports whether path looks like an evdev eventN node
// under an input directory. It looks at the path only; it does not open
// the node or check its capabilities.
func IsKeyboardNode(path string) bool {
	return strings.Contains(path, "/input/") && eventNodePattern.MatchString(filepath.Base(path))
}
