// Package xinput runs the "xinput --disable" CLI tool against devices
// named by --disable-xinput-device-name/--disable-xinput-device-id, so
// the X server stops also processing a raw device this daemon is about
// to take over via evdev. It adapts the teacher's own exec.ExecCommand
// pattern — process-group kill via SysProcAttr after a timeout — down to
// the one-shot, no-stdin invocation this needs.
package xinput

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// Timeout bounds how long a single "xinput --disable" invocation may
// run before it is killed, the way the teacher's exec package bounds
// long-running children.
const Timeout = 5 * time.Second

// DisableByName runs "xinput disable <name>".
func DisableByName(name string) error {
	return run("--name", name)
}

// DisableByID runs "xinput disable <id>".
func DisableByID(id string) error {
	return run("--id", id)
}

func run(kind, target string) error {
	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "xinput", "disable", target)
	// Run in its own process group so a timeout kill takes any
	// grandchildren with it (same rationale as exec.ExecCommand's
	// SysProcAttr.Setpgid).
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
			return fmt.Errorf("xinput: disabling device %s=%q timed out", kind, target)
		}
		return fmt.Errorf("xinput: disabling device %s=%q: %w: %s", kind, target, err, stderr.String())
	}
	return nil
}
