//go:build !windows

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"

	"go.klb.dev/richclip/internal/backend"
	"go.klb.dev/richclip/internal/protocol"
)

const canDetach = true

// detach re-executes the binary as a detached clipboard holder and hands it
// the already-decoded payload, re-framed on its stdin. The child runs in a
// new session with stdio on /dev/null and / as working directory, so it
// neither holds the terminal open nor blocks filesystems from unmounting.
func detach(cfg backend.CopyConfig) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate own binary: %w", err)
	}

	// The terminal may go away before the child does.
	signal.Ignore(unix.SIGHUP)

	args := []string{"copy", "--foreground"}
	if cfg.UsePrimary {
		args = append(args, "--primary")
	}
	if cfg.ChunkSize > 0 {
		args = append(args, fmt.Sprintf("--chunk-size=%d", cfg.ChunkSize))
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	cmd := exec.Command(exe, args...)
	cmd.Dir = "/"
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("pipe to clipboard holder: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start clipboard holder: %w", err)
	}
	if err := protocol.EncodeBulk(stdin, cfg.Source); err != nil {
		stdin.Close()
		return fmt.Errorf("hand payload to clipboard holder: %w", err)
	}
	if err := stdin.Close(); err != nil {
		return fmt.Errorf("hand payload to clipboard holder: %w", err)
	}

	slog.Debug("clipboard holder detached", "pid", cmd.Process.Pid)
	// Not waited on. The child outlives us and is reparented to init.
	return nil
}
