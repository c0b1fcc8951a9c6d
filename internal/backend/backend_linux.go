//go:build linux

package backend

import (
	"fmt"
	"os"
)

// New picks the engine for the current session: Wayland when
// WAYLAND_DISPLAY is set, X11 when DISPLAY is set. The choice is made once
// and never re-evaluated.
func New() (Backend, error) {
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return &waylandBackend{}, nil
	}
	if os.Getenv("DISPLAY") != "" {
		return &x11Backend{}, nil
	}
	return nil, fmt.Errorf("%w: neither WAYLAND_DISPLAY nor DISPLAY is set", ErrNoDisplay)
}
