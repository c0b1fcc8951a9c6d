//go:build !linux && !darwin && !windows

package backend

import "fmt"

// New fails on platforms without a supported clipboard.
func New() (Backend, error) {
	return nil, fmt.Errorf("%w: unsupported platform", ErrNoDisplay)
}
