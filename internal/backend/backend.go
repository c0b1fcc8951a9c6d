// Package backend drives the native clipboard of the running desktop.
//
// On Linux it speaks the display-server wire protocols directly: the X11
// selection-ownership protocol (including INCR chunked transfers) over an
// xgb connection, or the wlr-data-control Wayland extension through
// libwayland-client. On macOS and Windows it calls the single-shot system
// pasteboard APIs. The backend is chosen once per process by New.
package backend

import (
	"errors"
	"io"

	"go.klb.dev/richclip/internal/protocol"
)

// ErrNoDisplay is returned by New when no usable display server is
// detected in the environment.
var ErrNoDisplay = errors.New("no usable display server detected")

// CopyConfig parameterises one copy invocation. Source is owned by the
// backend for the duration of the call and must not be mutated while the
// backend serves it to consumers.
type CopyConfig struct {
	Source     protocol.SourceData
	UsePrimary bool

	// ChunkSize overrides the X11 INCR chunk threshold and chunk size.
	// Zero derives it from the connection's maximum request size. Only
	// used by tests.
	ChunkSize int
}

// PasteConfig parameterises one paste invocation.
type PasteConfig struct {
	// ListTypesOnly emits the offered type names, one per line, instead
	// of any content.
	ListTypesOnly bool
	UsePrimary    bool
	// Preferred is the requested MIME type; empty means "any text".
	Preferred string
	Out       io.Writer
}

// Backend is the uniform copy/paste contract over the per-platform engines.
//
// Copy blocks for as long as the payload is being served: on X11 and
// Wayland it returns only when selection ownership is lost (which is the
// normal end of life for a clipboard holder, not an error). Paste returns
// once the chosen representation has been written to Out; an empty
// clipboard completes successfully with no output.
type Backend interface {
	Name() string
	Copy(cfg CopyConfig) error
	Paste(cfg PasteConfig) error
}
