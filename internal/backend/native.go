//go:build darwin || windows

package backend

import (
	"fmt"
	"runtime"
	"strings"

	"golang.design/x/clipboard"

	"go.klb.dev/richclip/internal/mimetype"
)

// nativeBackend bridges to the OS pasteboard through golang.design/x/clipboard.
// The OS API is single-shot (no ownership loop, no streaming), so both
// directions complete immediately; only text and PNG images survive the
// crossing.
type nativeBackend struct{}

func newNativeBackend() (Backend, error) {
	if err := clipboard.Init(); err != nil {
		return nil, fmt.Errorf("pasteboard init: %w", err)
	}
	return &nativeBackend{}, nil
}

func (*nativeBackend) Name() string { return runtime.GOOS + " pasteboard" }

// Type names the pasteboard bridge reports for its two formats.
const (
	nativeTextType  = "text/plain;charset=utf-8"
	nativeImageType = "image/png"
)

func (b *nativeBackend) Copy(cfg CopyConfig) error {
	wrote := false
	if t, err := mimetype.Decide("", cfg.Source.Types()); err == nil {
		if content, ok := cfg.Source.ContentByType(t); ok {
			clipboard.Write(clipboard.FmtText, content)
			wrote = true
		}
	}
	for _, t := range cfg.Source.Types() {
		if strings.EqualFold(t, nativeImageType) {
			if content, ok := cfg.Source.ContentByType(t); ok {
				clipboard.Write(clipboard.FmtImage, content)
				wrote = true
			}
		}
	}
	if !wrote {
		return fmt.Errorf("no payload type is representable on the %s pasteboard", runtime.GOOS)
	}
	return nil
}

func (b *nativeBackend) Paste(cfg PasteConfig) error {
	var (
		types    []string
		contents [][]byte
	)
	if text := clipboard.Read(clipboard.FmtText); text != nil {
		types = append(types, nativeTextType)
		contents = append(contents, text)
	}
	if img := clipboard.Read(clipboard.FmtImage); img != nil {
		types = append(types, nativeImageType)
		contents = append(contents, img)
	}

	if cfg.ListTypesOnly {
		for _, t := range types {
			if _, err := fmt.Fprintln(cfg.Out, t); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}
		return nil
	}
	if len(types) == 0 {
		// Empty pasteboard: success with no output.
		return nil
	}

	chosen, err := mimetype.Decide(cfg.Preferred, types)
	if err != nil {
		return fmt.Errorf("decide paste type: %w", err)
	}
	for i, t := range types {
		if t == chosen {
			if _, err := cfg.Out.Write(contents[i]); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			return nil
		}
	}
	return nil
}
