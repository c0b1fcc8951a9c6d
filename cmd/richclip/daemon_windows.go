//go:build windows

package main

import "go.klb.dev/richclip/internal/backend"

// The Windows pasteboard call is single-shot; there is nothing to keep
// alive, so copy always runs in the foreground.
const canDetach = false

func detach(backend.CopyConfig) error { return nil }
