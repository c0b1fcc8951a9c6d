// Package logging configures the global slog logger for the richclip CLI.
//
// On an interactive terminal logs go through tinter for readable colored
// output; otherwise (piped stderr, or the backgrounded copy holder whose
// stderr lands in a file) they are emitted as JSON lines.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pwntr/tinter"
)

// Setup configures the global slog logger. Call once after flag parsing.
//
// format is one of "auto", "text", "json" ("auto" picks text on a tty).
// level is parsed by slog (debug|info|warn|error); an empty or unknown
// value falls back to info.
func Setup(format, level string) {
	w := os.Stderr

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	useTint := false
	switch strings.ToLower(format) {
	case "text", "tint", "human":
		useTint = true
	case "json":
	default: // auto
		useTint = IsTTY(w)
	}

	var h slog.Handler
	if useTint {
		h = tinter.NewHandler(w, &tinter.Options{
			Level:      lvl,
			TimeFormat: "15:04:05.000",
		})
	} else {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(h))
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}
