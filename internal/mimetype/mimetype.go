// Package mimetype picks the representation to transfer when the two sides
// of a clipboard exchange name their types differently.
//
// X11 consumers ask for targets like UTF8_STRING or TEXT, Wayland consumers
// for MIME strings like text/plain;charset=utf-8, and producers may tag
// content with anything in between. Decide maps a consumer's preference onto
// the offered list with a fixed priority policy rather than first-seen
// order, so that a text-ish request lands on the most precise text
// representation available.
package mimetype

import (
	"errors"
	"strings"
)

// ErrNoMatch is returned when no offered type satisfies the preference.
var ErrNoMatch = errors.New("no mime-type matches")

// Canonical plain-text type names, highest priority first.
var textTypeExact = []string{
	"text/plain;charset=utf-8",
	"text/plain",
	"TEXT",
	"STRING",
	"UTF8_STRING",
	"json",
	"CF_TEXT",
	"CF_UNICODETEXT",
}

// Suffixes that mark a type as text-like even when it is not a text/* type
// (application/postscript, application/x-yaml, ...).
var textTypeSuffix = []string{"script", "xml", "yaml", "csv", "ini"}

// Decide returns the entry of supported that best matches preferred.
//
// An empty preferred value, or one equal (case-insensitively) to "text" or
// "UTF8_STRING", is a generic text request: the canonical text names are
// tried in priority order, then the suffix heuristics, then any type
// starting with "text/". Any other preferred value must match an entry
// case-insensitively, with no fallback. The matched entry is returned with
// its original casing.
func Decide(preferred string, supported []string) (string, error) {
	if isGenericText(preferred) {
		if t, ok := anyText(supported); ok {
			return t, nil
		}
	} else {
		for _, t := range supported {
			if strings.EqualFold(t, preferred) {
				return t, nil
			}
		}
	}
	return "", ErrNoMatch
}

func isGenericText(preferred string) bool {
	return preferred == "" ||
		strings.EqualFold(preferred, "text") ||
		strings.EqualFold(preferred, "UTF8_STRING")
}

func anyText(supported []string) (string, bool) {
	for _, want := range textTypeExact {
		for _, t := range supported {
			if strings.EqualFold(t, want) {
				return t, true
			}
		}
	}
	for _, suffix := range textTypeSuffix {
		for _, t := range supported {
			if strings.HasSuffix(strings.ToLower(t), suffix) {
				return t, true
			}
		}
	}
	for _, t := range supported {
		if strings.HasPrefix(strings.ToLower(t), "text/") {
			return t, true
		}
	}
	return "", false
}
