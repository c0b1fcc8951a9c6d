package mimetype

import (
	"errors"
	"testing"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		preferred string
		supported []string
		want      string
		wantErr   bool
	}{
		{
			name:      "generic picks canonical over offer order",
			preferred: "",
			supported: []string{"image/png", "text/plain", "text/plain;charset=utf-8"},
			want:      "text/plain;charset=utf-8",
		},
		{
			name:      "generic with nothing textual",
			preferred: "",
			supported: []string{"image/webp", "video/x-flv"},
			wantErr:   true,
		},
		{
			name:      "generic falls back to suffix heuristic",
			preferred: "",
			supported: []string{"image/webp", "application/postscript"},
			want:      "application/postscript",
		},
		{
			name:      "text keyword is generic",
			preferred: "text",
			supported: []string{"TEXT", "text/plain;charset=utf-8"},
			want:      "text/plain;charset=utf-8",
		},
		{
			name:      "UTF8_STRING is generic",
			preferred: "UTF8_STRING",
			supported: []string{"STRING"},
			want:      "STRING",
		},
		{
			name:      "generic yaml suffix",
			preferred: "",
			supported: []string{"application/octet-stream", "application/x-yaml"},
			want:      "application/x-yaml",
		},
		{
			name:      "generic text/ prefix last resort",
			preferred: "",
			supported: []string{"text/x-unheard-of"},
			want:      "text/x-unheard-of",
		},
		{
			name:      "exact match",
			preferred: "text/html",
			supported: []string{"text/plain", "text/html"},
			want:      "text/html",
		},
		{
			name:      "exact match is case-insensitive, casing preserved",
			preferred: "TEXT/HTML",
			supported: []string{"text/Html"},
			want:      "text/Html",
		},
		{
			name:      "specific request never falls back",
			preferred: "image/png",
			supported: []string{"image/jpeg", "text/plain"},
			wantErr:   true,
		},
		{
			name:      "empty supported list",
			preferred: "text/plain",
			supported: nil,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decide(tt.preferred, tt.supported)
			if tt.wantErr {
				if !errors.Is(err, ErrNoMatch) {
					t.Fatalf("Decide() error = %v, want ErrNoMatch", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decide() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Decide(%q, %v) = %q, want %q", tt.preferred, tt.supported, got, tt.want)
			}
		})
	}
}
