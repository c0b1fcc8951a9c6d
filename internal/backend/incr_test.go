package backend

import (
	"bytes"
	"testing"
)

func TestTransferCursor(t *testing.T) {
	tests := []struct {
		name      string
		content   []byte
		chunkSize int
		wantSends int // data chunks, excluding the empty terminator
	}{
		{"exact multiple", bytes.Repeat([]byte{'a'}, 12), 4, 3},
		{"remainder chunk", bytes.Repeat([]byte{'b'}, 10), 4, 3},
		{"single chunk", []byte("small"), 100, 1},
		{"chunk size one", []byte("abc"), 1, 3},
		{"empty content", nil, 4, 0},
		{"chunk size clamped to one", []byte("xy"), 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTransferCursor(tt.content, tt.chunkSize)
			minChunk := tt.chunkSize
			if minChunk < 1 {
				minChunk = 1
			}

			var got []byte
			sends := 0
			for {
				chunk := c.next()
				if chunk == nil {
					t.Fatal("cursor returned nil before the empty terminator")
				}
				if len(chunk) == 0 {
					break
				}
				if len(chunk) > minChunk {
					t.Fatalf("chunk of %d bytes exceeds chunk size %d", len(chunk), minChunk)
				}
				got = append(got, chunk...)
				sends++
			}

			if sends != tt.wantSends {
				t.Errorf("sent %d data chunks, want %d", sends, tt.wantSends)
			}
			if !bytes.Equal(got, tt.content) {
				t.Errorf("reassembled %d bytes, want %d", len(got), len(tt.content))
			}
			if !c.done {
				t.Error("cursor not done after empty terminator")
			}
			if c.next() != nil {
				t.Error("next() after terminator must return nil")
			}
		})
	}
}
