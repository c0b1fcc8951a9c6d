package protocol

import (
	"bytes"
	"errors"
	"testing"
)

// rec builds one framed record.
func rec(tag byte, body string) []byte {
	out := []byte{tag, 0, 0, 0, byte(len(body))}
	return append(out, body...)
}

func bulk(records ...[]byte) []byte {
	out := []byte{Version}
	for _, r := range records {
		out = append(out, r...)
	}
	return out
}

func TestDecodeBulk(t *testing.T) {
	stream := bulk(
		rec('M', "text/plain"),
		rec('M', "TEXT"),
		rec('C', "GOOD"),
		rec('M', "text/html"),
		rec('C', "BAD"),
	)

	data, err := DecodeBulk(bytes.NewReader(stream))
	if err != nil {
		t.Fatalf("DecodeBulk failed: %v", err)
	}
	if len(data) != 2 {
		t.Fatalf("expected 2 items, got %d", len(data))
	}

	lookups := []struct {
		mime string
		want string
		ok   bool
	}{
		{"text/plain", "GOOD", true},
		{"TEXT", "GOOD", true},
		{"text", "GOOD", true}, // aliases match case-insensitively
		{"text/html", "BAD", true},
		{"no_mime", "", false},
	}
	for _, l := range lookups {
		content, ok := data.ContentByType(l.mime)
		if ok != l.ok {
			t.Errorf("ContentByType(%q) ok = %v, want %v", l.mime, ok, l.ok)
			continue
		}
		if ok && string(content) != l.want {
			t.Errorf("ContentByType(%q) = %q, want %q", l.mime, content, l.want)
		}
	}

	types := data.Types()
	want := []string{"text/plain", "TEXT", "text/html"}
	if len(types) != len(want) {
		t.Fatalf("Types() = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("Types()[%d] = %q, want %q", i, types[i], want[i])
		}
	}
}

func TestDecodeBulkErrors(t *testing.T) {
	tests := []struct {
		name   string
		stream []byte
		want   error
	}{
		{"empty stream", nil, ErrTruncated},
		{"wrong version", bulk(rec('C', "x"))[1:], ErrVersion},
		{"future version", append([]byte{Version + 1}, rec('C', "x")...), ErrVersion},
		{"bad tag", bulk(rec('Z', "x")), ErrBadTag},
		{"truncated length", append(bulk(), 'C', 0, 0), ErrTruncated},
		{"short body", append(bulk(), 'C', 0, 0, 0, 9, 'a', 'b'), ErrTruncated},
		{"dangling alias", bulk(rec('M', "text/plain")), ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBulk(bytes.NewReader(tt.stream))
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodeBulk error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeBulkAnonymousContent(t *testing.T) {
	// A 'C' with no preceding aliases is accepted but unselectable.
	data, err := DecodeBulk(bytes.NewReader(bulk(rec('C', "orphan"))))
	if err != nil {
		t.Fatalf("DecodeBulk failed: %v", err)
	}
	if len(data) != 1 || len(data[0].Types) != 0 {
		t.Fatalf("expected one alias-less item, got %+v", data)
	}
	if _, ok := data.ContentByType("text/plain"); ok {
		t.Error("anonymous content must not be selectable by type")
	}
}

func TestDecodeBulkDuplicateAlias(t *testing.T) {
	data, err := DecodeBulk(bytes.NewReader(bulk(
		rec('M', "TEXT"),
		rec('M', "text"),
		rec('C', "x"),
	)))
	if err != nil {
		t.Fatalf("DecodeBulk failed: %v", err)
	}
	if len(data[0].Types) != 1 {
		t.Errorf("duplicate alias kept: %v", data[0].Types)
	}
}

func TestBulkRoundTrip(t *testing.T) {
	src := SourceData{
		{Types: []string{"text/plain;charset=utf-8", "UTF8_STRING"}, Content: []byte("héllo")},
		{Types: []string{"image/png"}, Content: []byte{0x89, 'P', 'N', 'G', 0}},
		{Types: []string{"x-custom/empty"}, Content: nil},
	}

	var buf bytes.Buffer
	if err := EncodeBulk(&buf, src); err != nil {
		t.Fatalf("EncodeBulk failed: %v", err)
	}
	got, err := DecodeBulk(&buf)
	if err != nil {
		t.Fatalf("DecodeBulk failed: %v", err)
	}

	if len(got) != len(src) {
		t.Fatalf("round trip item count = %d, want %d", len(got), len(src))
	}
	for i := range src {
		if len(got[i].Types) != len(src[i].Types) {
			t.Fatalf("item %d types = %v, want %v", i, got[i].Types, src[i].Types)
		}
		for j := range src[i].Types {
			if got[i].Types[j] != src[i].Types[j] {
				t.Errorf("item %d type %d = %q, want %q", i, j, got[i].Types[j], src[i].Types[j])
			}
		}
		if !bytes.Equal(got[i].Content, src[i].Content) {
			t.Errorf("item %d content = %q, want %q", i, got[i].Content, src[i].Content)
		}
	}
}

func TestDecodeOneShot(t *testing.T) {
	data, err := DecodeOneShot(bytes.NewReader([]byte("raw bytes, no framing")), []string{"text/plain"})
	if err != nil {
		t.Fatalf("DecodeOneShot failed: %v", err)
	}
	if len(data) != 1 {
		t.Fatalf("expected 1 item, got %d", len(data))
	}
	content, ok := data.ContentByType("TEXT/PLAIN")
	if !ok || string(content) != "raw bytes, no framing" {
		t.Errorf("ContentByType = %q, %v", content, ok)
	}
}
