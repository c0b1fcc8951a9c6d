// Package protocol defines the payload handed to "richclip copy" and its
// stdin wire format.
//
// A payload is a set of alternative representations of one logical clipboard
// entry. Each representation carries one or more MIME-type aliases (an X11
// consumer may ask for UTF8_STRING where a Wayland consumer asks for
// text/plain) and an immutable content buffer.
//
// Bulk format:
//
//	[version:1] record*
//	record = 'M' [len:u32be] [type-name:len]   declare an alias for the
//	                                           item being assembled
//	       | 'C' [len:u32be] [content:len]     attach content, finalising
//	                                           the item
//
// Consecutive 'M' records accumulate aliases; the next 'C' record binds them
// all to one item and resets the accumulator. Decoding is all-or-nothing: a
// malformed stream never yields a partial payload.
package protocol

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Version is the only bulk-format version this build understands.
const Version = 1

const (
	tagType    = 'M'
	tagContent = 'C'
)

var (
	// ErrVersion is returned when the stream's version byte is not Version.
	ErrVersion = errors.New("unsupported payload version")
	// ErrTruncated is returned when the stream ends inside a record, or
	// when declared aliases are never bound to a content record.
	ErrTruncated = errors.New("truncated payload")
	// ErrBadTag is returned for a record tag other than 'M' or 'C'.
	ErrBadTag = errors.New("unknown record tag")
)

// SourceItem is one representation of the payload: a content buffer and the
// MIME-type aliases it answers to. Content is never mutated after decoding;
// it is shared by reference into protocol callbacks.
type SourceItem struct {
	Types   []string
	Content []byte
}

// SourceData is the ordered set of representations for one copy invocation.
type SourceData []SourceItem

// ContentByType returns the content of the first item carrying mime as an
// alias (case-insensitive). The second return is false when no item matches.
func (s SourceData) ContentByType(mime string) ([]byte, bool) {
	for _, item := range s {
		for _, t := range item.Types {
			if strings.EqualFold(t, mime) {
				return item.Content, true
			}
		}
	}
	return nil, false
}

// Types returns every alias of every item, in declaration order.
func (s SourceData) Types() []string {
	var out []string
	for _, item := range s {
		out = append(out, item.Types...)
	}
	return out
}

// DecodeBulk parses a bulk-format stream into a SourceData set.
func DecodeBulk(r io.Reader) (SourceData, error) {
	br := bufio.NewReader(r)

	version, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: missing version byte", ErrTruncated)
	}
	if version != Version {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersion, version, Version)
	}

	var (
		data    SourceData
		pending []string
	)
	for {
		tag, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record tag: %w", err)
		}

		body, err := readRecord(br)
		if err != nil {
			return nil, err
		}

		switch tag {
		case tagType:
			alias := string(body)
			if !containsFold(pending, alias) {
				pending = append(pending, alias)
			}
		case tagContent:
			data = append(data, SourceItem{Types: pending, Content: body})
			pending = nil
		default:
			return nil, fmt.Errorf("%w: 0x%02x", ErrBadTag, tag)
		}
	}

	if len(pending) > 0 {
		// Aliases declared but never bound to content.
		return nil, fmt.Errorf("%w: %d dangling alias record(s)", ErrTruncated, len(pending))
	}
	return data, nil
}

// DecodeOneShot reads the whole input verbatim as a single item carrying the
// caller-supplied aliases. No framing is expected.
func DecodeOneShot(r io.Reader, types []string) (SourceData, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return SourceData{{Types: types, Content: content}}, nil
}

// EncodeBulk writes src in the bulk format, the inverse of DecodeBulk.
func EncodeBulk(w io.Writer, src SourceData) error {
	bw := bufio.NewWriter(w)
	if err := bw.WriteByte(Version); err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	for _, item := range src {
		for _, t := range item.Types {
			if err := writeRecord(bw, tagType, []byte(t)); err != nil {
				return err
			}
		}
		if err := writeRecord(bw, tagContent, item.Content); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func readRecord(br *bufio.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(br, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: record length", ErrTruncated)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	body := make([]byte, n)
	if _, err := io.ReadFull(br, body); err != nil {
		return nil, fmt.Errorf("%w: record body (%d bytes declared)", ErrTruncated, n)
	}
	return body, nil
}

func writeRecord(bw *bufio.Writer, tag byte, body []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))
	if err := bw.WriteByte(tag); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if _, err := bw.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if _, err := bw.Write(body); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
