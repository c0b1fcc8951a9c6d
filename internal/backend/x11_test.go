//go:build linux

package backend

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

func TestAtomCodec(t *testing.T) {
	atoms := []xproto.Atom{1, 31, 0x1f4, 0xdeadbeef}

	buf := encodeAtoms(atoms)
	if len(buf) != 4*len(atoms) {
		t.Fatalf("encoded %d bytes, want %d", len(buf), 4*len(atoms))
	}

	got := decodeAtoms(buf)
	if len(got) != len(atoms) {
		t.Fatalf("decoded %d atoms, want %d", len(got), len(atoms))
	}
	for i := range atoms {
		if got[i] != atoms[i] {
			t.Errorf("atom %d = %#x, want %#x", i, got[i], atoms[i])
		}
	}
}

func TestDecodeAtomsTrailingBytes(t *testing.T) {
	buf := append(encodeAtoms([]xproto.Atom{42}), 0xff, 0xff)
	got := decodeAtoms(buf)
	if len(got) != 1 || got[0] != 42 {
		t.Errorf("decodeAtoms = %v, want [42]", got)
	}
}

func TestDecodeAtomsEmpty(t *testing.T) {
	if got := decodeAtoms(nil); len(got) != 0 {
		t.Errorf("decodeAtoms(nil) = %v", got)
	}
}
