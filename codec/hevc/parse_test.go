package hevc

import (
	"testing"

	"github.com/ausocean/heic/codec/hevc/bits"
)

func TestReadUe(t *testing.T) {
	// codeNum 0, 1, 2 encoded back to back: "1" "010" "011", padded with
	// a trailing zero to fill the byte: 1010011 0 = 0xA6.
	r := bits.NewReader([]byte{0xA6})
	for _, want := range []uint64{0, 1, 2} {
		got, err := readUe(r)
		if err != nil {
			t.Fatalf("readUe: %v", err)
		}
		if got != want {
			t.Errorf("got %d, want %d", got, want)
		}
	}
}

func TestReadUeLargerCodeNum(t *testing.T) {
	// codeNum 6: "00111", padded with three trailing zero bits: 00111000 = 0x38.
	r := bits.NewReader([]byte{0x38})
	got, err := readUe(r)
	if err != nil {
		t.Fatalf("readUe: %v", err)
	}
	if got != 6 {
		t.Errorf("got %d, want 6", got)
	}
}

func TestReadUeTruncated(t *testing.T) {
	// A leading-zero run with no terminating 1 bit and no data left.
	r := bits.NewReader([]byte{0x00})
	if _, err := readUe(r); err == nil {
		t.Fatalf("expected an error reading a truncated exp-golomb code")
	}
}

func TestReadSe(t *testing.T) {
	// codeNum 1 maps to se(v) = 1, codeNum 2 maps to se(v) = -1:
	// "010" "011", padded with two trailing zero bits: 01001100 = 0x4C.
	r := bits.NewReader([]byte{0x4C})
	got, err := readSe(r)
	if err != nil || got != 1 {
		t.Fatalf("got (%d, %v), want (1, nil)", got, err)
	}
	got, err = readSe(r)
	if err != nil || got != -1 {
		t.Fatalf("got (%d, %v), want (-1, nil)", got, err)
	}
}

func TestFieldReaderStickyError(t *testing.T) {
	r := bits.NewReader([]byte{0xFF})
	fr := newFieldReader(r)
	fr.u(8)
	_ = fr.u(8) // past the end: sets the sticky error
	if fr.err() == nil {
		t.Fatalf("expected a sticky error after reading past the end")
	}
	if got := fr.u(8); got != 0 {
		t.Errorf("got %d, want 0 once an error is sticky", got)
	}
	if got := fr.ue(); got != 0 {
		t.Errorf("got %d, want 0 once an error is sticky", got)
	}
}
