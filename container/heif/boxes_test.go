package heif

import (
	"encoding/binary"
	"testing"
)

// makeBox builds one ISOBMFF box: 32-bit size + four-character type + content.
func makeBox(typ string, content []byte) []byte {
	b := make([]byte, 8+len(content))
	binary.BigEndian.PutUint32(b[0:4], uint32(len(b)))
	copy(b[4:8], typ)
	copy(b[8:], content)
	return b
}

func TestBoxIteratorBasic(t *testing.T) {
	data := append(makeBox("ftyp", []byte("heic")), makeBox("mdat", []byte("xyz"))...)

	it := NewBoxIterator(data)
	box, ok := it.Next()
	if !ok {
		t.Fatalf("expected first box")
	}
	if box.Type() != (FourCC{'f', 't', 'y', 'p'}) {
		t.Errorf("got type %v, want ftyp", box.Type())
	}
	if string(box.Content) != "heic" {
		t.Errorf("got content %q, want %q", box.Content, "heic")
	}

	box, ok = it.Next()
	if !ok {
		t.Fatalf("expected second box")
	}
	if box.Type() != (FourCC{'m', 'd', 'a', 't'}) {
		t.Errorf("got type %v, want mdat", box.Type())
	}

	_, ok = it.Next()
	if ok {
		t.Errorf("expected iteration to end")
	}
	if it.Err() != nil {
		t.Errorf("unexpected error: %v", it.Err())
	}
}

func TestBoxIteratorTruncated(t *testing.T) {
	data := []byte{0, 0, 0, 20, 'f', 't', 'y', 'p'} // declares 20 bytes but supplies 8

	it := NewBoxIterator(data)
	_, ok := it.Next()
	if ok {
		t.Fatalf("expected truncated box to fail")
	}
	if it.Err() == nil {
		t.Errorf("expected an error for a box size beyond the buffer")
	}
}

func TestBoxIteratorLargeSize(t *testing.T) {
	content := []byte("payload")
	b := make([]byte, 16+len(content))
	binary.BigEndian.PutUint32(b[0:4], 1) // size32 == 1 signals a 64-bit largesize
	copy(b[4:8], "mdat")
	binary.BigEndian.PutUint64(b[8:16], uint64(len(b)))
	copy(b[16:], content)

	it := NewBoxIterator(b)
	box, ok := it.Next()
	if !ok {
		t.Fatalf("expected a box, got err=%v", it.Err())
	}
	if string(box.Content) != "payload" {
		t.Errorf("got content %q, want %q", box.Content, "payload")
	}
	if box.Header.HeaderLen != 16 {
		t.Errorf("got header len %d, want 16", box.Header.HeaderLen)
	}
}
