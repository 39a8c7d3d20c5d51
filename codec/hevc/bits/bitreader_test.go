package bits

import "testing"

func TestReadBits(t *testing.T) {
	r := NewReader([]byte{0b10110100, 0b11001010})

	v, err := r.ReadBits(4)
	if err != nil || v != 0b1011 {
		t.Fatalf("got (%b, %v), want (1011, nil)", v, err)
	}
	v, err = r.ReadBits(8)
	if err != nil || v != 0b01001100 {
		t.Fatalf("got (%b, %v), want (01001100, nil)", v, err)
	}
	v, err = r.ReadBits(4)
	if err != nil || v != 0b1010 {
		t.Fatalf("got (%b, %v), want (1010, nil)", v, err)
	}
}

func TestReadBitsShortRead(t *testing.T) {
	r := NewReader([]byte{0xFF})
	if _, err := r.ReadBits(9); err == nil {
		t.Fatalf("expected an error reading past the end of the buffer")
	}
}

func TestReadBitZero(t *testing.T) {
	r := NewReader([]byte{0})
	if v, err := r.ReadBits(0); err != nil || v != 0 {
		t.Fatalf("got (%d, %v), want (0, nil)", v, err)
	}
}

func TestPeekBitsDoesNotAdvance(t *testing.T) {
	r := NewReader([]byte{0b10110100})
	before := r.BitPos()
	v, err := r.PeekBits(4)
	if err != nil || v != 0b1011 {
		t.Fatalf("got (%b, %v), want (1011, nil)", v, err)
	}
	if r.BitPos() != before {
		t.Errorf("PeekBits advanced the position: got %d, want %d", r.BitPos(), before)
	}
}

func TestReadFlag(t *testing.T) {
	r := NewReader([]byte{0b10000000})
	f, err := r.ReadFlag()
	if err != nil || !f {
		t.Fatalf("got (%v, %v), want (true, nil)", f, err)
	}
	f, err = r.ReadFlag()
	if err != nil || f {
		t.Fatalf("got (%v, %v), want (false, nil)", f, err)
	}
}

func TestByteAlignedAndAlignToByte(t *testing.T) {
	r := NewReader([]byte{0xFF, 0xFF})
	if !r.ByteAligned() {
		t.Fatalf("expected a fresh reader to be byte-aligned")
	}
	r.SkipBits(3)
	if r.ByteAligned() {
		t.Fatalf("expected the reader to not be byte-aligned after skipping 3 bits")
	}
	r.AlignToByte()
	if !r.ByteAligned() || r.BitPos() != 8 {
		t.Errorf("got bit pos %d, want 8", r.BitPos())
	}
}

func TestBitsRemaining(t *testing.T) {
	r := NewReader([]byte{0, 0})
	if got := r.BitsRemaining(); got != 16 {
		t.Fatalf("got %d, want 16", got)
	}
	r.SkipBits(5)
	if got := r.BitsRemaining(); got != 11 {
		t.Fatalf("got %d, want 11", got)
	}
}

func TestMoreRBSPData(t *testing.T) {
	// rbsp_trailing_bits: a single 1 bit then zero padding to a byte
	// boundary. With only the stop bit left, MoreRBSPData is false.
	r := NewReader([]byte{0b10000000})
	r.SkipBits(0)
	if r.MoreRBSPData() {
		t.Errorf("expected no more RBSP data when only the trailing stop bit remains")
	}

	r2 := NewReader([]byte{0b11000000})
	if !r2.MoreRBSPData() {
		t.Errorf("expected more RBSP data before the trailing stop bit")
	}
}
