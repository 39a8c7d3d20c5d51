package hevc

import "testing"

// vpsNAL returns a minimal 2-byte VPS NAL header (type 32) plus payload,
// enough to exercise header parsing without needing a real VPS RBSP.
func vpsNAL(payload ...byte) []byte {
	b := []byte{byte(NALVPS) << 1, 1} // layer_id 0, temporal_id_plus1 1
	return append(b, payload...)
}

func TestParseNALHeader(t *testing.T) {
	u, err := parseNALHeader(vpsNAL(0xAB))
	if err != nil {
		t.Fatalf("parseNALHeader: %v", err)
	}
	if u.Type != NALVPS {
		t.Errorf("got type %v, want NALVPS", u.Type)
	}
	if u.LayerID != 0 || u.TemporalID != 0 {
		t.Errorf("got layerID=%d temporalID=%d, want 0, 0", u.LayerID, u.TemporalID)
	}
}

func TestParseNALHeaderForbiddenZeroBit(t *testing.T) {
	b := vpsNAL()
	b[0] |= 0x80
	if _, err := parseNALHeader(b); err == nil {
		t.Fatalf("expected an error when forbidden_zero_bit is set")
	}
}

func TestParseNALHeaderTruncated(t *testing.T) {
	if _, err := parseNALHeader([]byte{0}); err == nil {
		t.Fatalf("expected an error for a header shorter than 2 bytes")
	}
}

func TestStripEmulationPrevention(t *testing.T) {
	in := []byte{0x00, 0x00, 0x03, 0x01, 0x00, 0x00, 0x03, 0x02, 0x00, 0x00, 0x01}
	want := []byte{0x00, 0x00, 0x01, 0x00, 0x00, 0x02, 0x00, 0x00, 0x01}
	got := stripEmulationPrevention(in)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSplitAnnexBTwoUnits(t *testing.T) {
	var data []byte
	data = append(data, 0x00, 0x00, 0x00, 0x01)
	data = append(data, vpsNAL(0xAA, 0xBB)...)
	data = append(data, 0x00, 0x00, 0x01)
	data = append(data, byte(NALSPS)<<1, 1, 0xCC)

	units, err := SplitAnnexB(data)
	if err != nil {
		t.Fatalf("SplitAnnexB: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("got %d units, want 2", len(units))
	}
	if units[0].Type != NALVPS {
		t.Errorf("got first unit type %v, want NALVPS", units[0].Type)
	}
	if units[1].Type != NALSPS {
		t.Errorf("got second unit type %v, want NALSPS", units[1].Type)
	}
}

func TestSplitAnnexBNoStartCode(t *testing.T) {
	if _, err := SplitAnnexB([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected an error when no start code is present")
	}
}

func TestSplitLengthPrefixed(t *testing.T) {
	nal1 := vpsNAL(0xAA, 0xBB)
	nal2 := []byte{byte(NALSPS) << 1, 1, 0xCC}

	var data []byte
	data = append(data, 0, 0, 0, byte(len(nal1)))
	data = append(data, nal1...)
	data = append(data, 0, 0, 0, byte(len(nal2)))
	data = append(data, nal2...)

	units, err := SplitLengthPrefixed(data, 4)
	if err != nil {
		t.Fatalf("SplitLengthPrefixed: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("got %d units, want 2", len(units))
	}
	if units[0].Type != NALVPS || units[1].Type != NALSPS {
		t.Errorf("got types %v, %v, want NALVPS, NALSPS", units[0].Type, units[1].Type)
	}
}

func TestSplitLengthPrefixedOverrun(t *testing.T) {
	data := []byte{0, 0, 0, 10, 1, 2} // declares 10 bytes, supplies 2
	if _, err := SplitLengthPrefixed(data, 4); err == nil {
		t.Fatalf("expected an error when the length field overruns the buffer")
	}
}

func TestSplitLengthPrefixedBadWidth(t *testing.T) {
	if _, err := SplitLengthPrefixed([]byte{0, 0, 0, 0}, 3); err == nil {
		t.Fatalf("expected an error for an unsupported length field width")
	}
}
