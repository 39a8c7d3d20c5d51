package hevc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// derivedSizes is the subset of SPS.DeriveSizes's output compared
// structurally below, to avoid a brittle field-by-field diff against
// the full SPS (which also carries input fields irrelevant here).
type derivedSizes struct {
	CtbSize, MinCbSize, MaxTbSize    int
	PicWidthInCtbs, PicHeightInCtbs int
	QpBdOffsetY, QpBdOffsetC        int
}

func TestSPSDeriveSizesStructural(t *testing.T) {
	s := &SPS{
		Log2MinCbSize:          3,
		Log2DiffMaxMinCbSize:   2,
		Log2MinTbSize:          2,
		Log2DiffMaxMinTbSize:   3,
		PicWidthInLumaSamples:  100,
		PicHeightInLumaSamples: 65,
		BitDepthLuma:           10,
		BitDepthChroma:         8,
	}
	s.DeriveSizes()

	got := derivedSizes{
		CtbSize: s.CtbSize, MinCbSize: s.MinCbSize, MaxTbSize: s.MaxTbSize,
		PicWidthInCtbs: s.PicWidthInCtbs, PicHeightInCtbs: s.PicHeightInCtbs,
		QpBdOffsetY: s.QpBdOffsetY, QpBdOffsetC: s.QpBdOffsetC,
	}
	want := derivedSizes{
		CtbSize: 32, MinCbSize: 8, MaxTbSize: 32,
		PicWidthInCtbs: 4, PicHeightInCtbs: 3,
		QpBdOffsetY: 12, QpBdOffsetC: 0,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DeriveSizes() mismatch (-want +got):\n%s", diff)
	}
}

func TestSPSDeriveSizes(t *testing.T) {
	s := &SPS{
		Log2MinCbSize:          3, // MinCbSize = 8
		Log2DiffMaxMinCbSize:   2, // CtbSize = 8 << 2 = 32
		Log2MinTbSize:          2, // MinTbSize = 4
		Log2DiffMaxMinTbSize:   3, // MaxTbSize = 4 << 3 = 32
		PicWidthInLumaSamples:  100,
		PicHeightInLumaSamples: 65,
		BitDepthLuma:           10,
		BitDepthChroma:         8,
	}
	s.DeriveSizes()

	if s.CtbSize != 32 {
		t.Errorf("got CtbSize %d, want 32", s.CtbSize)
	}
	if s.MinCbSize != 8 {
		t.Errorf("got MinCbSize %d, want 8", s.MinCbSize)
	}
	if s.MaxTbSize != 32 {
		t.Errorf("got MaxTbSize %d, want 32", s.MaxTbSize)
	}
	// 100 luma samples wide at a 32-sample CTB needs ceil(100/32) = 4 CTBs.
	if s.PicWidthInCtbs != 4 {
		t.Errorf("got PicWidthInCtbs %d, want 4", s.PicWidthInCtbs)
	}
	// 65 luma samples tall needs ceil(65/32) = 3 CTBs.
	if s.PicHeightInCtbs != 3 {
		t.Errorf("got PicHeightInCtbs %d, want 3", s.PicHeightInCtbs)
	}
	if s.QpBdOffsetY != 12 {
		t.Errorf("got QpBdOffsetY %d, want 12", s.QpBdOffsetY)
	}
	if s.QpBdOffsetC != 0 {
		t.Errorf("got QpBdOffsetC %d, want 0", s.QpBdOffsetC)
	}
}

func TestSPSValidateRejectsBadChromaFormat(t *testing.T) {
	s := &SPS{ChromaFormatIDC: 4, BitDepthLuma: 8, BitDepthChroma: 8, PicWidthInLumaSamples: 4, PicHeightInLumaSamples: 4}
	if err := s.validate(); err == nil {
		t.Fatalf("expected an error for chroma_format_idc out of range")
	}
}

func TestSPSValidateRejectsZeroDimension(t *testing.T) {
	s := &SPS{ChromaFormatIDC: 1, BitDepthLuma: 8, BitDepthChroma: 8, PicWidthInLumaSamples: 0, PicHeightInLumaSamples: 4}
	if err := s.validate(); err == nil {
		t.Fatalf("expected an error for a zero picture dimension")
	}
}

func TestSPSValidateRejectsTbSizeNotSmallerThanCtb(t *testing.T) {
	s := &SPS{
		ChromaFormatIDC: 1, BitDepthLuma: 8, BitDepthChroma: 8,
		PicWidthInLumaSamples: 16, PicHeightInLumaSamples: 16,
		Log2MinTbSize: 5, Log2CtbSize: 5,
	}
	if err := s.validate(); err == nil {
		t.Fatalf("expected an error when min transform block size is not smaller than CTB size")
	}
}

func TestSPSValidateAccepts(t *testing.T) {
	s := &SPS{
		ChromaFormatIDC: 1, BitDepthLuma: 8, BitDepthChroma: 8,
		PicWidthInLumaSamples: 16, PicHeightInLumaSamples: 16,
		Log2MinTbSize: 2, Log2CtbSize: 5,
	}
	if err := s.validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSPSCroppedDimensions4_2_0(t *testing.T) {
	s := &SPS{
		ChromaFormatIDC:        1,
		PicWidthInLumaSamples:  64,
		PicHeightInLumaSamples: 64,
	}
	s.ConformanceWindow.Left = 1
	s.ConformanceWindow.Right = 1
	s.ConformanceWindow.Top = 2
	s.ConformanceWindow.Bottom = 0

	w, h := s.CroppedDimensions()
	// 4:2:0: SubWidthC = SubHeightC = 2.
	if w != 64-2*(1+1) {
		t.Errorf("got width %d, want %d", w, 64-2*2)
	}
	if h != 64-2*(2+0) {
		t.Errorf("got height %d, want %d", h, 64-2*2)
	}
}

func TestSPSCroppedDimensions4_4_4(t *testing.T) {
	s := &SPS{
		ChromaFormatIDC:        3,
		PicWidthInLumaSamples:  64,
		PicHeightInLumaSamples: 64,
	}
	s.ConformanceWindow.Left = 3
	w, _ := s.CroppedDimensions()
	if w != 61 {
		t.Errorf("got width %d, want 61", w)
	}
}
