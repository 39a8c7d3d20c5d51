package diag

import (
	"math"
	"testing"

	"github.com/ausocean/heic/codec/hevc"
)

func newDiagTestFrame(fill func(i int) uint16) *hevc.Frame {
	sps := &hevc.SPS{
		ChromaFormatIDC:        1,
		PicWidthInLumaSamples:  4,
		PicHeightInLumaSamples: 4,
		BitDepthLuma:           8,
		BitDepthChroma:         8,
		CtbSize:                4,
		MinCbSize:              4,
		PicWidthInCtbs:         1,
		PicHeightInCtbs:        1,
	}
	f := hevc.NewFrame(sps)
	for i := range f.Y {
		f.Y[i] = fill(i)
	}
	return f
}

func TestPSNRIdenticalFramesIsInfinite(t *testing.T) {
	a := newDiagTestFrame(func(i int) uint16 { return uint16(i) })
	b := newDiagTestFrame(func(i int) uint16 { return uint16(i) })
	got := PSNR(a, b)
	if !math.IsInf(got, 1) {
		t.Errorf("got %v, want +Inf", got)
	}
}

func TestPSNRDecreasesWithError(t *testing.T) {
	a := newDiagTestFrame(func(i int) uint16 { return 100 })
	small := newDiagTestFrame(func(i int) uint16 { return 101 })
	large := newDiagTestFrame(func(i int) uint16 { return 150 })

	psnrSmall := PSNR(a, small)
	psnrLarge := PSNR(a, large)
	if psnrSmall <= psnrLarge {
		t.Errorf("expected a smaller error to produce a higher PSNR: got small=%v large=%v", psnrSmall, psnrLarge)
	}
}

func TestPSNRMismatchedDimensionsIsNaN(t *testing.T) {
	a := newDiagTestFrame(func(i int) uint16 { return uint16(i) })
	b := newDiagTestFrame(func(i int) uint16 { return uint16(i) })
	b.SPS.ConformanceWindow.Right = 1
	if got := PSNR(a, b); !math.IsNaN(got) {
		t.Errorf("got %v, want NaN for mismatched cropped dimensions", got)
	}
}
