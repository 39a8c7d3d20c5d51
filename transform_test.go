package heic

import (
	"testing"

	"github.com/ausocean/heic/codec/hevc"
	"github.com/ausocean/heic/container/heif"
)

// newTestFrame builds a 4x4 4:2:0 luma/2x2 chroma frame with Y filled
// 0..15 in raster order and Cb/Cr filled with a distinct, recognizable
// pattern, for exercising mirror/rotate without a full bitstream decode.
func newTestFrame() *hevc.Frame {
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
		f.Y[i] = uint16(i)
	}
	for i := range f.Cb {
		f.Cb[i] = uint16(100 + i)
		f.Cr[i] = uint16(200 + i)
	}
	return f
}

func TestMirrorFrameVertical(t *testing.T) {
	f := newTestFrame()
	mirrorFrame(f, 0) // top-bottom flip

	want := []uint16{12, 13, 14, 15, 8, 9, 10, 11, 4, 5, 6, 7, 0, 1, 2, 3}
	for i, w := range want {
		if f.Y[i] != w {
			t.Fatalf("Y[%d] = %d, want %d", i, f.Y[i], w)
		}
	}
}

func TestMirrorFrameHorizontal(t *testing.T) {
	f := newTestFrame()
	mirrorFrame(f, 1) // left-right flip

	want := []uint16{3, 2, 1, 0, 7, 6, 5, 4, 11, 10, 9, 8, 15, 14, 13, 12}
	for i, w := range want {
		if f.Y[i] != w {
			t.Fatalf("Y[%d] = %d, want %d", i, f.Y[i], w)
		}
	}
}

func TestMirrorFrameSwapsConformanceWindow(t *testing.T) {
	f := newTestFrame()
	f.SPS.ConformanceWindow.Top = 1
	f.SPS.ConformanceWindow.Bottom = 2
	mirrorFrame(f, 0)
	if f.SPS.ConformanceWindow.Top != 2 || f.SPS.ConformanceWindow.Bottom != 1 {
		t.Errorf("got top=%d bottom=%d, want top=2 bottom=1",
			f.SPS.ConformanceWindow.Top, f.SPS.ConformanceWindow.Bottom)
	}
}

func TestRotateFrame180(t *testing.T) {
	f := newTestFrame()
	out, err := rotateFrame(f, 2)
	if err != nil {
		t.Fatalf("rotateFrame(180): %v", err)
	}
	if out != f {
		t.Fatalf("180-degree rotation must mutate in place, not allocate a new Frame")
	}

	want := []uint16{15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0}
	for i, w := range want {
		if f.Y[i] != w {
			t.Fatalf("Y[%d] = %d, want %d", i, f.Y[i], w)
		}
	}
}

func newTestFrame4x8() *hevc.Frame {
	sps := &hevc.SPS{
		ChromaFormatIDC:        1,
		PicWidthInLumaSamples:  4,
		PicHeightInLumaSamples: 8,
		BitDepthLuma:           8,
		BitDepthChroma:         8,
		CtbSize:                8,
		MinCbSize:              8,
		PicWidthInCtbs:         1,
		PicHeightInCtbs:        1,
	}
	f := hevc.NewFrame(sps)
	for i := range f.Y {
		f.Y[i] = uint16(i)
	}
	return f
}

func TestRotateFrame90SwapsDimensions(t *testing.T) {
	f := newTestFrame4x8()
	out, err := rotateFrame(f, 1) // 90 CCW
	if err != nil {
		t.Fatalf("rotateFrame(90): %v", err)
	}
	if out.Width != f.Height || out.Height != f.Width {
		t.Errorf("got %dx%d, want %dx%d", out.Width, out.Height, f.Height, f.Width)
	}
	// Source (0,0) maps to dst(dx=0, dy=srcWidth-1) under a
	// counter-clockwise rotation (rotatePlane90's own mapping).
	if got := out.Y[(f.Width-1)*out.YStride]; got != 0 {
		t.Errorf("got %d at the mapped source-origin sample, want 0", got)
	}
}

func TestRotateFrame90Rejects422(t *testing.T) {
	f := newTestFrame()
	f.SPS.ChromaFormatIDC = 2
	_, err := rotateFrame(f, 1)
	if err == nil {
		t.Fatalf("expected an error rotating 4:2:2 content by 90 degrees")
	}
	if e, ok := err.(*Error); !ok || e.Kind() != Unsupported {
		t.Errorf("got %v, want Unsupported", err)
	}
}

func TestRotateFrame0And4AreNoOps(t *testing.T) {
	f := newTestFrame()
	out, err := rotateFrame(f, 0)
	if err != nil || out != f {
		t.Fatalf("rotateFrame(0) should be a no-op returning the same Frame, got %v, %v", out, err)
	}
	out, err = rotateFrame(f, 4)
	if err != nil || out != f {
		t.Fatalf("rotateFrame(4) should be a no-op returning the same Frame, got %v, %v", out, err)
	}
}

func newTestFrame8x8() *hevc.Frame {
	sps := &hevc.SPS{
		ChromaFormatIDC:        1,
		PicWidthInLumaSamples:  8,
		PicHeightInLumaSamples: 8,
		BitDepthLuma:           8,
		BitDepthChroma:         8,
		CtbSize:                8,
		MinCbSize:              8,
		PicWidthInCtbs:         1,
		PicHeightInCtbs:        1,
	}
	return hevc.NewFrame(sps)
}

func TestApplyCleanApertureNarrowsWindow(t *testing.T) {
	f := newTestFrame8x8()
	clap := &heif.CleanAperture{
		WidthN: 4, WidthD: 1,
		HeightN: 4, HeightD: 1,
		HorizOffN: 0, HorizOffD: 1,
		VertOffN: 0, VertOffD: 1,
	}
	applyCleanAperture(f, clap)
	if got := f.CroppedWidth(); got != 4 {
		t.Errorf("got cropped width %d, want 4", got)
	}
	if got := f.CroppedHeight(); got != 4 {
		t.Errorf("got cropped height %d, want 4", got)
	}
}

func TestApplyCleanApertureNoopWhenNotSmaller(t *testing.T) {
	f := newTestFrame()
	before := f.SPS.ConformanceWindow
	clap := &heif.CleanAperture{WidthN: 4, WidthD: 1, HeightN: 4, HeightD: 1}
	applyCleanAperture(f, clap)
	if f.SPS.ConformanceWindow != before {
		t.Errorf("conformance window changed for a clap rectangle no smaller than the existing crop")
	}
}
