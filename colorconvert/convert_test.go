package colorconvert

import (
	"testing"

	"github.com/ausocean/heic/codec/hevc"
)

// newTestFrame builds a 2x2 4:2:0 frame with a single uniform sample
// value across all planes, bypassing ParseSPS's bitstream parsing.
func newTestFrame(t *testing.T, y, cb, cr uint16) *hevc.Frame {
	t.Helper()
	sps := &hevc.SPS{
		ChromaFormatIDC:        1,
		PicWidthInLumaSamples:  2,
		PicHeightInLumaSamples: 2,
		BitDepthLuma:           8,
		BitDepthChroma:         8,
		Log2MinCbSize:          3,
		Log2DiffMaxMinCbSize:   0,
		Log2MinTbSize:          2,
		Log2DiffMaxMinTbSize:   0,
	}
	sps.DeriveSizes()
	f := hevc.NewFrame(sps)
	for i := range f.Y {
		f.Y[i] = y
	}
	for i := range f.Cb {
		f.Cb[i] = cb
		f.Cr[i] = cr
	}
	return f
}

// TestConvertFrameBT709WhiteBlack mirrors
// original_source/src/hevc/colorspace.rs's test_bt709_conversion: pure
// white and pure black in 8-bit limited range BT.709 round-trip exactly.
func TestConvertFrameBT709WhiteBlack(t *testing.T) {
	white := newTestFrame(t, 235, 128, 128)
	out := ConvertFrame(white, nil, RGB8, Options{Matrix: BT709, Range: Limited})
	for i, want := range []byte{255, 255, 255} {
		if out[i] != want {
			t.Errorf("white pixel byte %d = %d, want %d", i, out[i], want)
		}
	}

	black := newTestFrame(t, 16, 128, 128)
	out = ConvertFrame(black, nil, RGB8, Options{Matrix: BT709, Range: Limited})
	for i, want := range []byte{0, 0, 0} {
		if out[i] != want {
			t.Errorf("black pixel byte %d = %d, want %d", i, out[i], want)
		}
	}
}

func TestConvertFrameLayouts(t *testing.T) {
	f := newTestFrame(t, 128, 128, 128)
	alpha := newTestFrame(t, 200, 128, 128)

	for _, l := range []Layout{RGB8, RGBA8, BGR8, BGRA8} {
		out := ConvertFrame(f, alpha, l, Options{Matrix: BT709, Range: Limited})
		wantLen := f.Width * f.Height * l.BytesPerPixel()
		if len(out) != wantLen {
			t.Errorf("layout %d: got %d bytes, want %d", l, len(out), wantLen)
		}
	}

	rgba := ConvertFrame(f, alpha, RGBA8, Options{Matrix: BT709, Range: Limited})
	if rgba[3] != 200 {
		t.Errorf("RGBA8 alpha byte = %d, want 200", rgba[3])
	}
	bgra := ConvertFrame(f, alpha, BGRA8, Options{Matrix: BT709, Range: Limited})
	if bgra[0] != rgba[2] || bgra[2] != rgba[0] {
		t.Errorf("BGRA8 channel order not swapped relative to RGBA8: got %v vs %v", bgra[:3], rgba[:3])
	}
}

func TestConvertFrameOpaqueWithoutAlphaPlane(t *testing.T) {
	f := newTestFrame(t, 128, 128, 128)
	out := ConvertFrame(f, nil, RGBA8, Options{Matrix: BT709, Range: Limited})
	if out[3] != 255 {
		t.Errorf("alpha byte without an alpha plane = %d, want 255 (opaque)", out[3])
	}
}

func TestConvertFrameMatricesDiffer(t *testing.T) {
	f := newTestFrame(t, 128, 200, 90)
	rec601 := ConvertFrame(f, nil, RGB8, Options{Matrix: BT601, Range: Limited})
	rec709 := ConvertFrame(f, nil, RGB8, Options{Matrix: BT709, Range: Limited})
	if rec601[0] == rec709[0] && rec601[1] == rec709[1] && rec601[2] == rec709[2] {
		t.Errorf("expected BT601 and BT709 matrices to produce different output for chromatic input")
	}
}

func TestConvertFrameHDRMonotonic(t *testing.T) {
	dark := newTestFrame(t, 40, 128, 128)
	bright := newTestFrame(t, 200, 128, 128)

	darkOut := ConvertFrameHDR(dark, nil, RGB8, Options{Matrix: BT2020, Range: Limited}, TransferPQ)
	brightOut := ConvertFrameHDR(bright, nil, RGB8, Options{Matrix: BT2020, Range: Limited}, TransferPQ)
	if brightOut[0] < darkOut[0] {
		t.Errorf("PQ tone-mapped luma not monotonic: dark=%d bright=%d", darkOut[0], brightOut[0])
	}
}
