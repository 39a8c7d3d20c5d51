/*
DESCRIPTION
  convert.go converts a decoded HEVC frame's YCbCr planes to interleaved
  RGB bytes, per spec.md section 4.9. Grounded on
  original_source/src/hevc/color_convert.rs's convert_420_to_rgb_scalar
  and scalar_pixel: same fixed-point arithmetic, same per-pixel formula.
  The AVX2 path that file dispatches to (convert_420_to_rgb_v3) processes
  8 pixels per iteration with vector loads/shuffles; spec.md section 4.9
  allows a scalar-only implementation ("a conformant implementation may do
  basic limited-range BT.709 only"), so only the scalar path is carried
  over here. Go has no portable equivalent to the arcane/archmage SIMD
  dispatch machinery that file builds on, and golang.org/x/sys/cpu-gated
  assembly is out of proportion to what this package needs.
*/

package colorconvert

import "github.com/ausocean/heic/codec/hevc"

// Layout is an interleaved output pixel format.
type Layout int

const (
	RGB8 Layout = iota
	RGBA8
	BGR8
	BGRA8
)

// BytesPerPixel returns the number of interleaved bytes one pixel occupies
// in l.
func (l Layout) BytesPerPixel() int {
	switch l {
	case RGBA8, BGRA8:
		return 4
	default:
		return 3
	}
}

func (l Layout) hasAlpha() bool {
	return l == RGBA8 || l == BGRA8
}

func (l Layout) bgrOrder() bool {
	return l == BGR8 || l == BGRA8
}

// Options selects the matrix/range used to interpret a frame's YCbCr
// samples. The zero value is BT601/Limited; heic.go's resolveColorOptions
// supplies BT709/Limited when an item carries no nclx colr property.
type Options struct {
	Matrix Matrix
	Range  Range
}

// ConvertFrame converts f's conformance-cropped region to interleaved
// bytes in layout l, per spec.md section 4.9. alpha, when non-nil, must
// have the same cropped dimensions as f and supplies the alpha channel
// for RGBA8/BGRA8 layouts (an auxiliary alpha image's Y plane, per
// container/heif's auxC "urn:mpeg:hevc:2015:auxid:1"); it is ignored for
// RGB8/BGR8. When l carries alpha and alpha is nil, the channel is filled
// opaque (255/max).
func ConvertFrame(f *hevc.Frame, alpha *hevc.Frame, l Layout, opts Options) []byte {
	width := f.CroppedWidth()
	height := f.CroppedHeight()
	cropX := f.CropLeft()
	cropY := f.CropTop()

	bpp := l.BytesPerPixel()
	out := make([]byte, width*height*bpp)

	bitDepth := f.SPS.BitDepthLuma
	shift := uint32(0)
	if bitDepth > 8 {
		shift = uint32(bitDepth - 8)
	}

	subW, subH := chromaSubsampling(f)
	coef := lookupCoefficients(opts.Matrix, opts.Range)

	bgr := l.bgrOrder()
	hasAlpha := l.hasAlpha()

	outIdx := 0
	for y := 0; y < height; y++ {
		fy := y + cropY
		cy := fy / subH
		for x := 0; x < width; x++ {
			fx := x + cropX
			cx := fx / subW

			yVal := int32(f.Y[fy*f.YStride+fx] >> shift)
			var cbVal, crVal int32
			if len(f.Cb) != 0 {
				cbVal = int32(f.Cb[cy*f.CStride+cx] >> shift)
				crVal = int32(f.Cr[cy*f.CStride+cx] >> shift)
			} else {
				cbVal, crVal = 128, 128
			}

			r, g, b := yuvToRGB(yVal, cbVal, crVal, coef)

			if bgr {
				out[outIdx], out[outIdx+1], out[outIdx+2] = b, g, r
			} else {
				out[outIdx], out[outIdx+1], out[outIdx+2] = r, g, b
			}
			if hasAlpha {
				a := byte(255)
				if alpha != nil {
					a = clampByte(int32(alpha.Y[fy*alpha.YStride+fx] >> shift))
				}
				out[outIdx+3] = a
			}
			outIdx += bpp
		}
	}
	return out
}

// yuvToRGB applies coef's fixed-point matrix to one YCbCr sample, per
// color_convert.rs's scalar_pixel, clamped to [0, 255].
func yuvToRGB(y, cb, cr int32, coef coefficients) (r, g, b byte) {
	cbC := cb - 128
	crC := cr - 128
	yv := (y - coef.yBias) * coef.yScale

	rr := (yv + coef.crToR*crC + coef.rounding) >> coef.shift
	gg := (yv + coef.cbToG*cbC + coef.crToG*crC + coef.rounding) >> coef.shift
	bb := (yv + coef.cbToB*cbC + coef.rounding) >> coef.shift

	return clampByte(rr), clampByte(gg), clampByte(bb)
}

func clampByte(v int32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// chromaSubsampling returns the horizontal/vertical chroma subsampling
// factor for f, measured from the allocated plane dimensions rather than
// re-deriving it from ChromaFormatIDC, so it degrades correctly to 1x1
// for monochrome frames (no Cb/Cr planes at all).
func chromaSubsampling(f *hevc.Frame) (subW, subH int) {
	if len(f.Cb) == 0 {
		return 1, 1
	}
	cw := f.ChromaWidth()
	ch := f.ChromaHeight()
	subW = 1
	if cw > 0 {
		subW = (f.Width + cw - 1) / cw
	}
	subH = 1
	if ch > 0 {
		subH = (f.Height + ch - 1) / ch
	}
	if subW < 1 {
		subW = 1
	}
	if subH < 1 {
		subH = 1
	}
	return subW, subH
}
