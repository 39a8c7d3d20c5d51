/*
DESCRIPTION
  transfer.go implements the HDR transfer functions (PQ/HLG) and a
  Reinhard HDR->SDR tone mapper, per spec.md section 4.9: "PQ and HLG
  transfer functions + tone mapping are present but are not core to
  correctness". Grounded on
  original_source/src/hevc/colorspace.rs's ColorSpace::{ycbcr_to_rgb,
  apply_eotf, tone_map_to_sdr, pq_eotf, hlg_oetf_inverse, hlg_ootf,
  apply_sdr_oetf, ycbcr_to_rgb8}. This is a separate, float-based pipeline
  from convert.go's fixed-point BT.601/709/2020 path: HDR content needs
  the normalized-float EOTF/tone-map stages before any 8-bit quantization,
  while the fixed-point path in convert.go is the "basic limited-range
  BT.709" baseline spec.md section 4.9 says is sufficient on its own.
*/

package colorconvert

import (
	"math"

	"github.com/ausocean/heic/codec/hevc"
)

// TransferFunction identifies a transfer characteristic, per H.265 Table
// E.4 (colr box / VUI transfer_characteristics).
type TransferFunction int

const (
	TransferBT709 TransferFunction = iota
	TransferSRGB
	TransferLinear
	TransferGamma22
	TransferGamma28
	TransferPQ
	TransferHLG
)

// TransferFromNclx maps a colr box's nclx transfer_characteristics value
// onto the TransferFunction this package implements, defaulting unknown
// values to BT709 per H.265's HD default.
func TransferFromNclx(transferCharacteristics uint16) TransferFunction {
	switch transferCharacteristics {
	case 13:
		return TransferSRGB
	case 8:
		return TransferLinear
	case 4:
		return TransferGamma22
	case 5:
		return TransferGamma28
	case 16:
		return TransferPQ
	case 18:
		return TransferHLG
	default:
		return TransferBT709
	}
}

// IsHDR reports whether tf requires tone mapping to display correctly on
// an SDR target.
func (tf TransferFunction) IsHDR() bool {
	return tf == TransferPQ || tf == TransferHLG
}

// kr/kb returns the ITU-R luma derivation coefficients for m, per
// colorspace.rs's get_matrix_coefficients.
func krKb(m Matrix) (kr, kb float64) {
	switch m {
	case BT709:
		return 0.2126, 0.0722
	case BT2020:
		return 0.2627, 0.0593
	default: // BT601
		return 0.299, 0.114
	}
}

// normalizedYCbCrToRGB converts Y/Cb/Cr signal values (integers in
// [0, 2^bitDepth-1]) to normalized [0,1] RGB signal values, per
// colorspace.rs's ycbcr_to_rgb.
func normalizedYCbCrToRGB(y, cb, cr uint16, bitDepth int, r Range, m Matrix) (rr, gg, bb float64) {
	maxVal := float64(int(1)<<uint(bitDepth) - 1)
	var yN, cbN, crN float64
	if r == Full {
		yN = float64(y) / maxVal
		cbN = float64(cb) / maxVal
		crN = float64(cr) / maxVal
	} else {
		scale := float64(int(1) << uint(bitDepth-8))
		yMin, yMax := 16*scale, 235*scale
		cMin, cMax := 16*scale, 240*scale
		yN = clamp01((float64(y) - yMin) / (yMax - yMin))
		cbN = clamp01((float64(cb) - cMin) / (cMax - cMin))
		crN = clamp01((float64(cr) - cMin) / (cMax - cMin))
	}

	pb := cbN - 0.5
	pr := crN - 0.5
	kr, kb := krKb(m)
	kg := 1 - kr - kb

	rr = yN + 2*(1-kr)*pr
	gg = yN - 2*kb*(1-kb)/kg*pb - 2*kr*(1-kr)/kg*pr
	bb = yN + 2*(1-kb)*pb
	return rr, gg, bb
}

// applyEOTF converts a normalized signal value to linear light, per
// colorspace.rs's apply_eotf. PQ/HLG outputs may exceed 1.0.
func applyEOTF(tf TransferFunction, signal float64) float64 {
	switch tf {
	case TransferLinear:
		return signal
	case TransferSRGB:
		if signal <= 0.04045 {
			return signal / 12.92
		}
		return math.Pow((signal+0.055)/1.055, 2.4)
	case TransferPQ:
		return pqEOTF(signal)
	case TransferHLG:
		return hlgOETFInverse(signal)
	case TransferGamma22:
		return math.Pow(signal, 2.2)
	case TransferGamma28:
		return math.Pow(signal, 2.8)
	default: // BT709/BT601-family OETF inverse
		if signal < 0.081 {
			return signal / 4.5
		}
		return math.Pow((signal+0.099)/1.099, 1/0.45)
	}
}

// pqEOTF implements SMPTE ST 2084, per colorspace.rs's pq_eotf. Output is
// linear light normalized so that 1.0 == 10000 nits.
func pqEOTF(signal float64) float64 {
	signal = math.Max(signal, 0)
	const (
		m1 = 2610.0 / 16384.0
		m2 = 2523.0 / 4096.0 * 128.0
		c1 = 3424.0 / 4096.0
		c2 = 2413.0 / 4096.0 * 32.0
		c3 = 2392.0 / 4096.0 * 32.0
	)
	vPow := math.Pow(signal, 1/m2)
	numerator := math.Max(vPow-c1, 0)
	denominator := c2 - c3*vPow
	if denominator <= 0 {
		return 0
	}
	return math.Pow(numerator/denominator, 1/m1)
}

// hlgOETFInverse implements the ARIB STD-B67 OETF inverse, per
// colorspace.rs's hlg_oetf_inverse.
func hlgOETFInverse(signal float64) float64 {
	signal = clamp01(signal)
	const (
		a = 0.17883277
		b = 0.28466892
		c = 0.55991073
	)
	if signal <= 0.5 {
		return (signal * signal) / 3
	}
	return math.Exp((signal-c)/a) + b
}

// hlgOOTF converts HLG scene-linear light to display-linear light for a
// peak luminance of peakNits, per colorspace.rs's hlg_ootf.
func hlgOOTF(sceneLinear, peakNits float64) float64 {
	gamma := 1.2 + 0.42*math.Log10(peakNits/1000)
	return math.Pow(sceneLinear, gamma)
}

// toneMapToSDR reinhard-maps HDR linear light down to an SDR-displayable
// [0,1] range, per colorspace.rs's tone_map_to_sdr.
func toneMapToSDR(tf TransferFunction, linear float64) float64 {
	switch tf {
	case TransferPQ:
		return reinhardToneMap(linear, 10000, 100)
	case TransferHLG:
		return reinhardToneMap(hlgOOTF(linear, 1000), 1000, 100)
	default:
		return clamp01(linear)
	}
}

func reinhardToneMap(linear, peakNits, targetNits float64) float64 {
	if linear <= 0 {
		return 0
	}
	whitePoint := peakNits / targetNits
	whitePointSq := whitePoint * whitePoint
	numerator := linear * (1 + linear/whitePointSq)
	denominator := 1 + linear
	return clamp01(numerator / denominator)
}

// applySDROETF converts linear light to an sRGB signal value, per
// colorspace.rs's apply_sdr_oetf.
func applySDROETF(linear float64) float64 {
	linear = clamp01(linear)
	if linear <= 0.0031308 {
		return 12.92 * linear
	}
	return 1.055*math.Pow(linear, 1/2.4) - 0.055
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ConvertFrameHDR runs the full YCbCr -> linear -> tone-map -> sRGB
// pipeline for HDR transfer functions, per colorspace.rs's
// ycbcr_to_rgb8. Unlike ConvertFrame's fixed-point path, this operates
// pixel-by-pixel in floating point; it exists for PQ/HLG content, which
// convert.go's table of fixed-point matrices has no entry for.
func ConvertFrameHDR(f *hevc.Frame, alpha *hevc.Frame, l Layout, opts Options, tf TransferFunction) []byte {
	width := f.CroppedWidth()
	height := f.CroppedHeight()
	cropX := f.CropLeft()
	cropY := f.CropTop()
	bitDepth := f.SPS.BitDepthLuma

	subW, subH := chromaSubsampling(f)
	bpp := l.BytesPerPixel()
	out := make([]byte, width*height*bpp)
	bgr := l.bgrOrder()
	hasAlpha := l.hasAlpha()

	outIdx := 0
	for y := 0; y < height; y++ {
		fy := y + cropY
		cy := fy / subH
		for x := 0; x < width; x++ {
			fx := x + cropX
			cx := fx / subW

			yVal := f.Y[fy*f.YStride+fx]
			var cbVal, crVal uint16
			if len(f.Cb) != 0 {
				cbVal = f.Cb[cy*f.CStride+cx]
				crVal = f.Cr[cy*f.CStride+cx]
			} else {
				half := uint16(1) << uint(bitDepth-1)
				cbVal, crVal = half, half
			}

			rSig, gSig, bSig := normalizedYCbCrToRGB(yVal, cbVal, crVal, bitDepth, opts.Range, opts.Matrix)

			rLin := applyEOTF(tf, rSig)
			gLin := applyEOTF(tf, gSig)
			bLin := applyEOTF(tf, bSig)

			rSdr := toneMapToSDR(tf, rLin)
			gSdr := toneMapToSDR(tf, gLin)
			bSdr := toneMapToSDR(tf, bLin)

			r := byte(math.Round(applySDROETF(rSdr) * 255))
			g := byte(math.Round(applySDROETF(gSdr) * 255))
			b := byte(math.Round(applySDROETF(bSdr) * 255))

			if bgr {
				out[outIdx], out[outIdx+1], out[outIdx+2] = b, g, r
			} else {
				out[outIdx], out[outIdx+1], out[outIdx+2] = r, g, b
			}
			if hasAlpha {
				a := byte(255)
				if alpha != nil {
					shift := uint(0)
					if bitDepth > 8 {
						shift = uint(bitDepth - 8)
					}
					a = clampByte(int32(alpha.Y[fy*alpha.YStride+fx] >> shift))
				}
				out[outIdx+3] = a
			}
			outIdx += bpp
		}
	}
	return out
}
