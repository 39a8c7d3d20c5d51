/*
DESCRIPTION
  matrix.go holds the YCbCr->RGB matrix coefficient tables, per spec.md
  section 4.9: BT.601/709/2020, each in limited- and full-range fixed-point
  form. Grounded on original_source/src/hevc/color_convert.rs's
  get_coefficients, which derives these same fixed-point constants from
  the ITU-R Kr/Kb matrix coefficients at build time; the constants are
  carried over directly rather than re-derived from floating point, to
  match the reference decoder's rounding bit for bit.
*/

package colorconvert

// Matrix identifies which ITU-R matrix coefficients convert YCbCr to RGB,
// per H.265 Table E.5's matrix_coeffs values.
type Matrix int

const (
	BT601 Matrix = iota
	BT709
	BT2020
)

// MatrixFromNclx maps a colr box's nclx matrix_coefficients value (H.265
// Table E.5) onto the Matrix this package supports, defaulting unknown or
// unimplemented values to BT709 (matrix_coeffs 2 is "unspecified", and the
// H.265 default for absent VUI is BT.709 for HD content).
func MatrixFromNclx(matrixCoefficients uint16) Matrix {
	switch matrixCoefficients {
	case 1:
		return BT709
	case 9:
		return BT2020
	case 5, 6:
		return BT601
	default:
		return BT709
	}
}

// Range is the luma/chroma sample range a YCbCr plane uses.
type Range int

const (
	Limited Range = iota
	Full
)

// RangeFromFullRange maps a colr box's full_range_flag onto Range.
func RangeFromFullRange(fullRange bool) Range {
	if fullRange {
		return Full
	}
	return Limited
}

// coefficients holds one matrix/range combination's fixed-point YCbCr->RGB
// transform: r = (yScaled + crToR*cr + rounding) >> shift, g = (yScaled +
// cbToG*cb + crToG*cr + rounding) >> shift, b = (yScaled + cbToB*cb +
// rounding) >> shift, where yScaled = (y - yBias) * yScale.
type coefficients struct {
	crToR, cbToG, crToG, cbToB int32
	yBias, yScale              int32
	rounding                   int32
	shift                      uint32
}

// lookupCoefficients returns the fixed-point coefficients for m/r, per
// color_convert.rs's get_coefficients. Full-range uses a x256 fixed point
// scale (shift 8); limited-range uses x8192 (shift 13), since limited
// range's narrower luma excursion (16-235) needs the extra precision bits.
func lookupCoefficients(m Matrix, r Range) coefficients {
	if r == Full {
		var crToR, cbToG, crToG, cbToB int32
		switch m {
		case BT709:
			crToR, cbToG, crToG, cbToB = 403, -48, -120, 475
		case BT2020:
			crToR, cbToG, crToG, cbToB = 377, -42, -146, 482
		default: // BT601
			crToR, cbToG, crToG, cbToB = 359, -88, -183, 454
		}
		return coefficients{crToR, cbToG, crToG, cbToB, 0, 256, 128, 8}
	}

	var crToR, cbToG, crToG, cbToB int32
	switch m {
	case BT709:
		crToR, cbToG, crToG, cbToB = 14744, -1754, -4383, 17373
	case BT2020:
		crToR, cbToG, crToG, cbToB = 13806, -1541, -5349, 17615
	default: // BT601
		crToR, cbToG, crToG, cbToB = 13126, -3222, -6686, 16591
	}
	return coefficients{crToR, cbToG, crToG, cbToB, 16, 9576, 4096, 13}
}
