/*
DESCRIPTION
  scalinglist.go parses scaling_list_data() (ITU-T H.265 7.3.4) used by
  both SPS and PPS to customize dequantization matrices, per spec.md
  section 4.6's "per-position scaling-matrix entry". When no custom
  scaling list is signalled, dequant.go falls back to the flat (all-16)
  default per matrix size, matching an HEVC decoder with
  scaling_list_enabled_flag unset.
*/

package hevc

// ScalingListData holds the decoded scaling matrices for sizes 4x4, 8x8,
// 16x16 and 32x32, each with up to 6 matrixId entries (per ITU-T H.265
// Table 7-3 sizeId indexing).
type ScalingListData struct {
	// Lists[sizeId][matrixId] is the flattened scaling matrix in
	// up-right-diagonal scan order. sizeId 0 (4x4) has 16 entries;
	// sizeId>0 has 64 entries (16x16/32x32 reuse the 8x8 pattern at
	// coarser granularity per the standard).
	Lists [4][6][]int
	// DCCoeff[sizeId-2][matrixId] holds scaling_list_dc_coef_minus8+8 for
	// sizeId 2 (16x16) and 3 (32x32).
	DCCoeff [2][6]int
}

func parseScalingListData(r *fieldReader) (*ScalingListData, error) {
	sl := &ScalingListData{}
	for sizeID := 0; sizeID < 4; sizeID++ {
		step := 1
		if sizeID == 3 {
			step = 3
		}
		for matrixID := 0; matrixID < 6; matrixID += step {
			predModeFlag := r.flag() // scaling_list_pred_mode_flag
			numCoeff := 16
			if sizeID > 0 {
				numCoeff = 64
			}
			if !predModeFlag {
				delta := r.ue() // scaling_list_pred_matrix_id_delta
				if delta == 0 {
					sl.Lists[sizeID][matrixID] = defaultScalingList(sizeID)
				} else {
					refMatrixID := matrixID - int(delta)*step
					if refMatrixID < 0 || refMatrixID >= 6 || sl.Lists[sizeID][refMatrixID] == nil {
						return nil, newErr(InvalidParameterSet, "scaling_list_data: bad pred_matrix_id_delta")
					}
					sl.Lists[sizeID][matrixID] = append([]int(nil), sl.Lists[sizeID][refMatrixID]...)
				}
			} else {
				nextCoef := 8
				coefNum := numCoeff
				if coefNum > 64 {
					coefNum = 64
				}
				if sizeID > 1 {
					dc := int(r.se()) + 8
					sl.DCCoeff[sizeID-2][matrixID] = dc
					nextCoef = dc
				}
				list := make([]int, numCoeff)
				for i := 0; i < coefNum; i++ {
					delta := int(r.se())
					nextCoef = (nextCoef + delta + 256) % 256
					list[i] = nextCoef
				}
				sl.Lists[sizeID][matrixID] = list
			}
			if err := r.err(); err != nil {
				return nil, wrapErr(InvalidParameterSet, "scaling_list_data", err)
			}
		}
	}
	return sl, nil
}

// defaultScalingList returns the standard's default flat/diagonal
// matrices (ITU-T H.265 Tables 7-5/7-6) for intra use, in the same
// up-right-diagonal scan order as ScalingListData.Lists. Non-goal: the
// inter-prediction default matrices are omitted since HEIC stills carry
// only I-slices.
func defaultScalingList(sizeID int) []int {
	if sizeID == 0 {
		return []int{16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16}
	}
	return []int{
		16, 16, 16, 16, 16, 16, 16, 16,
		16, 16, 17, 16, 17, 16, 17, 18,
		17, 18, 18, 17, 18, 21, 19, 20,
		21, 20, 19, 21, 24, 22, 22, 24,
		24, 22, 22, 24, 25, 25, 27, 30,
		27, 25, 25, 29, 31, 35, 35, 31,
		29, 36, 41, 44, 41, 36, 47, 54,
		54, 47, 65, 70, 65, 88, 88, 115,
	}
}
