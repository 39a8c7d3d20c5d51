/*
DESCRIPTION
  dequant.go implements transform-coefficient scaling, per ITU-T H.265
  8.6.3. Shift amounts and the level-scale constants follow the standard
  directly; scaling-list matrices are expanded from sps.go/pps.go's
  parsed ScalingListData (or a flat factor of 16 when no custom list was
  signalled).
*/

package hevc

var levelScale = [6]int32{40, 45, 51, 57, 64, 72}

// dequantize scales decoded transform coefficient levels into the
// transform-domain array the inverse transform operates on.
func dequantize(coeff [][]int32, log2Size, qp, bitDepth int, sl *ScalingListData, sizeID, matrixID int) [][]int32 {
	n := 1 << uint(log2Size)
	m := buildScalingMatrix(sl, sizeID, matrixID, n)

	bdShift := bitDepth + log2Size - 5
	if bdShift < 0 {
		bdShift = 0
	}
	qpPer := qp / 6
	qpRem := qp % 6
	add := int64(1) << uint(bdShift-1)

	const coeffMin, coeffMax = -32768, 32767

	out := make([][]int32, n)
	for y := 0; y < n; y++ {
		out[y] = make([]int32, n)
		for x := 0; x < n; x++ {
			v := int64(coeff[y][x]) * int64(m[y][x]) * int64(levelScale[qpRem])
			v <<= uint(qpPer)
			v = (v + add) >> uint(bdShift)
			if v < coeffMin {
				v = coeffMin
			} else if v > coeffMax {
				v = coeffMax
			}
			out[y][x] = int32(v)
		}
	}
	return out
}

// buildScalingMatrix expands a parsed ScalingListData entry (or the flat
// default) into an n x n per-coefficient scaling factor matrix, per
// 7.4.5's "ScalingFactor" derivation: sizeId 0/1 map 1:1 onto 4x4/8x8,
// sizeId 2/3 (16x16/32x32) replicate the 8x8 pattern.
func buildScalingMatrix(sl *ScalingListData, sizeID, matrixID, n int) [][]int32 {
	m := make([][]int32, n)
	for i := range m {
		m[i] = make([]int32, n)
	}
	if sl == nil || sl.Lists[sizeID][matrixID] == nil {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				m[y][x] = 16
			}
		}
		return m
	}

	list := sl.Lists[sizeID][matrixID]
	coefN := 4
	if sizeID > 0 {
		coefN = 8
	}
	ratio := n / coefN
	if ratio < 1 {
		ratio = 1
	}
	diag := scanOrder(coefN, 0)
	for i, p := range diag {
		if i >= len(list) {
			break
		}
		v := int32(list[i])
		for dy := 0; dy < ratio; dy++ {
			for dx := 0; dx < ratio; dx++ {
				yy := p.y*ratio + dy
				xx := p.x*ratio + dx
				if yy < n && xx < n {
					m[yy][xx] = v
				}
			}
		}
	}
	if sizeID >= 2 {
		m[0][0] = int32(sl.DCCoeff[sizeID-2][matrixID])
	}
	return m
}
