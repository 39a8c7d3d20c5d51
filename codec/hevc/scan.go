/*
DESCRIPTION
  scan.go builds the diagonal/horizontal/vertical coefficient scan orders
  used by residual.go, per ITU-T H.265 6.5.3 (up-right diagonal scan) and
  6.5.4/6.5.5 (horizontal/vertical). Computed once per block size rather
  than hand-tabulated, since the generating algorithm is short and the
  tables it would otherwise require are large.
*/

package hevc

import "sync"

type scanPos struct{ x, y int }

var scanCache sync.Map // key: [2]int{n, scanIdx} -> []scanPos

func scanOrder(n, scanIdx int) []scanPos {
	key := [2]int{n, scanIdx}
	if v, ok := scanCache.Load(key); ok {
		return v.([]scanPos)
	}
	var s []scanPos
	switch scanIdx {
	case 1:
		s = horizontalScan(n)
	case 2:
		s = verticalScan(n)
	default:
		s = diagonalScan(n)
	}
	scanCache.Store(key, s)
	return s
}

// diagonalScan implements the up-right diagonal scan order of 6.5.3.
func diagonalScan(n int) []scanPos {
	s := make([]scanPos, 0, n*n)
	x, y := 0, 0
	for len(s) < n*n {
		for y >= 0 {
			if x < n && y < n {
				s = append(s, scanPos{x, y})
			}
			y--
			x++
		}
		y = x
		x = 0
	}
	return s
}

func horizontalScan(n int) []scanPos {
	s := make([]scanPos, 0, n*n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			s = append(s, scanPos{x, y})
		}
	}
	return s
}

func verticalScan(n int) []scanPos {
	s := make([]scanPos, 0, n*n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			s = append(s, scanPos{x, y})
		}
	}
	return s
}

// scanIdxFor derives the scanIdx used for both the sub-block scan and
// the in-sub-block coefficient scan, per Table 8-4: only 4x4 luma/chroma
// blocks and 8x8 luma blocks vary by prediction mode; everything else is
// diagonal.
func scanIdxFor(log2TrafoSize, cIdx int, predModeIntra uint8) int {
	if log2TrafoSize == 2 || (log2TrafoSize == 3 && cIdx == 0) {
		m := int(predModeIntra)
		switch {
		case m >= 6 && m <= 14:
			return 2
		case m >= 22 && m <= 30:
			return 1
		}
	}
	return 0
}
