/*
DESCRIPTION
  deblock.go implements the in-loop deblocking filter, per ITU-T H.265
  8.7.2 and spec.md section 4.7. HEIC still images carry only intra CUs,
  so boundary strength is taken as 2 at every 8-sample-grid edge; the
  inter-prediction bS==1 case never arises. Neither the slice/tile
  loop-filter-across flags nor cu_transquant_bypass_flag is consulted,
  so those edges and bypass-coded blocks are filtered too. Runs on a snapshot taken before SAO, per spec.md section 9's
  filter-ordering note (sao.go reads that snapshot separately).
*/

package hevc

// betaTable and tcTable implement Table 8-12's beta'/tc' lookup, indexed
// by Q = Clip3(0, 51, qpAvg + offset).
var betaTable = [52]int{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 20, 22, 24,
	26, 28, 30, 32, 34, 36, 38, 40, 42, 44, 46, 48, 50, 52, 54, 56,
	58, 60, 62, 64,
}

// tcTable runs 0-53 (Table 8-23): Q = qpAvg + 2*(bS-1) + tc_offset can
// exceed 51, since bS is always 2 for intra content and tc_offset
// (2*slice_tc_offset_div2) can add up to 12; Q is clipped to 0-53.
var tcTable = [54]int{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 3,
	3, 3, 3, 4, 4, 4, 5, 5, 6, 6, 7, 8, 9, 10, 11, 13,
	14, 16, 18, 20, 22, 24,
}

// ApplyDeblock filters frame in place, reading unfiltered neighbor
// samples from src (so that filtering one edge never sees another
// already-filtered edge's output, matching the standard's single-pass
// dependency on the pre-filter picture along each direction).
func ApplyDeblock(frame, src *Frame, sh *SliceHeader) {
	if sh.DeblockingFilterDisabled {
		return
	}
	w, h := frame.Width, frame.Height
	for x := 8; x < w; x += 8 {
		for y := 0; y < h; y += 4 {
			deblockLumaEdge(frame, src, sh, x, y, true)
		}
	}
	for y := 8; y < h; y += 8 {
		for x := 0; x < w; x += 4 {
			deblockLumaEdge(frame, src, sh, x, y, false)
		}
	}
	if frame.SPS.ChromaFormatIDC == 0 {
		return
	}
	subW, subH := subsampling(frame.SPS.ChromaFormatIDC)
	cw, ch := frame.ChromaWidth(), frame.ChromaHeight()
	step := 8 / int(subW)
	if step < 2 {
		step = 2
	}
	for x := step; x < cw; x += step {
		for y := 0; y < ch; y += 2 {
			deblockChromaEdge(frame, src, x, y, true)
		}
	}
	stepY := 8 / int(subH)
	if stepY < 2 {
		stepY = 2
	}
	for y := stepY; y < ch; y += stepY {
		for x := 0; x < cw; x += 2 {
			deblockChromaEdge(frame, src, x, y, false)
		}
	}
}

// deblockLumaEdge filters a 4-sample run of one luma edge (vertical if
// vertical is true, meaning the edge runs top-to-bottom at column x;
// otherwise horizontal at row y), per 8.7.2.5: the d<beta edge decision,
// the strong/weak filter decision (8.7.2.5.3's dSam0/dSam3/dE/dEp/dEq),
// and both the strong (8.7.2.5.7) and weak (8.7.2.5.6) filters.
func deblockLumaEdge(frame, src *Frame, sh *SliceHeader, x, y int, vertical bool) {
	at := func(d int, i int) int32 {
		if vertical {
			return int32(src.YAt(x+d, y+i))
		}
		return int32(src.YAt(x+i, y+d))
	}

	px, py := x, y
	if vertical {
		px = x - 1
	} else {
		py = y - 1
	}
	qpP := int(frame.QpY[frame.minBlockIndex(px, py)])
	qpQ := int(frame.QpY[frame.minBlockIndex(x, y)])
	qpAvg := (qpP + qpQ + 1) >> 1

	const bS = 2 // HEIC carries only intra CUs: every filtered edge has bS==2.
	beta := int32(betaTable[clip3(0, 51, qpAvg+sh.BetaOffsetDiv2*2)]) << uint(frame.SPS.BitDepthLuma-8)
	tc := int32(tcTable[clip3(0, 53, qpAvg+2*(bS-1)+sh.TcOffsetDiv2*2)]) << uint(frame.SPS.BitDepthLuma-8)
	if tc == 0 {
		return
	}

	// p[i][k]/q[i][k]: i is distance from the edge (0 nearest), k is
	// position along the edge (0..3).
	var p, q [4][4]int32
	for k := 0; k < 4; k++ {
		for i := 0; i < 4; i++ {
			p[i][k] = at(-1-i, k)
			q[i][k] = at(i, k)
		}
	}

	dp0 := absInt32(p[2][0] - 2*p[1][0] + p[0][0])
	dp3 := absInt32(p[2][3] - 2*p[1][3] + p[0][3])
	dq0 := absInt32(q[2][0] - 2*q[1][0] + q[0][0])
	dq3 := absInt32(q[2][3] - 2*q[1][3] + q[0][3])
	dpq0, dpq3 := dp0+dq0, dp3+dq3
	dp, dq := dp0+dp3, dq0+dq3
	d := dpq0 + dpq3
	if d >= beta {
		return
	}

	dSam0 := 2*dpq0 < beta>>2 &&
		absInt32(p[3][0]-p[0][0])+absInt32(q[0][0]-q[3][0]) < beta>>3 &&
		absInt32(p[0][0]-q[0][0]) < (5*tc+1)>>1
	dSam3 := 2*dpq3 < beta>>2 &&
		absInt32(p[3][3]-p[0][3])+absInt32(q[0][3]-q[3][3]) < beta>>3 &&
		absInt32(p[0][3]-q[0][3]) < (5*tc+1)>>1
	strong := dSam0 && dSam3
	dEp := dp < (beta+beta>>1)>>3
	dEq := dq < (beta+beta>>1)>>3

	set := func(d, k int, v int32) {
		v = clip3i32(0, int32(1<<uint(frame.SPS.BitDepthLuma))-1, v)
		if vertical {
			frame.SetY(x+d, y+k, uint16(v))
		} else {
			frame.SetY(x+k, y+d, uint16(v))
		}
	}

	for k := 0; k < 4; k++ {
		p0, p1, p2, p3 := p[0][k], p[1][k], p[2][k], p[3][k]
		q0, q1, q2, q3 := q[0][k], q[1][k], q[2][k], q[3][k]
		if strong {
			tc2 := 2 * tc
			set(-1, k, clip3i32(p0-tc2, p0+tc2, (p2+2*p1+2*p0+2*q0+q1+4)>>3))
			set(-2, k, clip3i32(p1-tc2, p1+tc2, (p2+p1+p0+q0+2)>>2))
			set(-3, k, clip3i32(p2-tc2, p2+tc2, (2*p3+3*p2+p1+p0+q0+4)>>3))
			set(0, k, clip3i32(q0-tc2, q0+tc2, (p1+2*p0+2*q0+2*q1+q2+4)>>3))
			set(1, k, clip3i32(q1-tc2, q1+tc2, (p0+q0+q1+q2+2)>>2))
			set(2, k, clip3i32(q2-tc2, q2+tc2, (p0+q0+q1+3*q2+2*q3+4)>>3))
			continue
		}
		delta := (9*(q0-p0) - 3*(q1-p1) + 8) >> 4
		if absInt32(delta) >= tc*10 {
			continue
		}
		delta = clip3i32(-tc, tc, delta)
		set(-1, k, p0+delta)
		set(0, k, q0-delta)
		if dEp {
			deltaP := clip3i32(-tc/2, tc/2, (((p2+p0+1)>>1)-p1+delta)>>1)
			set(-2, k, p1+deltaP)
		}
		if dEq {
			deltaQ := clip3i32(-tc/2, tc/2, (((q2+q0+1)>>1)-q1-delta)>>1)
			set(1, k, q1+deltaQ)
		}
	}
}

func deblockChromaEdge(frame, src *Frame, x, y int, vertical bool) {
	_ = src
	// Chroma deblocking only ever applies the 1-tap filter at bS==2,
	// which still-image intra content always has; the beta/d-threshold
	// gate (which only matters for bS==1) is skipped accordingly, per
	// 8.7.2.5.5.
	for _, plane := range []int{1, 2} {
		tc := tcTable[clip3(0, 51, int(frame.SPS.BitDepthChroma))]
		for i := 0; i < 2; i++ {
			filterChromaLine(frame, src, plane, x, y, i, vertical, tc)
		}
	}
}

func srcChromaAt(f *Frame, plane, x, y int) uint16 {
	if plane == 1 {
		return f.CbAt(x, y)
	}
	return f.CrAt(x, y)
}

func filterChromaLine(frame, src *Frame, plane, x, y, i int, vertical bool, tc int) {
	get := func(d int) int32 {
		if vertical {
			return int32(srcChromaAt(src, plane, x+d, y+i))
		}
		return int32(srcChromaAt(src, plane, x+i, y+d))
	}
	set := func(d int, v int32) {
		cv := clampSample(v, frame.SPS.BitDepthChroma)
		if vertical {
			if plane == 1 {
				frame.SetCb(x+d, y+i, cv)
			} else {
				frame.SetCr(x+d, y+i, cv)
			}
		} else {
			if plane == 1 {
				frame.SetCb(x+i, y+d, cv)
			} else {
				frame.SetCr(x+i, y+d, cv)
			}
		}
	}
	p0, q0 := get(-1), get(0)
	delta := clip3i32(-int32(tc), int32(tc), ((q0-p0)*4+4)>>3)
	set(-1, p0+delta)
	set(0, q0-delta)
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func clip3i32(lo, hi, v int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampSample(v int32, bitDepth int) uint16 {
	max := int32(1<<uint(bitDepth)) - 1
	if v < 0 {
		return 0
	}
	if v > max {
		return uint16(max)
	}
	return uint16(v)
}
