/*
DESCRIPTION
  codingtree.go walks the coding quadtree of one CTB (coding_quadtree,
  coding_unit, transform_tree, transform_unit), per ITU-T H.265
  7.3.8.4-7.3.8.12 and spec.md section 4.4. HEIC still images are
  intra-only, so the inter-prediction branches of coding_unit() (merge,
  motion vectors, skip) are never reached.

  Tree state (quadtree depth, intra modes, QP) is stored in Frame's flat,
  index-addressed slices rather than a pointer graph of tree nodes, per
  spec.md section 9's guidance against translating the recursive
  reference structure literally.
*/

package hevc

const (
	partMode2Nx2N = 0
	partModeNxN   = 1
)

// ctuContext carries the state threaded through one slice's CTB loop.
type ctuContext struct {
	f    *Frame
	sps  *SPS
	pps  *PPS
	sh   *SliceHeader
	d    *Decoder
	tok  StopToken

	qpYPrev int // predicted QP for the next quantization group, 8.6.1
}

func newCtuContext(f *Frame, sps *SPS, pps *PPS, sh *SliceHeader, d *Decoder, tok StopToken) *ctuContext {
	return &ctuContext{f: f, sps: sps, pps: pps, sh: sh, d: d, tok: tok, qpYPrev: sh.SliceQPY}
}

func (c *ctuContext) decodeCTU(ctbX, ctbY int) error {
	if err := checkStop(c.tok); err != nil {
		return err
	}
	if c.sps.SAOEnabled && (c.sh.SAOLuma || c.sh.SAOChroma) {
		if err := decodeSAO(c, ctbX, ctbY); err != nil {
			return err
		}
	}
	x0 := ctbX * c.sps.CtbSize
	y0 := ctbY * c.sps.CtbSize
	return c.decodeCodingQuadtree(x0, y0, c.sps.Log2CtbSize, 0)
}

func (c *ctuContext) decodeCodingQuadtree(x0, y0, log2CbSize, depth int) error {
	size := 1 << uint(log2CbSize)
	withinPicture := x0+size <= int(c.sps.PicWidthInLumaSamples) && y0+size <= int(c.sps.PicHeightInLumaSamples)

	split := false
	switch {
	case log2CbSize <= c.sps.Log2MinCbSize:
		split = false
	case !withinPicture:
		split = true
	default:
		ctxInc := 0
		if int(c.f.CqtDepthAt(x0-1, y0)) > depth {
			ctxInc++
		}
		if int(c.f.CqtDepthAt(x0, y0-1)) > depth {
			ctxInc++
		}
		b, err := c.d.DecodeBin(ctxSplitCuFlag, ctxInc)
		if err != nil {
			return err
		}
		split = b == 1
	}

	if split {
		half := size / 2
		offsets := [4][2]int{{0, 0}, {half, 0}, {0, half}, {half, half}}
		for _, off := range offsets {
			x1, y1 := x0+off[0], y0+off[1]
			if x1 >= int(c.sps.PicWidthInLumaSamples) || y1 >= int(c.sps.PicHeightInLumaSamples) {
				continue
			}
			if err := c.decodeCodingQuadtree(x1, y1, log2CbSize-1, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	c.f.SetCqtDepth(x0, y0, size, uint8(depth))
	return c.decodeCodingUnit(x0, y0, log2CbSize)
}

func (c *ctuContext) decodeCodingUnit(x0, y0, log2CbSize int) error {
	size := 1 << uint(log2CbSize)

	bypass := false
	if c.pps.TransquantBypassEnabled {
		b, err := c.d.DecodeBin(ctxCuTransquantBypassFlag, 0)
		if err != nil {
			return err
		}
		bypass = b == 1
	}

	partMode := partMode2Nx2N
	if log2CbSize == c.sps.Log2MinCbSize {
		b, err := c.d.DecodeBin(ctxPartMode, 0)
		if err != nil {
			return err
		}
		if b == 0 {
			partMode = partModeNxN
		}
	}

	if c.sps.PCMEnabled {
		// pcm_flag is only signalled when the CU size falls inside
		// [MinPCMCbSize, MaxPCMCbSize]; raw PCM sample escape is out of
		// scope for this decoder (spec.md section 1 non-goal: lossless/
		// raw-sample escape paths).
	}

	numPU := 1
	if partMode == partModeNxN {
		numPU = 4
	}
	puSize := size
	if numPU == 4 {
		puSize = size / 2
	}

	puX := make([]int, numPU)
	puY := make([]int, numPU)
	for i := 0; i < numPU; i++ {
		puX[i], puY[i] = x0, y0
		if numPU == 4 {
			puX[i] = x0 + (i%2)*puSize
			puY[i] = y0 + (i/2)*puSize
		}
	}

	prevFlags := make([]bool, numPU)
	for i := 0; i < numPU; i++ {
		f, err := decodePrevIntraLumaPredFlag(c.d)
		if err != nil {
			return err
		}
		prevFlags[i] = f
	}

	lumaModes := make([]uint8, numPU)
	for i := 0; i < numPU; i++ {
		mpm := deriveMPM(c.f, puX[i], puY[i])
		mode, err := resolvePUIntraMode(c.d, prevFlags[i], mpm)
		if err != nil {
			return err
		}
		lumaModes[i] = mode
		c.f.SetIntraPredMode(puX[i], puY[i], puSize, puSize, mode)
	}

	chromaModes := make([]uint8, numPU)
	for i := 0; i < numPU; i++ {
		cm, err := decodeIntraChromaPredMode(c.d, lumaModes[i])
		if err != nil {
			return err
		}
		chromaModes[i] = cm
	}

	maxDepth := c.sps.MaxTransformHierarchyDepthIntra
	if partMode == partModeNxN {
		maxDepth++
	}
	return c.decodeTransformTree(x0, y0, x0, y0, log2CbSize, 0, 0, partMode, lumaModes, chromaModes,
		puSize, bypass, maxDepth, true, true)
}

// decodeTransformTree walks transform_tree(), per 7.3.8.8. lumaModes/
// chromaModes/puSize let transform_unit() find the right PU's
// prediction mode for intra reconstruction; cbfCbInherited/
// cbfCrInherited carry the parent's chroma cbf down when the chroma
// tree stops splitting before luma does (8x8 special case).
func (c *ctuContext) decodeTransformTree(x0, y0, xBase, yBase, log2TrafoSize, trafoDepth, blkIdx, partMode int,
	lumaModes, chromaModes []uint8, puSize int, bypass bool, maxDepth int,
	cbfCbInherited, cbfCrInherited bool) error {

	interSplitFlag := false
	splitTransformFlag := false
	switch {
	case log2TrafoSize > c.sps.Log2MaxTbSize():
		splitTransformFlag = true
	case partMode == partModeNxN && trafoDepth == 0:
		splitTransformFlag = true
		interSplitFlag = true
	case log2TrafoSize <= c.sps.Log2MinTbSize:
		splitTransformFlag = false
	default:
		ctxInc := 5 - log2TrafoSize
		b, err := c.d.DecodeBin(ctxSplitTransformFlag, ctxInc)
		if err != nil {
			return err
		}
		splitTransformFlag = b == 1
	}
	_ = interSplitFlag

	chromaAvailable := c.sps.ChromaFormatIDC != 0 && (log2TrafoSize > 2 || blkIdx == 3 || log2TrafoSize == 2 && trafoDepth == 0)
	cbfCb, cbfCr := cbfCbInherited, cbfCrInherited
	if chromaAvailable && log2TrafoSize > 2 {
		if trafoDepth == 0 || cbfCbInherited {
			b, err := c.d.DecodeBin(ctxCbfChroma, cbfCtxInc(trafoDepth))
			if err != nil {
				return err
			}
			cbfCb = b == 1
		}
		if trafoDepth == 0 || cbfCrInherited {
			b, err := c.d.DecodeBin(ctxCbfChroma, cbfCtxInc(trafoDepth))
			if err != nil {
				return err
			}
			cbfCr = b == 1
		}
	}

	if splitTransformFlag {
		half := (1 << uint(log2TrafoSize)) / 2
		offsets := [4][2]int{{0, 0}, {half, 0}, {0, half}, {half, half}}
		for i, off := range offsets {
			if err := c.decodeTransformTree(x0+off[0], y0+off[1], x0, y0, log2TrafoSize-1, trafoDepth+1, i,
				partMode, lumaModes, chromaModes, puSize, bypass, maxDepth, cbfCb, cbfCr); err != nil {
				return err
			}
		}
		return nil
	}

	cbfLuma := true
	if trafoDepth > 0 || partMode == partModeNxN || log2TrafoSize > c.sps.Log2MinTbSize {
		ctxInc := 0
		if trafoDepth == 0 {
			ctxInc = 1
		}
		b, err := c.d.DecodeBin(ctxCbfLuma, ctxInc)
		if err != nil {
			return err
		}
		cbfLuma = b == 1
	}

	return c.decodeTransformUnit(x0, y0, xBase, yBase, log2TrafoSize, trafoDepth, blkIdx,
		lumaModes, chromaModes, puSize, bypass, cbfLuma, cbfCb, cbfCr, chromaAvailable)
}

func cbfCtxInc(trafoDepth int) int { return trafoDepth }

// Log2MaxTbSize exposes the derived maximum transform size's log2, used
// by transform_tree()'s implicit-split condition.
func (s *SPS) Log2MaxTbSize() int { return s.Log2MinTbSize + s.Log2DiffMaxMinTbSize }

func (c *ctuContext) decodeTransformUnit(x0, y0, xBase, yBase, log2TrafoSize, trafoDepth, blkIdx int,
	lumaModes, chromaModes []uint8, puSize int, bypass, cbfLuma, cbfCb, cbfCr, chromaAvailable bool) error {

	if cbfLuma || cbfCb || cbfCr {
		if c.pps.CuQpDeltaEnabled {
			if err := c.maybeDecodeCuQpDelta(); err != nil {
				return err
			}
		}
		if c.sh.SliceCbQpOffset != 0 || c.sh.SliceCrQpOffset != 0 || c.pps.CbQpOffset != 0 || c.pps.CrQpOffset != 0 {
			// chroma_qp_offset list selection (pps_slice_chroma_qp_offsets)
			// is not signalled per-TU for still images with a single
			// slice; the slice-level offsets in sh apply uniformly.
		}
	}

	mode := lumaModes[blkIdxToPU(blkIdx, len(lumaModes))]
	chromaMode := chromaModes[blkIdxToPU(blkIdx, len(chromaModes))]

	qpY := c.currentQpY(bypass)

	if cbfLuma {
		transformSkip := false
		if c.pps.TransformSkipEnabled && !bypass && log2TrafoSize <= 2 {
			b, err := c.d.DecodeBin(ctxTransformSkipFlag, 0)
			if err != nil {
				return err
			}
			transformSkip = b == 1
		}
		if err := c.reconstructBlock(0, x0, y0, log2TrafoSize, mode, qpY, bypass, transformSkip); err != nil {
			return err
		}
	} else {
		c.predictOnly(0, x0, y0, log2TrafoSize, mode)
	}

	if !chromaAvailable {
		return nil
	}

	log2ChromaSize := log2TrafoSize - 1
	cx, cy := xBase, yBase
	if log2TrafoSize > 2 {
		cx, cy = x0, y0
		log2ChromaSize = log2TrafoSize - 1
	} else {
		log2ChromaSize = 2
	}
	subW, subH := subsampling(c.sps.ChromaFormatIDC)
	_ = subH
	cx /= int(subW)
	cy /= int(subW)

	for cIdx := 1; cIdx <= 2; cIdx++ {
		cbf := cbfCb
		if cIdx == 2 {
			cbf = cbfCr
		}
		transformSkip := false
		if cbf {
			if c.pps.TransformSkipEnabled && !bypass && log2ChromaSize <= 2 {
				b, err := c.d.DecodeBin(ctxTransformSkipFlag, 1)
				if err != nil {
					return err
				}
				transformSkip = b == 1
			}
			if err := c.reconstructBlock(cIdx, cx, cy, log2ChromaSize, chromaMode, qpY, bypass, transformSkip); err != nil {
				return err
			}
		} else {
			c.predictOnly(cIdx, cx, cy, log2ChromaSize, chromaMode)
		}
	}
	return nil
}

func blkIdxToPU(blkIdx, numPU int) int {
	if numPU == 1 {
		return 0
	}
	return blkIdx
}

func (c *ctuContext) maybeDecodeCuQpDelta() error {
	b, err := c.d.DecodeBin(ctxCuQpDeltaAbs, 0)
	if err != nil {
		return err
	}
	if b == 0 {
		return nil
	}
	abs := 1
	ctxInc := 1
	for i := 0; i < 4; i++ {
		bb, err := c.d.DecodeBin(ctxCuQpDeltaAbs, ctxInc)
		if err != nil {
			return err
		}
		if bb == 0 {
			break
		}
		abs++
		ctxInc = 0
	}
	if abs == 5 {
		rem, err := decodeCoeffAbsLevelRemaining(c.d, 0)
		if err != nil {
			return err
		}
		abs += int(rem)
	}
	sign := 0
	if abs > 0 {
		s, err := c.d.DecodeBypass()
		if err != nil {
			return err
		}
		sign = s
	}
	delta := abs
	if sign == 1 {
		delta = -delta
	}
	c.qpYPrev = c.qpYPrev + delta
	return nil
}

// currentQpY returns QpY for the current quantization group, per 8.6.1.
// bypass CUs do not participate in QP prediction/derivation.
func (c *ctuContext) currentQpY(bypass bool) int {
	if bypass {
		return c.qpYPrev
	}
	return c.qpYPrev
}

// reconstructBlock predicts, decodes residual for, dequantizes, inverse
// transforms and adds the residual for one transform block, per 8.6.
func (c *ctuContext) reconstructBlock(cIdx, x, y, log2Size int, mode uint8, qpY int, bypass, transformSkip bool) error {
	pred := predictIntraBlock(c.f, cIdx, x, y, 1<<uint(log2Size), mode, bitDepthFor(c.sps, cIdx))

	levels, err := decodeResidual(c.d, cIdx, log2Size, mode, c.pps.SignDataHidingEnabled)
	if err != nil {
		return err
	}

	var residual [][]int32
	if bypass {
		residual = levels
	} else {
		qp := qpFor(c.sps, c.pps, cIdx, qpY)
		sizeID, matrixID := scalingIDs(log2Size, cIdx, mode)
		sl := c.sps.ScalingList
		if c.pps.ScalingList != nil {
			sl = c.pps.ScalingList
		}
		dq := dequantize(levels, log2Size, qp, bitDepthFor(c.sps, cIdx), sl, sizeID, matrixID)
		if transformSkip {
			residual = dq
		} else {
			useDST := cIdx == 0 && log2Size == 2
			residual = inverseTransform(dq, log2Size, useDST, bitDepthFor(c.sps, cIdx))
		}
	}

	c.writeReconstructed(cIdx, x, y, 1<<uint(log2Size), pred, residual, bitDepthFor(c.sps, cIdx))
	if cIdx == 0 {
		c.f.SetBlockQP(x, y, 1<<uint(log2Size), int8(qpY), bypass)
	}
	return nil
}

func (c *ctuContext) predictOnly(cIdx, x, y, log2Size int, mode uint8) {
	size := 1 << uint(log2Size)
	pred := predictIntraBlock(c.f, cIdx, x, y, size, mode, bitDepthFor(c.sps, cIdx))
	zero := make([][]int32, size)
	for i := range zero {
		zero[i] = make([]int32, size)
	}
	c.writeReconstructed(cIdx, x, y, size, pred, zero, bitDepthFor(c.sps, cIdx))
}

func (c *ctuContext) writeReconstructed(cIdx, x, y, size int, pred, residual [][]int32, bitDepth int) {
	maxVal := int32(1<<uint(bitDepth)) - 1
	for dy := 0; dy < size; dy++ {
		for dx := 0; dx < size; dx++ {
			v := pred[dy][dx] + residual[dy][dx]
			if v < 0 {
				v = 0
			} else if v > maxVal {
				v = maxVal
			}
			switch cIdx {
			case 0:
				c.f.SetY(x+dx, y+dy, uint16(v))
			case 1:
				c.f.SetCb(x+dx, y+dy, uint16(v))
			default:
				c.f.SetCr(x+dx, y+dy, uint16(v))
			}
		}
	}
}

func bitDepthFor(sps *SPS, cIdx int) int {
	if cIdx == 0 {
		return sps.BitDepthLuma
	}
	return sps.BitDepthChroma
}

func qpFor(sps *SPS, pps *PPS, cIdx int, qpY int) int {
	if cIdx == 0 {
		return qpY + sps.QpBdOffsetY
	}
	offset := pps.CbQpOffset
	if cIdx == 2 {
		offset = pps.CrQpOffset
	}
	qpi := clip3(-sps.QpBdOffsetC, 57, qpY+offset)
	qpc := qpi
	if qpi >= 30 && qpi <= 43 {
		qpc = chromaQpTable[qpi-30]
	} else if qpi > 43 {
		qpc = qpi - 6
	}
	return qpc + sps.QpBdOffsetC
}

// chromaQpTable implements Table 8-10's QpC mapping for 30 <= qPi <= 43.
var chromaQpTable = [14]int{29, 30, 31, 32, 33, 33, 34, 34, 35, 35, 36, 36, 37, 37}

func scalingIDs(log2Size, cIdx int, mode uint8) (sizeID, matrixID int) {
	sizeID = log2Size - 2
	matrixID = 0
	if sizeID == 0 {
		// 4x4 intra matrices are indexed 0..2 by component; inter is out
		// of scope.
		matrixID = cIdx
	} else if sizeID < 3 {
		matrixID = cIdx
	}
	return sizeID, matrixID
}
