/*
DESCRIPTION
  frame.go holds the reconstructed picture and the per-block metadata the
  coding-tree, deblocking and SAO stages read and write, per spec.md
  section 9's explicit guidance to model this as flat, index-addressed
  slices rather than a graph of pointer-linked nodes (the natural but
  unidiomatic translation of a recursive quad-tree into Go).
*/

package hevc

// Frame is the reconstructed picture for one HEVC access unit, plus the
// side information later filter stages need. Sample values are stored
// pre-clipped to [0, 2^BitDepth-1] as uint16 regardless of bit depth, so
// 8-bit and 10/12-bit content share one representation.
type Frame struct {
	SPS *SPS

	// Width/Height are the full (uncropped) luma picture dimensions.
	Width, Height int

	// Y, Cb, Cr are plane sample buffers in raster order. Cb/Cr are
	// empty when ChromaFormatIDC == 0 (monochrome).
	Y, Cb, Cr []uint16
	// YStride, CStride are element strides for the luma and chroma
	// planes respectively.
	YStride, CStride int

	cw, ch int // chroma plane width/height

	// minBlockW/H is the picture size in MinCbSize units, the finest
	// granularity block metadata is tracked at.
	minBlockW, minBlockH int

	// IntraPredMode[y*minBlockW+x] is the luma intra prediction mode of
	// the MinCbSize-aligned block at (x,y), per spec.md section 4.5.
	IntraPredMode []uint8
	// QpY[y*minBlockW+x] is the luma QP used to reconstruct that block,
	// read by the deblocking filter's beta/tC threshold derivation.
	QpY []int8
	// TransquantBypass marks blocks coded with cu_transquant_bypass_flag
	// set. The deblocking and SAO stages do not read it, so such blocks
	// are filtered like any other.
	TransquantBypass []bool
	// CqtDepth is the coding-quadtree depth at which each block was
	// terminated, used by split_cu_flag's context derivation (8.4's
	// neighbor-depth comparison).
	CqtDepth []uint8

	// CtbSAO holds one decoded SAO parameter set per CTB, indexed by
	// ctbAddr = ctbY*PicWidthInCtbs + ctbX.
	CtbSAO []SAOParams
}

// SAOParams is the decoded sample-adaptive-offset configuration for one
// CTB, per spec.md section 4.8.
type SAOParams struct {
	// TypeIdx[c]: 0 = off, 1 = band offset, 2 = edge offset, for c in
	// {luma, Cb, Cr}.
	TypeIdx [3]int
	Offset  [3][4]int
	// BandPosition is the starting band for band-offset type, per
	// component.
	BandPosition [3]int
	// EoClass is the edge-offset class (direction), per component.
	EoClass [3]int
}

// NewFrame allocates a Frame sized for sps's picture dimensions.
func NewFrame(sps *SPS) *Frame {
	f := &Frame{
		SPS:       sps,
		Width:     int(sps.PicWidthInLumaSamples),
		Height:    int(sps.PicHeightInLumaSamples),
		YStride:   int(sps.PicWidthInLumaSamples),
		minBlockW: sps.PicWidthInCtbs * (sps.CtbSize / sps.MinCbSize),
		minBlockH: sps.PicHeightInCtbs * (sps.CtbSize / sps.MinCbSize),
	}
	f.Y = make([]uint16, f.Width*f.Height)

	subW, subH := subsampling(sps.ChromaFormatIDC)
	if sps.ChromaFormatIDC != 0 {
		f.cw = ceilDiv(f.Width, int(subW))
		f.ch = ceilDiv(f.Height, int(subH))
		f.CStride = f.cw
		f.Cb = make([]uint16, f.cw*f.ch)
		f.Cr = make([]uint16, f.cw*f.ch)
	}

	n := f.minBlockW * f.minBlockH
	f.IntraPredMode = make([]uint8, n)
	f.QpY = make([]int8, n)
	f.TransquantBypass = make([]bool, n)
	f.CqtDepth = make([]uint8, n)
	f.CtbSAO = make([]SAOParams, sps.PicWidthInCtbs*sps.PicHeightInCtbs)
	return f
}

func (f *Frame) minBlockIndex(x, y int) int {
	mb := f.SPS.MinCbSize
	return (y/mb)*f.minBlockW + (x / mb)
}

// BlockGridSize returns the picture size in MinCbSize units, the
// indexing domain of QpYAt, IntraPredModeAt and CqtDepthAt.
func (f *Frame) BlockGridSize() (cols, rows int) {
	return f.minBlockW, f.minBlockH
}

// QpYAt returns the luma QP recorded for the MinCbSize-aligned block at
// grid column c, row r (BlockGridSize coordinates, not sample
// coordinates).
func (f *Frame) QpYAt(c, r int) int8 {
	return f.QpY[r*f.minBlockW+c]
}

// SetIntraPredMode records the intra mode for every MinCbSize-aligned
// block covered by a predW x predH prediction unit at (x,y).
func (f *Frame) SetIntraPredMode(x, y, predW, predH int, mode uint8) {
	mb := f.SPS.MinCbSize
	for dy := 0; dy < predH; dy += mb {
		for dx := 0; dx < predW; dx += mb {
			f.IntraPredMode[f.minBlockIndex(x+dx, y+dy)] = mode
		}
	}
}

// IntraPredModeAt returns the recorded intra mode at luma sample (x,y),
// or 0 (INTRA_PLANAR) if outside the picture.
func (f *Frame) IntraPredModeAt(x, y int) uint8 {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return 0
	}
	return f.IntraPredMode[f.minBlockIndex(x, y)]
}

// SetBlockQP records qpY and the transquant-bypass flag for every
// MinCbSize-aligned block covered by a size x size coding unit at (x,y).
func (f *Frame) SetBlockQP(x, y, size int, qpY int8, bypass bool) {
	mb := f.SPS.MinCbSize
	for dy := 0; dy < size; dy += mb {
		for dx := 0; dx < size; dx += mb {
			idx := f.minBlockIndex(x+dx, y+dy)
			f.QpY[idx] = qpY
			f.TransquantBypass[idx] = bypass
		}
	}
}

// SetCqtDepth records the coding-quadtree depth for every MinCbSize
// block covered by a size x size coding unit at (x,y).
func (f *Frame) SetCqtDepth(x, y, size int, depth uint8) {
	mb := f.SPS.MinCbSize
	for dy := 0; dy < size; dy += mb {
		for dx := 0; dx < size; dx += mb {
			f.CqtDepth[f.minBlockIndex(x+dx, y+dy)] = depth
		}
	}
}

// CqtDepthAt returns the recorded quadtree depth at (x,y), or 0 if
// outside the picture (treated as unavailable by the caller).
func (f *Frame) CqtDepthAt(x, y int) uint8 {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return 0
	}
	return f.CqtDepth[f.minBlockIndex(x, y)]
}

// YAt/CbAt/CrAt return the sample at (x,y) in the respective plane,
// clamped to the plane edges (used by intra prediction's reference
// sample substitution and the in-loop filters' neighbor lookups).
func (f *Frame) YAt(x, y int) uint16 {
	x = clip3(0, f.Width-1, x)
	y = clip3(0, f.Height-1, y)
	return f.Y[y*f.YStride+x]
}

func (f *Frame) CbAt(x, y int) uint16 {
	if len(f.Cb) == 0 {
		return 0
	}
	x = clip3(0, f.cw-1, x)
	y = clip3(0, f.ch-1, y)
	return f.Cb[y*f.CStride+x]
}

func (f *Frame) CrAt(x, y int) uint16 {
	if len(f.Cr) == 0 {
		return 0
	}
	x = clip3(0, f.cw-1, x)
	y = clip3(0, f.ch-1, y)
	return f.Cr[y*f.CStride+x]
}

// SetY/SetCb/SetCr write a single reconstructed sample, with no bounds
// substitution (callers only write samples that are inside the picture).
func (f *Frame) SetY(x, y int, v uint16) { f.Y[y*f.YStride+x] = v }
func (f *Frame) SetCb(x, y int, v uint16) {
	if len(f.Cb) != 0 {
		f.Cb[y*f.CStride+x] = v
	}
}
func (f *Frame) SetCr(x, y int, v uint16) {
	if len(f.Cr) != 0 {
		f.Cr[y*f.CStride+x] = v
	}
}

// ChromaWidth and ChromaHeight expose the (possibly subsampled) chroma
// plane dimensions, 0 for monochrome.
func (f *Frame) ChromaWidth() int  { return f.cw }
func (f *Frame) ChromaHeight() int { return f.ch }

// CropLeft and CropTop are the conformance window's luma-sample offset
// into the coded picture, per 7.4.3.2.1. SPS conformance_window offsets
// are in chroma sample units, scaled here by SubWidthC/SubHeightC.
func (f *Frame) CropLeft() int {
	subW, _ := subsampling(f.SPS.ChromaFormatIDC)
	return int(f.SPS.ConformanceWindow.Left) * int(subW)
}

func (f *Frame) CropTop() int {
	_, subH := subsampling(f.SPS.ChromaFormatIDC)
	return int(f.SPS.ConformanceWindow.Top) * int(subH)
}

// CroppedWidth and CroppedHeight are the displayed picture dimensions
// after applying the conformance window, per 7.4.3.2.1.
func (f *Frame) CroppedWidth() int {
	subW, _ := subsampling(f.SPS.ChromaFormatIDC)
	c := int(f.SPS.ConformanceWindow.Left+f.SPS.ConformanceWindow.Right) * int(subW)
	return f.Width - c
}

func (f *Frame) CroppedHeight() int {
	_, subH := subsampling(f.SPS.ChromaFormatIDC)
	c := int(f.SPS.ConformanceWindow.Top+f.SPS.ConformanceWindow.Bottom) * int(subH)
	return f.Height - c
}
