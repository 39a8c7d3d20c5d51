/*
DESCRIPTION
  slice.go parses the HEVC slice segment header and locates the first
  CABAC-coded byte of slice data, per spec.md section 3 ("Slice header")
  and section 4.2. Only independent I-slice segments are supported, per
  spec.md section 9's note that dependent slice segments are out of
  scope for still images (DESIGN.md open-question 3).
*/

package hevc

import "github.com/ausocean/heic/codec/hevc/bits"

// SliceType identifies the slice coding type. HEIC still images carry
// only SliceTypeI, per spec.md section 3's invariant ("slice type: must
// be I for still images").
type SliceType int

const (
	SliceTypeB SliceType = 0
	SliceTypeP SliceType = 1
	SliceTypeI SliceType = 2
)

// SliceHeader is the parsed per-slice prelude.
type SliceHeader struct {
	FirstSliceSegmentInPic bool
	NoOutputOfPriorPics    bool
	PPSID                  uint32
	SegmentAddress         int
	SliceType              SliceType
	PicOutputFlag          bool
	ColourPlaneID          int

	SAOLuma   bool
	SAOChroma bool

	SliceQPY int

	SliceCbQpOffset int
	SliceCrQpOffset int

	DeblockingFilterDisabled bool
	BetaOffsetDiv2           int
	TcOffsetDiv2             int

	LoopFilterAcrossSlicesEnabled bool

	EntryPointOffsets []int

	// DataBitOffset is the bit position, from the start of the RBSP
	// (header included), at which the first CABAC-coded byte begins.
	DataBitOffset int
}

// ParseSliceHeader parses a slice segment header from rbsp (the two-byte
// NAL header included), given the PPS it references and the SPS that PPS
// references.
func ParseSliceHeader(rbsp []byte, nalType NALType, pps *PPS, sps *SPS) (*SliceHeader, error) {
	if len(rbsp) < 3 {
		return nil, newErr(InvalidBitstream, "slice header: truncated")
	}
	br := bits.NewReader(rbsp[2:])
	r := newFieldReader(br)
	h := &SliceHeader{}

	h.FirstSliceSegmentInPic = r.flag()
	if nalType.IsIDR() || nalType == NALBLAWLP || nalType == NALBLAWRADL || nalType == NALBLANLP || nalType == NALCRA {
		h.NoOutputOfPriorPics = r.flag()
	}
	h.PPSID = uint32(r.ue())
	if h.PPSID != pps.ID {
		return nil, newErr(InvalidBitstream, "slice header: pps id mismatch")
	}

	dependent := false
	if !h.FirstSliceSegmentInPic {
		if pps.DependentSliceSegmentsEnabled {
			dependent = r.flag()
		}
		addrBits := ceilLog2(sps.PicWidthInCtbs * sps.PicHeightInCtbs)
		h.SegmentAddress = int(r.u(addrBits))
	}
	if dependent {
		return nil, newErr(Unsupported, "dependent slice segments")
	}

	for i := 0; i < pps.NumExtraSliceHeaderBits; i++ {
		_ = r.flag()
	}
	h.SliceType = SliceType(r.ue())
	if h.SliceType != SliceTypeI {
		return nil, newErr(Unsupported, "non-I slice type")
	}
	if pps.OutputFlagPresent {
		h.PicOutputFlag = r.flag()
	} else {
		h.PicOutputFlag = true
	}
	if sps.SeparateColourPlane {
		h.ColourPlaneID = int(r.u(2))
	}

	// nal_unit_type != IDR branches (short-term/long-term ref pic set
	// selection, temporal MVP enable) are omitted: still-image HEIC items
	// are IDR, carrying no reference pictures (spec.md section 1 non-goal:
	// inter-prediction / reference-picture management).

	if sps.SAOEnabled {
		h.SAOLuma = r.flag()
		if sps.ChromaFormatIDC != 0 {
			h.SAOChroma = r.flag()
		}
	}

	// slice_type == I: no ref-idx / mvd / weighted-prediction fields.

	sliceQPDelta := r.se()
	h.SliceQPY = 26 + pps.InitQPMinus26 + int(sliceQPDelta)

	if pps.SliceChromaQpOffsetsPresent {
		h.SliceCbQpOffset = int(r.se())
		h.SliceCrQpOffset = int(r.se())
	}

	h.LoopFilterAcrossSlicesEnabled = pps.LoopFilterAcrossSlicesEnabled

	deblockOverride := false
	if pps.DeblockingFilterOverrideEnabled {
		deblockOverride = r.flag()
	}
	if deblockOverride {
		h.DeblockingFilterDisabled = r.flag()
		if !h.DeblockingFilterDisabled {
			h.BetaOffsetDiv2 = int(r.se())
			h.TcOffsetDiv2 = int(r.se())
		}
	} else {
		h.DeblockingFilterDisabled = pps.DeblockingFilterDisabled
		h.BetaOffsetDiv2 = pps.BetaOffsetDiv2
		h.TcOffsetDiv2 = pps.TcOffsetDiv2
	}

	if pps.LoopFilterAcrossSlicesEnabled && (h.SAOLuma || h.SAOChroma || !h.DeblockingFilterDisabled) {
		h.LoopFilterAcrossSlicesEnabled = r.flag()
	}

	if pps.TilesEnabled || pps.EntropyCodingSyncEnabled {
		numEntryPoints := int(r.ue())
		if numEntryPoints > 0 {
			offsetLen := int(r.ue()) + 1
			h.EntryPointOffsets = make([]int, numEntryPoints)
			for i := range h.EntryPointOffsets {
				h.EntryPointOffsets[i] = int(r.u(offsetLen)) + 1
			}
		}
	}

	if pps.SliceSegmentHeaderExtension {
		extLen := int(r.ue())
		for i := 0; i < extLen; i++ {
			_ = r.u(8)
		}
	}

	if err := r.err(); err != nil {
		return nil, wrapErr(InvalidBitstream, "slice header", err)
	}

	// byte_alignment(): a single 1 bit, then zero bits to the next byte
	// boundary.
	if _, err := br.ReadBit(); err != nil {
		return nil, wrapErr(InvalidBitstream, "slice header: byte alignment", err)
	}
	br.AlignToByte()
	h.DataBitOffset = br.BitPos() + 16 // +16 for the two-byte NAL header consumed up front.

	return h, nil
}

// ceilLog2 returns ceil(log2(n)) for n >= 1.
func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	bits := 0
	v := 1
	for v < n {
		v <<= 1
		bits++
	}
	return bits
}
