/*
DESCRIPTION
  pps.go parses the HEVC picture parameter set (PPS), per spec.md section
  3 and section 4.2. Field layout follows codec/h264/h264dec/pps.go's
  comment style (github.com/ausocean/av), restructured for HEVC syntax
  per original_source/src/hevc/params.rs.
*/

package hevc

import "github.com/ausocean/heic/codec/hevc/bits"

// PPS is a parsed picture parameter set.
type PPS struct {
	ID    uint32
	SPSID uint32

	DependentSliceSegmentsEnabled bool
	OutputFlagPresent             bool
	NumExtraSliceHeaderBits       int
	SignDataHidingEnabled         bool
	CabacInitPresent              bool

	InitQPMinus26 int

	ConstrainedIntraPred    bool
	TransformSkipEnabled    bool
	CuQpDeltaEnabled        bool
	DiffCuQpDeltaDepth      int
	CbQpOffset              int
	CrQpOffset              int
	SliceChromaQpOffsetsPresent bool

	TransquantBypassEnabled bool
	TilesEnabled            bool
	EntropyCodingSyncEnabled bool

	NumTileColumns int
	NumTileRows    int
	UniformSpacing bool
	ColumnWidths   []int // only when !UniformSpacing
	RowHeights     []int
	LoopFilterAcrossTiles bool

	LoopFilterAcrossSlicesEnabled bool
	DeblockingFilterControlPresent bool
	DeblockingFilterOverrideEnabled bool
	DeblockingFilterDisabled        bool
	BetaOffsetDiv2                  int
	TcOffsetDiv2                    int

	ScalingList *ScalingListData

	ListsModificationPresent     bool
	Log2ParallelMergeLevel       int
	SliceSegmentHeaderExtension  bool
}

// ParsePPS parses a PPS from RBSP bytes (NAL header included).
func ParsePPS(rbsp []byte) (*PPS, error) {
	if len(rbsp) < 2 {
		return nil, newErr(InvalidParameterSet, "PPS: truncated")
	}
	r := newFieldReader(bits.NewReader(rbsp[2:]))
	p := &PPS{}

	p.ID = uint32(r.ue())
	p.SPSID = uint32(r.ue())
	p.DependentSliceSegmentsEnabled = r.flag()
	p.OutputFlagPresent = r.flag()
	p.NumExtraSliceHeaderBits = int(r.u(3))
	p.SignDataHidingEnabled = r.flag()
	p.CabacInitPresent = r.flag()
	_ = r.ue() // num_ref_idx_l0_default_active_minus1 (unused: I-slices only)
	_ = r.ue() // num_ref_idx_l1_default_active_minus1
	p.InitQPMinus26 = int(r.se())
	p.ConstrainedIntraPred = r.flag()
	p.TransformSkipEnabled = r.flag()
	p.CuQpDeltaEnabled = r.flag()
	if p.CuQpDeltaEnabled {
		p.DiffCuQpDeltaDepth = int(r.ue())
	}
	p.CbQpOffset = int(r.se())
	p.CrQpOffset = int(r.se())
	p.SliceChromaQpOffsetsPresent = r.flag()
	_ = r.flag() // weighted_pred_flag (unused: I-slices only)
	_ = r.flag() // weighted_bipred_flag
	p.TransquantBypassEnabled = r.flag()
	p.TilesEnabled = r.flag()
	p.EntropyCodingSyncEnabled = r.flag()

	if p.TilesEnabled {
		p.NumTileColumns = int(r.ue()) + 1
		p.NumTileRows = int(r.ue()) + 1
		p.UniformSpacing = r.flag()
		if !p.UniformSpacing {
			p.ColumnWidths = make([]int, p.NumTileColumns-1)
			for i := range p.ColumnWidths {
				p.ColumnWidths[i] = int(r.ue()) + 1
			}
			p.RowHeights = make([]int, p.NumTileRows-1)
			for i := range p.RowHeights {
				p.RowHeights[i] = int(r.ue()) + 1
			}
		}
		p.LoopFilterAcrossTiles = r.flag()
	} else {
		p.NumTileColumns = 1
		p.NumTileRows = 1
	}

	p.LoopFilterAcrossSlicesEnabled = r.flag()
	p.DeblockingFilterControlPresent = r.flag()
	if p.DeblockingFilterControlPresent {
		p.DeblockingFilterOverrideEnabled = r.flag()
		p.DeblockingFilterDisabled = r.flag()
		if !p.DeblockingFilterDisabled {
			p.BetaOffsetDiv2 = int(r.se())
			p.TcOffsetDiv2 = int(r.se())
		}
	}

	if r.flag() { // pps_scaling_list_data_present_flag
		sl, err := parseScalingListData(r)
		if err != nil {
			return nil, err
		}
		p.ScalingList = sl
	}

	p.ListsModificationPresent = r.flag()
	p.Log2ParallelMergeLevel = int(r.ue()) + 2
	p.SliceSegmentHeaderExtension = r.flag()
	// pps_extension_present_flag and beyond are not parsed: no field past
	// this point affects intra-only decode of an I-slice still image.

	if err := r.err(); err != nil {
		return nil, wrapErr(InvalidParameterSet, "PPS", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *PPS) validate() error {
	if p.NumTileColumns < 1 || p.NumTileRows < 1 {
		return newErr(InvalidParameterSet, "PPS: invalid tile grid")
	}
	return nil
}
