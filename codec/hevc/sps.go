/*
DESCRIPTION
  sps.go parses the HEVC sequence parameter set (SPS) and caches the
  derived quantities the rest of the decoder needs (CTB size, picture
  dimensions in CTBs, min/max transform-block sizes), per spec.md section
  3 and section 4.2. Field layout follows codec/h264/h264dec/sps.go's
  comment style (github.com/ausocean/av), restructured for HEVC syntax
  per original_source/src/hevc/params.rs.
*/

package hevc

import "github.com/ausocean/heic/codec/hevc/bits"

// SPS is a parsed sequence parameter set.
type SPS struct {
	ID uint32

	ChromaFormatIDC        int
	SeparateColourPlane    bool
	PicWidthInLumaSamples  uint32
	PicHeightInLumaSamples uint32

	ConformanceWindow struct {
		Left, Right, Top, Bottom uint32 // in chroma samples, per 7.4.3.2.1
	}

	BitDepthLuma   int
	BitDepthChroma int

	Log2MaxPicOrderCntLsb int

	Log2MinCbSize                   int // log2_min_luma_coding_block_size
	Log2DiffMaxMinCbSize            int
	Log2MinTbSize                   int
	Log2DiffMaxMinTbSize            int
	MaxTransformHierarchyDepthInter int
	MaxTransformHierarchyDepthIntra int

	ScalingListEnabled bool
	ScalingList        *ScalingListData // nil unless sps_scaling_list_data_present_flag

	AMPEnabled              bool
	SAOEnabled              bool
	PCMEnabled              bool
	PCMSampleBitDepthLuma   int
	PCMSampleBitDepthChroma int
	Log2MinPCMCbSize        int
	Log2DiffMaxMinPCMCbSize int
	PCMLoopFilterDisabled   bool

	NumShortTermRefPicSets int
	LongTermRefPicsPresent bool
	TemporalMVPEnabled     bool

	StrongIntraSmoothingEnabled bool
	VUIParametersPresent        bool

	// Derived quantities, computed once after parsing.
	Log2CtbSize     int
	CtbSize         int
	PicWidthInCtbs  int
	PicHeightInCtbs int
	MinCbSize       int
	MaxCbSize       int
	MinTbSize       int
	MaxTbSize       int
	QpBdOffsetY     int
	QpBdOffsetC     int
}

// ParseSPS parses an SPS from RBSP bytes (header included; the two-byte
// NAL header is skipped internally).
func ParseSPS(rbsp []byte) (*SPS, error) {
	if len(rbsp) < 2 {
		return nil, newErr(InvalidParameterSet, "SPS: truncated")
	}
	r := newFieldReader(bits.NewReader(rbsp[2:]))
	s := &SPS{}

	_ = r.u(4) // sps_video_parameter_set_id
	maxSubLayersMinus1 := int(r.u(3))
	_ = r.flag() // sps_temporal_id_nesting_flag

	if err := parseProfileTierLevel(r, maxSubLayersMinus1); err != nil {
		return nil, err
	}

	s.ID = uint32(r.ue())
	s.ChromaFormatIDC = int(r.ue())
	if s.ChromaFormatIDC == 3 {
		s.SeparateColourPlane = r.flag()
	}
	s.PicWidthInLumaSamples = uint32(r.ue())
	s.PicHeightInLumaSamples = uint32(r.ue())

	if r.flag() { // conformance_window_flag
		s.ConformanceWindow.Left = uint32(r.ue())
		s.ConformanceWindow.Right = uint32(r.ue())
		s.ConformanceWindow.Top = uint32(r.ue())
		s.ConformanceWindow.Bottom = uint32(r.ue())
	}

	s.BitDepthLuma = int(r.ue()) + 8
	s.BitDepthChroma = int(r.ue()) + 8
	s.Log2MaxPicOrderCntLsb = int(r.ue()) + 4

	subLayerOrderingInfoPresent := r.flag()
	first := maxSubLayersMinus1
	if subLayerOrderingInfoPresent {
		first = 0
	}
	for i := first; i <= maxSubLayersMinus1; i++ {
		_ = r.ue() // sps_max_dec_pic_buffering_minus1[i]
		_ = r.ue() // sps_max_num_reorder_pics[i]
		_ = r.ue() // sps_max_latency_increase_plus1[i]
	}

	s.Log2MinCbSize = int(r.ue()) + 3
	s.Log2DiffMaxMinCbSize = int(r.ue())
	s.Log2MinTbSize = int(r.ue()) + 2
	s.Log2DiffMaxMinTbSize = int(r.ue())
	s.MaxTransformHierarchyDepthInter = int(r.ue())
	s.MaxTransformHierarchyDepthIntra = int(r.ue())

	s.ScalingListEnabled = r.flag()
	if s.ScalingListEnabled {
		if r.flag() { // sps_scaling_list_data_present_flag
			sl, err := parseScalingListData(r)
			if err != nil {
				return nil, err
			}
			s.ScalingList = sl
		}
	}

	s.AMPEnabled = r.flag()
	s.SAOEnabled = r.flag()
	s.PCMEnabled = r.flag()
	if s.PCMEnabled {
		s.PCMSampleBitDepthLuma = int(r.u(4)) + 1
		s.PCMSampleBitDepthChroma = int(r.u(4)) + 1
		s.Log2MinPCMCbSize = int(r.ue()) + 3
		s.Log2DiffMaxMinPCMCbSize = int(r.ue())
		s.PCMLoopFilterDisabled = r.flag()
	}

	s.NumShortTermRefPicSets = int(r.ue())
	if s.NumShortTermRefPicSets > 0 {
		// Still-image HEIC items carry no reference pictures; a stream
		// that declares short-term RPS sets anyway is outside the scope
		// this decoder supports cleanly, per spec.md section 7's "fail
		// cleanly rather than guess".
		return nil, newErr(InvalidParameterSet, "SPS: non-zero num_short_term_ref_pic_sets unsupported for still images")
	}

	s.LongTermRefPicsPresent = r.flag()
	if s.LongTermRefPicsPresent {
		numLongTerm := int(r.ue())
		for i := 0; i < numLongTerm; i++ {
			_ = r.u(s.Log2MaxPicOrderCntLsb)
			_ = r.flag()
		}
	}

	s.TemporalMVPEnabled = r.flag()
	s.StrongIntraSmoothingEnabled = r.flag()
	s.VUIParametersPresent = r.flag()
	// VUI/SPS-extension bodies are not parsed: nothing past this point is
	// needed by the HEVC core (colour hints come from the container's colr
	// box, a collaborator concern per spec.md section 4.9/6).

	if err := r.err(); err != nil {
		return nil, wrapErr(InvalidParameterSet, "SPS", err)
	}

	s.DeriveSizes()
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// DeriveSizes (re)computes CTB/transform-block sizes, picture-in-CTB
// extents, and the QP bit-depth offsets from PicWidthInLumaSamples,
// PicHeightInLumaSamples and the log2 size fields. ParseSPS calls this
// itself; callers that synthesize an SPS by overriding picture
// dimensions (grid output compositing, per container/heif.NewOutputFrame)
// must call it again afterward.
func (s *SPS) DeriveSizes() {
	s.Log2CtbSize = s.Log2MinCbSize + s.Log2DiffMaxMinCbSize
	s.CtbSize = 1 << uint(s.Log2CtbSize)
	s.MinCbSize = 1 << uint(s.Log2MinCbSize)
	s.MaxCbSize = s.CtbSize
	s.MinTbSize = 1 << uint(s.Log2MinTbSize)
	s.MaxTbSize = 1 << uint(s.Log2MinTbSize+s.Log2DiffMaxMinTbSize)
	s.PicWidthInCtbs = int(ceilDiv(int(s.PicWidthInLumaSamples), s.CtbSize))
	s.PicHeightInCtbs = int(ceilDiv(int(s.PicHeightInLumaSamples), s.CtbSize))
	s.QpBdOffsetY = 6 * (s.BitDepthLuma - 8)
	s.QpBdOffsetC = 6 * (s.BitDepthChroma - 8)
}

func (s *SPS) validate() error {
	if s.ChromaFormatIDC < 0 || s.ChromaFormatIDC > 3 {
		return newErr(InvalidParameterSet, "SPS: chroma_format_idc out of range")
	}
	if s.BitDepthLuma < 8 || s.BitDepthLuma > 16 || s.BitDepthChroma < 8 || s.BitDepthChroma > 16 {
		return newErr(InvalidParameterSet, "SPS: bit depth out of range")
	}
	if s.PicWidthInLumaSamples == 0 || s.PicHeightInLumaSamples == 0 {
		return newErr(InvalidParameterSet, "SPS: zero picture dimension")
	}
	if s.Log2MinTbSize >= s.Log2CtbSize {
		return newErr(InvalidParameterSet, "SPS: min transform block size not smaller than CTB size")
	}
	return nil
}

// CroppedDimensions returns the conformance-cropped output dimensions, per
// spec.md section 3's "conformance crop rectangle" and section 8 scenario
// 6. Offsets are expressed in the SPS as chroma-sample units scaled by
// SubWidthC/SubHeightC; for monochrome and 4:4:4 that scale is 1, for 4:2:0
// and 4:2:2 it is 2 horizontally (and for 4:2:0 also vertically).
func (s *SPS) CroppedDimensions() (width, height uint32) {
	subW, subH := subsampling(s.ChromaFormatIDC)
	width = s.PicWidthInLumaSamples - subW*(s.ConformanceWindow.Left+s.ConformanceWindow.Right)
	height = s.PicHeightInLumaSamples - subH*(s.ConformanceWindow.Top+s.ConformanceWindow.Bottom)
	return width, height
}

func subsampling(chromaFormatIDC int) (subW, subH uint32) {
	switch chromaFormatIDC {
	case 1:
		return 2, 2
	case 2:
		return 2, 1
	default:
		return 1, 1
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
