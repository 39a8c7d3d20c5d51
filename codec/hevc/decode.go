/*
DESCRIPTION
  decode.go is the HEVC core's top-level entry point: given the Annex-B
  or length-prefixed NAL stream for one HEIC image item, it parses
  parameter sets, decodes every slice's CTBs, and runs the in-loop
  filters, per spec.md section 4.1/4.2/5. Grounded on
  codec/h264/h264dec/read.go's H264Reader.Start loop shape (teacher),
  replacing its per-NAL dispatch with CTB/tile cancellation checks.
*/

package hevc

import (
	"github.com/ausocean/heic/codec/hevc/bits"
	"github.com/ausocean/utils/logging"
)

// DecodeOptions configures one still-image decode. Log is optional: a
// nil Log is a no-op, per the teacher's device/file.AVFile.log field
// convention.
type DecodeOptions struct {
	Limits Limits
	Stop   StopToken
	Log    logging.Logger
}

func logDebug(l logging.Logger, msg string, args ...interface{}) {
	if l != nil {
		l.Debug(msg, args...)
	}
}

func logWarning(l logging.Logger, msg string, args ...interface{}) {
	if l != nil {
		l.Warning(msg, args...)
	}
}

func logError(l logging.Logger, msg string, args ...interface{}) {
	if l != nil {
		l.Error(msg, args...)
	}
}

// Decode parses and reconstructs one HEVC access unit (typically a
// single IDR slice) from Annex-B framed data, returning the completed,
// filtered Frame.
func Decode(data []byte, opts DecodeOptions) (*Frame, error) {
	nalUnits, err := SplitAnnexB(data)
	if err != nil {
		return nil, err
	}
	return decodeNALUnits(nalUnits, opts)
}

// DecodeLengthPrefixed is Decode's counterpart for HEIC's length-
// prefixed NAL framing (the configuration record's lengthSizeMinusOne),
// per spec.md section 4.1.
func DecodeLengthPrefixed(data []byte, lengthFieldWidth int, opts DecodeOptions) (*Frame, error) {
	nalUnits, err := SplitLengthPrefixed(data, lengthFieldWidth)
	if err != nil {
		return nil, err
	}
	return decodeNALUnits(nalUnits, opts)
}

func decodeNALUnits(nalUnits []NALUnit, opts DecodeOptions) (*Frame, error) {
	tok := opts.Stop
	if tok == nil {
		tok = NoStop
	}
	log := opts.Log

	var sps *SPS
	var pps *PPS
	var frame *Frame
	var deblockSnapshot *Frame
	var lastSliceHeader *SliceHeader

	for _, nu := range nalUnits {
		if err := checkStop(tok); err != nil {
			return nil, err
		}
		switch nu.Type {
		case NALSPS:
			s, err := ParseSPS(nu.RBSP)
			if err != nil {
				logError(log, "SPS parse failed", "error", err.Error())
				return nil, err
			}
			if err := opts.Limits.checkDimensions(s.PicWidthInLumaSamples, s.PicHeightInLumaSamples); err != nil {
				logError(log, "SPS dimensions exceed limits", "error", err.Error())
				return nil, err
			}
			sps = s
			logDebug(log, "parsed SPS", "width", s.PicWidthInLumaSamples, "height", s.PicHeightInLumaSamples)
		case NALPPS:
			p, err := ParsePPS(nu.RBSP)
			if err != nil {
				logError(log, "PPS parse failed", "error", err.Error())
				return nil, err
			}
			pps = p
		default:
			if !nu.Type.IsSlice() {
				logWarning(log, "skipping unhandled NAL unit", "type", int(nu.Type))
				continue
			}
			if sps == nil || pps == nil {
				logError(log, "slice NAL before SPS/PPS")
				return nil, newErr(MissingParameterSet, "slice NAL before SPS/PPS")
			}
			if frame == nil {
				frame = NewFrame(sps)
			}
			sh, err := ParseSliceHeader(nu.RBSP, nu.Type, pps, sps)
			if err != nil {
				logError(log, "slice header parse failed", "error", err.Error())
				return nil, err
			}
			logDebug(log, "decoding slice", "segmentAddress", sh.SegmentAddress, "qp", sh.SliceQPY)
			if err := decodeSlice(frame, sps, pps, sh, nu.RBSP, tok); err != nil {
				logError(log, "slice decode failed", "error", err.Error())
				return nil, err
			}
			lastSliceHeader = sh
		}
	}

	if frame == nil {
		logError(log, "no slice NAL units found")
		return nil, newErr(InvalidBitstream, "no slice NAL units found")
	}

	// The filters each read from a snapshot of the pre-filter picture,
	// per spec.md section 9: deblock reads the reconstructed picture,
	// SAO reads the deblocked picture, never each other's in-progress
	// output.
	deblockSnapshot = snapshotFrame(frame)
	ApplyDeblock(frame, deblockSnapshot, lastSliceHeader)
	if sps.SAOEnabled {
		saoSnapshot := snapshotFrame(frame)
		ApplySAO(frame, saoSnapshot)
	}
	logDebug(log, "decode complete", "width", frame.Width, "height", frame.Height)

	return frame, nil
}

func decodeSlice(frame *Frame, sps *SPS, pps *PPS, sh *SliceHeader, rbsp []byte, tok StopToken) error {
	byteOffset := sh.DataBitOffset / 8
	if byteOffset >= len(rbsp) {
		return newErr(InvalidBitstream, "slice data offset beyond RBSP")
	}
	br := bits.NewReader(rbsp[byteOffset:])
	d, err := NewDecoder(br, sh.SliceQPY)
	if err != nil {
		return err
	}

	ctx := newCtuContext(frame, sps, pps, sh, d, tok)

	ctbAddr := sh.SegmentAddress
	for {
		ctbY := ctbAddr / sps.PicWidthInCtbs
		ctbX := ctbAddr % sps.PicWidthInCtbs
		if err := ctx.decodeCTU(ctbX, ctbY); err != nil {
			return err
		}

		end, err := d.DecodeTerminate()
		if err != nil {
			return err
		}
		if end == 1 {
			return nil
		}
		ctbAddr++
		if ctbAddr >= sps.PicWidthInCtbs*sps.PicHeightInCtbs {
			return nil
		}
	}
}

func snapshotFrame(f *Frame) *Frame {
	cp := *f
	cp.Y = append([]uint16(nil), f.Y...)
	cp.Cb = append([]uint16(nil), f.Cb...)
	cp.Cr = append([]uint16(nil), f.Cr...)
	return &cp
}
