/*
DESCRIPTION
  nal.go splits an HEVC bytestream into NAL units, recognizing both
  Annex-B start-code framing and length-prefixed framing (the latter
  driven by the length-field width from the container's HEVC
  configuration record), and strips emulation-prevention bytes from each
  payload. Grounded on codec/h264/h264dec/nalunit.go's NAL header model
  and codec/h264/extract.go's start-code handling (github.com/ausocean/av).
*/

package hevc

import (
	"encoding/binary"
)

// NALType identifies the type field of a NAL unit header (6 bits).
type NALType int

// NAL unit types relevant to an intra-only HEVC still-image decoder, per
// ITU-T H.265 Table 7-1.
const (
	NALTrailN    NALType = 0
	NALTrailR    NALType = 1
	NALTSAN      NALType = 2
	NALTSAR      NALType = 3
	NALSTSAN     NALType = 4
	NALSTSAR     NALType = 5
	NALBLAWLP    NALType = 16
	NALBLAWRADL  NALType = 17
	NALBLANLP    NALType = 18
	NALIDRWRADL  NALType = 19
	NALIDRNLP    NALType = 20
	NALCRA       NALType = 21
	NALVPS       NALType = 32
	NALSPS       NALType = 33
	NALPPS       NALType = 34
	NALAUD       NALType = 35
	NALEOS       NALType = 36
	NALEOB       NALType = 37
	NALFD        NALType = 38
	NALPrefixSEI NALType = 39
	NALSuffixSEI NALType = 40
)

// IsSlice reports whether t identifies a VCL (slice) NAL unit.
func (t NALType) IsSlice() bool {
	return t <= 31
}

// IsIDR reports whether t identifies an IDR slice, the only kind of slice
// a still HEIC image is expected to carry (there is no preceding picture
// to reference).
func (t NALType) IsIDR() bool {
	return t == NALIDRWRADL || t == NALIDRNLP
}

// NALUnit is a single, emulation-prevention-stripped NAL unit payload
// (the RBSP, including its two-byte header) tagged with its header fields.
type NALUnit struct {
	Type       NALType
	LayerID    int
	TemporalID int // nuh_temporal_id_plus1 - 1
	RBSP       []byte
}

// parseNALHeader reads the two-byte NAL unit header per ITU-T H.265 7.3.1.2.
func parseNALHeader(b []byte) (NALUnit, error) {
	if len(b) < 2 {
		return NALUnit{}, newErr(InvalidBitstream, "NAL header truncated")
	}
	if b[0]&0x80 != 0 {
		return NALUnit{}, newErr(InvalidBitstream, "forbidden_zero_bit set")
	}
	typ := NALType((b[0] >> 1) & 0x3f)
	layerID := int(b[0]&1)<<5 | int(b[1]>>3)
	temporalID := int(b[1]&0x7) - 1
	return NALUnit{Type: typ, LayerID: layerID, TemporalID: temporalID, RBSP: b}, nil
}

// stripEmulationPrevention removes 0x03 emulation-prevention bytes that
// follow two zero bytes within a NAL payload, per ITU-T H.265 7.3.1.1.
func stripEmulationPrevention(b []byte) []byte {
	out := make([]byte, 0, len(b))
	zeros := 0
	for i := 0; i < len(b); i++ {
		if zeros >= 2 && b[i] == 0x03 {
			zeros = 0
			continue
		}
		out = append(out, b[i])
		if b[i] == 0 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return out
}

// SplitAnnexB splits an Annex-B framed bytestream (payloads separated by
// 00 00 01 or 00 00 00 01 start codes) into NAL units.
func SplitAnnexB(data []byte) ([]NALUnit, error) {
	starts := findStartCodes(data)
	if len(starts) == 0 {
		return nil, newErr(InvalidBitstream, "no start code found")
	}
	var units []NALUnit
	for i, s := range starts {
		end := len(data)
		if i+1 < len(starts) {
			end = starts[i+1].codeStart
		}
		payload := data[s.payloadStart:end]
		// Trim trailing zero bytes that belong to the next start code's
		// leading zeros, not this payload.
		for len(payload) > 0 && payload[len(payload)-1] == 0 {
			payload = payload[:len(payload)-1]
		}
		if len(payload) < 2 {
			continue
		}
		clean := stripEmulationPrevention(payload)
		u, err := parseNALHeader(clean)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

type startCode struct {
	codeStart    int
	payloadStart int
}

// findStartCodes locates every 00 00 01 (optionally preceded by an extra
// 00, i.e. 00 00 00 01) start code in data.
func findStartCodes(data []byte) []startCode {
	var out []startCode
	for i := 0; i+2 < len(data); i++ {
		if data[i] == 0 && data[i+1] == 0 && data[i+2] == 1 {
			codeStart := i
			if i > 0 && data[i-1] == 0 {
				codeStart = i - 1
			}
			out = append(out, startCode{codeStart: codeStart, payloadStart: i + 3})
			i += 2
		}
	}
	return out
}

// SplitLengthPrefixed splits a length-prefixed bytestream (as used inside
// an ISOBMFF sample) into NAL units, where each payload is preceded by a
// big-endian length field of the given width in bytes (1, 2 or 4), per
// spec.md section 4.1. Fails with InvalidBitstream if a length field
// overruns the buffer.
func SplitLengthPrefixed(data []byte, lengthFieldWidth int) ([]NALUnit, error) {
	if lengthFieldWidth != 1 && lengthFieldWidth != 2 && lengthFieldWidth != 4 {
		return nil, newErr(InvalidBitstream, "unsupported NAL length field width")
	}
	var units []NALUnit
	off := 0
	for off < len(data) {
		if off+lengthFieldWidth > len(data) {
			return nil, newErr(InvalidBitstream, "NAL length field overruns buffer")
		}
		var length int
		switch lengthFieldWidth {
		case 1:
			length = int(data[off])
		case 2:
			length = int(binary.BigEndian.Uint16(data[off : off+2]))
		case 4:
			length = int(binary.BigEndian.Uint32(data[off : off+4]))
		}
		off += lengthFieldWidth
		if length < 0 || off+length > len(data) {
			return nil, newErr(InvalidBitstream, "NAL length overruns buffer")
		}
		payload := data[off : off+length]
		off += length
		if len(payload) < 2 {
			continue
		}
		clean := stripEmulationPrevention(payload)
		u, err := parseNALHeader(clean)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}
