/*
DESCRIPTION
  errors.go defines the flat error taxonomy surfaced by this package, per
  spec.md section 7. Kinds are not a hierarchy: a caller switches on Kind()
  rather than type-asserting through wrapped layers.

AUTHORS
  Grounded on original_source/src/error.rs's HeicError/HevcError/ProbeError
  enums (see DESIGN.md), translated to Go's flat-Kind-plus-wrapped-cause
  idiom used throughout github.com/ausocean/av.
*/

package heic

import "fmt"

// Kind identifies the flat category of an Error, per spec.md section 7.
type Kind int

const (
	// InvalidContainer indicates the ISOBMFF structure itself is violated
	// (bad box sizes, truncated boxes, missing mandatory boxes).
	InvalidContainer Kind = iota
	// InvalidData indicates the container parses but is semantically
	// inconsistent (grid tile count mismatch, dangling item reference).
	InvalidData
	// NoPrimaryImage indicates the container designates no decodable
	// primary item.
	NoPrimaryImage
	// Unsupported indicates a recognized feature this decoder does not
	// implement (non-I slices, dependent slice segments, image overlay
	// items, 90/270-degree rotation of 4:2:2 content).
	Unsupported
	// InvalidBitstream indicates the HEVC bitstream itself is corrupt
	// (bad Exp-Golomb, NAL length overrun, forbidden_zero_bit set).
	InvalidBitstream
	// MissingParameterSet indicates a slice references an SPS or PPS id
	// that was never parsed.
	MissingParameterSet
	// InvalidParameterSet indicates an SPS/PPS field is out of its legal
	// range.
	InvalidParameterSet
	// CabacError indicates the arithmetic decoder desynchronized or
	// underflowed its input.
	CabacError
	// BufferTooSmall indicates a DecodeInto output buffer was smaller
	// than the required width*height*bytesPerPixel.
	BufferTooSmall
	// LimitExceeded indicates a configured resource limit (dimension,
	// pixel count, memory estimate) was exceeded.
	LimitExceeded
	// Cancelled indicates the caller's cooperative stop token fired.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case InvalidContainer:
		return "InvalidContainer"
	case InvalidData:
		return "InvalidData"
	case NoPrimaryImage:
		return "NoPrimaryImage"
	case Unsupported:
		return "Unsupported"
	case InvalidBitstream:
		return "InvalidBitstream"
	case MissingParameterSet:
		return "MissingParameterSet"
	case InvalidParameterSet:
		return "InvalidParameterSet"
	case CabacError:
		return "CabacError"
	case BufferTooSmall:
		return "BufferTooSmall"
	case LimitExceeded:
		return "LimitExceeded"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Error is the error type returned from every boundary function in this
// module. Where is a short, stable marker of the subsystem/field involved
// (e.g. "sps.log2_min_luma_coding_block_size", "grid tile count"); it is
// not meant for display alone, only alongside Kind.
type Error struct {
	K        Kind
	Where    string
	Required uint64 // BufferTooSmall only.
	Actual   uint64 // BufferTooSmall only.
	cause    error
}

func (e *Error) Error() string {
	switch e.K {
	case BufferTooSmall:
		return fmt.Sprintf("%s: buffer too small: need %d, got %d", e.K, e.Required, e.Actual)
	default:
		if e.Where == "" {
			return e.K.String()
		}
		return fmt.Sprintf("%s: %s", e.K, e.Where)
	}
}

// Unwrap lets errors.Is/errors.As and github.com/pkg/errors.Cause see
// through to a wrapped underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns the flat error category.
func (e *Error) Kind() Kind {
	return e.K
}

// newErr constructs an *Error of kind k with a "where" marker.
func newErr(k Kind, where string) *Error {
	return &Error{K: k, Where: where}
}

// wrapErr constructs an *Error of kind k wrapping cause.
func wrapErr(k Kind, where string, cause error) *Error {
	return &Error{K: k, Where: where, cause: cause}
}

// bufferTooSmall constructs the BufferTooSmall error variant.
func bufferTooSmall(required, actual uint64) *Error {
	return &Error{K: BufferTooSmall, Required: required, Actual: actual}
}

// ProbeKind identifies the outcome of a header-only probe, per spec.md
// section 8 scenario 5 ("a 1-byte input: info_from_bytes returns
// NeedMoreData"). It is distinct from Kind because a probe failure before
// any format signature is recognized is not the same as a confirmed
// container/bitstream defect.
type ProbeKind int

const (
	// NeedMoreData indicates fewer bytes were supplied than are needed to
	// recognize the format.
	NeedMoreData ProbeKind = iota
	// InvalidFormat indicates the data is recognizably not a HEIC/HEIF
	// file (no ftyp box, or an incompatible major brand).
	InvalidFormat
	// Corrupt indicates the data is HEIC-shaped but the header is
	// malformed; Cause holds the underlying *Error.
	Corrupt
)

func (k ProbeKind) String() string {
	switch k {
	case NeedMoreData:
		return "NeedMoreData"
	case InvalidFormat:
		return "InvalidFormat"
	case Corrupt:
		return "Corrupt"
	default:
		return "Unknown"
	}
}

// ProbeError is returned by InfoFromBytes.
type ProbeError struct {
	PK    ProbeKind
	Cause error
}

func (e *ProbeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.PK, e.Cause)
	}
	return e.PK.String()
}

func (e *ProbeError) Unwrap() error {
	return e.Cause
}

func (e *ProbeError) Kind() ProbeKind {
	return e.PK
}
