/*
DESCRIPTION
  parse.go provides parsing processes for syntax elements of different
  descriptors as specified in section 9.2 of ITU-T H.265: fixed-width
  u(n), unsigned Exp-Golomb ue(v) and signed Exp-Golomb se(v).

AUTHORS
  Adapted from codec/h264/h264dec/parse.go (github.com/ausocean/av), whose
  sticky-error fieldReader idiom this keeps; retargeted to the syntax
  elements HEVC parameter sets and slice headers actually use.
*/

package hevc

import (
	"github.com/ausocean/heic/codec/hevc/bits"
	"github.com/pkg/errors"
)

// maxExpGolombLeadingZeros bounds the unary prefix of an Exp-Golomb code so
// that corrupt input can never spin the leading-zero count unboundedly, per
// spec.md 4.2's "leading-zero cap = 32".
const maxExpGolombLeadingZeros = 32

// fieldReader wraps a bits.Reader with a sticky error: once a read fails,
// subsequent reads on the same fieldReader are no-ops that return zero
// values, so a parser can perform a long run of reads and check err() once
// at the end.
type fieldReader struct {
	e  error
	br *bits.Reader
}

func newFieldReader(br *bits.Reader) *fieldReader {
	return &fieldReader{br: br}
}

func (r *fieldReader) u(n int) uint64 {
	if r.e != nil {
		return 0
	}
	var v uint64
	v, r.e = r.br.ReadBits(n)
	return v
}

func (r *fieldReader) flag() bool {
	return r.u(1) == 1
}

// ue reads an unsigned Exp-Golomb-coded syntax element.
func (r *fieldReader) ue() uint64 {
	if r.e != nil {
		return 0
	}
	var v uint64
	v, r.e = readUe(r.br)
	return v
}

// se reads a signed Exp-Golomb-coded syntax element.
func (r *fieldReader) se() int64 {
	if r.e != nil {
		return 0
	}
	var v int64
	v, r.e = readSe(r.br)
	return v
}

func (r *fieldReader) err() error {
	return r.e
}

// readUe parses ue(v) per ITU-T H.265 9.2.1: count leading zero bits, then
// read that many bits as the suffix, returning (1<<zeros)-1+suffix.
func readUe(r *bits.Reader) (uint64, error) {
	zeros := 0
	for {
		b, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		if b == 1 {
			break
		}
		zeros++
		if zeros > maxExpGolombLeadingZeros {
			return 0, errors.New("exp-golomb leading-zero run exceeds cap")
		}
	}
	if zeros == 0 {
		return 0, nil
	}
	suffix, err := r.ReadBits(zeros)
	if err != nil {
		return 0, err
	}
	return (uint64(1)<<uint(zeros) - 1) + suffix, nil
}

// readSe parses se(v) per ITU-T H.265 9.2.2, mapping the unsigned codeNum
// from readUe onto signed values: 0, 1, -1, 2, -2, ...
func readSe(r *bits.Reader) (int64, error) {
	codeNum, err := readUe(r)
	if err != nil {
		return 0, err
	}
	v := int64((codeNum + 1) / 2)
	if codeNum%2 == 0 {
		v = -v
	}
	return v, nil
}
