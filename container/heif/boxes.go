/*
DESCRIPTION
  boxes.go implements the basic ISOBMFF box framing: a BoxHeader reader
  and a Box iterator over a byte slice, per ISO/IEC 14496-12 section 4.2.
  Grounded on original_source/src/heif/boxes.rs's BoxHeader/Box/
  BoxIterator, restructured into the teacher's sticky-error cursor idiom
  (codec/h264/h264dec/parse.go's fieldReader, codec/codecutil.ByteScanner's
  buffered-read style) since the box format has no direct precedent
  elsewhere in the teacher's container packages (container/mts,
  container/flv are non-ISOBMFF families).
*/

package heif

import "encoding/binary"

// BoxHeader is the parsed size/type prefix of one box.
type BoxHeader struct {
	Size          uint64 // total box size in bytes, including the header
	Type          FourCC
	HeaderLen     int // bytes consumed by size+type+optional largesize
	ContentOffset int // offset of the box's content, relative to the slice the iterator was built over
}

// Box is one parsed box: its header plus the byte slice of its content
// (the bytes following the header, up to Size).
type Box struct {
	Header  BoxHeader
	Content []byte
}

func (b Box) Type() FourCC { return b.Header.Type }

// BoxIterator walks consecutive sibling boxes within a byte slice.
type BoxIterator struct {
	data []byte
	off  int
	err  error
}

// NewBoxIterator returns an iterator over data's top-level (or a box's
// child) boxes.
func NewBoxIterator(data []byte) *BoxIterator {
	return &BoxIterator{data: data}
}

// Err returns the first error encountered, if iteration stopped early
// because of a malformed box. A well-formed iterator that simply runs
// out of sibling boxes returns nil from Err.
func (it *BoxIterator) Err() error { return it.err }

// Next returns the next box, or false when iteration is complete (either
// cleanly, or because a malformed box stopped it; check Err to tell
// which).
func (it *BoxIterator) Next() (Box, bool) {
	if it.err != nil {
		return Box{}, false
	}
	remaining := it.data[it.off:]
	if len(remaining) == 0 {
		return Box{}, false
	}
	if len(remaining) < 8 {
		it.err = newErr(InvalidContainer, "truncated box header")
		return Box{}, false
	}

	size32 := binary.BigEndian.Uint32(remaining[0:4])
	typ, _ := fourCCFromBytes(remaining[4:8])

	headerLen := 8
	var size uint64
	switch size32 {
	case 1:
		if len(remaining) < 16 {
			it.err = newErr(InvalidContainer, "truncated largesize box header")
			return Box{}, false
		}
		size = binary.BigEndian.Uint64(remaining[8:16])
		headerLen = 16
	case 0:
		size = uint64(len(remaining))
	default:
		size = uint64(size32)
	}

	if size < uint64(headerLen) || size > uint64(len(remaining)) {
		it.err = newErr(InvalidContainer, "box size out of range: "+typ.String())
		return Box{}, false
	}

	header := BoxHeader{
		Size:          size,
		Type:          typ,
		HeaderLen:     headerLen,
		ContentOffset: it.off + headerLen,
	}
	content := remaining[headerLen:size]
	it.off += int(size)

	return Box{Header: header, Content: content}, true
}
