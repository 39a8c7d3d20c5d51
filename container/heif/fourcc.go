/*
DESCRIPTION
  fourcc.go defines the four-character box/brand codes used throughout
  the ISOBMFF/HEIF container, per ISO/IEC 14496-12 and ISO/IEC 23008-12.
  Grounded on original_source/src/heif/boxes.rs's FourCC const set.
*/

package heif

import "fmt"

// FourCC is a four-character box or brand code, stored in file byte
// order (no endian swap; comparisons are byte-for-byte).
type FourCC [4]byte

func (f FourCC) String() string {
	return fmt.Sprintf("%c%c%c%c", f[0], f[1], f[2], f[3])
}

func fourCCFromBytes(b []byte) (FourCC, bool) {
	if len(b) < 4 {
		return FourCC{}, false
	}
	return FourCC{b[0], b[1], b[2], b[3]}, true
}

// Box types referenced while parsing the container, per
// original_source/src/heif/boxes.rs.
var (
	fourccFTYP = FourCC{'f', 't', 'y', 'p'}
	fourccMETA = FourCC{'m', 'e', 't', 'a'}
	fourccHDLR = FourCC{'h', 'd', 'l', 'r'}
	fourccPITM = FourCC{'p', 'i', 't', 'm'}
	fourccILOC = FourCC{'i', 'l', 'o', 'c'}
	fourccIINF = FourCC{'i', 'i', 'n', 'f'}
	fourccINFE = FourCC{'i', 'n', 'f', 'e'}
	fourccIPRP = FourCC{'i', 'p', 'r', 'p'}
	fourccIPCO = FourCC{'i', 'p', 'c', 'o'}
	fourccIPMA = FourCC{'i', 'p', 'm', 'a'}
	fourccMDAT = FourCC{'m', 'd', 'a', 't'}
	fourccISPE = FourCC{'i', 's', 'p', 'e'}
	fourccHVCB = FourCC{'h', 'v', 'c', '1'}
	fourccHVCC = FourCC{'h', 'v', 'c', 'C'}
	fourccCOLR = FourCC{'c', 'o', 'l', 'r'}
	fourccPIXI = FourCC{'p', 'i', 'x', 'i'}
	fourccIREF = FourCC{'i', 'r', 'e', 'f'}
	fourccAUXC = FourCC{'a', 'u', 'x', 'C'}
	fourccDIMG = FourCC{'d', 'i', 'm', 'g'}
	fourccTHMB = FourCC{'t', 'h', 'm', 'b'}
	fourccAUXL = FourCC{'a', 'u', 'x', 'l'}
	fourccIDAT = FourCC{'i', 'd', 'a', 't'}
	fourccCLAP = FourCC{'c', 'l', 'a', 'p'}
	fourccIROT = FourCC{'i', 'r', 'o', 't'}
	fourccIMIR = FourCC{'i', 'm', 'i', 'r'}

	fourccGRID = FourCC{'g', 'r', 'i', 'd'}
	fourccIOVL = FourCC{'i', 'o', 'v', 'l'}
	fourccIDEN = FourCC{'i', 'd', 'e', 'n'}
	fourccEXIF = FourCC{'E', 'x', 'i', 'f'}
	fourccMIME = FourCC{'m', 'i', 'm', 'e'}
)

// ItemType is a coarse classification of an item's content, derived from
// its infe item_type four-character code.
type ItemType int

const (
	// ItemHvc1 is an HEVC coded image item.
	ItemHvc1 ItemType = iota
	// ItemGrid is an image grid derivation.
	ItemGrid
	// ItemIovl is an image overlay derivation.
	ItemIovl
	// ItemIden is an identity-transform derivation (passthrough of a
	// single referenced item).
	ItemIden
	// ItemExif is EXIF metadata.
	ItemExif
	// ItemMime is MIME-typed metadata (used for XMP).
	ItemMime
	// ItemUnknown is any item type this decoder does not classify.
	ItemUnknown
)

func itemTypeFromFourCC(f FourCC) ItemType {
	switch f {
	case fourccHVCB:
		return ItemHvc1
	case fourccGRID:
		return ItemGrid
	case fourccIOVL:
		return ItemIovl
	case fourccIDEN:
		return ItemIden
	case fourccEXIF:
		return ItemExif
	case fourccMIME:
		return ItemMime
	default:
		return ItemUnknown
	}
}
