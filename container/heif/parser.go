/*
DESCRIPTION
  parser.go parses a HEIF/HEIC file's top-level boxes (ftyp, meta, mdat)
  and the meta box's children (pitm, iloc, iinf, iprp, iref, idat) into a
  Container, per ISO/IEC 23008-12. Grounded directly on
  original_source/src/heif/parser.rs's parse/parse_* function set, field
  for field, translated to the teacher's sticky-error style in spirit
  (each parse_* here returns early on the first malformed field rather
  than accumulating partial state).
*/

package heif

import (
	"encoding/binary"

	"github.com/ausocean/utils/logging"
)

// Container is a parsed HEIF/HEIC container: the item/property/reference
// graph plus enough bookkeeping to resolve an item's encoded bytes.
type Container struct {
	data []byte
	log  logging.Logger

	Brand                FourCC
	CompatibleBrands     []FourCC
	PrimaryItemID        uint32
	ItemLocations        []ItemLocation
	ItemInfos            []ItemInfo
	Properties           []ItemProperty
	PropertyAssociations []PropertyAssociation
	ItemReferences       []ItemReference

	mdatOffset int
	mdatLength int
	idatOffset int // -1 if absent
	idatLength int
}

func (c *Container) logDebug(msg string, args ...interface{}) {
	if c.log != nil {
		c.log.Debug(msg, args...)
	}
}

func (c *Container) logWarning(msg string, args ...interface{}) {
	if c.log != nil {
		c.log.Warning(msg, args...)
	}
}

func (c *Container) logError(msg string, args ...interface{}) {
	if c.log != nil {
		c.log.Error(msg, args...)
	}
}

// heifBrands lists the major/compatible brands this decoder recognizes
// as HEIC/HEIF, per spec.md section 6.
var heifBrands = []FourCC{
	{'h', 'e', 'i', 'c'},
	{'h', 'e', 'i', 'x'},
	{'h', 'e', 'v', 'c'},
	{'h', 'e', 'v', 'x'},
	{'m', 'i', 'f', '1'},
	{'m', 's', 'f', '1'},
}

func isHeifBrand(f FourCC) bool {
	for _, b := range heifBrands {
		if f == b {
			return true
		}
	}
	return false
}

// Parse parses the top-level boxes of a HEIF/HEIC file.
func Parse(data []byte) (*Container, error) {
	return ParseWithLog(data, nil)
}

// ParseWithLog is Parse's counterpart that reports per-box trace points
// and recoverable oddities (skipped malformed entries, unrecognized box
// types) to log, per SPEC_FULL.md's ambient-stack logging requirement.
// A nil log is a no-op, matching codec/hevc.DecodeOptions.Log.
func ParseWithLog(data []byte, log logging.Logger) (*Container, error) {
	c := &Container{
		data:       data,
		log:        log,
		idatOffset: -1,
	}

	it := NewBoxIterator(data)
	for {
		box, ok := it.Next()
		if !ok {
			break
		}
		switch box.Type() {
		case fourccFTYP:
			if err := c.parseFtyp(box); err != nil {
				c.logError("ftyp parse failed", "error", err.Error())
				return nil, err
			}
			c.logDebug("parsed ftyp", "brand", c.Brand.String())
		case fourccMETA:
			if err := c.parseMeta(box); err != nil {
				c.logError("meta parse failed", "error", err.Error())
				return nil, err
			}
		case fourccMDAT:
			c.mdatOffset = box.Header.ContentOffset
			c.mdatLength = len(box.Content)
		default:
			c.logWarning("skipping unrecognized top-level box", "type", box.Type().String())
		}
	}
	if err := it.Err(); err != nil {
		c.logError("box iteration failed", "error", err.Error())
		return nil, err
	}

	var zero FourCC
	if c.Brand == zero {
		c.logError("missing ftyp box")
		return nil, newErr(InvalidContainer, "missing ftyp box")
	}
	c.logDebug("parsed container", "items", len(c.ItemInfos), "properties", len(c.Properties))
	return c, nil
}

func (c *Container) parseFtyp(ftyp Box) error {
	content := ftyp.Content
	if len(content) < 8 {
		return newErr(InvalidContainer, "ftyp too short")
	}
	brand, _ := fourCCFromBytes(content[0:4])
	c.Brand = brand

	for off := 8; off+4 <= len(content); off += 4 {
		b, _ := fourCCFromBytes(content[off : off+4])
		c.CompatibleBrands = append(c.CompatibleBrands, b)
	}

	isHeif := isHeifBrand(c.Brand)
	for _, b := range c.CompatibleBrands {
		if isHeifBrand(b) {
			isHeif = true
			break
		}
	}
	if !isHeif {
		return newErr(InvalidContainer, "not a HEIF file")
	}
	return nil
}

func (c *Container) parseMeta(meta Box) error {
	if len(meta.Content) < 4 {
		return newErr(InvalidContainer, "meta box too short")
	}
	content := meta.Content[4:] // skip full-box version/flags
	metaContentBase := meta.Header.ContentOffset + 4

	it := NewBoxIterator(content)
	for {
		box, ok := it.Next()
		if !ok {
			break
		}
		switch box.Type() {
		case fourccPITM:
			if err := c.parsePitm(box); err != nil {
				return err
			}
		case fourccILOC:
			if err := c.parseIloc(box); err != nil {
				return err
			}
		case fourccIINF:
			if err := c.parseIinf(box); err != nil {
				return err
			}
		case fourccIPRP:
			if err := c.parseIprp(box); err != nil {
				return err
			}
		case fourccIREF:
			if err := c.parseIref(box); err != nil {
				return err
			}
		case fourccIDAT:
			c.idatOffset = metaContentBase + box.Header.ContentOffset
			c.idatLength = len(box.Content)
		}
	}
	return it.Err()
}

func (c *Container) parsePitm(box Box) error {
	content := box.Content
	if len(content) < 4 {
		return newErr(InvalidContainer, "pitm too short")
	}
	version := content[0]
	if version == 0 {
		if len(content) < 6 {
			return newErr(InvalidContainer, "pitm v0 too short")
		}
		c.PrimaryItemID = uint32(binary.BigEndian.Uint16(content[4:6]))
	} else {
		if len(content) < 8 {
			return newErr(InvalidContainer, "pitm v1 too short")
		}
		c.PrimaryItemID = binary.BigEndian.Uint32(content[4:8])
	}
	return nil
}

func readSizedInt(data []byte, pos *int, size int) uint64 {
	if size == 0 || *pos+size > len(data) {
		return 0
	}
	var v uint64
	for i := 0; i < size; i++ {
		v = (v << 8) | uint64(data[*pos+i])
	}
	*pos += size
	return v
}

func (c *Container) parseIloc(box Box) error {
	content := box.Content
	if len(content) < 8 {
		return newErr(InvalidContainer, "iloc too short")
	}
	version := content[0]
	offsetSize := (content[4] >> 4) & 0xF
	lengthSize := content[4] & 0xF
	baseOffsetSize := (content[5] >> 4) & 0xF
	indexSize := uint8(0)
	if version >= 1 {
		indexSize = content[5] & 0xF
	}

	pos := 6
	var itemCount uint32
	if version < 2 {
		if pos+2 > len(content) {
			return newErr(InvalidContainer, "iloc truncated item count")
		}
		itemCount = uint32(binary.BigEndian.Uint16(content[pos : pos+2]))
		pos += 2
	} else {
		if pos+4 > len(content) {
			return newErr(InvalidContainer, "iloc truncated item count")
		}
		itemCount = binary.BigEndian.Uint32(content[pos : pos+4])
		pos += 4
	}

	for i := uint32(0); i < itemCount; i++ {
		var itemID uint32
		if version < 2 {
			if pos+2 > len(content) {
				return newErr(InvalidContainer, "iloc truncated item id")
			}
			itemID = uint32(binary.BigEndian.Uint16(content[pos : pos+2]))
			pos += 2
		} else {
			if pos+4 > len(content) {
				return newErr(InvalidContainer, "iloc truncated item id")
			}
			itemID = binary.BigEndian.Uint32(content[pos : pos+4])
			pos += 4
		}

		var constructionMethod uint8
		if version >= 1 {
			if pos+2 > len(content) {
				return newErr(InvalidContainer, "iloc truncated construction method")
			}
			constructionMethod = content[pos+1] & 0xF
			pos += 2
		}

		pos += 2 // data_reference_index, unused (single implicit data source)

		baseOffset := readSizedInt(content, &pos, int(baseOffsetSize))

		if pos+2 > len(content) {
			return newErr(InvalidContainer, "iloc truncated extent count")
		}
		extentCount := binary.BigEndian.Uint16(content[pos : pos+2])
		pos += 2

		extents := make([]Extent, 0, extentCount)
		for e := uint16(0); e < extentCount; e++ {
			if version >= 1 && indexSize > 0 {
				pos += int(indexSize)
			}
			offset := readSizedInt(content, &pos, int(offsetSize))
			length := readSizedInt(content, &pos, int(lengthSize))
			extents = append(extents, Extent{Offset: offset, Length: length})
		}

		c.ItemLocations = append(c.ItemLocations, ItemLocation{
			ItemID:             itemID,
			ConstructionMethod: constructionMethod,
			BaseOffset:         baseOffset,
			Extents:            extents,
		})
	}
	return nil
}

func (c *Container) parseIinf(box Box) error {
	content := box.Content
	if len(content) < 6 {
		return newErr(InvalidContainer, "iinf too short")
	}
	version := content[0]
	pos := 4
	var entryCount uint32
	if version == 0 {
		entryCount = uint32(binary.BigEndian.Uint16(content[pos : pos+2]))
		pos += 2
	} else {
		entryCount = binary.BigEndian.Uint32(content[pos : pos+4])
		pos += 4
	}

	it := NewBoxIterator(content[pos:])
	var seen uint32
	for seen < entryCount {
		box, ok := it.Next()
		if !ok {
			break
		}
		if box.Type() != fourccINFE {
			continue
		}
		info, err := parseInfe(box)
		if err != nil {
			c.logWarning("skipping malformed infe entry", "error", err.Error())
			continue // skip malformed infe entries rather than fail the whole file
		}
		c.ItemInfos = append(c.ItemInfos, info)
		seen++
	}
	return nil
}

func parseInfe(box Box) (ItemInfo, error) {
	content := box.Content
	if len(content) < 8 {
		return ItemInfo{}, newErr(InvalidContainer, "infe too short")
	}
	version := content[0]
	flags := uint32(content[1])<<16 | uint32(content[2])<<8 | uint32(content[3])
	hidden := flags&1 != 0

	pos := 4
	var itemID uint32
	if version < 3 {
		itemID = uint32(binary.BigEndian.Uint16(content[pos : pos+2]))
		pos += 2
	} else {
		itemID = binary.BigEndian.Uint32(content[pos : pos+4])
		pos += 4
	}
	pos += 2 // item_protection_index, unused (no protected items)

	var itemType FourCC
	if version >= 2 {
		if pos+4 > len(content) {
			return ItemInfo{}, newErr(InvalidContainer, "infe truncated item_type")
		}
		itemType, _ = fourCCFromBytes(content[pos : pos+4])
		pos += 4
	}

	name, n := readCString(content[pos:])
	pos += n
	contentType := ""
	if pos < len(content) {
		contentType, _ = readCString(content[pos:])
	}

	return ItemInfo{
		ItemID:      itemID,
		ItemType:    itemType,
		ItemName:    name,
		ContentType: contentType,
		Hidden:      hidden,
	}, nil
}

// readCString reads a NUL-terminated string, returning the string and
// the number of bytes consumed including the terminator. A missing
// terminator reads nothing and consumes one byte, matching the Rust
// reference's unwrap_or(0) fallback.
func readCString(b []byte) (string, int) {
	for i, v := range b {
		if v == 0 {
			return string(b[:i]), i + 1
		}
	}
	return "", 1
}

func (c *Container) parseIprp(box Box) error {
	it := NewBoxIterator(box.Content)
	for {
		child, ok := it.Next()
		if !ok {
			break
		}
		switch child.Type() {
		case fourccIPCO:
			if err := c.parseIpco(child); err != nil {
				return err
			}
		case fourccIPMA:
			if err := c.parseIpma(child); err != nil {
				return err
			}
		}
	}
	return it.Err()
}

func (c *Container) parseIpco(box Box) error {
	it := NewBoxIterator(box.Content)
	for {
		child, ok := it.Next()
		if !ok {
			break
		}
		prop := ItemProperty{Kind: PropertyUnknown}
		switch child.Type() {
		case fourccISPE:
			if ext, err := parseIspe(child); err == nil {
				prop = ItemProperty{Kind: PropertyImageExtents, ImageExtents: ext}
			}
		case fourccHVCC:
			if cfg, err := parseHvcc(child); err == nil {
				prop = ItemProperty{Kind: PropertyHevcConfig, HevcConfig: cfg}
			}
		case fourccCOLR:
			if col, err := parseColr(child); err == nil {
				prop = ItemProperty{Kind: PropertyColorInfo, Color: col}
			}
		case fourccCLAP:
			if clap, err := parseClap(child); err == nil {
				prop = ItemProperty{Kind: PropertyCleanAperture, CleanAperture: clap}
			}
		case fourccIROT:
			if len(child.Content) >= 1 {
				prop = ItemProperty{Kind: PropertyRotation, Rotation: int(child.Content[0] & 0x3)}
			}
		case fourccIMIR:
			if len(child.Content) >= 1 {
				prop = ItemProperty{Kind: PropertyMirror, Mirror: int(child.Content[0] & 0x1)}
			}
		case fourccAUXC:
			if len(child.Content) >= 4 {
				urn, _ := readCString(child.Content[4:])
				prop = ItemProperty{Kind: PropertyAuxType, AuxType: urn}
			}
		default:
			c.logWarning("unrecognized item property box", "type", child.Type().String())
		}
		c.Properties = append(c.Properties, prop)
	}
	return it.Err()
}

func parseIspe(box Box) (ImageSpatialExtents, error) {
	content := box.Content
	if len(content) < 12 {
		return ImageSpatialExtents{}, newErr(InvalidContainer, "ispe too short")
	}
	return ImageSpatialExtents{
		Width:  binary.BigEndian.Uint32(content[4:8]),
		Height: binary.BigEndian.Uint32(content[8:12]),
	}, nil
}

func parseHvcc(box Box) (HevcDecoderConfig, error) {
	content := box.Content
	if len(content) < 23 {
		return HevcDecoderConfig{}, newErr(InvalidContainer, "hvcC too short")
	}

	cfg := HevcDecoderConfig{
		ConfigVersion:                    content[0],
		GeneralProfileSpace:              (content[1] >> 6) & 0x3,
		GeneralTierFlag:                  (content[1]>>5)&0x1 != 0,
		GeneralProfileIDC:                content[1] & 0x1F,
		GeneralProfileCompatibilityFlags: binary.BigEndian.Uint32(content[2:6]),
		GeneralConstraintIndicatorFlags: uint64(content[6])<<40 | uint64(content[7])<<32 |
			uint64(content[8])<<24 | uint64(content[9])<<16 | uint64(content[10])<<8 | uint64(content[11]),
		GeneralLevelIDC:      content[12],
		ChromaFormat:         content[16] & 0x3,
		BitDepthLumaMinus8:   content[17] & 0x7,
		BitDepthChromaMinus8: content[18] & 0x7,
		LengthSizeMinusOne:   content[21] & 0x3,
	}

	numArrays := int(content[22])
	pos := 23
	for a := 0; a < numArrays; a++ {
		if pos+3 > len(content) {
			break
		}
		pos++ // array_completeness + nal_unit_type, unused
		numNalus := int(binary.BigEndian.Uint16(content[pos : pos+2]))
		pos += 2
		for n := 0; n < numNalus; n++ {
			if pos+2 > len(content) {
				break
			}
			naluLen := int(binary.BigEndian.Uint16(content[pos : pos+2]))
			pos += 2
			if pos+naluLen > len(content) {
				break
			}
			nal := make([]byte, naluLen)
			copy(nal, content[pos:pos+naluLen])
			cfg.NALUnits = append(cfg.NALUnits, nal)
			pos += naluLen
		}
	}
	return cfg, nil
}

func parseColr(box Box) (ColorInfo, error) {
	content := box.Content
	if len(content) < 4 {
		return ColorInfo{}, newErr(InvalidContainer, "colr too short")
	}
	colorType, _ := fourCCFromBytes(content[0:4])
	switch colorType {
	case (FourCC{'n', 'c', 'l', 'x'}):
		if len(content) < 11 {
			return ColorInfo{}, newErr(InvalidContainer, "nclx colr too short")
		}
		return ColorInfo{
			Kind:                    ColorNclx,
			ColorPrimaries:          binary.BigEndian.Uint16(content[4:6]),
			TransferCharacteristics: binary.BigEndian.Uint16(content[6:8]),
			MatrixCoefficients:      binary.BigEndian.Uint16(content[8:10]),
			FullRange:               content[10]>>7 != 0,
		}, nil
	case (FourCC{'p', 'r', 'o', 'f'}), (FourCC{'r', 'i', 'c', 'c'}):
		icc := make([]byte, len(content)-4)
		copy(icc, content[4:])
		return ColorInfo{Kind: ColorICCProfile, ICCProfile: icc}, nil
	default:
		return ColorInfo{}, newErr(InvalidContainer, "unknown color type")
	}
}

func parseClap(box Box) (CleanAperture, error) {
	content := box.Content
	if len(content) < 32 {
		return CleanAperture{}, newErr(InvalidContainer, "clap too short")
	}
	u32 := func(off int) uint32 { return binary.BigEndian.Uint32(content[off : off+4]) }
	i32 := func(off int) int32 { return int32(binary.BigEndian.Uint32(content[off : off+4])) }
	return CleanAperture{
		WidthN: u32(0), WidthD: u32(4),
		HeightN: u32(8), HeightD: u32(12),
		HorizOffN: i32(16), HorizOffD: i32(20),
		VertOffN: i32(24), VertOffD: i32(28),
	}, nil
}

func (c *Container) parseIpma(box Box) error {
	content := box.Content
	if len(content) < 8 {
		return newErr(InvalidContainer, "ipma too short")
	}
	version := content[0]
	flags := uint32(content[1])<<16 | uint32(content[2])<<8 | uint32(content[3])
	pos := 4

	entryCount := binary.BigEndian.Uint32(content[pos : pos+4])
	pos += 4

	for e := uint32(0); e < entryCount; e++ {
		if pos+2 > len(content) {
			break
		}
		var itemID uint32
		if version < 1 {
			itemID = uint32(binary.BigEndian.Uint16(content[pos : pos+2]))
			pos += 2
		} else {
			if pos+4 > len(content) {
				break
			}
			itemID = binary.BigEndian.Uint32(content[pos : pos+4])
			pos += 4
		}

		if pos >= len(content) {
			break
		}
		assocCount := int(content[pos])
		pos++

		props := make([]PropertyRef, 0, assocCount)
		for i := 0; i < assocCount; i++ {
			if pos >= len(content) {
				break
			}
			var essential bool
			var idx uint16
			if flags&1 != 0 {
				if pos+2 > len(content) {
					break
				}
				v := binary.BigEndian.Uint16(content[pos : pos+2])
				pos += 2
				essential = v>>15 != 0
				idx = v & 0x7FFF
			} else {
				v := content[pos]
				pos++
				essential = v>>7 != 0
				idx = uint16(v & 0x7F)
			}
			props = append(props, PropertyRef{Index: idx, Essential: essential})
		}
		c.PropertyAssociations = append(c.PropertyAssociations, PropertyAssociation{
			ItemID:     itemID,
			Properties: props,
		})
	}
	return nil
}

func (c *Container) parseIref(box Box) error {
	content := box.Content
	if len(content) < 4 {
		return newErr(InvalidContainer, "iref too short")
	}
	version := content[0]
	pos := 4

	for pos+8 <= len(content) {
		refSize := int(binary.BigEndian.Uint32(content[pos : pos+4]))
		if refSize < 14 || pos+refSize > len(content) {
			break
		}
		refType, _ := fourCCFromBytes(content[pos+4 : pos+8])
		rpos := pos + 8

		var fromItemID uint32
		if version == 0 {
			fromItemID = uint32(binary.BigEndian.Uint16(content[rpos : rpos+2]))
			rpos += 2
		} else {
			fromItemID = binary.BigEndian.Uint32(content[rpos : rpos+4])
			rpos += 4
		}

		if rpos+2 > pos+refSize {
			pos += refSize
			continue
		}
		refCount := int(binary.BigEndian.Uint16(content[rpos : rpos+2]))
		rpos += 2

		toItemIDs := make([]uint32, 0, refCount)
		for i := 0; i < refCount; i++ {
			if version == 0 {
				if rpos+2 > pos+refSize {
					break
				}
				toItemIDs = append(toItemIDs, uint32(binary.BigEndian.Uint16(content[rpos:rpos+2])))
				rpos += 2
			} else {
				if rpos+4 > pos+refSize {
					break
				}
				toItemIDs = append(toItemIDs, binary.BigEndian.Uint32(content[rpos:rpos+4]))
				rpos += 4
			}
		}

		c.ItemReferences = append(c.ItemReferences, ItemReference{
			RefType:    refType,
			FromItemID: fromItemID,
			ToItemIDs:  toItemIDs,
		})
		pos += refSize
	}
	return nil
}

// PrimaryItem resolves the container's primary_item_ID entry, per
// spec.md section 6.
func (c *Container) PrimaryItem() (Item, error) {
	item, ok := c.GetItem(c.PrimaryItemID)
	if !ok {
		c.logError("no item matches primary_item_ID", "id", c.PrimaryItemID)
		return Item{}, newErr(NoPrimaryImage, "no item matches primary_item_ID")
	}
	return item, nil
}
