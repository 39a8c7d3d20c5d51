/*
DESCRIPTION
  items.go defines the item/property/reference data model produced by
  parsing a HEIF meta box, and the Container's item-resolution methods
  (GetItem, GetItemData, GetTileItemIDs, FindAuxiliary, FindThumbnails).
  Grounded on original_source/src/heif/{boxes,parser}.rs's
  HeifContainer/Item/ItemProperty/ItemReference types.
*/

package heif

// ItemLocation is one iloc entry: where an item's encoded bytes live.
type ItemLocation struct {
	ItemID             uint32
	ConstructionMethod uint8 // 0 = file offset, 1 = idat offset, 2 = item (unsupported)
	BaseOffset         uint64
	Extents            []Extent
}

// Extent is one (offset, length) pair within an item's construction
// method's addressing space.
type Extent struct {
	Offset uint64
	Length uint64
}

// ItemInfo is one infe entry.
type ItemInfo struct {
	ItemID      uint32
	ItemType    FourCC
	ItemName    string
	ContentType string
	Hidden      bool
}

// ImageSpatialExtents is a parsed ispe property (item width/height).
type ImageSpatialExtents struct {
	Width, Height uint32
}

// HevcDecoderConfig is a parsed hvcC property: the HEVC decoder
// configuration record, per ISO/IEC 14496-15 section 8.3.3.
type HevcDecoderConfig struct {
	ConfigVersion                    uint8
	GeneralProfileSpace              uint8
	GeneralTierFlag                  bool
	GeneralProfileIDC                uint8
	GeneralProfileCompatibilityFlags uint32
	GeneralConstraintIndicatorFlags  uint64
	GeneralLevelIDC                  uint8
	ChromaFormat                     uint8
	BitDepthLumaMinus8               uint8
	BitDepthChromaMinus8             uint8
	LengthSizeMinusOne               uint8
	// NALUnits holds the parameter-set NALs (VPS/SPS/PPS) carried in the
	// configuration record, in array order.
	NALUnits [][]byte
}

// LengthFieldWidth returns the byte width of the length prefix on each
// NAL unit in the associated sample data, per spec.md section 6.
func (c HevcDecoderConfig) LengthFieldWidth() int {
	return int(c.LengthSizeMinusOne) + 1
}

// ColorInfoKind discriminates a colr property's payload.
type ColorInfoKind int

const (
	ColorNclx ColorInfoKind = iota
	ColorICCProfile
)

// ColorInfo is a parsed colr property.
type ColorInfo struct {
	Kind                    ColorInfoKind
	ColorPrimaries          uint16
	TransferCharacteristics uint16
	MatrixCoefficients      uint16
	FullRange               bool
	ICCProfile              []byte
}

// CleanAperture is a parsed clap property (conformance cropping
// rectangle), per ISO/IEC 14496-12 section 12.1.4.
type CleanAperture struct {
	WidthN, WidthD       uint32
	HeightN, HeightD     uint32
	HorizOffN, HorizOffD int32
	VertOffN, VertOffD   int32
}

// ItemPropertyKind discriminates an ItemProperty's payload.
type ItemPropertyKind int

const (
	PropertyUnknown ItemPropertyKind = iota
	PropertyImageExtents
	PropertyHevcConfig
	PropertyColorInfo
	PropertyCleanAperture
	PropertyRotation
	PropertyMirror
	PropertyAuxType
)

// ItemProperty is one entry of the ipco property container, addressed
// 1-based from ipma associations.
type ItemProperty struct {
	Kind          ItemPropertyKind
	ImageExtents  ImageSpatialExtents
	HevcConfig    HevcDecoderConfig
	Color         ColorInfo
	CleanAperture CleanAperture
	// Rotation is angle in units of 90 degrees counter-clockwise (irot).
	Rotation int
	// Mirror is 0 for a vertical axis, 1 for a horizontal axis (imir).
	Mirror int
	// AuxType is the urn string of an auxC property, identifying an
	// auxiliary image's role (alpha plane, HDR gain map, depth...).
	AuxType string
}

// PropertyAssociation is one ipma entry: the (1-based property index,
// essential flag) pairs associated with an item.
type PropertyAssociation struct {
	ItemID     uint32
	Properties []PropertyRef
}

// PropertyRef is one (index, essential) pair within a PropertyAssociation.
type PropertyRef struct {
	Index     uint16 // 1-based index into Container.Properties
	Essential bool
}

// ItemReference is one iref entry: an ordered list of to-item ids a
// from-item references, with a typed relationship (dimg, thmb, auxl...).
type ItemReference struct {
	RefType    FourCC
	FromItemID uint32
	ToItemIDs  []uint32
}

// Item is a resolved item: its info entry plus properties looked up
// through the item's property association.
type Item struct {
	ID            uint32
	Type          ItemType
	Name          string
	Dimensions    *ImageSpatialExtents
	HevcConfig    *HevcDecoderConfig
	Color         *ColorInfo
	CleanAperture *CleanAperture
	Rotation      int
	Mirror        int
	HasMirror     bool
	AuxType       string
}

// GetItem resolves item id's info and properties, or returns false if no
// infe entry matches.
func (c *Container) GetItem(itemID uint32) (Item, bool) {
	var info *ItemInfo
	for i := range c.ItemInfos {
		if c.ItemInfos[i].ItemID == itemID {
			info = &c.ItemInfos[i]
			break
		}
	}
	if info == nil {
		return Item{}, false
	}

	item := Item{
		ID:   itemID,
		Type: itemTypeFromFourCC(info.ItemType),
		Name: info.ItemName,
	}

	var assoc *PropertyAssociation
	for i := range c.PropertyAssociations {
		if c.PropertyAssociations[i].ItemID == itemID {
			assoc = &c.PropertyAssociations[i]
			break
		}
	}
	if assoc == nil {
		return item, true
	}

	for _, ref := range assoc.Properties {
		idx := int(ref.Index) - 1 // ipma indices are 1-based
		if idx < 0 || idx >= len(c.Properties) {
			continue
		}
		switch p := c.Properties[idx]; p.Kind {
		case PropertyImageExtents:
			ext := p.ImageExtents
			item.Dimensions = &ext
		case PropertyHevcConfig:
			cfg := p.HevcConfig
			item.HevcConfig = &cfg
		case PropertyColorInfo:
			col := p.Color
			item.Color = &col
		case PropertyCleanAperture:
			clap := p.CleanAperture
			item.CleanAperture = &clap
		case PropertyRotation:
			item.Rotation = p.Rotation
		case PropertyMirror:
			item.Mirror = p.Mirror
			item.HasMirror = true
		case PropertyAuxType:
			item.AuxType = p.AuxType
		}
	}
	return item, true
}

// GetItemData returns a direct slice of itemID's encoded bytes when it
// has a single extent, without copying. Multi-extent items return
// ok==false; use GetItemDataOwned for those.
func (c *Container) GetItemData(itemID uint32) ([]byte, bool) {
	loc := c.itemLocation(itemID)
	if loc == nil || len(loc.Extents) != 1 {
		return nil, false
	}
	ext := loc.Extents[0]
	abs, ok := c.resolveExtentOffset(*loc, ext)
	if !ok {
		return nil, false
	}
	end := abs + ext.Length
	if end > uint64(len(c.data)) {
		return nil, false
	}
	return c.data[abs:end], true
}

// GetItemDataOwned returns itemID's encoded bytes, concatenating
// multiple extents when present. Returns ok==false if the item has no
// location entry or an extent falls outside the file.
func (c *Container) GetItemDataOwned(itemID uint32) ([]byte, bool) {
	loc := c.itemLocation(itemID)
	if loc == nil || len(loc.Extents) == 0 {
		return nil, false
	}
	var out []byte
	for _, ext := range loc.Extents {
		abs, ok := c.resolveExtentOffset(*loc, ext)
		if !ok {
			return nil, false
		}
		end := abs + ext.Length
		if end > uint64(len(c.data)) {
			return nil, false
		}
		out = append(out, c.data[abs:end]...)
	}
	return out, true
}

func (c *Container) itemLocation(itemID uint32) *ItemLocation {
	for i := range c.ItemLocations {
		if c.ItemLocations[i].ItemID == itemID {
			return &c.ItemLocations[i]
		}
	}
	return nil
}

func (c *Container) resolveExtentOffset(loc ItemLocation, ext Extent) (uint64, bool) {
	switch loc.ConstructionMethod {
	case 0:
		return loc.BaseOffset + ext.Offset, true
	case 1:
		if c.idatOffset < 0 {
			return 0, false
		}
		return uint64(c.idatOffset) + loc.BaseOffset + ext.Offset, true
	default:
		return 0, false // construction_method 2 (item) not supported
	}
}

// References returns the ordered to-item ids that fromItemID references
// with relationship refType (e.g. "dimg", "thmb", "auxl").
func (c *Container) References(fromItemID uint32, refType FourCC) []uint32 {
	for _, r := range c.ItemReferences {
		if r.FromItemID == fromItemID && r.RefType == refType {
			return r.ToItemIDs
		}
	}
	return nil
}

// GetTileItemIDs returns gridItemID's ordered tile item ids, resolved
// from the iref "dimg" reference, per ISO/IEC 23008-12 section 6.6.2.
func (c *Container) GetTileItemIDs(gridItemID uint32) ([]uint32, bool) {
	ids := c.References(gridItemID, fourccDIMG)
	if ids == nil {
		return nil, false
	}
	return ids, true
}

// FindThumbnails returns item ids that reference itemID as their
// thumbnail-of target via an iref "thmb" entry.
func (c *Container) FindThumbnails(itemID uint32) []uint32 {
	var out []uint32
	for _, r := range c.ItemReferences {
		if r.RefType != fourccTHMB {
			continue
		}
		for _, to := range r.ToItemIDs {
			if to == itemID {
				out = append(out, r.FromItemID)
			}
		}
	}
	return out
}

// FindAuxiliary returns the item id of itemID's auxiliary image whose
// auxC urn matches urn (e.g. an alpha plane or HDR gain map), via the
// iref "auxl" reference plus the referenced item's auxC property.
func (c *Container) FindAuxiliary(itemID uint32, urn string) (uint32, bool) {
	for _, candidate := range c.References(itemID, fourccAUXL) {
		item, ok := c.GetItem(candidate)
		if ok && item.AuxType == urn {
			return candidate, true
		}
	}
	return 0, false
}
