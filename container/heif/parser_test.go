package heif

import (
	"encoding/binary"
	"testing"
)

func u16be(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func u32be(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// buildMinimalHeic assembles a synthetic single-image HEIC file with one
// hvc1 item carrying ispe and hvcC properties, enough to exercise
// Parse/PrimaryItem without a real HEVC bitstream.
func buildMinimalHeic(t *testing.T) []byte {
	t.Helper()

	ftypContent := append([]byte("heic"), append([]byte{0, 0, 0, 0}, []byte("mif1")...)...)
	ftyp := makeBox("ftyp", ftypContent)

	pitmContent := append([]byte{0, 0, 0, 0}, u16be(1)...)
	pitm := makeBox("pitm", pitmContent)

	infeContent := append([]byte{2, 0, 0, 0}, u16be(1)...) // version=2, flags=0, item_ID=1
	infeContent = append(infeContent, u16be(0)...)         // item_protection_index
	infeContent = append(infeContent, []byte("hvc1")...)   // item_type
	infeContent = append(infeContent, 0)                   // item_name = "" + NUL
	infe := makeBox("infe", infeContent)

	iinfContent := append([]byte{0, 0, 0, 0}, u16be(1)...) // version=0, flags=0, entry_count=1
	iinfContent = append(iinfContent, infe...)
	iinf := makeBox("iinf", iinfContent)

	ispeContent := append([]byte{0, 0, 0, 0}, u32be(1920)...)
	ispeContent = append(ispeContent, u32be(1080)...)
	ispe := makeBox("ispe", ispeContent)

	hvccContent := make([]byte, 23)
	hvccContent[0] = 1    // config_version
	hvccContent[1] = 0x01 // profile_idc = 1
	hvccContent[12] = 93  // level_idc
	hvccContent[16] = 1   // chroma_format (4:2:0)
	hvccContent[21] = 3   // length_size_minus_one -> 4-byte NAL length prefix
	hvccContent[22] = 0   // num_arrays
	hvcc := makeBox("hvcC", hvccContent)

	ipco := makeBox("ipco", append(append([]byte{}, ispe...), hvcc...))

	ipmaContent := append([]byte{0, 0, 0, 0}, u32be(1)...) // version=0, flags=0, entry_count=1
	ipmaContent = append(ipmaContent, u16be(1)...)         // item_ID=1
	ipmaContent = append(ipmaContent, 2)                   // association_count=2
	ipmaContent = append(ipmaContent, 0x01, 0x02)          // property indices 1 (ispe), 2 (hvcC)
	ipma := makeBox("ipma", ipmaContent)

	iprp := makeBox("iprp", append(append([]byte{}, ipco...), ipma...))

	metaContent := append([]byte{0, 0, 0, 0}, pitm...)
	metaContent = append(metaContent, iinf...)
	metaContent = append(metaContent, iprp...)
	meta := makeBox("meta", metaContent)

	mdat := makeBox("mdat", []byte("fake-hevc-bytes"))

	data := append([]byte{}, ftyp...)
	data = append(data, meta...)
	data = append(data, mdat...)
	return data
}

func TestParsePrimaryItem(t *testing.T) {
	data := buildMinimalHeic(t)

	c, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Brand != (FourCC{'h', 'e', 'i', 'c'}) {
		t.Errorf("got brand %v, want heic", c.Brand)
	}
	if c.PrimaryItemID != 1 {
		t.Errorf("got primary item id %d, want 1", c.PrimaryItemID)
	}

	item, err := c.PrimaryItem()
	if err != nil {
		t.Fatalf("PrimaryItem: %v", err)
	}
	if item.Type != ItemHvc1 {
		t.Errorf("got item type %v, want ItemHvc1", item.Type)
	}
	if item.Dimensions == nil || item.Dimensions.Width != 1920 || item.Dimensions.Height != 1080 {
		t.Fatalf("got dimensions %+v, want 1920x1080", item.Dimensions)
	}
	if item.HevcConfig == nil || item.HevcConfig.LengthFieldWidth() != 4 {
		t.Fatalf("got hevc config %+v, want length field width 4", item.HevcConfig)
	}
	if item.HevcConfig.ChromaFormat != 1 {
		t.Errorf("got chroma format %d, want 1", item.HevcConfig.ChromaFormat)
	}
}

func TestParseRejectsNonHeifBrand(t *testing.T) {
	ftypContent := append([]byte("mp41"), append([]byte{0, 0, 0, 0}, []byte("isom")...)...)
	data := makeBox("ftyp", ftypContent)

	_, err := Parse(data)
	if err == nil {
		t.Fatalf("expected an error for a non-HEIF brand")
	}
}

func TestParseMissingFtyp(t *testing.T) {
	data := makeBox("mdat", []byte("x"))
	_, err := Parse(data)
	if err == nil {
		t.Fatalf("expected an error when ftyp is missing")
	}
}

func TestGetItemDataFileBased(t *testing.T) {
	payload := []byte("hello-hevc-nal")
	data := append([]byte("prefix--"), payload...)

	c := &Container{
		data: data,
		ItemLocations: []ItemLocation{
			{
				ItemID:             7,
				ConstructionMethod: 0,
				BaseOffset:         0,
				Extents:            []Extent{{Offset: 8, Length: uint64(len(payload))}},
			},
		},
	}

	got, ok := c.GetItemData(7)
	if !ok {
		t.Fatalf("expected GetItemData to succeed")
	}
	if string(got) != string(payload) {
		t.Errorf("got %q, want %q", got, payload)
	}
}

func TestGetItemDataOwnedMultiExtent(t *testing.T) {
	data := []byte("AAAABBBBCCCC")
	c := &Container{
		data: data,
		ItemLocations: []ItemLocation{
			{
				ItemID:             3,
				ConstructionMethod: 0,
				Extents: []Extent{
					{Offset: 0, Length: 4},
					{Offset: 8, Length: 4},
				},
			},
		},
	}

	got, ok := c.GetItemDataOwned(3)
	if !ok {
		t.Fatalf("expected GetItemDataOwned to succeed")
	}
	if string(got) != "AAAACCCC" {
		t.Errorf("got %q, want AAAACCCC", got)
	}
}

func TestGetItemDataIdatBased(t *testing.T) {
	payload := []byte("idat-payload")
	data := append([]byte("header--"), payload...)
	c := &Container{
		data:       data,
		idatOffset: 4,
		ItemLocations: []ItemLocation{
			{ItemID: 1, ConstructionMethod: 1, BaseOffset: 4, Extents: []Extent{{Offset: 0, Length: uint64(len(payload))}}},
		},
	}
	got, ok := c.GetItemData(1)
	if !ok {
		t.Fatalf("expected GetItemData to succeed")
	}
	if string(got) != string(payload) {
		t.Errorf("got %q, want %q", got, payload)
	}
}

func TestFindThumbnailsAndAuxiliary(t *testing.T) {
	c := &Container{
		ItemInfos: []ItemInfo{
			{ItemID: 10, ItemType: fourccHVCB},
			{ItemID: 11, ItemType: fourccHVCB},
		},
		ItemReferences: []ItemReference{
			{RefType: fourccTHMB, FromItemID: 11, ToItemIDs: []uint32{10}},
			{RefType: fourccAUXL, FromItemID: 10, ToItemIDs: []uint32{12}},
		},
		PropertyAssociations: []PropertyAssociation{
			{ItemID: 12, Properties: []PropertyRef{{Index: 1}}},
		},
		Properties: []ItemProperty{
			{Kind: PropertyAuxType, AuxType: "urn:mpeg:hevc:2015:auxid:1"},
		},
	}
	c.ItemInfos = append(c.ItemInfos, ItemInfo{ItemID: 12, ItemType: fourccHVCB})

	thumbs := c.FindThumbnails(10)
	if len(thumbs) != 1 || thumbs[0] != 11 {
		t.Errorf("got thumbnails %v, want [11]", thumbs)
	}

	aux, ok := c.FindAuxiliary(10, "urn:mpeg:hevc:2015:auxid:1")
	if !ok || aux != 12 {
		t.Errorf("got FindAuxiliary = (%d, %v), want (12, true)", aux, ok)
	}

	_, ok = c.FindAuxiliary(10, "urn:nonexistent")
	if ok {
		t.Errorf("expected FindAuxiliary to fail for an unmatched urn")
	}
}

func TestParseGridConfigSmallFields(t *testing.T) {
	data := []byte{0, 0, 1, 2} // version=0, flags=0, rows_minus1=1, columns_minus1=2
	data = append(data, u16be(1536)...)
	data = append(data, u16be(1024)...)

	grid, err := ParseGridConfig(data)
	if err != nil {
		t.Fatalf("ParseGridConfig: %v", err)
	}
	if grid.Rows != 2 || grid.Columns != 3 {
		t.Errorf("got rows=%d columns=%d, want 2x3", grid.Rows, grid.Columns)
	}
	if grid.OutputWidth != 1536 || grid.OutputHeight != 1024 {
		t.Errorf("got output %dx%d, want 1536x1024", grid.OutputWidth, grid.OutputHeight)
	}
}

func TestParseGridConfigLargeFields(t *testing.T) {
	data := []byte{0, 1, 0, 0} // flags bit0 set -> 32-bit dimensions
	data = append(data, u32be(8160)...)
	data = append(data, u32be(6120)...)

	grid, err := ParseGridConfig(data)
	if err != nil {
		t.Fatalf("ParseGridConfig: %v", err)
	}
	if grid.OutputWidth != 8160 || grid.OutputHeight != 6120 {
		t.Errorf("got output %dx%d, want 8160x6120", grid.OutputWidth, grid.OutputHeight)
	}
	if grid.Rows != 1 || grid.Columns != 1 {
		t.Errorf("got rows=%d columns=%d, want 1x1", grid.Rows, grid.Columns)
	}
}
