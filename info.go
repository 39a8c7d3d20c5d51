/*
DESCRIPTION
  info.go implements InfoFromBytes, a header-only probe that reports an
  image's dimensions, bit depth and chroma format plus alpha/EXIF/XMP/
  thumbnail presence without decoding any slice data, per spec.md
  section 6 and section 8 scenario 5. Grounded on
  original_source/src/lib.rs's ImageInfo/ImageInfo::from_bytes, including
  its exact three-tier fallback: a parameter-set fast path when the
  primary item carries its own hvcC, an ispe-plus-first-tile fallback for
  grid/iden/iovl primaries, and a final "no configuration record"
  failure (this port's narrowing of from_bytes's raw-SPS-scan last
  resort, documented in DESIGN.md).
*/

package heic

import (
	"strings"

	"github.com/ausocean/heic/container/heif"
)

// ImageInfo is the result of a header-only probe.
type ImageInfo struct {
	Width, Height uint32
	BitDepth      int
	ChromaFormat  int
	HasAlpha      bool
	HasEXIF       bool
	HasXMP        bool
	HasThumbnail  bool
}

// OutputBufferSize returns the byte length a DecodeInto caller must
// provide for layout l, or false if width*height*bytesPerPixel overflows
// a uint64.
func (info ImageInfo) OutputBufferSize(l PixelLayout) (uint64, bool) {
	w, h := uint64(info.Width), uint64(info.Height)
	pixels := w * h
	if w != 0 && pixels/w != h {
		return 0, false
	}
	bpp := uint64(l.BytesPerPixel())
	size := pixels * bpp
	if pixels != 0 && size/pixels != bpp {
		return 0, false
	}
	return size, true
}

var exifFourCC = heif.FourCC{'E', 'x', 'i', 'f'}
var mimeFourCC = heif.FourCC{'m', 'i', 'm', 'e'}

// InfoFromBytes parses image metadata from data without decoding any
// slice data, per spec.md section 6. It returns a *ProbeError
// distinguishing "too few bytes to know" (NeedMoreData) from
// "definitely not HEIC" (InvalidFormat) from "HEIC-shaped but broken"
// (Corrupt).
func InfoFromBytes(data []byte) (ImageInfo, error) {
	if len(data) < 12 {
		return ImageInfo{}, &ProbeError{PK: NeedMoreData}
	}
	if string(data[4:8]) != "ftyp" {
		return ImageInfo{}, &ProbeError{PK: InvalidFormat}
	}

	container, err := heif.Parse(data)
	if err != nil {
		return ImageInfo{}, &ProbeError{PK: Corrupt, Cause: err}
	}
	primary, err := container.PrimaryItem()
	if err != nil {
		return ImageInfo{}, &ProbeError{PK: Corrupt, Cause: err}
	}

	_, hasAlpha1 := container.FindAuxiliary(primary.ID, auxAlphaURN1)
	_, hasAlpha2 := container.FindAuxiliary(primary.ID, auxAlphaURN2)
	hasAlpha := hasAlpha1 || hasAlpha2
	hasThumbnail := len(container.FindThumbnails(primary.ID)) > 0

	var hasEXIF, hasXMP bool
	for _, ii := range container.ItemInfos {
		switch ii.ItemType {
		case exifFourCC:
			hasEXIF = true
		case mimeFourCC:
			if strings.Contains(ii.ContentType, "xmp") || strings.Contains(ii.ContentType, "rdf+xml") {
				hasXMP = true
			}
		}
	}

	base := ImageInfo{
		HasAlpha:     hasAlpha,
		HasEXIF:      hasEXIF,
		HasXMP:       hasXMP,
		HasThumbnail: hasThumbnail,
	}

	// Fast path: the primary item carries its own parameter sets.
	if primary.HevcConfig != nil {
		sps, err := parseSPSFromConfig(*primary.HevcConfig)
		if err == nil {
			w, h := sps.CroppedDimensions()
			base.Width, base.Height = w, h
			base.BitDepth = sps.BitDepthLuma
			base.ChromaFormat = sps.ChromaFormatIDC
			return base, nil
		}
	}

	// Derived-image fallback (grid/iden/iovl): dimensions come from the
	// item's own ispe property; bit depth/chroma format come from the
	// first dimg-referenced tile's hvcC, defaulting to 8-bit 4:2:0 if
	// that tile has none.
	if primary.Type != heif.ItemHvc1 && primary.Dimensions != nil {
		base.Width = primary.Dimensions.Width
		base.Height = primary.Dimensions.Height
		base.BitDepth = 8
		base.ChromaFormat = 1
		if tileIDs, ok := container.GetTileItemIDs(primary.ID); ok && len(tileIDs) > 0 {
			if tile, ok := container.GetItem(tileIDs[0]); ok && tile.HevcConfig != nil {
				base.BitDepth = int(tile.HevcConfig.BitDepthLumaMinus8) + 8
				base.ChromaFormat = int(tile.HevcConfig.ChromaFormat)
			}
		}
		return base, nil
	}

	return ImageInfo{}, &ProbeError{PK: Corrupt, Cause: newErr(InvalidData, "primary item has no hvcC configuration record")}
}
