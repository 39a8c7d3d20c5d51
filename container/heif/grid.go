/*
DESCRIPTION
  grid.go parses the "grid" derived-image item's ImageGrid configuration
  and composites independently decoded tile frames into one output
  picture, per ISO/IEC 23008-12 Annex A.2.3.2. Grounded on
  original_source/src/heif/grid.rs's parse_grid_config/decode_grid/
  stitch_tile, using golang.org/x/image/draw for the per-plane blit
  (DESIGN.md) instead of grid.rs's hand-rolled row-copy loops.
*/

package heif

import (
	"encoding/binary"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/ausocean/heic/codec/hevc"
)

// ImageGrid is a parsed grid item configuration: tile layout plus the
// declared output canvas size.
type ImageGrid struct {
	Columns, Rows             uint32
	OutputWidth, OutputHeight uint32
}

// ParseGridConfig parses a grid item's data payload (ImageGrid box, per
// ISO/IEC 23008-12 A.2.3.2): version(1) + flags(1) + rows_minus1(1) +
// columns_minus1(1) + output dimensions.
func ParseGridConfig(data []byte) (ImageGrid, error) {
	if len(data) < 8 {
		return ImageGrid{}, newErr(InvalidData, "grid data too short")
	}
	flags := data[1]
	rows := uint32(data[2]) + 1
	columns := uint32(data[3]) + 1
	largeFields := flags&1 != 0

	var outW, outH uint32
	if largeFields {
		if len(data) < 12 {
			return ImageGrid{}, newErr(InvalidData, "grid data too short for 32-bit dims")
		}
		outW = binary.BigEndian.Uint32(data[4:8])
		outH = binary.BigEndian.Uint32(data[8:12])
	} else {
		outW = uint32(binary.BigEndian.Uint16(data[4:6]))
		outH = uint32(binary.BigEndian.Uint16(data[6:8]))
	}

	return ImageGrid{Columns: columns, Rows: rows, OutputWidth: outW, OutputHeight: outH}, nil
}

// planeImage adapts a Frame's uint16 sample plane to image.Image /
// draw.Image so golang.org/x/image/draw can blit it.
type planeImage struct {
	pix          []uint16
	stride, w, h int
}

func (p *planeImage) ColorModel() color.Model { return color.Gray16Model }
func (p *planeImage) Bounds() image.Rectangle { return image.Rect(0, 0, p.w, p.h) }
func (p *planeImage) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= p.w || y >= p.h {
		return color.Gray16{}
	}
	return color.Gray16{Y: p.pix[y*p.stride+x]}
}
func (p *planeImage) Set(x, y int, c color.Color) {
	if x < 0 || y < 0 || x >= p.w || y >= p.h {
		return
	}
	g := color.Gray16Model.Convert(c).(color.Gray16)
	p.pix[y*p.stride+x] = g.Y
}

// StitchTile copies tile's cropped (conformance-windowed) planes into
// output at luma offset (dstX, dstY), clamped to output's bounds for
// edge tiles that extend past the grid's declared output size, per
// grid.rs's stitch_tile.
func StitchTile(tile, output *hevc.Frame, dstX, dstY int) {
	srcX0, srcY0 := tile.CropLeft(), tile.CropTop()
	srcW, srcH := tile.CroppedWidth(), tile.CroppedHeight()

	copyW := srcW
	if avail := output.Width - dstX; avail < copyW {
		copyW = avail
	}
	copyH := srcH
	if avail := output.Height - dstY; avail < copyH {
		copyH = avail
	}
	if copyW <= 0 || copyH <= 0 {
		return
	}

	srcY := &planeImage{pix: tile.Y, stride: tile.YStride, w: tile.Width, h: tile.Height}
	dstYImg := &planeImage{pix: output.Y, stride: output.YStride, w: output.Width, h: output.Height}
	draw.Draw(dstYImg, image.Rect(dstX, dstY, dstX+copyW, dstY+copyH), srcY, image.Pt(srcX0, srcY0), draw.Src)

	if output.SPS.ChromaFormatIDC == 0 || tile.SPS.ChromaFormatIDC == 0 {
		return
	}
	subW, subH := subsamplingRatio(tile.SPS.ChromaFormatIDC)
	cSrcX0, cSrcY0 := srcX0/subW, srcY0/subH
	cDstX, cDstY := dstX/subW, dstY/subH
	cCopyW, cCopyH := copyW/subW, copyH/subH
	if cCopyW <= 0 || cCopyH <= 0 {
		return
	}

	srcCb := &planeImage{pix: tile.Cb, stride: tile.CStride, w: tile.ChromaWidth(), h: tile.ChromaHeight()}
	dstCb := &planeImage{pix: output.Cb, stride: output.CStride, w: output.ChromaWidth(), h: output.ChromaHeight()}
	draw.Draw(dstCb, image.Rect(cDstX, cDstY, cDstX+cCopyW, cDstY+cCopyH), srcCb, image.Pt(cSrcX0, cSrcY0), draw.Src)

	srcCr := &planeImage{pix: tile.Cr, stride: tile.CStride, w: tile.ChromaWidth(), h: tile.ChromaHeight()}
	dstCr := &planeImage{pix: output.Cr, stride: output.CStride, w: output.ChromaWidth(), h: output.ChromaHeight()}
	draw.Draw(dstCr, image.Rect(cDstX, cDstY, cDstX+cCopyW, cDstY+cCopyH), srcCr, image.Pt(cSrcX0, cSrcY0), draw.Src)
}

// subsamplingRatio mirrors codec/hevc's internal subsampling table; it is
// re-declared here since that helper is unexported.
func subsamplingRatio(chromaFormatIDC int) (subW, subH int) {
	switch chromaFormatIDC {
	case 1:
		return 2, 2
	case 2:
		return 2, 1
	default:
		return 1, 1
	}
}

// NewOutputFrame allocates a Frame sized to hold a grid's composed
// output, reusing firstTile's SPS for bit depth/chroma format but with
// picture dimensions overridden to the grid's declared output size.
func NewOutputFrame(firstTile *hevc.Frame, grid ImageGrid) *hevc.Frame {
	outSPS := *firstTile.SPS
	outSPS.PicWidthInLumaSamples = grid.OutputWidth
	outSPS.PicHeightInLumaSamples = grid.OutputHeight
	outSPS.ConformanceWindow.Left = 0
	outSPS.ConformanceWindow.Right = 0
	outSPS.ConformanceWindow.Top = 0
	outSPS.ConformanceWindow.Bottom = 0
	outSPS.DeriveSizes()
	return hevc.NewFrame(&outSPS)
}
