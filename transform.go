/*
DESCRIPTION
  transform.go applies an item's clean-aperture crop and mirror/rotation
  properties directly to a decoded Frame's planes, per
  original_source/src/lib.rs's apply_clean_aperture and
  DecodedFrame::{mirror_vertical,mirror_horizontal,rotate_90_cw,
  rotate_180,rotate_270_cw}. Operating at the plane level (rather than
  deferring to the final interleaved byte buffer) keeps the transforms
  composable through identity-derivation chains, where decodeItem applies
  each level's own properties on top of whatever its dimg target already
  returned.
*/

package heic

import (
	"math"

	"github.com/ausocean/heic/codec/hevc"
	"github.com/ausocean/heic/container/heif"
)

// applyCleanAperture narrows frame's conformance window to clap's
// clean-aperture rectangle, centered plus a rational offset, when that
// rectangle is smaller than the frame's existing cropped dimensions.
// Clap fields are rationals in luma sample units; the derived extra
// crop is converted to conformance-window units (chroma sample units)
// the same way Frame.CropLeft/CropTop already scale them.
func applyCleanAperture(frame *hevc.Frame, clap *heif.CleanAperture) {
	subW, subH := chromaSubsamplingUnits(frame.SPS.ChromaFormatIDC)
	confWidth := frame.CroppedWidth()
	confHeight := frame.CroppedHeight()

	cleanWidth := confWidth
	if clap.WidthD > 0 {
		cleanWidth = int(clap.WidthN / clap.WidthD)
	}
	cleanHeight := confHeight
	if clap.HeightD > 0 {
		cleanHeight = int(clap.HeightN / clap.HeightD)
	}
	if cleanWidth >= confWidth && cleanHeight >= confHeight {
		return
	}

	var horizOff, vertOff float64
	if clap.HorizOffD > 0 {
		horizOff = float64(clap.HorizOffN) / float64(clap.HorizOffD)
	}
	if clap.VertOffD > 0 {
		vertOff = float64(clap.VertOffN) / float64(clap.VertOffD)
	}

	extraLeft := maxInt(int(math.Round(float64(confWidth-cleanWidth)/2+horizOff)), 0)
	extraTop := maxInt(int(math.Round(float64(confHeight-cleanHeight)/2+vertOff)), 0)
	extraRight := maxInt(confWidth-cleanWidth-extraLeft, 0)
	extraBottom := maxInt(confHeight-cleanHeight-extraTop, 0)

	frame.SPS.ConformanceWindow.Left += uint32(extraLeft) / subW
	frame.SPS.ConformanceWindow.Right += uint32(extraRight) / subW
	frame.SPS.ConformanceWindow.Top += uint32(extraTop) / subH
	frame.SPS.ConformanceWindow.Bottom += uint32(extraBottom) / subH
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// chromaSubsamplingUnits mirrors codec/hevc's internal subsampling
// table, re-declared here since that helper is unexported; the same
// re-declaration appears in container/heif/grid.go's subsamplingRatio
// for the same reason.
func chromaSubsamplingUnits(chromaFormatIDC int) (subW, subH uint32) {
	switch chromaFormatIDC {
	case 1:
		return 2, 2
	case 2:
		return 2, 1
	default:
		return 1, 1
	}
}

// mirrorFrame flips frame in place along axis (0 = vertical axis/
// top-bottom flip, 1 = horizontal axis/left-right flip, per imir's
// axis semantics), swapping the corresponding conformance-window edges
// to keep the crop aligned with the flipped content.
func mirrorFrame(frame *hevc.Frame, axis int) {
	if axis == 0 {
		flipPlaneRows(frame.Y, frame.YStride, frame.Width, frame.Height)
		if len(frame.Cb) != 0 {
			flipPlaneRows(frame.Cb, frame.CStride, frame.ChromaWidth(), frame.ChromaHeight())
			flipPlaneRows(frame.Cr, frame.CStride, frame.ChromaWidth(), frame.ChromaHeight())
		}
		cw := frame.SPS.ConformanceWindow
		frame.SPS.ConformanceWindow.Top, frame.SPS.ConformanceWindow.Bottom = cw.Bottom, cw.Top
		return
	}
	flipPlaneCols(frame.Y, frame.YStride, frame.Width, frame.Height)
	if len(frame.Cb) != 0 {
		flipPlaneCols(frame.Cb, frame.CStride, frame.ChromaWidth(), frame.ChromaHeight())
		flipPlaneCols(frame.Cr, frame.CStride, frame.ChromaWidth(), frame.ChromaHeight())
	}
	cw := frame.SPS.ConformanceWindow
	frame.SPS.ConformanceWindow.Left, frame.SPS.ConformanceWindow.Right = cw.Right, cw.Left
}

func flipPlaneRows(plane []uint16, stride, width, height int) {
	row := make([]uint16, width)
	for y := 0; y < height/2; y++ {
		y2 := height - 1 - y
		copy(row, plane[y*stride:y*stride+width])
		copy(plane[y*stride:y*stride+width], plane[y2*stride:y2*stride+width])
		copy(plane[y2*stride:y2*stride+width], row)
	}
}

func flipPlaneCols(plane []uint16, stride, width, height int) {
	for y := 0; y < height; y++ {
		row := plane[y*stride : y*stride+width]
		for x := 0; x < width/2; x++ {
			row[x], row[width-1-x] = row[width-1-x], row[x]
		}
	}
}

// rotateFrame rotates frame by quarterTurnsCCW quarter-turns
// counter-clockwise (irot's angle units), returning a (possibly new,
// for 90/270) Frame.
func rotateFrame(frame *hevc.Frame, quarterTurnsCCW int) (*hevc.Frame, error) {
	switch ((quarterTurnsCCW % 4) + 4) % 4 {
	case 1:
		return rotateFrame90(frame, false)
	case 2:
		rotate180(frame)
		return frame, nil
	case 3:
		return rotateFrame90(frame, true)
	default:
		return frame, nil
	}
}

func rotate180(frame *hevc.Frame) {
	flipPlaneRows(frame.Y, frame.YStride, frame.Width, frame.Height)
	flipPlaneCols(frame.Y, frame.YStride, frame.Width, frame.Height)
	if len(frame.Cb) != 0 {
		flipPlaneRows(frame.Cb, frame.CStride, frame.ChromaWidth(), frame.ChromaHeight())
		flipPlaneCols(frame.Cb, frame.CStride, frame.ChromaWidth(), frame.ChromaHeight())
		flipPlaneRows(frame.Cr, frame.CStride, frame.ChromaWidth(), frame.ChromaHeight())
		flipPlaneCols(frame.Cr, frame.CStride, frame.ChromaWidth(), frame.ChromaHeight())
	}
	cw := frame.SPS.ConformanceWindow
	frame.SPS.ConformanceWindow.Left, frame.SPS.ConformanceWindow.Right = cw.Right, cw.Left
	frame.SPS.ConformanceWindow.Top, frame.SPS.ConformanceWindow.Bottom = cw.Bottom, cw.Top
}

// rotateFrame90 builds a new Frame with width/height swapped, rotating
// frame's planes by 90 degrees. 4:2:2 content is rejected: swapping the
// picture axes would need an asymmetric subsampling ratio HEVC has no
// chroma_format_idc value for.
func rotateFrame90(frame *hevc.Frame, clockwise bool) (*hevc.Frame, error) {
	if frame.SPS.ChromaFormatIDC == 2 {
		return nil, newErr(Unsupported, "90/270 degree rotation of 4:2:2 chroma content")
	}

	outSPS := *frame.SPS
	outSPS.PicWidthInLumaSamples, outSPS.PicHeightInLumaSamples = frame.SPS.PicHeightInLumaSamples, frame.SPS.PicWidthInLumaSamples
	cw := frame.SPS.ConformanceWindow
	if clockwise {
		outSPS.ConformanceWindow.Left, outSPS.ConformanceWindow.Top = cw.Bottom, cw.Left
		outSPS.ConformanceWindow.Right, outSPS.ConformanceWindow.Bottom = cw.Top, cw.Right
	} else {
		outSPS.ConformanceWindow.Left, outSPS.ConformanceWindow.Top = cw.Top, cw.Right
		outSPS.ConformanceWindow.Right, outSPS.ConformanceWindow.Bottom = cw.Bottom, cw.Left
	}
	outSPS.DeriveSizes()

	out := hevc.NewFrame(&outSPS)
	rotatePlane90(frame.Y, out.Y, frame.Width, frame.Height, frame.YStride, out.YStride, clockwise)
	if len(frame.Cb) != 0 {
		rotatePlane90(frame.Cb, out.Cb, frame.ChromaWidth(), frame.ChromaHeight(), frame.CStride, out.CStride, clockwise)
		rotatePlane90(frame.Cr, out.Cr, frame.ChromaWidth(), frame.ChromaHeight(), frame.CStride, out.CStride, clockwise)
	}
	return out, nil
}

func rotatePlane90(src, dst []uint16, srcW, srcH, srcStride, dstStride int, clockwise bool) {
	for y := 0; y < srcH; y++ {
		for x := 0; x < srcW; x++ {
			v := src[y*srcStride+x]
			var dx, dy int
			if clockwise {
				dx = srcH - 1 - y
				dy = x
			} else {
				dx = y
				dy = srcW - 1 - x
			}
			dst[dy*dstStride+dx] = v
		}
	}
}
