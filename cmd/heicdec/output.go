package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/ausocean/heic"
	"github.com/ausocean/heic/codec/hevc"
)

// writePPM writes out as a binary (P6) PPM file. PPM truecolor has no
// room for an alpha channel or BGR ordering, so non-RGB8 layouts are
// reordered/stripped down to plain RGB on the way out.
func writePPM(path string, out heic.DecodeOutput) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	if _, err := fmt.Fprintf(w, "P6\n%d %d\n255\n", out.Width, out.Height); err != nil {
		return err
	}

	bpp := out.Layout.BytesPerPixel()
	rOff, gOff, bOff := rgbOffsets(out.Layout)
	pixels := int(out.Width) * int(out.Height)
	rgb := make([]byte, 3)
	for i := 0; i < pixels; i++ {
		px := out.Data[i*bpp : i*bpp+bpp]
		rgb[0], rgb[1], rgb[2] = px[rOff], px[gOff], px[bOff]
		if _, err := w.Write(rgb); err != nil {
			return err
		}
	}
	return w.Flush()
}

// rgbOffsets returns the byte offsets of the red, green and blue
// samples within one interleaved pixel of layout l.
func rgbOffsets(l heic.PixelLayout) (r, g, b int) {
	switch l {
	case heic.BGR8, heic.BGRA8:
		return 2, 1, 0
	default:
		return 0, 1, 2
	}
}

// writeYUV writes frame's cropped Y, Cb and Cr planes to path as raw
// 16-bit little-endian planar samples, one plane after another.
func writeYUV(path string, frame *hevc.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	if err := writePlane(w, frame.Y, frame.YStride, frame.CropLeft(), frame.CropTop(), frame.CroppedWidth(), frame.CroppedHeight()); err != nil {
		return err
	}
	if len(frame.Cb) != 0 {
		win := frame.SPS.ConformanceWindow
		left, top := int(win.Left), int(win.Top)
		cw := frame.ChromaWidth() - int(win.Left+win.Right)
		ch := frame.ChromaHeight() - int(win.Top+win.Bottom)
		if err := writePlane(w, frame.Cb, frame.CStride, left, top, cw, ch); err != nil {
			return err
		}
		if err := writePlane(w, frame.Cr, frame.CStride, left, top, cw, ch); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writePlane(w *bufio.Writer, plane []uint16, stride, left, top, width, height int) error {
	row := make([]byte, width*2)
	for y := 0; y < height; y++ {
		srcY := top + y
		for x := 0; x < width; x++ {
			v := plane[srcY*stride+left+x]
			row[x*2] = byte(v)
			row[x*2+1] = byte(v >> 8)
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
