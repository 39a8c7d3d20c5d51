package hevc

// Limits bounds the resources a decode may consume. MaxWidth, MaxHeight
// and MaxPixels are checked before any large allocation: at container
// parse (against ispe dimensions), at grid composition (against the
// declared grid output size), and at the start of frame-buffer
// allocation. MaxMemoryBytes is checked only by the heic package's
// DecodeRequest.Decode, against EstimateMemoryBytes of the decoded frame,
// after decoding and before color conversion; DecodeInto and DecodeYUV do
// not check it. A zero value in any field means "no limit".
type Limits struct {
	MaxWidth       uint64
	MaxHeight      uint64
	MaxPixels      uint64
	MaxMemoryBytes uint64
}

// checkDimensions validates width/height/pixel-count against the limits.
func (l Limits) checkDimensions(width, height uint32) error {
	if l.MaxWidth != 0 && uint64(width) > l.MaxWidth {
		return newErr(LimitExceeded, "image width exceeds limit")
	}
	if l.MaxHeight != 0 && uint64(height) > l.MaxHeight {
		return newErr(LimitExceeded, "image height exceeds limit")
	}
	if l.MaxPixels != 0 && uint64(width)*uint64(height) > l.MaxPixels {
		return newErr(LimitExceeded, "pixel count exceeds limit")
	}
	return nil
}

// checkMemory validates an estimated byte count against MaxMemoryBytes.
func (l Limits) checkMemory(estimated uint64) error {
	if l.MaxMemoryBytes != 0 && estimated > l.MaxMemoryBytes {
		return newErr(LimitExceeded, "estimated memory exceeds limit")
	}
	return nil
}

// EstimateMemoryBytes returns the conservative upper-bound byte estimate
// spec.md section 5 defines: luma_pixels*2 + 2*chroma_pixels*2 +
// output_pixels*bytesPerPixel + deblock_metadata, where deblock metadata is
// accounted at 4x4 granularity (2 bytes/cell: flags + qp).
func EstimateMemoryBytes(width, height uint32, chromaFormat int, outputBytesPerPixel int) uint64 {
	w, h := uint64(width), uint64(height)
	pixels := w * h
	lumaBytes := pixels * 2

	cw, ch := chromaDims(w, h, chromaFormat)
	chromaBytes := 2 * cw * ch * 2 // Cb + Cr, 2 bytes/sample

	outputBytes := pixels * uint64(outputBytesPerPixel)

	blocksW := (w + 3) / 4
	blocksH := (h + 3) / 4
	deblockBytes := blocksW * blocksH * 2

	return lumaBytes + chromaBytes + outputBytes + deblockBytes
}

// chromaDims returns the chroma plane dimensions for a given chroma_format_idc
// (0=mono,1=4:2:0,2=4:2:2,3=4:4:4) and luma dimensions.
func chromaDims(w, h uint64, chromaFormatIDC int) (uint64, uint64) {
	switch chromaFormatIDC {
	case 0:
		return 0, 0
	case 1:
		return (w + 1) / 2, (h + 1) / 2
	case 2:
		return (w + 1) / 2, h
	case 3:
		return w, h
	default:
		return (w + 1) / 2, (h + 1) / 2
	}
}
