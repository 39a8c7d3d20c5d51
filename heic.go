/*
DESCRIPTION
  heic.go is this package's orchestration layer: it parses a HEIF
  container, resolves and decodes the primary item (a plain HEVC image,
  or a grid/identity derivation), applies the item's clean-aperture crop
  and mirror/rotation properties, decodes an auxiliary alpha plane when
  present, and hands the result to colorconvert for YCbCr -> RGB(A)
  conversion. Grounded on original_source/src/lib.rs's
  decode_to_frame_inner/decode_item/decode_iden/decode_grid and
  decode_alpha_plane, adapted to Go's explicit-error, no-exceptions style
  throughout.
*/

package heic

import (
	"strings"

	"github.com/ausocean/heic/codec/hevc"
	"github.com/ausocean/heic/colorconvert"
	"github.com/ausocean/heic/container/heif"
	"github.com/ausocean/utils/logging"
)

const (
	auxAlphaURN1  = "urn:mpeg:hevc:2015:auxid:1"
	auxAlphaURN2  = "urn:mpeg:mpegB:cicp:systems:auxiliary:alpha"
	auxGainMapURN = "urn:com:apple:photo:2020:aux:hdrgainmap"

	// maxDerivationDepth bounds iden/grid recursion, per
	// original_source/src/lib.rs's depth>8 recursion guard in decode_iden.
	maxDerivationDepth = 8
)

// DecoderConfig is the stateless entry point for decoding HEIC images,
// per spec.md section 6. It carries no state of its own: every decode's
// parameters (output layout, limits, cancellation) travel per call
// through DecodeRequest.
type DecoderConfig struct{}

// NewDecoderConfig returns a DecoderConfig ready to use.
func NewDecoderConfig() DecoderConfig {
	return DecoderConfig{}
}

// DecodeOutput is the result of a full decode: interleaved pixel bytes
// plus the dimensions and layout they were produced in.
type DecodeOutput struct {
	Data          []byte
	Width, Height uint32
	Layout        PixelLayout
}

// Decode is a convenience shortcut for
// NewDecodeRequest(data).WithOutputLayout(layout).Decode().
func (DecoderConfig) Decode(data []byte, layout PixelLayout) (DecodeOutput, error) {
	return NewDecodeRequest(data).WithOutputLayout(layout).Decode()
}

// DecodeRequest starts a request builder over data, defaulting to RGBA8
// output with no limits and no cancellation, per spec.md section 6.
func (DecoderConfig) DecodeRequest(data []byte) *DecodeRequest {
	return NewDecodeRequest(data)
}

// DecodeToFrame decodes data's primary item to its raw planar YCbCr
// frame, applying container-level transforms (clean aperture, mirror,
// rotation) but no color conversion, per spec.md section 6.
func (DecoderConfig) DecodeToFrame(data []byte) (*hevc.Frame, error) {
	frame, _, _, err := decodeTopLevel(data, hevc.Limits{}, hevc.NoStop, nil)
	return frame, err
}

// EstimateMemory returns the conservative upper-bound byte estimate for
// decoding an image of the given dimensions/chroma format to layout,
// exposed as a pre-flight check per SPEC_FULL.md's supplemented
// features.
func (DecoderConfig) EstimateMemory(width, height uint32, chromaFormat int, layout PixelLayout) uint64 {
	return hevc.EstimateMemoryBytes(width, height, chromaFormat, layout.BytesPerPixel())
}

// HdrGainMap is a decoded and normalized HDR gain-map auxiliary image:
// luma samples scaled to [0, 1] by their source bit depth.
type HdrGainMap struct {
	Data          []float32
	Width, Height uint32
}

// DecodeGainMap extracts and decodes data's HDR gain-map auxiliary
// image (Apple's "urn:com:apple:photo:2020:aux:hdrgainmap"), per
// SPEC_FULL.md's supplemented features.
func (DecoderConfig) DecodeGainMap(data []byte) (*HdrGainMap, error) {
	container, err := heif.Parse(data)
	if err != nil {
		return nil, err
	}
	primary, err := container.PrimaryItem()
	if err != nil {
		return nil, err
	}
	return decodeGainMapInner(container, primary, hevc.Limits{}, hevc.NoStop)
}

// ExtractEXIF returns data's embedded EXIF payload (TIFF header onward,
// with the configuration record's leading offset stripped), or ok==false
// if no Exif item exists.
func (DecoderConfig) ExtractEXIF(data []byte) ([]byte, bool, error) {
	container, err := heif.Parse(data)
	if err != nil {
		return nil, false, err
	}
	exif, ok := extractEXIF(container)
	return exif, ok, nil
}

// ExtractXMP returns data's embedded XMP XML payload, or ok==false if
// none exists.
func (DecoderConfig) ExtractXMP(data []byte) ([]byte, bool, error) {
	container, err := heif.Parse(data)
	if err != nil {
		return nil, false, err
	}
	xmp, ok := extractXMP(container)
	return xmp, ok, nil
}

// DecodeThumbnail decodes data's thumbnail image, if any, returning
// ok==false if the primary item has no thumbnail reference.
func (DecoderConfig) DecodeThumbnail(data []byte, layout PixelLayout) (DecodeOutput, bool, error) {
	container, err := heif.Parse(data)
	if err != nil {
		return DecodeOutput{}, false, err
	}
	primary, err := container.PrimaryItem()
	if err != nil {
		return DecodeOutput{}, false, err
	}
	out, ok, err := decodeThumbnailInner(container, primary, layout)
	return out, ok, err
}

// DecodeRequest builds one decode call's parameters: output layout,
// resource limits, and a cooperative cancellation token, per spec.md
// section 6.
type DecodeRequest struct {
	data   []byte
	layout PixelLayout
	limits Limits
	stop   hevc.StopToken
	log    logging.Logger
}

// NewDecodeRequest starts a request over data, defaulting to RGBA8
// output with no limits and no cancellation.
func NewDecodeRequest(data []byte) *DecodeRequest {
	return &DecodeRequest{data: data, layout: RGBA8}
}

// WithOutputLayout sets the request's output pixel layout.
func (r *DecodeRequest) WithOutputLayout(l PixelLayout) *DecodeRequest {
	r.layout = l
	return r
}

// WithLimits sets the request's resource limits.
func (r *DecodeRequest) WithLimits(l Limits) *DecodeRequest {
	r.limits = l
	return r
}

// WithStop sets the request's cooperative cancellation token.
func (r *DecodeRequest) WithStop(stop hevc.StopToken) *DecodeRequest {
	r.stop = stop
	return r
}

// WithLog sets the logger used to trace container parsing and HEVC
// decode progress, per SPEC_FULL.md's ambient-stack logging requirement.
// A nil logger (the default) makes logging a no-op.
func (r *DecodeRequest) WithLog(log logging.Logger) *DecodeRequest {
	r.log = log
	return r
}

// Decode runs the full container-parse, item-decode, color-convert
// pipeline and returns interleaved pixel bytes in the requested layout.
func (r *DecodeRequest) Decode() (DecodeOutput, error) {
	frame, colorInfo, alpha, err := decodeTopLevel(r.data, r.limits.toHevc(), r.stop, r.log)
	if err != nil {
		return DecodeOutput{}, err
	}
	width := uint32(frame.CroppedWidth())
	height := uint32(frame.CroppedHeight())
	estimated := hevc.EstimateMemoryBytes(width, height, frame.SPS.ChromaFormatIDC, r.layout.BytesPerPixel())
	if err := checkLimitMemory(r.limits.toHevc(), estimated); err != nil {
		return DecodeOutput{}, err
	}
	pixels := convertFrame(frame, alpha, r.layout, colorInfo)
	return DecodeOutput{Data: pixels, Width: width, Height: height, Layout: r.layout}, nil
}

// DecodeInto writes decoded pixel bytes into a caller-provided buffer,
// per spec.md section 6: fails with BufferTooSmall if output is smaller
// than width*height*bytesPerPixel.
func (r *DecodeRequest) DecodeInto(output []byte) (ImageInfo, error) {
	frame, colorInfo, alpha, err := decodeTopLevel(r.data, r.limits.toHevc(), r.stop, r.log)
	if err != nil {
		return ImageInfo{}, err
	}
	width := uint32(frame.CroppedWidth())
	height := uint32(frame.CroppedHeight())
	required, ok := (ImageInfo{Width: width, Height: height}).OutputBufferSize(r.layout)
	if !ok {
		return ImageInfo{}, newErr(LimitExceeded, "output dimensions overflow buffer size calculation")
	}
	if uint64(len(output)) < required {
		return ImageInfo{}, bufferTooSmall(required, uint64(len(output)))
	}
	pixels := convertFrame(frame, alpha, r.layout, colorInfo)
	copy(output, pixels)
	return ImageInfo{
		Width:        width,
		Height:       height,
		BitDepth:     frame.SPS.BitDepthLuma,
		ChromaFormat: frame.SPS.ChromaFormatIDC,
		HasAlpha:     alpha != nil,
	}, nil
}

// DecodeYUV decodes data's primary item to its raw planar YCbCr frame,
// respecting the request's limits and cancellation token.
func (r *DecodeRequest) DecodeYUV() (*hevc.Frame, error) {
	frame, _, _, err := decodeTopLevel(r.data, r.limits.toHevc(), r.stop, r.log)
	return frame, err
}

// decodeTopLevel parses data's container, validates the primary item's
// declared dimensions against limits, decodes it (recursively resolving
// grid/iden derivations and applying clean-aperture/mirror/rotation at
// each level), and opportunistically decodes a matching auxiliary alpha
// plane, per lib.rs's decode_to_frame_inner.
func decodeTopLevel(data []byte, limits hevc.Limits, stop hevc.StopToken, log logging.Logger) (*hevc.Frame, *heif.ColorInfo, *hevc.Frame, error) {
	if stop == nil {
		stop = hevc.NoStop
	}
	if err := checkCancelled(stop); err != nil {
		return nil, nil, nil, err
	}

	container, err := heif.ParseWithLog(data, log)
	if err != nil {
		return nil, nil, nil, err
	}
	primary, err := container.PrimaryItem()
	if err != nil {
		return nil, nil, nil, err
	}
	logDebug(log, "resolved primary item", "id", primary.ID, "type", primary.Type)

	if primary.Dimensions != nil {
		if err := checkLimitDimensions(limits, primary.Dimensions.Width, primary.Dimensions.Height); err != nil {
			logError(log, "primary item exceeds declared limits", "error", err.Error())
			return nil, nil, nil, err
		}
	}

	frame, colorInfo, err := decodeItem(container, primary, 0, limits, stop, log)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := checkCancelled(stop); err != nil {
		return nil, nil, nil, err
	}

	alpha, err := decodeAlphaPlane(container, primary.ID, limits, stop, log)
	if err != nil {
		logWarning(log, "alpha plane decode failed, treating as opaque", "error", err.Error())
	}
	if alpha != nil && (alpha.CroppedWidth() != frame.CroppedWidth() || alpha.CroppedHeight() != frame.CroppedHeight()) {
		// A mismatched alpha plane is treated as absent (opaque) rather
		// than resampled, unlike decode_alpha_plane's bilinear resize
		// path: see DESIGN.md.
		logWarning(log, "alpha plane dimensions mismatch primary, discarding")
		alpha = nil
	}

	return frame, colorInfo, alpha, nil
}

func logDebug(l logging.Logger, msg string, args ...interface{}) {
	if l != nil {
		l.Debug(msg, args...)
	}
}

func logWarning(l logging.Logger, msg string, args ...interface{}) {
	if l != nil {
		l.Warning(msg, args...)
	}
}

func logError(l logging.Logger, msg string, args ...interface{}) {
	if l != nil {
		l.Error(msg, args...)
	}
}

// checkCancelled reports a Cancelled error if stop has fired.
func checkCancelled(stop hevc.StopToken) error {
	if stop != nil && stop.Stopped() {
		return newErr(Cancelled, "stop token fired")
	}
	return nil
}

// decodeItem dispatches on item's type, decodes it (recursively, for
// grid/iden derivations), and applies item's own color-property
// override and clean-aperture/mirror/rotation transforms, per lib.rs's
// decode_item.
func decodeItem(c *heif.Container, item heif.Item, depth int, limits hevc.Limits, stop hevc.StopToken, log logging.Logger) (*hevc.Frame, *heif.ColorInfo, error) {
	if depth > maxDerivationDepth {
		logError(log, "derivation chain too deep", "depth", depth)
		return nil, nil, newErr(InvalidData, "derived image reference chain too deep")
	}
	if err := checkCancelled(stop); err != nil {
		return nil, nil, err
	}

	var frame *hevc.Frame
	var colorInfo *heif.ColorInfo
	var err error

	switch item.Type {
	case heif.ItemGrid:
		frame, colorInfo, err = decodeGrid(c, item, limits, stop, log)
	case heif.ItemIden:
		frame, colorInfo, err = decodeIden(c, item, depth, limits, stop, log)
	case heif.ItemIovl:
		logError(log, "image overlay items unsupported", "id", item.ID)
		return nil, nil, newErr(Unsupported, "image overlay (iovl) items")
	default:
		frame, err = decodeLeaf(c, item, limits, stop, log)
		colorInfo = item.Color
	}
	if err != nil {
		return nil, nil, err
	}

	if item.Color != nil {
		colorInfo = item.Color
	}
	if item.CleanAperture != nil {
		applyCleanAperture(frame, item.CleanAperture)
	}
	if item.HasMirror {
		mirrorFrame(frame, item.Mirror)
	}
	if item.Rotation != 0 {
		rotated, rerr := rotateFrame(frame, item.Rotation)
		if rerr != nil {
			return nil, nil, rerr
		}
		frame = rotated
	}

	return frame, colorInfo, nil
}

// decodeLeaf decodes a plain HEVC-coded item: its parameter sets (from
// the item's hvcC property) prepended to its sample data, all
// length-prefixed per the configuration record's length field width.
func decodeLeaf(c *heif.Container, item heif.Item, limits hevc.Limits, stop hevc.StopToken, log logging.Logger) (*hevc.Frame, error) {
	data, ok := c.GetItemData(item.ID)
	if !ok {
		data, ok = c.GetItemDataOwned(item.ID)
	}
	if !ok {
		return nil, newErr(InvalidData, "missing image data")
	}
	if item.HevcConfig == nil {
		return nil, newErr(MissingParameterSet, "item has no hvcC configuration record")
	}
	stream := buildLengthPrefixedStream(*item.HevcConfig, data)
	return hevc.DecodeLengthPrefixed(stream, item.HevcConfig.LengthFieldWidth(), hevc.DecodeOptions{Limits: limits, Stop: stop, Log: log})
}

// decodeIden follows an identity-transform item's single dimg reference
// and recursively decodes the referenced item, per lib.rs's decode_iden.
func decodeIden(c *heif.Container, item heif.Item, depth int, limits hevc.Limits, stop hevc.StopToken, log logging.Logger) (*hevc.Frame, *heif.ColorInfo, error) {
	sourceIDs, ok := c.GetTileItemIDs(item.ID)
	if !ok || len(sourceIDs) == 0 {
		return nil, nil, newErr(InvalidData, "identity-derived item has no dimg reference")
	}
	sourceItem, ok := c.GetItem(sourceIDs[0])
	if !ok {
		return nil, nil, newErr(InvalidData, "identity-derived item's dimg target not found")
	}
	return decodeItem(c, sourceItem, depth+1, limits, stop, log)
}

// decodeGrid decodes and composites a grid derivation's tiles, reusing
// container/heif's grid compositing primitives (ParseGridConfig,
// NewOutputFrame, StitchTile); only the item resolution and per-tile
// decode loop live here, per lib.rs's decode_grid.
func decodeGrid(c *heif.Container, item heif.Item, limits hevc.Limits, stop hevc.StopToken, log logging.Logger) (*hevc.Frame, *heif.ColorInfo, error) {
	data, ok := c.GetItemData(item.ID)
	if !ok {
		data, ok = c.GetItemDataOwned(item.ID)
	}
	if !ok {
		return nil, nil, newErr(InvalidData, "missing grid descriptor")
	}
	grid, err := heif.ParseGridConfig(data)
	if err != nil {
		return nil, nil, err
	}
	if err := checkLimitDimensions(limits, grid.OutputWidth, grid.OutputHeight); err != nil {
		return nil, nil, err
	}

	tileIDs, ok := c.GetTileItemIDs(item.ID)
	if !ok || len(tileIDs) == 0 {
		return nil, nil, newErr(InvalidData, "grid has no tile references")
	}
	if len(tileIDs) != int(grid.Rows)*int(grid.Columns) {
		return nil, nil, newErr(InvalidData, "grid tile count mismatch")
	}

	firstTileItem, ok := c.GetItem(tileIDs[0])
	if !ok || firstTileItem.Dimensions == nil {
		return nil, nil, newErr(InvalidData, "missing first grid tile dimensions")
	}

	logDebug(log, "decoding grid", "rows", grid.Rows, "columns", grid.Columns, "tiles", len(tileIDs))

	var output *hevc.Frame
	var colorInfo *heif.ColorInfo
	for idx, tileID := range tileIDs {
		if err := checkCancelled(stop); err != nil {
			return nil, nil, err
		}
		tileItem, ok := c.GetItem(tileID)
		if !ok {
			return nil, nil, newErr(InvalidData, "missing grid tile item")
		}
		tileFrame, err := decodeLeaf(c, tileItem, limits, stop, log)
		if err != nil {
			return nil, nil, err
		}
		if output == nil {
			output = heif.NewOutputFrame(tileFrame, grid)
			colorInfo = tileItem.Color
		}

		row := idx / int(grid.Columns)
		col := idx % int(grid.Columns)
		dstX := col * int(firstTileItem.Dimensions.Width)
		dstY := row * int(firstTileItem.Dimensions.Height)
		heif.StitchTile(tileFrame, output, dstX, dstY)
	}
	return output, colorInfo, nil
}

// decodeAlphaPlane decodes itemID's auxiliary alpha image, if one is
// referenced via auxl/auxC with either recognized alpha urn. A missing
// reference returns (nil, nil); a failed decode returns its error, which
// decodeTopLevel logs and then proceeds without alpha.
func decodeAlphaPlane(c *heif.Container, primaryID uint32, limits hevc.Limits, stop hevc.StopToken, log logging.Logger) (*hevc.Frame, error) {
	alphaID, ok := c.FindAuxiliary(primaryID, auxAlphaURN1)
	if !ok {
		alphaID, ok = c.FindAuxiliary(primaryID, auxAlphaURN2)
	}
	if !ok {
		return nil, nil
	}
	alphaItem, ok := c.GetItem(alphaID)
	if !ok {
		return nil, nil
	}
	return decodeLeaf(c, alphaItem, limits, stop, log)
}

// decodeGainMapInner decodes and normalizes the HDR gain-map auxiliary
// image referenced from primary, per lib.rs's decode_gain_map_inner:
// luma samples scaled to [0, 1] by (2^bitDepth - 1).
func decodeGainMapInner(c *heif.Container, primary heif.Item, limits hevc.Limits, stop hevc.StopToken) (*HdrGainMap, error) {
	gainID, ok := c.FindAuxiliary(primary.ID, auxGainMapURN)
	if !ok {
		return nil, newErr(InvalidData, "no HDR gain map present")
	}
	gainItem, ok := c.GetItem(gainID)
	if !ok {
		return nil, newErr(InvalidData, "missing HDR gain map item")
	}
	frame, err := decodeLeaf(c, gainItem, limits, stop, nil)
	if err != nil {
		return nil, err
	}

	width := frame.CroppedWidth()
	height := frame.CroppedHeight()
	cropX, cropY := frame.CropLeft(), frame.CropTop()
	maxVal := float32((1 << uint(frame.SPS.BitDepthLuma)) - 1)

	data := make([]float32, width*height)
	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := frame.Y[(cropY+y)*frame.YStride+(cropX+x)]
			data[i] = float32(v) / maxVal
			i++
		}
	}
	return &HdrGainMap{Data: data, Width: uint32(width), Height: uint32(height)}, nil
}

// extractEXIF locates the first Exif item and strips its leading
// big-endian TIFF-start-offset prefix, per lib.rs's extract_exif_inner.
func extractEXIF(c *heif.Container) ([]byte, bool) {
	for _, info := range c.ItemInfos {
		if info.ItemType != exifFourCC {
			continue
		}
		data, ok := c.GetItemData(info.ItemID)
		if !ok {
			data, ok = c.GetItemDataOwned(info.ItemID)
		}
		if !ok || len(data) < 4 {
			continue
		}
		tiffOffset := int(data[0])<<24 | int(data[1])<<16 | int(data[2])<<8 | int(data[3])
		tiffStart := 4 + tiffOffset
		if tiffStart >= 0 && tiffStart < len(data) {
			return data[tiffStart:], true
		}
	}
	return nil, false
}

// extractXMP locates the first mime item whose content type names XMP,
// per lib.rs's extract_xmp_inner.
func extractXMP(c *heif.Container) ([]byte, bool) {
	for _, info := range c.ItemInfos {
		if info.ItemType != mimeFourCC {
			continue
		}
		if !containsAny(info.ContentType, "xmp", "rdf+xml") {
			continue
		}
		data, ok := c.GetItemData(info.ItemID)
		if !ok {
			data, ok = c.GetItemDataOwned(info.ItemID)
		}
		if ok {
			return data, true
		}
	}
	return nil, false
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// decodeThumbnailInner decodes itemID's first referenced thumbnail item,
// per lib.rs's decode_thumbnail_inner, applying no resource limits
// (thumbnails are, by construction, far smaller than their primary).
func decodeThumbnailInner(c *heif.Container, primary heif.Item, layout PixelLayout) (DecodeOutput, bool, error) {
	thumbIDs := c.FindThumbnails(primary.ID)
	if len(thumbIDs) == 0 {
		return DecodeOutput{}, false, nil
	}
	thumbItem, ok := c.GetItem(thumbIDs[0])
	if !ok {
		return DecodeOutput{}, false, newErr(InvalidData, "thumbnail item not found")
	}
	frame, colorInfo, err := decodeItem(c, thumbItem, 0, hevc.Limits{}, hevc.NoStop, nil)
	if err != nil {
		return DecodeOutput{}, false, err
	}
	pixels := convertFrame(frame, nil, layout, colorInfo)
	out := DecodeOutput{
		Data:   pixels,
		Width:  uint32(frame.CroppedWidth()),
		Height: uint32(frame.CroppedHeight()),
		Layout: layout,
	}
	return out, true, nil
}

// resolveColorOptions maps a colr nclx property onto colorconvert's
// matrix/range, defaulting to BT709/Limited (the H.265 default for HD
// content absent any override) when colorInfo is nil or carries an ICC
// profile instead of nclx coefficients.
func resolveColorOptions(colorInfo *heif.ColorInfo) (colorconvert.Matrix, colorconvert.Range) {
	if colorInfo == nil || colorInfo.Kind != heif.ColorNclx {
		return colorconvert.BT709, colorconvert.Limited
	}
	return colorconvert.MatrixFromNclx(colorInfo.MatrixCoefficients), colorconvert.RangeFromFullRange(colorInfo.FullRange)
}

// convertFrame picks the fixed-point or HDR float conversion path
// depending on colorInfo's transfer characteristics, per lib.rs's
// ycbcr_to_rgb dispatching on transfer function.
func convertFrame(frame, alpha *hevc.Frame, layout PixelLayout, colorInfo *heif.ColorInfo) []byte {
	matrix, rng := resolveColorOptions(colorInfo)
	opts := colorconvert.Options{Matrix: matrix, Range: rng}
	if colorInfo != nil && colorInfo.Kind == heif.ColorNclx {
		tf := colorconvert.TransferFromNclx(colorInfo.TransferCharacteristics)
		if tf.IsHDR() {
			return colorconvert.ConvertFrameHDR(frame, alpha, layout.toColorConvert(), opts, tf)
		}
	}
	return colorconvert.ConvertFrame(frame, alpha, layout.toColorConvert(), opts)
}

// buildLengthPrefixedStream concatenates cfg's parameter-set NALs ahead
// of an item's sample data, each length-prefixed to cfg's own length
// field width, producing the single length-prefixed NAL stream
// hevc.DecodeLengthPrefixed expects: HEIF stores parameter sets and
// slice data as separate boxes, unlike an Annex-B stream that carries
// both inline.
func buildLengthPrefixedStream(cfg heif.HevcDecoderConfig, imageData []byte) []byte {
	width := cfg.LengthFieldWidth()
	var buf []byte
	for _, nal := range cfg.NALUnits {
		buf = appendLengthPrefixed(buf, nal, width)
	}
	return append(buf, imageData...)
}

func appendLengthPrefixed(buf, nal []byte, width int) []byte {
	length := len(nal)
	switch width {
	case 1:
		buf = append(buf, byte(length))
	case 2:
		buf = append(buf, byte(length>>8), byte(length))
	case 4:
		buf = append(buf, byte(length>>24), byte(length>>16), byte(length>>8), byte(length))
	}
	return append(buf, nal...)
}

// parseSPSFromConfig extracts and parses the SPS NAL out of a parsed
// hvcC configuration record, reusing the same length-prefixed framing
// decodeLeaf builds for a full decode (codec/hevc exposes no standalone
// "parse just the SPS" entry point, so this assembles a length-prefixed
// stream of only the configuration record's own NALs and runs it through
// the same SplitLengthPrefixed/ParseSPS codec/hevc already exports).
func parseSPSFromConfig(cfg heif.HevcDecoderConfig) (*hevc.SPS, error) {
	width := cfg.LengthFieldWidth()
	var buf []byte
	for _, nal := range cfg.NALUnits {
		buf = appendLengthPrefixed(buf, nal, width)
	}
	units, err := hevc.SplitLengthPrefixed(buf, width)
	if err != nil {
		return nil, err
	}
	for _, u := range units {
		if u.Type == hevc.NALSPS {
			return hevc.ParseSPS(u.RBSP)
		}
	}
	return nil, newErr(MissingParameterSet, "no SPS in configuration record")
}
