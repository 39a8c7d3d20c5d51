/*
DESCRIPTION
  intra.go implements HEVC's 35-mode intra prediction (planar, DC, 33
  angular modes), most-probable-mode derivation and chroma mode
  resolution, per spec.md section 4.5. Reference-sample substitution
  order follows original_source/src/hevc/intra.rs. Strong intra
  smoothing is not implemented: 32x32 luma reference samples get the
  same [1,2,1] filter as other sizes, whatever
  strong_intra_smoothing_enabled_flag says.
*/

package hevc

const (
	intraPlanar = 0
	intraDC     = 1
	// modes 2..34 are angular, per ITU-T H.265 Table 8-3.
)

// intraPredAngle[mode-2] and invAngle give the angular prediction
// parameters for modes 2..34, per Table 8-5.
var intraPredAngle = [33]int{
	32, 26, 21, 17, 13, 9, 5, 2, 0, -2, -5, -9, -13, -17, -21, -26,
	-32, -26, -21, -17, -13, -9, -5, -2, 0, 2, 5, 9, 13, 17, 21, 26, 32,
}

var invAngle = map[int]int{
	-2: -4096, -5: -1638, -9: -910, -13: -630, -17: -482, -21: -390, -26: -315, -32: -256,
}

// deriveMPM returns the three most-probable modes for the luma
// prediction block at (x,y), per 8.4.2's candModeList construction.
func deriveMPM(f *Frame, x, y int) [3]uint8 {
	candA := modeOrDefault(f, x-1, y, x, y)
	candB := modeOrDefault(f, x, y-1, x, y)
	// Above neighbor is treated as unavailable (DC) when it lies in a
	// different CTB row, per 8.4.2's "not in the same CTB" rule.
	if y%f.SPS.CtbSize == 0 {
		candB = intraDC
	}

	if candA == candB {
		if candA < 2 {
			return [3]uint8{intraPlanar, intraDC, 26}
		}
		return [3]uint8{
			candA,
			uint8(2 + (int(candA)+29)%32),
			uint8(2 + (int(candA)-2+1)%32),
		}
	}
	cand := [3]uint8{candA, candB, 0}
	if candA != intraPlanar && candB != intraPlanar {
		cand[2] = intraPlanar
	} else if candA != intraDC && candB != intraDC {
		cand[2] = intraDC
	} else {
		cand[2] = 26
	}
	return cand
}

func modeOrDefault(f *Frame, nx, ny, curX, curY int) uint8 {
	if nx < 0 || ny < 0 || nx >= f.Width || ny >= f.Height {
		return intraDC
	}
	return f.IntraPredModeAt(nx, ny)
}

// decodePrevIntraLumaPredFlag decodes one PU's prev_intra_luma_pred_flag.
// coding_unit() reads this bin for every PU in the CU before any
// mpm_idx/rem_intra_luma_pred_mode bin, per 7.3.8.5's two-pass PU loop.
func decodePrevIntraLumaPredFlag(d *Decoder) (bool, error) {
	b, err := d.DecodeBin(ctxPrevIntraLumaPredFlag, 0)
	if err != nil {
		return false, err
	}
	return b == 1, nil
}

// resolvePUIntraMode decodes mpm_idx or rem_intra_luma_pred_mode (per
// prevFlag) and combines it with mpm into the final luma mode, per
// 7.4.9.5.
func resolvePUIntraMode(d *Decoder, prevFlag bool, mpm [3]uint8) (uint8, error) {
	if prevFlag {
		idx := 0
		b, err := d.DecodeBypass()
		if err != nil {
			return 0, err
		}
		if b == 1 {
			idx = 1
			b2, err := d.DecodeBypass()
			if err != nil {
				return 0, err
			}
			if b2 == 1 {
				idx = 2
			}
		}
		sorted := mpm
		if sorted[0] > sorted[1] {
			sorted[0], sorted[1] = sorted[1], sorted[0]
		}
		if sorted[0] > sorted[2] {
			sorted[0], sorted[2] = sorted[2], sorted[0]
		}
		if sorted[1] > sorted[2] {
			sorted[1], sorted[2] = sorted[2], sorted[1]
		}
		return sorted[idx], nil
	}

	rem, err := d.DecodeBypassBits(5)
	if err != nil {
		return 0, err
	}
	mode := int(rem)
	sorted := mpm
	if sorted[0] > sorted[1] {
		sorted[0], sorted[1] = sorted[1], sorted[0]
	}
	if sorted[0] > sorted[2] {
		sorted[0], sorted[2] = sorted[2], sorted[0]
	}
	if sorted[1] > sorted[2] {
		sorted[1], sorted[2] = sorted[2], sorted[1]
	}
	for i := 0; i < 3; i++ {
		if mode >= int(sorted[i]) {
			mode++
		}
	}
	return uint8(mode), nil
}

// decodeIntraChromaPredMode decodes intra_chroma_pred_mode and resolves
// it against the luma mode, per 9.3.3.8 and Table 8-2/8-3.
func decodeIntraChromaPredMode(d *Decoder, lumaMode uint8) (uint8, error) {
	b, err := d.DecodeBin(ctxIntraChromaPredMode, 0)
	if err != nil {
		return 0, err
	}
	if b == 0 {
		return lumaMode, nil // derived mode: same as luma (mode 4, "DM_CHROMA")
	}
	idx, err := d.DecodeBypassBits(2)
	if err != nil {
		return 0, err
	}
	candidates := [4]uint8{intraPlanar, 26, 10, intraDC}
	mode := candidates[idx]
	if mode == lumaMode {
		return 34, nil
	}
	return mode, nil
}

// predictIntraBlock fills a size x size prediction buffer for one
// transform block, per 8.4.4 (planar/DC/angular) including neighbor
// substitution (8.4.4.2.2) and the reference-sample filter (8.4.4.2.3).
func predictIntraBlock(f *Frame, cIdx, x, y, size int, mode uint8, bitDepth int) [][]int32 {
	ref := buildReferenceSamples(f, cIdx, x, y, size, bitDepth)
	if shouldFilterReferenceSamples(f, cIdx, size, mode) {
		ref = filterReferenceSamples(ref, size)
	}

	pred := make([][]int32, size)
	for i := range pred {
		pred[i] = make([]int32, size)
	}

	switch {
	case mode == intraPlanar:
		predictPlanar(pred, ref, size)
	case mode == intraDC:
		predictDC(pred, ref, size, cIdx)
	default:
		predictAngular(pred, ref, size, int(mode))
	}
	return pred
}

// referenceSamples holds the substituted/filtered boundary used by
// prediction: left[0..2*size-1] bottom-to-top, top[0..2*size-1]
// left-to-right, and corner (top-left).
type referenceSamples struct {
	left, top []int32
	corner    int32
}

func buildReferenceSamples(f *Frame, cIdx, x, y, size, bitDepth int) referenceSamples {
	get := func(px, py int) (int32, bool) {
		if px < 0 || py < 0 || px >= f.Width || py >= f.Height {
			return 0, false
		}
		switch cIdx {
		case 0:
			return int32(f.YAt(px, py)), true
		case 1:
			return int32(f.CbAt(px, py)), true
		default:
			return int32(f.CrAt(px, py)), true
		}
	}
	n := 2 * size
	r := referenceSamples{left: make([]int32, n), top: make([]int32, n)}
	defaultVal := int32(1 << uint(bitDepth-1))

	for i := 0; i < n; i++ {
		if v, ok := get(x-1, y+n-1-i); ok {
			r.left[i] = v
		} else {
			r.left[i] = -1
		}
	}
	for i := 0; i < n; i++ {
		if v, ok := get(x+i, y-1); ok {
			r.top[i] = v
		} else {
			r.top[i] = -1
		}
	}
	if v, ok := get(x-1, y-1); ok {
		r.corner = v
	} else {
		r.corner = -1
	}

	// Substitute unavailable samples, per 8.4.4.2.2: scan from bottom-
	// left (r.left[0]) around to top-right, carrying the last available
	// value forward, or using the default mid-gray value if nothing is
	// available at all.
	seq := make([]*int32, 0, 2*n+1)
	for i := 0; i < n; i++ {
		seq = append(seq, &r.left[i])
	}
	seq = append(seq, &r.corner)
	for i := 0; i < n; i++ {
		seq = append(seq, &r.top[i])
	}
	last := int32(-1)
	for _, p := range seq {
		if *p < 0 {
			continue
		}
		last = *p
		break
	}
	if last < 0 {
		last = defaultVal
	}
	for _, p := range seq {
		if *p < 0 {
			*p = last
		}
		last = *p
	}
	return r
}

func shouldFilterReferenceSamples(f *Frame, cIdx, size int, mode uint8) bool {
	if cIdx != 0 || size == 4 {
		return false
	}
	if mode == intraDC {
		return false
	}
	minDist := int(mode) - 26
	if minDist < 0 {
		minDist = -minDist
	}
	altDist := int(mode) - 10
	if altDist < 0 {
		altDist = -altDist
	}
	dist := minDist
	if altDist < dist {
		dist = altDist
	}
	if mode == intraPlanar {
		dist = size // forces filtering below per the >=8 thresholds
	}
	threshold := map[int]int{8: 7, 16: 1, 32: 0}[size]
	return dist > threshold
}

func filterReferenceSamples(r referenceSamples, size int) referenceSamples {
	n := 2 * size
	out := referenceSamples{left: make([]int32, n), top: make([]int32, n)}
	filt := func(prev, cur, next int32) int32 { return (prev + 2*cur + next + 2) >> 2 }

	out.corner = filt(r.left[0], r.corner, r.top[0])
	for i := 0; i < n; i++ {
		var prev int32
		if i == 0 {
			prev = r.corner
		} else {
			prev = r.left[i-1]
		}
		var next int32
		if i == n-1 {
			next = r.left[n-1]
		} else {
			next = r.left[i+1]
		}
		out.left[i] = filt(prev, r.left[i], next)
	}
	for i := 0; i < n; i++ {
		var prev int32
		if i == 0 {
			prev = r.corner
		} else {
			prev = r.top[i-1]
		}
		var next int32
		if i == n-1 {
			next = r.top[n-1]
		} else {
			next = r.top[i+1]
		}
		out.top[i] = filt(prev, r.top[i], next)
	}
	out.left[n-1] = r.left[n-1]
	out.top[n-1] = r.top[n-1]
	return out
}

func predictPlanar(pred [][]int32, r referenceSamples, size int) {
	log2Size := 0
	for (1 << uint(log2Size)) < size {
		log2Size++
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := (int32(size-1-x)*r.left[size-1-y] + int32(x+1)*r.top[size] +
				int32(size-1-y)*r.top[size-1-x] + int32(y+1)*r.left[size] + int32(size)) >> uint(log2Size+1)
			pred[y][x] = v
		}
	}
}

func predictDC(pred [][]int32, r referenceSamples, size, cIdx int) {
	var sum int32
	for i := 0; i < size; i++ {
		sum += r.top[i] + r.left[size-1-i]
	}
	dc := (sum + int32(size)) >> uint(log2Of(size)+1)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			pred[y][x] = dc
		}
	}
	if cIdx == 0 && size < 32 {
		pred[0][0] = (r.left[size-1] + 2*dc + r.top[0] + 2) >> 2
		for x := 1; x < size; x++ {
			pred[0][x] = (r.top[x] + 3*dc + 2) >> 2
		}
		for y := 1; y < size; y++ {
			pred[y][0] = (r.left[size-1-y] + 3*dc + 2) >> 2
		}
	}
}

func predictAngular(pred [][]int32, r referenceSamples, size, mode int) {
	angle := intraPredAngle[mode-2]
	horizontal := mode < 18

	// Build a single unified reference array indexed so that ref[0] is
	// the corner sample, matching 8.4.4.2.6's ref[] construction.
	extLen := 2*size + 1
	ref := make([]int32, extLen+size)
	mid := size
	ref[mid] = r.corner
	if horizontal {
		for i := 0; i < size; i++ {
			ref[mid+1+i] = r.left[i]
		}
		for i := 0; i < size; i++ {
			ref[mid-1-i] = r.top[i]
		}
	} else {
		for i := 0; i < size; i++ {
			ref[mid+1+i] = r.top[i]
		}
		for i := 0; i < size; i++ {
			ref[mid-1-i] = r.left[i]
		}
	}
	if angle < 0 {
		inv := invAngle[angle]
		lastIdx := (size * angle) >> 5
		for i := lastIdx; i <= -1; i++ {
			srcIdx := mid + ((i*inv + 128) >> 8)
			if srcIdx < 0 || srcIdx >= len(ref) {
				continue
			}
			ref[mid+i] = ref[srcIdx]
		}
	}

	for line := 0; line < size; line++ {
		pos := (line + 1) * angle
		idx := pos >> 5
		frac := pos & 31
		for col := 0; col < size; col++ {
			var a, b int32
			if frac != 0 {
				a = ref[mid+idx+col+1]
				b = ref[mid+idx+col+2]
			} else {
				a = ref[mid+idx+col+1]
				b = a
			}
			v := ((32-int32(frac))*a + int32(frac)*b + 16) >> 5
			if horizontal {
				pred[col][line] = v
			} else {
				pred[line][col] = v
			}
		}
	}
}

func log2Of(n int) int {
	b := 0
	for (1 << uint(b)) < n {
		b++
	}
	return b
}
