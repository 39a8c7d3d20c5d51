/*
DESCRIPTION
  sao.go implements sample-adaptive-offset parameter parsing and the SAO
  filter application, per ITU-T H.265 7.3.8.3 and 8.7.3, and spec.md
  section 4.8. Filtering runs over a snapshot of the deblocked picture so
  that offset decisions for one CTB never see another CTB's already-SAO-
  filtered samples, per spec.md section 9's ordering note.
*/

package hevc

const (
	saoTypeOff  = 0
	saoTypeBand = 1
	saoTypeEdge = 2
)

// decodeSAO parses sao() for one CTB, merging from the left/above CTB
// when signalled, per 7.3.8.3.
func decodeSAO(c *ctuContext, ctbX, ctbY int) error {
	ctbAddr := ctbY*c.sps.PicWidthInCtbs + ctbX
	var mergeLeft, mergeUp bool
	if ctbX > 0 {
		b, err := c.d.DecodeBin(ctxSaoMergeFlag, 0)
		if err != nil {
			return err
		}
		mergeLeft = b == 1
	}
	if !mergeLeft && ctbY > 0 {
		b, err := c.d.DecodeBin(ctxSaoMergeFlag, 0)
		if err != nil {
			return err
		}
		mergeUp = b == 1
	}
	if mergeLeft {
		c.f.CtbSAO[ctbAddr] = c.f.CtbSAO[ctbAddr-1]
		return nil
	}
	if mergeUp {
		c.f.CtbSAO[ctbAddr] = c.f.CtbSAO[ctbAddr-c.sps.PicWidthInCtbs]
		return nil
	}

	var p SAOParams
	numComponents := 1
	if c.sps.ChromaFormatIDC != 0 {
		numComponents = 3
	}
	for comp := 0; comp < numComponents; comp++ {
		if comp == 0 && !c.sh.SAOLuma {
			continue
		}
		if comp > 0 && !c.sh.SAOChroma {
			continue
		}
		if comp == 2 {
			// Cr shares Cb's type_idx and eo_class (both signalled only
			// for comp==1, per 7.3.8.3) and decodes its own offsets and
			// band position.
			p.TypeIdx[2] = p.TypeIdx[1]
		} else {
			typ, err := decodeSAOTypeIdx(c.d)
			if err != nil {
				return err
			}
			p.TypeIdx[comp] = typ
			if comp == 1 {
				p.TypeIdx[2] = typ
			}
		}
		if p.TypeIdx[comp] == saoTypeOff {
			continue
		}
		for i := 0; i < 4; i++ {
			abs, err := decodeSAOOffsetAbs(c.d, bitDepthFor(c.sps, min2(comp, 1)))
			if err != nil {
				return err
			}
			p.Offset[comp][i] = abs
		}
		if p.TypeIdx[comp] == saoTypeBand {
			for i := 0; i < 4; i++ {
				if p.Offset[comp][i] != 0 {
					sign, err := c.d.DecodeBypass()
					if err != nil {
						return err
					}
					if sign == 1 {
						p.Offset[comp][i] = -p.Offset[comp][i]
					}
				}
			}
			pos, err := c.d.DecodeBypassBits(5)
			if err != nil {
				return err
			}
			p.BandPosition[comp] = int(pos)
		} else {
			// Edge offset: offsets 0,1 are positive, 2,3 negative, per
			// 7.4.9.3.
			p.Offset[comp][2] = -p.Offset[comp][2]
			p.Offset[comp][3] = -p.Offset[comp][3]
			if comp != 2 {
				cls, err := c.d.DecodeBypassBits(2)
				if err != nil {
					return err
				}
				p.EoClass[comp] = int(cls)
				if comp == 1 {
					p.EoClass[2] = p.EoClass[1]
				}
			}
		}
	}
	c.f.CtbSAO[ctbAddr] = p
	return nil
}

func min2(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func decodeSAOTypeIdx(d *Decoder) (int, error) {
	b, err := d.DecodeBin(ctxSaoTypeIdx, 0)
	if err != nil {
		return 0, err
	}
	if b == 0 {
		return saoTypeOff, nil
	}
	b2, err := d.DecodeBypass()
	if err != nil {
		return 0, err
	}
	if b2 == 0 {
		return saoTypeBand, nil
	}
	return saoTypeEdge, nil
}

func decodeSAOOffsetAbs(d *Decoder, bitDepth int) (int, error) {
	cMax := (1 << uint(min2(bitDepth, 10)-5)) - 1
	v := 0
	for v < cMax {
		b, err := d.DecodeBypass()
		if err != nil {
			return 0, err
		}
		if b == 0 {
			break
		}
		v++
	}
	return v, nil
}

// ApplySAO filters frame in place using the per-CTB parameters gathered
// during slice decode, reading from src (a snapshot taken after
// deblocking) and writing into frame.
func ApplySAO(frame *Frame, src *Frame) {
	for ctbY := 0; ctbY < frame.SPS.PicHeightInCtbs; ctbY++ {
		for ctbX := 0; ctbX < frame.SPS.PicWidthInCtbs; ctbX++ {
			p := frame.CtbSAO[ctbY*frame.SPS.PicWidthInCtbs+ctbX]
			applySAOToCTB(frame, src, p, ctbX, ctbY)
		}
	}
}

func applySAOToCTB(frame, src *Frame, p SAOParams, ctbX, ctbY int) {
	size := frame.SPS.CtbSize
	x0, y0 := ctbX*size, ctbY*size
	applySAOPlane(frame, src, 0, p, x0, y0, size, size)
	if frame.SPS.ChromaFormatIDC == 0 {
		return
	}
	subW, subH := subsampling(frame.SPS.ChromaFormatIDC)
	cx0, cy0 := x0/int(subW), y0/int(subH)
	cw, ch := size/int(subW), size/int(subH)
	applySAOPlane(frame, src, 1, p, cx0, cy0, cw, ch)
	applySAOPlane(frame, src, 2, p, cx0, cy0, cw, ch)
}

// edgeIdxMap implements the 8.7.3 remapping from the raw 0..4 comparison
// sum to the offset-table index (0 meaning "no offset").
var edgeIdxMap = [5]int{1, 2, 0, 3, 4}

func signOf(v int32) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

var eoOffsets = [4][2][2]int{
	{{-1, 0}, {1, 0}},
	{{0, -1}, {0, 1}},
	{{-1, -1}, {1, 1}},
	{{1, -1}, {-1, 1}},
}

func applySAOPlane(frame, src *Frame, cIdx int, p SAOParams, x0, y0, w, h int) {
	typ := p.TypeIdx[cIdx]
	if typ == saoTypeOff {
		return
	}
	bitDepth := bitDepthFor(frame.SPS, cIdx)
	maxVal := int32(1<<uint(bitDepth)) - 1
	planeW, planeH := frame.Width, frame.Height
	get := func(f *Frame, x, y int) int32 {
		switch cIdx {
		case 0:
			return int32(f.YAt(x, y))
		case 1:
			return int32(f.CbAt(x, y))
		default:
			return int32(f.CrAt(x, y))
		}
	}
	set := func(x, y int, v uint16) {
		switch cIdx {
		case 0:
			frame.SetY(x, y, v)
		case 1:
			frame.SetCb(x, y, v)
		default:
			frame.SetCr(x, y, v)
		}
	}
	if cIdx == 0 {
		planeW, planeH = frame.Width, frame.Height
	} else {
		planeW, planeH = frame.ChromaWidth(), frame.ChromaHeight()
	}

	for y := y0; y < y0+h && y < planeH; y++ {
		for x := x0; x < x0+w && x < planeW; x++ {
			v := get(src, x, y)
			var out int32
			if typ == saoTypeBand {
				band := int(v>>uint(bitDepth-5)) & 31
				rel := band - p.BandPosition[cIdx]
				if rel >= 0 && rel < 4 {
					out = v + int32(p.Offset[cIdx][rel])
				} else {
					out = v
				}
			} else {
				off := eoOffsets[p.EoClass[cIdx]]
				ax, ay := x+off[0][0], y+off[0][1]
				bx, by := x+off[1][0], y+off[1][1]
				if ax < 0 || ax >= planeW || ay < 0 || ay >= planeH ||
					bx < 0 || bx >= planeW || by < 0 || by >= planeH {
					// Per spec.md section 4.8, a sample whose edge-offset
					// neighbor falls outside the picture is left unmodified
					// rather than computed against a repeated-edge value.
					out = v
				} else {
					a := get(src, ax, ay)
					b := get(src, bx, by)
					edgeIdx := 2 + signOf(v-a) + signOf(v-b)
					mapped := edgeIdxMap[edgeIdx]
					if mapped == 0 {
						out = v
					} else {
						out = v + int32(p.Offset[cIdx][mapped-1])
					}
				}
			}
			if out < 0 {
				out = 0
			} else if out > maxVal {
				out = maxVal
			}
			set(x, y, uint16(out))
		}
	}
}
