/*
DESCRIPTION
  heatmap.go renders a per-block (MinCbSize) luma QP map as a PNG
  heatmap, a debugging aid for triaging CABAC desynchronization (where
  the decoded QP field drifts away from its expected value block by
  block, long before the visual artifact is obvious). Grounded on
  cmd/rv/probe.go's turbidity diagnostics, which likewise reduce decoded
  frame content to a small set of scores for human review; gonum/plot's
  own heatmap plotter replaces that file's gonum/stat aggregate with a
  2-D visualization, per go.mod's existing gonum.org/v1/plot dependency.
*/

package diag

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ausocean/heic/codec/hevc"
)

// qpGrid adapts a Frame's per-block QP values to plotter.GridXYZ, one
// cell per MinCbSize-aligned block.
type qpGrid struct {
	frame      *hevc.Frame
	cols, rows int
}

func (g qpGrid) Dims() (c, r int) { return g.cols, g.rows }
func (g qpGrid) X(c int) float64 { return float64(c) }
func (g qpGrid) Y(r int) float64 { return float64(r) }
func (g qpGrid) Z(c, r int) float64 {
	return float64(g.frame.QpYAt(c, r))
}

// QPHeatmap renders frame's per-block luma QP field to path as a PNG,
// one 6-point cell of the output image per MinCbSize-aligned block.
func QPHeatmap(path string, frame *hevc.Frame) error {
	cols, rows := frame.BlockGridSize()
	grid := qpGrid{frame: frame, cols: cols, rows: rows}

	p := plot.New()
	p.Title.Text = "Luma QP map"

	pal := moreland.SmoothBlueRed()
	h := plotter.NewHeatMap(grid, pal)
	p.Add(h)

	imgW := vg.Points(6) * vg.Length(cols)
	imgH := vg.Points(6) * vg.Length(rows)
	return p.Save(imgW, imgH, path)
}
