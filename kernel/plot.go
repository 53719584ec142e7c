package kernel

import (
	"io"

	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// matrixGrid adapts a matrix to plotter.GridXYZ. Columns run along X and
// rows along Y, so entry (i, j) is drawn at (j, i).
type matrixGrid struct {
	m mat.Matrix
}

func (g matrixGrid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}

func (g matrixGrid) Z(c, r int) float64 { return g.m.At(r, c) }
func (g matrixGrid) X(c int) float64    { return float64(c) }
func (g matrixGrid) Y(r int) float64    { return float64(r) }

// PlotMatrix renders the session's full matrix as a PNG heat map.
func (s *Session) PlotMatrix(w io.Writer, title string) error {
	m, err := s.Matrix()
	if err != nil {
		return err
	}
	return PlotHeatMap(w, m, title)
}

// PlotHeatMap writes m as a 6×6 inch PNG heat map to w.
func PlotHeatMap(w io.Writer, m mat.Matrix, title string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "rhs index"
	p.Y.Label.Text = "lhs index"

	hm := plotter.NewHeatMap(matrixGrid{m: m}, palette.Heat(16, 1))
	if hm.Max == hm.Min {
		hm.Max = hm.Min + 1
	}
	p.Add(hm)

	wt, err := p.WriterTo(6*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return errors.Wrap(err, "failed to create heat map canvas")
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed to write heat map")
	}
	return nil
}
