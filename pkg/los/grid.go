package los

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// GridField is a Field tabulated on a regular sky-angle grid and
// evaluated by bilinear interpolation. This is the standard way a
// caller materializes a precomputed line-of-sight realization: run the
// expensive full multi-plane calculation once per grid node, then hand
// the tables here.
//
// Component matrices are indexed (row, col) = (y index, x index).
// Evaluation outside the grid clamps to the boundary.
type GridField struct {
	xMin, yMin float64
	dx, dy     float64
	nx, ny     int

	x0, y0   *mat.Dense
	alphaXFg *mat.Dense
	alphaYFg *mat.Dense
	alphaXBg *mat.Dense
	alphaYBg *mat.Dense
}

// NewGridField builds a GridField over the grid axes xs and ys. Both
// axes must be evenly spaced and strictly increasing with at least two
// nodes, and every component matrix must have dimensions
// len(ys) x len(xs).
func NewGridField(xs, ys []float64, x0, y0, alphaXFg, alphaYFg, alphaXBg, alphaYBg *mat.Dense) (*GridField, error) {
	dx, err := gridSpacing("x", xs)
	if err != nil {
		return nil, err
	}
	dy, err := gridSpacing("y", ys)
	if err != nil {
		return nil, err
	}
	g := &GridField{
		xMin: xs[0], yMin: ys[0],
		dx: dx, dy: dy,
		nx: len(xs), ny: len(ys),
		x0: x0, y0: y0,
		alphaXFg: alphaXFg, alphaYFg: alphaYFg,
		alphaXBg: alphaXBg, alphaYBg: alphaYBg,
	}
	for name, m := range map[string]*mat.Dense{
		"x0": x0, "y0": y0,
		"alpha_x_foreground": alphaXFg, "alpha_y_foreground": alphaYFg,
		"alpha_x_background": alphaXBg, "alpha_y_background": alphaYBg,
	} {
		if m == nil {
			return nil, fmt.Errorf("grid field: component %s is nil", name)
		}
		r, c := m.Dims()
		if r != g.ny || c != g.nx {
			return nil, fmt.Errorf("grid field: component %s is %dx%d, want %dx%d", name, r, c, g.ny, g.nx)
		}
	}
	return g, nil
}

// Tabulate samples an arbitrary Field on a regular grid and returns the
// gridded approximation.
func Tabulate(f Field, xs, ys []float64) (*GridField, error) {
	comps := []struct {
		eval func(tx, ty float64) float64
		dst  *mat.Dense
	}{
		{f.X0, mat.NewDense(len(ys), len(xs), nil)},
		{f.Y0, mat.NewDense(len(ys), len(xs), nil)},
		{f.AlphaXForeground, mat.NewDense(len(ys), len(xs), nil)},
		{f.AlphaYForeground, mat.NewDense(len(ys), len(xs), nil)},
		{f.AlphaXBackground, mat.NewDense(len(ys), len(xs), nil)},
		{f.AlphaYBackground, mat.NewDense(len(ys), len(xs), nil)},
	}
	for _, comp := range comps {
		for j, ty := range ys {
			for i, tx := range xs {
				comp.dst.Set(j, i, comp.eval(tx, ty))
			}
		}
	}
	return NewGridField(xs, ys,
		comps[0].dst, comps[1].dst,
		comps[2].dst, comps[3].dst,
		comps[4].dst, comps[5].dst)
}

// gridSpacing validates an axis and returns its node spacing
func gridSpacing(axis string, vals []float64) (float64, error) {
	if len(vals) < 2 {
		return 0, fmt.Errorf("grid field: %s axis needs at least 2 nodes, got %d", axis, len(vals))
	}
	d := vals[1] - vals[0]
	if d <= 0 {
		return 0, fmt.Errorf("grid field: %s axis must be strictly increasing", axis)
	}
	for i := 2; i < len(vals); i++ {
		step := vals[i] - vals[i-1]
		if math.Abs(step-d) > 1e-9*math.Max(math.Abs(d), 1) {
			return 0, fmt.Errorf("grid field: %s axis is not evenly spaced at index %d", axis, i)
		}
	}
	return d, nil
}

// bilinear interpolates matrix m at sky angle (tx, ty), clamping
// coordinates outside the grid to the boundary
func (g *GridField) bilinear(m *mat.Dense, tx, ty float64) float64 {
	fx := (tx - g.xMin) / g.dx
	fy := (ty - g.yMin) / g.dy
	fx = min(max(fx, 0), float64(g.nx-1))
	fy = min(max(fy, 0), float64(g.ny-1))

	i0 := min(int(fx), g.nx-2)
	j0 := min(int(fy), g.ny-2)
	wx := fx - float64(i0)
	wy := fy - float64(j0)

	v00 := m.At(j0, i0)
	v01 := m.At(j0, i0+1)
	v10 := m.At(j0+1, i0)
	v11 := m.At(j0+1, i0+1)

	return v00*(1-wx)*(1-wy) + v01*wx*(1-wy) + v10*(1-wx)*wy + v11*wx*wy
}

func (g *GridField) X0(tx, ty float64) float64 { return g.bilinear(g.x0, tx, ty) }
func (g *GridField) Y0(tx, ty float64) float64 { return g.bilinear(g.y0, tx, ty) }

func (g *GridField) AlphaXForeground(tx, ty float64) float64 { return g.bilinear(g.alphaXFg, tx, ty) }
func (g *GridField) AlphaYForeground(tx, ty float64) float64 { return g.bilinear(g.alphaYFg, tx, ty) }
func (g *GridField) AlphaXBackground(tx, ty float64) float64 { return g.bilinear(g.alphaXBg, tx, ty) }
func (g *GridField) AlphaYBackground(tx, ty float64) float64 { return g.bilinear(g.alphaYBg, tx, ty) }
