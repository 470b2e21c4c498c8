// Package reconstruct resamples the irregular fiber sample catalog onto a
// regular sky grid and prepares the result for display.
package reconstruct

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/kdtree"

	"quicklook/internal/frame"
	"quicklook/internal/robust"
	"quicklook/internal/services"
)

// GridSpec describes the square sky grid: Bins samples per axis spanning
// [-Extent, +Extent] in both coordinates.
type GridSpec struct {
	Extent float64
	Bins   int
}

// Step returns the grid spacing along one axis.
func (g GridSpec) Step() float64 {
	return 2 * g.Extent / float64(g.Bins-1)
}

func (g GridSpec) validate() error {
	if g.Extent <= 0 || g.Bins < 2 {
		return services.Wrap(services.ErrValidation, "reconstruct", "grid",
			fmt.Sprintf("invalid sky grid: extent %g, %d bins", g.Extent, g.Bins), nil)
	}
	return nil
}

// Map paints each grid cell with the flux of the nearest catalog sample.
// Rows run along y and columns along x, both ascending, so row 0 is the
// bottom of the field.
func Map(xs, ys, values []float64, spec GridSpec) (*frame.Frame, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	if len(xs) == 0 || len(xs) != len(ys) || len(xs) != len(values) {
		return nil, services.Wrap(services.ErrValidation, "reconstruct", "map",
			fmt.Sprintf("mismatched inputs: %d x, %d y, %d values", len(xs), len(ys), len(values)), nil)
	}

	pts := make(samples, len(xs))
	for i := range xs {
		pts[i] = sample{x: xs[i], y: ys[i], idx: i}
	}
	tree := kdtree.New(pts, false)

	img := frame.New(spec.Bins, spec.Bins)
	step := spec.Step()
	for r := 0; r < spec.Bins; r++ {
		y := -spec.Extent + float64(r)*step
		for c := 0; c < spec.Bins; c++ {
			x := -spec.Extent + float64(c)*step
			got, _ := tree.Nearest(sample{x: x, y: y})
			img.Set(r, c, values[got.(sample).idx])
		}
	}
	return img, nil
}

// Sky pairs the raw nearest-neighbor map with its display-ready smoothed
// counterpart.
type Sky struct {
	Raw     *frame.Frame
	Display *frame.Frame
	Spec    GridSpec
}

// SubtractMedian shifts the image so its median level is zero, which keeps
// the display stretch centered on the sky background.
func SubtractMedian(img *frame.Frame) {
	img.AddScalar(-robust.Median(img.Data))
}
