// Package render writes the reconstructed sky image as a PNG heat map.
package render

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"quicklook/internal/frame"
	"quicklook/internal/robust"
	"quicklook/internal/services"
)

// display stretch percentiles. Clipping at these keeps one hot pixel or one
// dead fiber from flattening the rest of the image.
const (
	stretchLo = 2
	stretchHi = 98
)

// skyGrid adapts a frame to the plotter grid interface, mapping rows to sky
// y and columns to sky x over [-extent, +extent]. Values are clamped to the
// display stretch.
type skyGrid struct {
	img    *frame.Frame
	extent float64
	lo, hi float64
}

func (g skyGrid) Dims() (c, r int) { return g.img.Cols, g.img.Rows }

func (g skyGrid) Z(c, r int) float64 {
	v := g.img.At(r, c)
	if v < g.lo {
		return g.lo
	}
	if v > g.hi {
		return g.hi
	}
	return v
}

func (g skyGrid) X(c int) float64 {
	return -g.extent + float64(c)*2*g.extent/float64(g.img.Cols-1)
}

func (g skyGrid) Y(r int) float64 {
	return -g.extent + float64(r)*2*g.extent/float64(g.img.Rows-1)
}

// Heatmap renders img to a PNG at path. The color stretch runs from the 2nd
// to the 98th percentile of the pixel values.
func Heatmap(img *frame.Frame, extent float64, title, path string) error {
	if img.Rows < 2 || img.Cols < 2 {
		return services.Wrap(services.ErrValidation, "render", "heatmap",
			fmt.Sprintf("image too small to render: %dx%d", img.Rows, img.Cols), nil)
	}

	lo := robust.Percentile(img.Data, stretchLo)
	hi := robust.Percentile(img.Data, stretchHi)
	if hi <= lo {
		hi = lo + 1
	}

	grid := skyGrid{img: img, extent: extent, lo: lo, hi: hi}
	hm := plotter.NewHeatMap(grid, palette.Heat(255, 1))

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x [arcsec]"
	p.Y.Label.Text = "y [arcsec]"
	p.Add(hm)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return services.Wrap(services.ErrIO, "render", "heatmap",
			fmt.Sprintf("save %s", path), err)
	}
	return nil
}
