// Package flat combines twilight exposures into a master flat field.
package flat

import (
	"fmt"

	"quicklook/internal/frame"
	"quicklook/internal/robust"
	"quicklook/internal/services"
)

// Build combines preprocessed twilight frames into a master flat. Each frame
// is first normalized by its own median so exposures of different brightness
// carry equal weight, then the per-pixel median is taken across the stack,
// and the result is rescaled back to the median brightness of the inputs.
func Build(frames []*frame.Frame) (*frame.Frame, error) {
	if len(frames) == 0 {
		return nil, services.Wrap(services.ErrValidation, "flat", "build",
			"no twilight frames to combine", nil)
	}
	rows, cols := frames[0].Rows, frames[0].Cols
	for i, f := range frames[1:] {
		if f.Rows != rows || f.Cols != cols {
			return nil, services.Wrap(services.ErrValidation, "flat", "build",
				fmt.Sprintf("frame %d is %dx%d, expected %dx%d", i+1, f.Rows, f.Cols, rows, cols), nil)
		}
	}

	medians := make([]float64, len(frames))
	normalized := make([]*frame.Frame, len(frames))
	for i, f := range frames {
		m := robust.Median(f.Data)
		if m == 0 {
			return nil, services.Wrap(services.ErrValidation, "flat", "build",
				fmt.Sprintf("frame %d has zero median, cannot normalize", i), nil)
		}
		medians[i] = m
		n := f.Clone()
		n.Scale(1 / m)
		normalized[i] = n
	}

	master := frame.New(rows, cols)
	stack := make([]float64, len(frames))
	for p := range master.Data {
		for i, n := range normalized {
			stack[i] = n.Data[p]
		}
		master.Data[p] = robust.Median(stack)
	}

	master.Scale(robust.Median(medians))
	return master, nil
}
