package frame

import (
	"fmt"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// Frame is a 2-D detector pixel grid stored row-major.
type Frame struct {
	Rows int
	Cols int
	Data []float64
}

// New allocates a zeroed frame with the given dimensions.
func New(rows, cols int) *Frame {
	return &Frame{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// FromRows builds a frame from a slice of equally sized rows. Mostly used by
// tests and fixtures.
func FromRows(rows [][]float64) (*Frame, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("frame: no rows")
	}
	cols := len(rows[0])
	f := New(len(rows), cols)
	for r, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("frame: row %d has %d columns, want %d", r, len(row), cols)
		}
		copy(f.Row(r), row)
	}
	return f, nil
}

// At returns the pixel at row r, column c.
func (f *Frame) At(r, c int) float64 {
	return f.Data[r*f.Cols+c]
}

// Set assigns the pixel at row r, column c.
func (f *Frame) Set(r, c int, v float64) {
	f.Data[r*f.Cols+c] = v
}

// Row returns the backing slice for row r. Mutations write through.
func (f *Frame) Row(r int) []float64 {
	return f.Data[r*f.Cols : (r+1)*f.Cols]
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	out := &Frame{Rows: f.Rows, Cols: f.Cols, Data: make([]float64, len(f.Data))}
	copy(out.Data, f.Data)
	return out
}

// AddScalar adds v to every pixel.
func (f *Frame) AddScalar(v float64) {
	for i := range f.Data {
		f.Data[i] += v
	}
}

// Scale multiplies every pixel by v.
func (f *Frame) Scale(v float64) {
	vecmath.ScaleBlockInPlace(f.Data, v)
}

// Sub subtracts other from f pixel-wise. The two frames must have identical
// dimensions.
func (f *Frame) Sub(other *Frame) error {
	if other.Rows != f.Rows || other.Cols != f.Cols {
		return fmt.Errorf("frame: dimension mismatch %dx%d vs %dx%d", f.Rows, f.Cols, other.Rows, other.Cols)
	}
	for i := range f.Data {
		f.Data[i] -= other.Data[i]
	}
	return nil
}

// TrimRight returns a new frame with the last n columns removed.
func (f *Frame) TrimRight(n int) *Frame {
	if n <= 0 {
		return f.Clone()
	}
	cols := f.Cols - n
	out := New(f.Rows, cols)
	for r := 0; r < f.Rows; r++ {
		copy(out.Row(r), f.Row(r)[:cols])
	}
	return out
}

// LastCols returns the pixels of the last n columns as a flat slice.
func (f *Frame) LastCols(n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n > f.Cols {
		n = f.Cols
	}
	out := make([]float64, 0, f.Rows*n)
	for r := 0; r < f.Rows; r++ {
		out = append(out, f.Row(r)[f.Cols-n:]...)
	}
	return out
}

// Flip180 reverses both axes in place.
func (f *Frame) Flip180() {
	n := len(f.Data)
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		f.Data[i], f.Data[j] = f.Data[j], f.Data[i]
	}
}

// FlipHorizontal reverses column order in place.
func (f *Frame) FlipHorizontal() {
	for r := 0; r < f.Rows; r++ {
		row := f.Row(r)
		for i, j := 0, f.Cols-1; i < j; i, j = i+1, j-1 {
			row[i], row[j] = row[j], row[i]
		}
	}
}
