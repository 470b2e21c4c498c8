package reconstruct

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"quicklook/internal/frame"
	"quicklook/internal/services"
)

// kernelTruncate bounds the Gaussian kernel at four standard deviations.
const kernelTruncate = 4.0

// Smooth convolves the image with a separable Gaussian of the given sigma
// and returns the result as a new frame. Edges are extended, so flux near
// the border is not pulled toward zero.
//
// Each axis is convolved in the frequency domain with a single FFT plan
// shared across all lines of that axis.
func Smooth(img *frame.Frame, sigma float64) (*frame.Frame, error) {
	if sigma <= 0 {
		return nil, services.Wrap(services.ErrValidation, "reconstruct", "smooth",
			fmt.Sprintf("sigma must be positive, got %g", sigma), nil)
	}
	kernel := gaussianKernel(sigma)

	out := img.Clone()

	rowConv, err := newLineConvolver(out.Cols, kernel)
	if err != nil {
		return nil, err
	}
	for r := 0; r < out.Rows; r++ {
		if err := rowConv.apply(out.Row(r)); err != nil {
			return nil, err
		}
	}

	colConv := rowConv
	if out.Rows != out.Cols {
		if colConv, err = newLineConvolver(out.Rows, kernel); err != nil {
			return nil, err
		}
	}
	column := make([]float64, out.Rows)
	for c := 0; c < out.Cols; c++ {
		for r := 0; r < out.Rows; r++ {
			column[r] = out.At(r, c)
		}
		if err := colConv.apply(column); err != nil {
			return nil, err
		}
		for r := 0; r < out.Rows; r++ {
			out.Set(r, c, column[r])
		}
	}
	return out, nil
}

// gaussianKernel returns a normalized Gaussian of odd length 2r+1 with
// r = truncate*sigma rounded up.
func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(kernelTruncate * sigma))
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// lineConvolver convolves fixed-length lines with a kernel in the frequency
// domain. Lines are padded by the kernel radius with replicated edge values
// before transforming.
type lineConvolver struct {
	lineLen   int
	radius    int
	fftSize   int
	plan      *algofft.Plan[complex128]
	kernelFFT []complex128
	padded    []complex128
	freq      []complex128
}

func newLineConvolver(lineLen int, kernel []float64) (*lineConvolver, error) {
	radius := len(kernel) / 2
	paddedLen := lineLen + 2*radius
	fftSize := nextPowerOfTwo(paddedLen + len(kernel) - 1)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("reconstruct: create FFT plan: %w", err)
	}

	kernelPadded := make([]complex128, fftSize)
	for i, v := range kernel {
		kernelPadded[i] = complex(v, 0)
	}
	kernelFFT := make([]complex128, fftSize)
	if err := plan.Forward(kernelFFT, kernelPadded); err != nil {
		return nil, fmt.Errorf("reconstruct: kernel FFT: %w", err)
	}

	return &lineConvolver{
		lineLen:   lineLen,
		radius:    radius,
		fftSize:   fftSize,
		plan:      plan,
		kernelFFT: kernelFFT,
		padded:    make([]complex128, fftSize),
		freq:      make([]complex128, fftSize),
	}, nil
}

// apply convolves line with the kernel in place.
func (lc *lineConvolver) apply(line []float64) error {
	if len(line) != lc.lineLen {
		return fmt.Errorf("reconstruct: line length %d, convolver built for %d", len(line), lc.lineLen)
	}

	for i := range lc.padded {
		lc.padded[i] = 0
	}
	first := complex(line[0], 0)
	last := complex(line[len(line)-1], 0)
	for i := 0; i < lc.radius; i++ {
		lc.padded[i] = first
		lc.padded[lc.radius+lc.lineLen+i] = last
	}
	for i, v := range line {
		lc.padded[lc.radius+i] = complex(v, 0)
	}

	if err := lc.plan.Forward(lc.freq, lc.padded); err != nil {
		return fmt.Errorf("reconstruct: forward FFT: %w", err)
	}
	for i := range lc.freq {
		lc.freq[i] *= lc.kernelFFT[i]
	}
	if err := lc.plan.Inverse(lc.padded, lc.freq); err != nil {
		return fmt.Errorf("reconstruct: inverse FFT: %w", err)
	}

	// The kernel-centered output for original index i sits at 2*radius+i in
	// the full linear convolution of the padded line.
	for i := range line {
		line[i] = real(lc.padded[2*lc.radius+i])
	}
	return nil
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
