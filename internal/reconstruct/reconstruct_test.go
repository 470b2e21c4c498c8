package reconstruct

import (
	"math"
	"testing"

	"quicklook/internal/frame"
)

func TestMapNearestNeighbor(t *testing.T) {
	// Four samples in the quadrant centers: every grid cell takes the flux
	// of its quadrant.
	xs := []float64{-5, 5, -5, 5}
	ys := []float64{-5, -5, 5, 5}
	vs := []float64{1, 2, 3, 4}

	spec := GridSpec{Extent: 10, Bins: 21}
	img, err := Map(xs, ys, vs, spec)
	if err != nil {
		t.Fatal(err)
	}
	if img.Rows != 21 || img.Cols != 21 {
		t.Fatalf("image is %dx%d, want 21x21", img.Rows, img.Cols)
	}

	// Row 0 is y = -10, column 0 is x = -10.
	cases := []struct {
		r, c int
		want float64
	}{
		{0, 0, 1},
		{0, 20, 2},
		{20, 0, 3},
		{20, 20, 4},
		{2, 2, 1},
		{18, 18, 4},
	}
	for _, tc := range cases {
		if got := img.At(tc.r, tc.c); got != tc.want {
			t.Fatalf("img[%d,%d] = %v, want %v", tc.r, tc.c, got, tc.want)
		}
	}
}

func TestMapConstantField(t *testing.T) {
	xs := []float64{-1, 0, 1}
	ys := []float64{0, 1, -1}
	vs := []float64{7, 7, 7}

	img, err := Map(xs, ys, vs, GridSpec{Extent: 25, Bins: 11})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range img.Data {
		if v != 7 {
			t.Fatalf("pixel %d = %v, want 7", i, v)
		}
	}
}

func TestMapValidation(t *testing.T) {
	if _, err := Map(nil, nil, nil, GridSpec{Extent: 25, Bins: 401}); err == nil {
		t.Fatal("expected error for empty catalog")
	}
	if _, err := Map([]float64{1}, []float64{1, 2}, []float64{1}, GridSpec{Extent: 25, Bins: 401}); err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
	if _, err := Map([]float64{1}, []float64{1}, []float64{1}, GridSpec{Extent: 0, Bins: 401}); err == nil {
		t.Fatal("expected error for zero extent")
	}
}

func TestGridSpecStep(t *testing.T) {
	spec := GridSpec{Extent: 25, Bins: 401}
	if got := spec.Step(); math.Abs(got-0.125) > 1e-12 {
		t.Fatalf("Step = %v, want 0.125", got)
	}
}

func TestSmoothPreservesConstant(t *testing.T) {
	img := frame.New(32, 32)
	for i := range img.Data {
		img.Data[i] = 5
	}
	out, err := Smooth(img, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range out.Data {
		if math.Abs(v-5) > 1e-9 {
			t.Fatalf("pixel %d = %v, want 5; edge extension must preserve a constant field", i, v)
		}
	}
	// Input untouched.
	if img.At(0, 0) != 5 {
		t.Fatal("Smooth mutated its input")
	}
}

func TestSmoothSpreadsPointSource(t *testing.T) {
	img := frame.New(41, 41)
	img.Set(20, 20, 100)

	out, err := Smooth(img, 2)
	if err != nil {
		t.Fatal(err)
	}

	center := out.At(20, 20)
	if center <= 0 || center >= 100 {
		t.Fatalf("center = %v, want spread-out peak in (0, 100)", center)
	}
	if off := out.At(20, 22); off <= 0 || off >= center {
		t.Fatalf("offset pixel = %v, want between 0 and center %v", off, center)
	}
	// Symmetric kernel: equal response at equal offsets.
	if math.Abs(out.At(20, 18)-out.At(20, 22)) > 1e-9 {
		t.Fatalf("asymmetric response: %v vs %v", out.At(20, 18), out.At(20, 22))
	}
	if math.Abs(out.At(18, 20)-out.At(20, 22)) > 1e-9 {
		t.Fatalf("axes differ: %v vs %v", out.At(18, 20), out.At(20, 22))
	}

	// Total flux is conserved up to edge effects far from the border.
	var sum float64
	for _, v := range out.Data {
		sum += v
	}
	if math.Abs(sum-100) > 1e-6 {
		t.Fatalf("flux sum = %v, want 100", sum)
	}
}

func TestSmoothRectangular(t *testing.T) {
	img := frame.New(16, 32)
	img.Set(8, 16, 10)
	out, err := Smooth(img, 1.5)
	if err != nil {
		t.Fatal(err)
	}
	if out.Rows != 16 || out.Cols != 32 {
		t.Fatalf("shape changed to %dx%d", out.Rows, out.Cols)
	}
	if out.At(8, 16) <= out.At(8, 20) {
		t.Fatal("peak did not stay at the source")
	}
}

func TestSmoothRejectsBadSigma(t *testing.T) {
	if _, err := Smooth(frame.New(4, 4), 0); err == nil {
		t.Fatal("expected error for zero sigma")
	}
}

func TestSubtractMedian(t *testing.T) {
	img := frame.New(3, 3)
	copy(img.Data, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	SubtractMedian(img)
	if img.At(1, 1) != 0 {
		t.Fatalf("median pixel = %v, want 0", img.At(1, 1))
	}
	if img.At(0, 0) != -4 || img.At(2, 2) != 4 {
		t.Fatalf("offsets wrong: %v, %v", img.At(0, 0), img.At(2, 2))
	}
}

func TestGaussianKernelNormalized(t *testing.T) {
	k := gaussianKernel(7)
	if len(k) != 2*28+1 {
		t.Fatalf("kernel length = %d, want 57", len(k))
	}
	var sum float64
	for _, v := range k {
		sum += v
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Fatalf("kernel sum = %v, want 1", sum)
	}
	if k[28] <= k[27] || k[27] != k[29] {
		t.Fatal("kernel is not a symmetric peak")
	}
}
