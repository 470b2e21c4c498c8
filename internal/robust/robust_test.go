package robust_test

import (
	"math"
	"testing"

	"quicklook/internal/robust"
)

func TestMedian(t *testing.T) {
	cases := []struct {
		name string
		in   []float64
		want float64
	}{
		{"odd", []float64{3, 1, 2}, 2},
		{"even", []float64{4, 1, 3, 2}, 2.5},
		{"single", []float64{7}, 7},
		{"ignores non-finite", []float64{1, math.NaN(), 3, math.Inf(1)}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := robust.Median(tc.in)
			if got != tc.want {
				t.Fatalf("Median(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestMedianEmpty(t *testing.T) {
	if got := robust.Median(nil); !math.IsNaN(got) {
		t.Fatalf("Median(nil) = %v, want NaN", got)
	}
	if got := robust.Median([]float64{math.NaN()}); !math.IsNaN(got) {
		t.Fatalf("Median([NaN]) = %v, want NaN", got)
	}
}

func TestPercentile(t *testing.T) {
	// Eleven evenly spaced values make every decile land on a sample.
	x := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	cases := []struct {
		p    float64
		want float64
	}{
		{0, 0},
		{20, 2},
		{50, 5},
		{98, 9.8},
		{100, 10},
	}
	for _, tc := range cases {
		got := robust.Percentile(x, tc.p)
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("Percentile(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestPercentileDoesNotMutateInput(t *testing.T) {
	x := []float64{5, 1, 4, 2, 3}
	robust.Percentile(x, 50)
	want := []float64{5, 1, 4, 2, 3}
	for i := range x {
		if x[i] != want[i] {
			t.Fatalf("input mutated: %v", x)
		}
	}
}

func TestBiweightLocationCleanData(t *testing.T) {
	// Symmetric data: biweight equals the mean and the median.
	x := []float64{1, 2, 3, 4, 5}
	got := robust.BiweightLocation(x)
	if math.Abs(got-3) > 1e-12 {
		t.Fatalf("BiweightLocation = %v, want 3", got)
	}
}

func TestBiweightLocationRejectsOutliers(t *testing.T) {
	x := []float64{9.8, 10.1, 10.0, 9.9, 10.2, 10.0, 9.95, 10.05, 500}
	got := robust.BiweightLocation(x)
	if math.Abs(got-10) > 0.1 {
		t.Fatalf("BiweightLocation = %v, want near 10 despite outlier", got)
	}
	mean := (9.8 + 10.1 + 10.0 + 9.9 + 10.2 + 10.0 + 9.95 + 10.05 + 500) / 9
	if math.Abs(got-mean) < 1 {
		t.Fatalf("BiweightLocation = %v tracked the contaminated mean %v", got, mean)
	}
}

func TestBiweightLocationConstant(t *testing.T) {
	// Zero spread: MAD is zero, so the median is returned as-is.
	x := []float64{4, 4, 4, 4}
	if got := robust.BiweightLocation(x); got != 4 {
		t.Fatalf("BiweightLocation = %v, want 4", got)
	}
}
