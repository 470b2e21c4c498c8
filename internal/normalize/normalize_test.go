package normalize

import (
	"errors"
	"math"
	"testing"

	"quicklook/internal/extract"
	"quicklook/internal/services"
)

func TestChannelBand(t *testing.T) {
	cases := map[string]Band{
		"blue":  {3600, 3900},
		"green": {4350, 4650},
		"red":   {5100, 5400},
	}
	for name, want := range cases {
		got, err := ChannelBand(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got != want {
			t.Fatalf("%s = %+v, want %+v", name, got, want)
		}
	}
	if _, err := ChannelBand("uv"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("unknown channel: err = %v, want ErrValidation", err)
	}
}

func TestAverageTwilight(t *testing.T) {
	rows := [][]float64{
		{1, 10, 100},
		{3, 30, 300},
		{2, 20, 500},
	}
	avg, err := AverageTwilight(rows)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{2, 20, 300}
	for i := range want {
		if avg[i] != want[i] {
			t.Fatalf("avg[%d] = %v, want %v", i, avg[i], want[i])
		}
	}
}

func TestAverageTwilightErrors(t *testing.T) {
	if _, err := AverageTwilight(nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("empty: err = %v, want ErrValidation", err)
	}
	if _, err := AverageTwilight([][]float64{{1, 2}, {1}}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("ragged: err = %v, want ErrValidation", err)
	}
}

func TestApplyResponse(t *testing.T) {
	science := [][]float64{
		{1, 2, 3},
		{4, 5, 6},
	}
	if err := ApplyResponse(science, []float64{2, 0.5, 10}); err != nil {
		t.Fatal(err)
	}
	want := [][]float64{
		{2, 1, 30},
		{8, 2.5, 60},
	}
	for i := range want {
		for j := range want[i] {
			if science[i][j] != want[i][j] {
				t.Fatalf("science[%d][%d] = %v, want %v", i, j, science[i][j], want[i][j])
			}
		}
	}

	err := ApplyResponse([][]float64{{1, 2}}, []float64{1})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("bin mismatch: err = %v, want ErrValidation", err)
	}
}

func TestCollapse(t *testing.T) {
	grid, err := extract.NewGrid(100, 200, 10)
	if err != nil {
		t.Fatal(err)
	}
	rows := [][]float64{
		{0, 0, 1, 2, 3, 0, 0, 0, 0, 0},
		{9, 9, 5, 5, 5, 9, 9, 9, 9, 9},
	}
	// Band [120, 150) covers bins 2, 3, 4.
	got, err := Collapse(rows, grid, Band{120, 150})
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 2 || got[1] != 5 {
		t.Fatalf("Collapse = %v, want [2 5]", got)
	}
}

func TestCollapseBandOffGrid(t *testing.T) {
	grid, _ := extract.NewGrid(100, 200, 10)
	if _, err := Collapse([][]float64{make([]float64, grid.N)}, grid, Band{5100, 5400}); err == nil {
		t.Fatal("expected error for band past the grid")
	}
}

func TestFlattenBackgroundTwoChunks(t *testing.T) {
	// Two chunks with backgrounds 10 and 20: the median level is 15, so the
	// first chunk scales by 1.5 and the second by 0.75.
	values := make([]float64, 8)
	for i := 0; i < 4; i++ {
		values[i] = 10
		values[i+4] = 20
	}
	got, err := FlattenBackground(values, 4, 20)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 8; i++ {
		if math.Abs(got[i]-15) > 1e-12 {
			t.Fatalf("got[%d] = %v, want 15", i, got[i])
		}
	}
	// Input is untouched.
	if values[0] != 10 {
		t.Fatal("FlattenBackground mutated its input")
	}
}

func TestFlattenBackgroundPreservesSignalAboveBackground(t *testing.T) {
	// A bright source on a flat background scales with its chunk, not to
	// the level itself.
	values := []float64{10, 10, 10, 100, 20, 20, 20, 20}
	got, err := FlattenBackground(values, 4, 20)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got[3]-150) > 1e-9 {
		t.Fatalf("source = %v, want 100*1.5 = 150", got[3])
	}
}

func TestFlattenBackgroundUnevenSplit(t *testing.T) {
	// Nine values in two chunks: the first chunk takes five, the second four.
	values := []float64{10, 10, 10, 10, 10, 20, 20, 20, 20}
	got, err := FlattenBackground(values, 4, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got[4]-15) > 1e-12 {
		t.Fatalf("got[4] = %v, want 15 (first chunk of five)", got[4])
	}
	if math.Abs(got[5]-15) > 1e-12 {
		t.Fatalf("got[5] = %v, want 15 (second chunk)", got[5])
	}
}

func TestFlattenBackgroundShortInputSingleChunk(t *testing.T) {
	// Fewer values than the chunk size collapse into one chunk, which
	// rescales to its own background level, leaving values unchanged up to
	// the identity scale.
	values := []float64{3, 4, 5}
	got, err := FlattenBackground(values, 112, 50)
	if err != nil {
		t.Fatal(err)
	}
	for i := range values {
		if math.Abs(got[i]-values[i]) > 1e-12 {
			t.Fatalf("got[%d] = %v, want %v", i, got[i], values[i])
		}
	}
}

func TestFlattenBackgroundZeroBackground(t *testing.T) {
	// A chunk whose background estimate is zero keeps its values rather
	// than dividing by zero.
	values := []float64{0, 0, 0, 0, 20, 20, 20, 20}
	got, err := FlattenBackground(values, 4, 20)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if got[i] != 0 {
			t.Fatalf("got[%d] = %v, want 0", i, got[i])
		}
	}
}

func TestFlattenBackgroundErrors(t *testing.T) {
	if _, err := FlattenBackground(nil, 112, 20); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("empty: err = %v, want ErrValidation", err)
	}
	if _, err := FlattenBackground([]float64{1}, 0, 20); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("bad chunk: err = %v, want ErrValidation", err)
	}
	if _, err := FlattenBackground([]float64{1}, 112, 101); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("bad percentile: err = %v, want ErrValidation", err)
	}
}
