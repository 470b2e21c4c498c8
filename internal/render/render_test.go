package render

import (
	"os"
	"path/filepath"
	"testing"

	"quicklook/internal/frame"
)

func gradientFrame(rows, cols int) *frame.Frame {
	f := frame.New(rows, cols)
	for i := range f.Data {
		f.Data[i] = float64(i)
	}
	return f
}

func TestHeatmapWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sky.png")
	if err := Heatmap(gradientFrame(20, 20), 25, "test field", path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Fatalf("output is not a PNG (%d bytes)", len(data))
	}
}

func TestHeatmapConstantImage(t *testing.T) {
	img := frame.New(10, 10)
	for i := range img.Data {
		img.Data[i] = 3
	}
	path := filepath.Join(t.TempDir(), "flat.png")
	if err := Heatmap(img, 25, "", path); err != nil {
		t.Fatalf("constant image must still render: %v", err)
	}
}

func TestHeatmapRejectsTinyImage(t *testing.T) {
	if err := Heatmap(frame.New(1, 1), 25, "", "unused.png"); err == nil {
		t.Fatal("expected error for 1x1 image")
	}
}

func TestSkyGridClampsStretch(t *testing.T) {
	img := gradientFrame(10, 10)
	img.Set(0, 0, -1e9)
	img.Set(9, 9, 1e9)

	g := skyGrid{img: img, extent: 25, lo: 0, hi: 99}
	if got := g.Z(0, 0); got != 0 {
		t.Fatalf("low outlier = %v, want clamp to 0", got)
	}
	if got := g.Z(9, 9); got != 99 {
		t.Fatalf("high outlier = %v, want clamp to 99", got)
	}

	c, r := g.Dims()
	if c != 10 || r != 10 {
		t.Fatalf("Dims = %d,%d", c, r)
	}
	if g.X(0) != -25 || g.X(9) != 25 || g.Y(0) != -25 {
		t.Fatalf("sky axes wrong: %v %v %v", g.X(0), g.X(9), g.Y(0))
	}
}
