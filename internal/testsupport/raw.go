package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/astrogo/fitsio"

	"quicklook/internal/config"
	"quicklook/internal/frame"
)

// RawExposure describes where a synthetic raw frame lives in the exposure
// tree. Obs is the observation directory component, either a zero-padded ID
// or a calibration sequence number of its own.
type RawExposure struct {
	Date string
	Obs  string
	Exp  int
	Slot string
	Amp  string
	Base string
}

// WriteRawFrame writes img as a raw FITS exposure under the config's raw
// directory, with the header keywords preprocessing needs. Frames narrower
// than one overscan unit carry no overscan columns, so test pixel values
// survive preprocessing unchanged apart from the gain factor.
func WriteRawFrame(t testing.TB, cfg *config.Config, exp RawExposure, img *frame.Frame, gain float64) string {
	t.Helper()

	dir := filepath.Join(cfg.Paths.RawDir, exp.Date, cfg.Observation.Instrument,
		cfg.Observation.Instrument+exp.Obs,
		fmt.Sprintf("exp%02d", exp.Exp),
		cfg.Observation.Instrument)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create raw dir: %v", err)
	}
	name := fmt.Sprintf("2%sT000000_%s%s_%s.fits", exp.Date[2:], exp.Slot, exp.Amp, exp.Base)
	path := filepath.Join(dir, name)

	cards := []fitsio.Card{
		{Name: "GAIN", Value: gain},
		{Name: "RDNOISE", Value: 3.0},
		{Name: "CCDPOS", Value: exp.Amp[:1]},
		{Name: "CCDHALF", Value: exp.Amp[1:]},
	}
	writeFloatFITS(t, path, img, cards)
	return path
}

// writeFloatFITS writes img as a single float32 image HDU.
func writeFloatFITS(t testing.TB, path string, img *frame.Frame, cards []fitsio.Card) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	fits, err := fitsio.Create(f)
	if err != nil {
		t.Fatalf("fitsio.Create: %v", err)
	}
	defer fits.Close()

	hdu := fitsio.NewImage(-32, []int{img.Cols, img.Rows})
	defer hdu.Close()
	if err := hdu.Header().Append(cards...); err != nil {
		t.Fatalf("append cards: %v", err)
	}
	pixels := make([]float32, len(img.Data))
	for i, v := range img.Data {
		pixels[i] = float32(v)
	}
	if err := hdu.Write(pixels); err != nil {
		t.Fatalf("write pixels: %v", err)
	}
	if err := fits.Write(hdu); err != nil {
		t.Fatalf("write hdu: %v", err)
	}
}
