package frame

import (
	"math"
	"strings"

	vecmath "github.com/cwbudde/algo-vecmath"

	"quicklook/internal/robust"
	"quicklook/internal/services"
)

const (
	// DefaultGain substitutes missing or non-positive GAIN header values.
	DefaultGain = 0.85
	// DefaultReadNoise substitutes missing or non-positive RDNOISE values.
	DefaultReadNoise = 3.0

	// The detector reads 32 overscan columns per 1064 total columns.
	overscanUnitCols  = 32
	overscanRefWidth  = 1064
	overscanSkipEdges = 2
)

// Calibrated is the output of detector preprocessing: a flux frame in
// electrons, its pixel-wise uncertainty, and the readout parameters that went
// into producing it.
type Calibrated struct {
	Flux        *Frame
	Uncertainty *Frame
	Gain        float64
	ReadNoise   float64
	Amp         string
}

// OverscanWidth returns the overscan region width for a detector readout of
// the given total column count.
func OverscanWidth(cols int) int {
	return overscanUnitCols * (cols / overscanRefWidth)
}

// Preprocess normalizes one raw readout: it subtracts the robust overscan
// baseline, trims the overscan columns, canonicalizes the pixel orientation
// for the readout amplifier, converts to electrons via the header gain, and
// attaches a Poisson-plus-read-noise uncertainty frame.
//
// The raw frame is not modified.
func Preprocess(raw *Raw) (*Calibrated, error) {
	img := raw.Image.Clone()

	// Overscan baseline: biweight location over the last W-2 columns, so a
	// hot edge column cannot bias the estimate.
	if w := OverscanWidth(img.Cols); w > overscanSkipEdges {
		baseline := robust.BiweightLocation(img.LastCols(w - overscanSkipEdges))
		img.AddScalar(-baseline)
		img = img.TrimRight(w)
	}

	gain, ok := raw.Header.Float("GAIN")
	if !ok || gain <= 0 {
		gain = DefaultGain
	}
	readNoise, ok := raw.Header.Float("RDNOISE")
	if !ok || readNoise <= 0 {
		readNoise = DefaultReadNoise
	}

	amp, err := ampIdentity(raw.Header)
	if err != nil {
		return nil, err
	}
	ampName, hasAmpName := raw.Header.String("AMPNAME")
	Orient(img, amp, ampName, hasAmpName)

	vecmath.ScaleBlockInPlace(img.Data, gain)

	uncertainty := New(img.Rows, img.Cols)
	for i, v := range img.Data {
		uncertainty.Data[i] = math.Sqrt(readNoise*readNoise + math.Max(v, 0))
	}

	return &Calibrated{
		Flux:        img,
		Uncertainty: uncertainty,
		Gain:        gain,
		ReadNoise:   readNoise,
		Amp:         amp,
	}, nil
}

// ampIdentity derives the amplifier identity from the CCDPOS and CCDHALF
// header codes, concatenated with all whitespace stripped.
func ampIdentity(hdr Header) (string, error) {
	pos, ok := hdr.String("CCDPOS")
	if !ok {
		return "", services.Wrap(services.ErrValidation, "frame", "preprocess", "header missing CCDPOS", nil)
	}
	half, ok := hdr.String("CCDHALF")
	if !ok {
		return "", services.Wrap(services.ErrValidation, "frame", "preprocess", "header missing CCDHALF", nil)
	}
	joined := pos + half
	return strings.ReplaceAll(joined, " ", ""), nil
}

// Orient canonicalizes the frame so wavelength runs blue to red, left to
// right, and fiber order matches the calibration tables for every amplifier.
// The LU and RL amplifiers read out rotated 180 degrees; detectors whose
// AMPNAME reports LR or UL additionally mirror the column axis. Applying the
// same identity twice restores the original orientation.
func Orient(img *Frame, amp, ampName string, hasAmpName bool) {
	if amp == "LU" || amp == "RL" {
		img.Flip180()
	}
	if hasAmpName && (ampName == "LR" || ampName == "UL") {
		img.FlipHorizontal()
	}
}
