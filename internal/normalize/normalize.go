// Package normalize turns flat-fielded spectra into sky-comparable fluxes:
// it restores the instrument response using the averaged twilight, collapses
// each spectrum to a channel brightness, and flattens residual background
// drifts across the fiber readout order.
package normalize

import (
	"fmt"

	vecmath "github.com/cwbudde/algo-vecmath"

	"quicklook/internal/extract"
	"quicklook/internal/robust"
	"quicklook/internal/services"
)

// Band is an inclusive-exclusive wavelength interval.
type Band struct {
	Lo float64
	Hi float64
}

// channelBands maps each spectrograph channel to the wavelength band its
// brightness is measured in.
var channelBands = map[string]Band{
	"blue":  {3600, 3900},
	"green": {4350, 4650},
	"red":   {5100, 5400},
}

// ChannelBand returns the measurement band for a channel name.
func ChannelBand(channel string) (Band, error) {
	band, ok := channelBands[channel]
	if !ok {
		return Band{}, services.Wrap(services.ErrValidation, "normalize", "band",
			fmt.Sprintf("unknown channel %q", channel), nil)
	}
	return band, nil
}

// AverageTwilight returns the per-bin median across all twilight rows. The
// result is the sky response every science spectrum is rescaled by.
func AverageTwilight(rows [][]float64) ([]float64, error) {
	if len(rows) == 0 {
		return nil, services.Wrap(services.ErrValidation, "normalize", "twilight",
			"no twilight spectra", nil)
	}
	bins := len(rows[0])
	for i, r := range rows {
		if len(r) != bins {
			return nil, services.Wrap(services.ErrValidation, "normalize", "twilight",
				fmt.Sprintf("row %d has %d bins, want %d", i, len(r), bins), nil)
		}
	}

	avg := make([]float64, bins)
	column := make([]float64, len(rows))
	for b := 0; b < bins; b++ {
		for i, r := range rows {
			column[i] = r[b]
		}
		avg[b] = robust.Median(column)
	}
	return avg, nil
}

// ApplyResponse multiplies every science row by the averaged twilight,
// in place, undoing the flat-field division bin by bin.
func ApplyResponse(science [][]float64, avg []float64) error {
	for i, row := range science {
		if len(row) != len(avg) {
			return services.Wrap(services.ErrValidation, "normalize", "response",
				fmt.Sprintf("row %d has %d bins, response has %d", i, len(row), len(avg)), nil)
		}
		vecmath.MulBlockInPlace(row, avg)
	}
	return nil
}

// Collapse reduces each spectrum to its median flux inside the band,
// producing one brightness value per sample.
func Collapse(rows [][]float64, grid extract.Grid, band Band) ([]float64, error) {
	lo, hi := grid.Bin(band.Lo), grid.Bin(band.Hi)
	if lo >= hi {
		return nil, services.Wrap(services.ErrValidation, "normalize", "collapse",
			fmt.Sprintf("band [%g, %g) misses the wavelength grid", band.Lo, band.Hi), nil)
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) != grid.N {
			return nil, services.Wrap(services.ErrValidation, "normalize", "collapse",
				fmt.Sprintf("row %d has %d bins, grid has %d", i, len(row), grid.N), nil)
		}
		out[i] = robust.Median(row[lo:hi])
	}
	return out, nil
}

// FlattenBackground removes slow background drifts across the sample order.
// The values are split into about chunkRows-sized contiguous chunks, the
// low-percentile level of each chunk estimates its background, and every
// chunk is rescaled so all backgrounds meet the median background level.
//
// Chunks follow the even-split rule: with k chunks over n values, the first
// n mod k chunks carry one extra value.
func FlattenBackground(values []float64, chunkRows int, percentile float64) ([]float64, error) {
	if len(values) == 0 {
		return nil, services.Wrap(services.ErrValidation, "normalize", "flatten",
			"no brightness values", nil)
	}
	if chunkRows <= 0 || percentile < 0 || percentile > 100 {
		return nil, services.Wrap(services.ErrValidation, "normalize", "flatten",
			fmt.Sprintf("invalid flatten parameters: chunk %d, percentile %g", chunkRows, percentile), nil)
	}

	k := len(values) / chunkRows
	if k < 1 {
		k = 1
	}
	backgrounds := make([]float64, k)
	bounds := chunkBounds(len(values), k)
	for i := 0; i < k; i++ {
		backgrounds[i] = robust.Percentile(values[bounds[i]:bounds[i+1]], percentile)
	}
	level := robust.Median(backgrounds)

	out := make([]float64, len(values))
	for i := 0; i < k; i++ {
		scale := 1.0
		if backgrounds[i] != 0 {
			scale = level / backgrounds[i]
		}
		for j := bounds[i]; j < bounds[i+1]; j++ {
			out[j] = values[j] * scale
		}
	}
	return out, nil
}

// chunkBounds returns the k+1 boundary indexes of an even split of n values
// into k contiguous chunks.
func chunkBounds(n, k int) []int {
	bounds := make([]int, k+1)
	base, extra := n/k, n%k
	for i := 0; i < k; i++ {
		size := base
		if i < extra {
			size++
		}
		bounds[i+1] = bounds[i] + size
	}
	return bounds
}
