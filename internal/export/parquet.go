// Package export writes reduction products to disk: the reconstructed sky
// image as FITS or PNG source material and the sample catalog as Parquet.
package export

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"quicklook/internal/dither"
	"quicklook/internal/services"
)

// CatalogRow is the Parquet schema of one sky sample: where the fiber
// pointed and how bright it measured.
type CatalogRow struct {
	Slot       string  `parquet:"slot"`
	Amp        string  `parquet:"amp"`
	Fiber      int32   `parquet:"fiber"`
	Exposure   int32   `parquet:"exposure"`
	X          float64 `parquet:"x"`
	Y          float64 `parquet:"y"`
	Brightness float64 `parquet:"brightness"`
}

// WriteCatalog writes one row per catalog sample with its flattened channel
// brightness. The brightness slice must parallel the catalog samples.
func WriteCatalog(path string, cat *dither.Catalog, brightness []float64) error {
	if len(brightness) != cat.Len() {
		return services.Wrap(services.ErrValidation, "export", "catalog",
			fmt.Sprintf("%d brightness values for %d samples", len(brightness), cat.Len()), nil)
	}

	rows := make([]CatalogRow, cat.Len())
	for i, s := range cat.Samples {
		rows[i] = CatalogRow{
			Slot:       s.Slot,
			Amp:        s.Amp,
			Fiber:      int32(s.Fiber),
			Exposure:   int32(s.Exposure),
			X:          s.X,
			Y:          s.Y,
			Brightness: brightness[i],
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return services.Wrap(services.ErrIO, "export", "catalog", fmt.Sprintf("create %s", path), err)
	}
	defer f.Close()

	writer := parquet.NewGenericWriter[CatalogRow](f)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return services.Wrap(services.ErrIO, "export", "catalog", "write rows", err)
	}
	if err := writer.Close(); err != nil {
		return services.Wrap(services.ErrIO, "export", "catalog", "close writer", err)
	}
	return nil
}

// ReadCatalog loads a previously written sample catalog.
func ReadCatalog(path string) ([]CatalogRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "export", "catalog", fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "export", "catalog", "stat file", err)
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "export", "catalog", "open parquet", err)
	}

	reader := parquet.NewGenericReader[CatalogRow](pf)
	defer reader.Close()

	out := make([]CatalogRow, 0, pf.NumRows())
	batch := make([]CatalogRow, 128)
	for {
		n, err := reader.Read(batch)
		if n > 0 {
			out = append(out, batch[:n]...)
		}
		if err != nil {
			break
		}
	}
	return out, nil
}
