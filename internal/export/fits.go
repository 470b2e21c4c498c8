package export

import (
	"fmt"
	"os"

	"github.com/astrogo/fitsio"

	"quicklook/internal/frame"
	"quicklook/internal/services"
)

// WriteFITS streams img to path as a single float32 image HDU. The cards are
// appended to the primary header after the mandatory keywords.
func WriteFITS(path string, img *frame.Frame, cards ...fitsio.Card) error {
	f, err := os.Create(path)
	if err != nil {
		return services.Wrap(services.ErrIO, "export", "fits", fmt.Sprintf("create %s", path), err)
	}
	defer f.Close()

	fits, err := fitsio.Create(f)
	if err != nil {
		return services.Wrap(services.ErrIO, "export", "fits", "open fits stream", err)
	}
	defer fits.Close()

	im := fitsio.NewImage(-32, []int{img.Cols, img.Rows})
	defer im.Close()
	if err := im.Header().Append(cards...); err != nil {
		return services.Wrap(services.ErrIO, "export", "fits", "append header cards", err)
	}

	pixels := make([]float32, len(img.Data))
	for i, v := range img.Data {
		pixels[i] = float32(v)
	}
	if err := im.Write(pixels); err != nil {
		return services.Wrap(services.ErrIO, "export", "fits", "write pixels", err)
	}
	if err := fits.Write(im); err != nil {
		return services.Wrap(services.ErrIO, "export", "fits", "flush image hdu", err)
	}
	return nil
}
