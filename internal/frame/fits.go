package frame

import (
	"fmt"
	"os"
	"strings"

	"github.com/astrogo/fitsio"

	"quicklook/internal/services"
)

// Raw is one exposure as read from disk: the pixel grid plus its primary
// header, untouched by any calibration step.
type Raw struct {
	Image  *Frame
	Header Header
}

// Load reads the primary HDU of a FITS file into a Raw frame. Any structural
// problem with the file (unreadable, no image, unsupported pixel type) is an
// i/o error; per the pipeline's error taxonomy it is fatal for that frame.
func Load(path string) (*Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "frame", "open", path, err)
	}
	defer f.Close()

	fits, err := fitsio.Open(f)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "frame", "parse", path, err)
	}
	defer fits.Close()

	hdu := fits.HDU(0)
	img, ok := hdu.(fitsio.Image)
	if !ok {
		return nil, services.Wrap(services.ErrIO, "frame", "parse", fmt.Sprintf("%s: primary HDU is not an image", path), nil)
	}

	hdr := img.Header()
	axes := hdr.Axes()
	if len(axes) != 2 || axes[0] <= 0 || axes[1] <= 0 {
		return nil, services.Wrap(services.ErrIO, "frame", "parse", fmt.Sprintf("%s: want a 2-D image, got axes %v", path, axes), nil)
	}
	cols, rows := axes[0], axes[1]

	data, err := readPixels(img, hdr.Bitpix(), rows*cols)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "frame", "read pixels", path, err)
	}

	header := make(Header, len(hdr.Keys()))
	for _, key := range hdr.Keys() {
		if card := hdr.Get(key); card != nil {
			header[strings.ToUpper(key)] = card.Value
		}
	}

	return &Raw{
		Image:  &Frame{Rows: rows, Cols: cols, Data: data},
		Header: header,
	}, nil
}

// readPixels decodes the image payload into float64s. FITS stores the fastest
// axis first, so the flat slice is already row-major.
func readPixels(img fitsio.Image, bitpix, n int) ([]float64, error) {
	out := make([]float64, n)
	switch bitpix {
	case 8:
		raw := make([]int8, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case 16:
		raw := make([]int16, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case 32:
		raw := make([]int32, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case 64:
		raw := make([]int64, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case -32:
		raw := make([]float32, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case -64:
		if err := img.Read(&out); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported BITPIX %d", bitpix)
	}
	return out, nil
}
