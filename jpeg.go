package imgconv

import (
	"image/jpeg"
	"io"
)

// DefaultJPEGQuality is the encoder quality used when none is configured.
const DefaultJPEGQuality = 95

type jpegHandler struct {
	quality   int
	maxPixels int
}

func (h jpegHandler) Load(path string) (*Raster, error) {
	return loadImage(path, h.maxPixels, jpeg.Decode)
}

func (h jpegHandler) Save(path string, r *Raster) error {
	q := h.quality
	if q == 0 {
		q = DefaultJPEGQuality
	}
	return saveFile(path, r, func(w io.Writer) error {
		return jpeg.Encode(w, r, &jpeg.Options{Quality: q})
	})
}
