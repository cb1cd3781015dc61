package imgconv

import (
	"io"

	pnm "github.com/jbuchbinder/gopnm"
)

// ppmHandler reads any netpbm image and always writes binary PPM (P6).
type ppmHandler struct {
	maxPixels int
}

func (h ppmHandler) Load(path string) (*Raster, error) {
	return loadImage(path, h.maxPixels, pnm.Decode)
}

func (h ppmHandler) Save(path string, r *Raster) error {
	return saveFile(path, r, func(w io.Writer) error {
		return pnm.Encode(w, r, pnm.PPM)
	})
}
