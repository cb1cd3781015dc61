package imgconv

import (
	"bufio"
	"image"
	"io"
	"os"
)

// A Handler loads and saves rasters in one image format. Handlers carry
// no mutable state and may be shared between goroutines.
type Handler interface {
	Load(path string) (*Raster, error)
	Save(path string, r *Raster) error
}

// Size is the pixel size of an image.
type Size struct {
	Width  int
	Height int
}

// Options tune the handlers returned by Options.HandlerFor.
type Options struct {
	// JPEGQuality is the encoder quality in [1, 100]. Zero means
	// DefaultJPEGQuality.
	JPEGQuality int
	// MaxPixels caps the size of decoded images. Zero means
	// DefaultMaxPixels; negative disables the cap.
	MaxPixels int
}

type formatEntry struct {
	format  Format
	handler Handler
	magic   []string
}

// formats is written only from init.
var formats []formatEntry

func registerFormat(f Format, h Handler, magic ...string) {
	formats = append(formats, formatEntry{format: f, handler: h, magic: magic})
}

// HandlerFor returns the default handler for f, or nil if f is Unknown.
func HandlerFor(f Format) Handler {
	for _, e := range formats {
		if e.format == f {
			return e.handler
		}
	}
	return nil
}

// HandlerFor returns a handler for f configured by o, or nil if f is
// Unknown.
func (o Options) HandlerFor(f Format) Handler {
	switch f {
	case JPEG:
		return jpegHandler{quality: o.JPEGQuality, maxPixels: o.MaxPixels}
	case PPM:
		return ppmHandler{maxPixels: o.MaxPixels}
	case BMP:
		return bmpHandler{maxPixels: o.MaxPixels}
	}
	return nil
}

// Lookup resolves the format of path and returns its default handler.
// The handler is nil when the format is Unknown.
func Lookup(path string) (Format, Handler) {
	f := Resolve(path)
	return f, HandlerFor(f)
}

func pixelLimit(maxPixels int) int {
	if maxPixels == 0 {
		return DefaultMaxPixels
	}
	return maxPixels
}

type bmpHandler struct {
	maxPixels int
}

func (h bmpHandler) Load(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeBMPLimit(bufio.NewReader(f), pixelLimit(h.maxPixels))
}

func (h bmpHandler) Save(path string, r *Raster) error {
	return saveFile(path, r, func(w io.Writer) error {
		return EncodeBMP(w, r)
	})
}

// loadImage decodes path with an image package decoder after checking
// the declared size against maxPixels.
func loadImage(path string, maxPixels int, decode func(io.Reader) (image.Image, error)) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if limit := pixelLimit(maxPixels); limit > 0 {
		cfg, _, err := image.DecodeConfig(bufio.NewReader(f))
		if err != nil {
			return nil, err
		}
		if int64(cfg.Width)*int64(cfg.Height) > int64(limit) {
			return nil, ErrTooLarge
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
	}

	m, err := decode(bufio.NewReader(f))
	if err != nil {
		return nil, err
	}
	return FromImage(m)
}

// saveFile creates path and runs encode against a buffered writer. The
// file is closed on every path; a failed flush or close is reported.
func saveFile(path string, r *Raster, encode func(io.Writer) error) (err error) {
	if r == nil || r.Width <= 0 || r.Height <= 0 {
		return ErrInvalidSize
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(f)
	if err := encode(w); err != nil {
		return err
	}
	return w.Flush()
}

// Probe reports the size and format of the image at path. Only the
// header is read.
func Probe(path string) (Size, Format, error) {
	format := Resolve(path)
	if format == Unknown {
		return Size{}, Unknown, ErrUnknownFormat
	}
	f, err := os.Open(path)
	if err != nil {
		return Size{}, format, err
	}
	defer f.Close()

	if format == BMP {
		h, err := DecodeBMPHeader(f)
		if err != nil {
			return Size{}, format, err
		}
		return Size{int(h.Width), int(h.Height)}, format, nil
	}
	cfg, _, err := image.DecodeConfig(bufio.NewReader(f))
	if err != nil {
		return Size{}, format, err
	}
	return Size{cfg.Width, cfg.Height}, format, nil
}
