package imgconv

import (
	"errors"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// ErrInvalidSize is returned when a raster would have a non-positive
// width or height.
var ErrInvalidSize = errors.New("imgconv: invalid raster size")

// Color is an opaque 24-bit RGB color.
type Color struct {
	R, G, B uint8
}

// RGBA implements color.Color. Alpha is always fully opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

// ColorModel converts any color.Color to a Color, dropping alpha.
var ColorModel = color.ModelFunc(func(c color.Color) color.Color {
	if c, ok := c.(Color); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	return Color{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
})

// Raster is an in-memory pixel grid. Pix holds Width*Height colors in
// row-major order; row 0 is the top of the image.
type Raster struct {
	Width, Height int
	Pix           []Color
}

// NewRaster returns a black raster of the given size.
func NewRaster(width, height int) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]Color, width*height),
	}, nil
}

// Row returns the pixels of row y. The returned slice aliases Pix.
func (r *Raster) Row(y int) []Color {
	if y < 0 || y >= r.Height {
		panic("imgconv: row out of range")
	}
	off := y * r.Width
	return r.Pix[off : off+r.Width : off+r.Width]
}

// ColorAt returns the pixel at (x, y).
func (r *Raster) ColorAt(x, y int) Color {
	return r.Row(y)[x]
}

// SetColor sets the pixel at (x, y).
func (r *Raster) SetColor(x, y int, c Color) {
	r.Row(y)[x] = c
}

func (r *Raster) ColorModel() color.Model { return ColorModel }

func (r *Raster) Bounds() image.Rectangle { return image.Rect(0, 0, r.Width, r.Height) }

// At implements image.Image. Points outside the raster are black.
func (r *Raster) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(r.Bounds())) {
		return Color{}
	}
	return r.ColorAt(x, y)
}

// Equal reports whether r and o have the same size and pixels.
func (r *Raster) Equal(o *Raster) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.Width != o.Width || r.Height != o.Height || len(r.Pix) != len(o.Pix) {
		return false
	}
	for i := range r.Pix {
		if r.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// FromImage copies m into a new raster. Alpha is discarded after the
// source is composited onto RGBA.
func FromImage(m image.Image) (*Raster, error) {
	b := m.Bounds()
	r, err := NewRaster(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	rgba, ok := m.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Copy(rgba, image.Point{}, m, b, draw.Src, nil)
	}
	for y := 0; y < r.Height; y++ {
		row := r.Row(y)
		pix := rgba.Pix[y*rgba.Stride:]
		for x := range row {
			row[x] = Color{pix[4*x+0], pix[4*x+1], pix[4*x+2]}
		}
	}
	return r, nil
}
