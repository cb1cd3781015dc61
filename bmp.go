package imgconv

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// A FormatError reports that the input is not a valid image of the
// expected format.
type FormatError string

func (e FormatError) Error() string { return "imgconv: invalid format: " + string(e) }

// An UnsupportedError reports that the input uses a valid but
// unimplemented feature.
type UnsupportedError string

func (e UnsupportedError) Error() string { return "imgconv: unsupported feature: " + string(e) }

// ErrTooLarge means that a header declares more pixels than the decoder
// was allowed to allocate.
var ErrTooLarge = errors.New("imgconv: image exceeds pixel limit")

// DefaultMaxPixels is the pixel ceiling applied by DecodeBMP.
const DefaultMaxPixels = 1 << 28

const (
	fileHeaderLen = 14
	infoHeaderLen = 40
	headerLen     = fileHeaderLen + infoHeaderLen

	bitsPerPixel = 24
	// 300 DPI expressed in pixels per meter.
	pixelsPerMeter = 11811
	// Readers ignore this field for 24-bit images.
	importantColors = 0x1000000

	maxChunkSize = 10 << 20 // 10M
)

// Header holds the BITMAPFILEHEADER and BITMAPINFOHEADER of a BMP file.
type Header struct {
	Magic           [2]byte
	FileSize        uint32
	Reserved        uint32
	DataOffset      uint32
	InfoSize        uint32
	Width           int32
	Height          int32
	Planes          uint16
	BitsPerPixel    uint16
	Compression     uint32
	ImageSize       uint32
	XPixelsPerMeter int32
	YPixelsPerMeter int32
	ColorsUsed      uint32
	ColorsImportant uint32
}

// Stride returns the length in bytes of one encoded 24-bit row of the
// given width, rounded up to a multiple of four.
func Stride(width int) int {
	return 4 * ((width*3 + 3) / 4)
}

func newHeader(width, height int) Header {
	stride := Stride(width)
	return Header{
		Magic:           [2]byte{'B', 'M'},
		FileSize:        uint32(headerLen + stride*height),
		DataOffset:      headerLen,
		InfoSize:        infoHeaderLen,
		Width:           int32(width),
		Height:          int32(height),
		Planes:          1,
		BitsPerPixel:    bitsPerPixel,
		ImageSize:       uint32(stride * height),
		XPixelsPerMeter: pixelsPerMeter,
		YPixelsPerMeter: pixelsPerMeter,
		ColorsImportant: importantColors,
	}
}

// put serializes h into b, which must be at least headerLen bytes.
func (h *Header) put(b []byte) {
	le := binary.LittleEndian
	b[0], b[1] = h.Magic[0], h.Magic[1]
	le.PutUint32(b[2:6], h.FileSize)
	le.PutUint32(b[6:10], h.Reserved)
	le.PutUint32(b[10:14], h.DataOffset)
	le.PutUint32(b[14:18], h.InfoSize)
	le.PutUint32(b[18:22], uint32(h.Width))
	le.PutUint32(b[22:26], uint32(h.Height))
	le.PutUint16(b[26:28], h.Planes)
	le.PutUint16(b[28:30], h.BitsPerPixel)
	le.PutUint32(b[30:34], h.Compression)
	le.PutUint32(b[34:38], h.ImageSize)
	le.PutUint32(b[38:42], uint32(h.XPixelsPerMeter))
	le.PutUint32(b[42:46], uint32(h.YPixelsPerMeter))
	le.PutUint32(b[46:50], h.ColorsUsed)
	le.PutUint32(b[50:54], h.ColorsImportant)
}

func parseHeader(b []byte) Header {
	le := binary.LittleEndian
	return Header{
		Magic:           [2]byte{b[0], b[1]},
		FileSize:        le.Uint32(b[2:6]),
		Reserved:        le.Uint32(b[6:10]),
		DataOffset:      le.Uint32(b[10:14]),
		InfoSize:        le.Uint32(b[14:18]),
		Width:           int32(le.Uint32(b[18:22])),
		Height:          int32(le.Uint32(b[22:26])),
		Planes:          le.Uint16(b[26:28]),
		BitsPerPixel:    le.Uint16(b[28:30]),
		Compression:     le.Uint32(b[30:34]),
		ImageSize:       le.Uint32(b[34:38]),
		XPixelsPerMeter: int32(le.Uint32(b[38:42])),
		YPixelsPerMeter: int32(le.Uint32(b[42:46])),
		ColorsUsed:      le.Uint32(b[46:50]),
		ColorsImportant: le.Uint32(b[50:54]),
	}
}

// EncodeBMP writes r to w as an uncompressed 24-bit BMP. Rows are written
// bottom-up, each pixel as B, G, R, each row zero-padded to Stride bytes.
func EncodeBMP(w io.Writer, r *Raster) error {
	if r == nil || r.Width <= 0 || r.Height <= 0 {
		return ErrInvalidSize
	}
	stride := Stride(r.Width)
	if int64(headerLen)+int64(stride)*int64(r.Height) > math.MaxUint32 {
		return UnsupportedError("image too large for BMP")
	}

	var b [headerLen]byte
	h := newHeader(r.Width, r.Height)
	h.put(b[:])
	if _, err := w.Write(b[:]); err != nil {
		return err
	}

	buf := make([]byte, stride)
	for y := r.Height - 1; y >= 0; y-- {
		for x, c := range r.Row(y) {
			buf[3*x+0] = c.B
			buf[3*x+1] = c.G
			buf[3*x+2] = c.R
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// DecodeBMPHeader reads the 54 header bytes of a BMP stream. The fields
// are returned as found; nothing is validated.
func DecodeBMPHeader(r io.Reader) (Header, error) {
	var b [headerLen]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Header{}, err
	}
	return parseHeader(b[:]), nil
}

// DecodeBMP reads a 24-bit bottom-up BMP from r, allowing at most
// DefaultMaxPixels pixels.
func DecodeBMP(r io.Reader) (*Raster, error) {
	return DecodeBMPLimit(r, DefaultMaxPixels)
}

// DecodeBMPLimit is like DecodeBMP with an explicit pixel ceiling.
// A maxPixels of zero or less disables the ceiling.
//
// The header is trusted as-is: magic, bit depth and compression are not
// checked, and pixel data is assumed to follow the 54 header bytes.
// A stream shorter than the declared pixel data yields
// io.ErrUnexpectedEOF and no raster.
func DecodeBMPLimit(r io.Reader, maxPixels int) (*Raster, error) {
	h, err := DecodeBMPHeader(r)
	if err != nil {
		return nil, err
	}
	width, height := int(h.Width), int(h.Height)
	if width <= 0 || height <= 0 {
		return nil, FormatError("non-positive dimensions")
	}
	if maxPixels > 0 && int64(width)*int64(height) > int64(maxPixels) {
		return nil, ErrTooLarge
	}

	stride := Stride(width)
	data, err := readPixelData(r, uint64(stride)*uint64(height))
	if err != nil {
		return nil, err
	}

	raster, err := NewRaster(width, height)
	if err != nil {
		return nil, err
	}
	for i := 0; i < height; i++ {
		src := data[i*stride : i*stride+3*width]
		row := raster.Row(height - 1 - i)
		for x := range row {
			row[x] = Color{R: src[3*x+2], G: src[3*x+1], B: src[3*x+0]}
		}
	}
	return raster, nil
}

// readPixelData reads exactly n bytes from r. Lengths come from untrusted
// headers, so large reads grow the buffer one chunk at a time instead of
// allocating n bytes up front.
func readPixelData(r io.Reader, n uint64) ([]byte, error) {
	if int64(n) < 0 || n != uint64(int(n)) {
		return nil, io.ErrUnexpectedEOF
	}

	if n < maxChunkSize {
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		return buf, nil
	}

	var buf []byte
	chunk := make([]byte, maxChunkSize)
	for n > 0 {
		next := n
		if next > maxChunkSize {
			next = maxChunkSize
		}
		if _, err := io.ReadFull(r, chunk[:next]); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		buf = append(buf, chunk[:next]...)
		n -= next
	}
	return buf, nil
}
