package imgconv

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math/rand"
	"testing"

	xbmp "golang.org/x/image/bmp"
)

var (
	white = Color{255, 255, 255}
	black = Color{0, 0, 0}
	red   = Color{255, 0, 0}
	green = Color{0, 255, 0}
	blue  = Color{0, 0, 255}
)

func randomRaster(t *testing.T, rng *rand.Rand, width, height int) *Raster {
	t.Helper()
	r, err := NewRaster(width, height)
	if err != nil {
		t.Fatal(err)
	}
	for i := range r.Pix {
		r.Pix[i] = Color{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))}
	}
	return r
}

func encode(t *testing.T, r *Raster) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := EncodeBMP(&buf, r); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestStride(t *testing.T) {
	for _, tc := range []struct{ width, stride int }{
		{1, 4}, {2, 8}, {3, 12}, {4, 12}, {5, 16}, {6, 20}, {7, 24}, {8, 24},
	} {
		if got := Stride(tc.width); got != tc.stride {
			t.Errorf("Stride(%d) = %d, want %d", tc.width, got, tc.stride)
		}
	}
}

func TestEncodeBMPFileSize(t *testing.T) {
	for _, width := range []int{4, 5, 6, 7} {
		const height = 3
		r, _ := NewRaster(width, height)
		b := encode(t, r)
		want := 54 + Stride(width)*height
		if len(b) != want {
			t.Errorf("width %d: encoded %d bytes, want %d", width, len(b), want)
		}
		if got := binary.LittleEndian.Uint32(b[2:6]); got != uint32(want) {
			t.Errorf("width %d: header file size %d, want %d", width, got, want)
		}
		if got := binary.LittleEndian.Uint32(b[34:38]); got != uint32(Stride(width)*height) {
			t.Errorf("width %d: header image size %d, want %d", width, got, Stride(width)*height)
		}
	}
}

func TestEncodeBMPHeaderConstants(t *testing.T) {
	r, _ := NewRaster(3, 2)
	b := encode(t, r)
	le := binary.LittleEndian

	if string(b[0:2]) != "BM" {
		t.Errorf("magic = %q", b[0:2])
	}
	if got := le.Uint32(b[6:10]); got != 0 {
		t.Errorf("reserved = %d", got)
	}
	for _, tc := range []struct {
		name string
		got  uint32
		want uint32
	}{
		{"data offset", le.Uint32(b[10:14]), 54},
		{"info size", le.Uint32(b[14:18]), 40},
		{"width", le.Uint32(b[18:22]), 3},
		{"height", le.Uint32(b[22:26]), 2},
		{"planes", uint32(le.Uint16(b[26:28])), 1},
		{"bits per pixel", uint32(le.Uint16(b[28:30])), 24},
		{"compression", le.Uint32(b[30:34]), 0},
		{"x resolution", le.Uint32(b[38:42]), 11811},
		{"y resolution", le.Uint32(b[42:46]), 11811},
		{"colors used", le.Uint32(b[46:50]), 0},
		{"important colors", le.Uint32(b[50:54]), 0x1000000},
	} {
		if tc.got != tc.want {
			t.Errorf("%s = %d, want %d", tc.name, tc.got, tc.want)
		}
	}
}

func TestEncodeBMPRowOrder(t *testing.T) {
	r, _ := NewRaster(1, 3)
	r.SetColor(0, 0, red)
	r.SetColor(0, 1, green)
	r.SetColor(0, 2, blue)
	b := encode(t, r)

	// Bottom row first, each pixel B, G, R, stride 4.
	want := []byte{
		0xff, 0x00, 0x00, 0x00,
		0x00, 0xff, 0x00, 0x00,
		0x00, 0x00, 0xff, 0x00,
	}
	if !bytes.Equal(b[54:], want) {
		t.Fatalf("pixel data = % x, want % x", b[54:], want)
	}
}

func TestEncodeBMPChannelOrder(t *testing.T) {
	r, _ := NewRaster(1, 1)
	r.SetColor(0, 0, Color{255, 0, 0})
	b := encode(t, r)
	if !bytes.Equal(b[54:57], []byte{0x00, 0x00, 0xff}) {
		t.Fatalf("red pixel encoded as % x", b[54:57])
	}
}

func TestEncodeBMPPaddingIsZero(t *testing.T) {
	r, _ := NewRaster(5, 2)
	for i := range r.Pix {
		r.Pix[i] = white
	}
	b := encode(t, r)
	stride := Stride(5)
	for y := 0; y < 2; y++ {
		row := b[54+y*stride : 54+(y+1)*stride]
		if !bytes.Equal(row[15:], []byte{0}) {
			t.Errorf("row %d padding = % x", y, row[15:])
		}
	}
}

func TestEncodeBMPInvalidRaster(t *testing.T) {
	if err := EncodeBMP(io.Discard, nil); err != ErrInvalidSize {
		t.Fatalf("nil raster: got %v", err)
	}
	if err := EncodeBMP(io.Discard, &Raster{}); err != ErrInvalidSize {
		t.Fatalf("empty raster: got %v", err)
	}
}

type failingWriter struct{ n int }

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n <= 0 {
		return 0, errors.New("disk full")
	}
	w.n--
	return len(p), nil
}

func TestEncodeBMPWriteError(t *testing.T) {
	r, _ := NewRaster(2, 4)
	// Header succeeds, second row fails.
	if err := EncodeBMP(&failingWriter{n: 2}, r); err == nil {
		t.Fatal("expected write error")
	}
}

func TestBMPRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for width := 1; width <= 64; width++ {
		for _, height := range []int{1, 2, 3, 17, 64} {
			r := randomRaster(t, rng, width, height)
			got, err := DecodeBMP(bytes.NewReader(encode(t, r)))
			if err != nil {
				t.Fatalf("%dx%d: %v", width, height, err)
			}
			if !got.Equal(r) {
				t.Fatalf("%dx%d: round trip mismatch", width, height)
			}
		}
	}
}

func TestBMPTwoByTwo(t *testing.T) {
	r, _ := NewRaster(2, 2)
	r.SetColor(0, 0, white)
	r.SetColor(1, 0, black)
	r.SetColor(0, 1, red)
	r.SetColor(1, 1, green)

	b := encode(t, r)
	if len(b) != 70 {
		t.Fatalf("encoded length = %d, want 70", len(b))
	}
	got, err := DecodeBMP(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(r) {
		t.Fatalf("decoded %+v, want %+v", got.Pix, r.Pix)
	}
}

func TestDecodeBMPShortRead(t *testing.T) {
	r, _ := NewRaster(4, 4)
	b := encode(t, r)
	for _, n := range []int{0, 10, 53, 54, len(b) - 1} {
		got, err := DecodeBMP(bytes.NewReader(b[:n]))
		if got != nil {
			t.Errorf("%d bytes: got a raster", n)
		}
		if err != io.ErrUnexpectedEOF {
			t.Errorf("%d bytes: err = %v, want io.ErrUnexpectedEOF", n, err)
		}
	}
}

func TestDecodeBMPTrustsHeader(t *testing.T) {
	r, _ := NewRaster(2, 1)
	r.SetColor(1, 0, blue)
	b := encode(t, r)
	b[0], b[1] = 'X', 'Y'
	binary.LittleEndian.PutUint16(b[28:30], 8)
	binary.LittleEndian.PutUint32(b[30:34], 1)

	got, err := DecodeBMP(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(r) {
		t.Fatal("pixels differ")
	}
}

func TestDecodeBMPNonPositiveSize(t *testing.T) {
	r, _ := NewRaster(2, 2)
	for _, tc := range []struct {
		name   string
		offset int
		value  int32
	}{
		{"zero width", 18, 0},
		{"zero height", 22, 0},
		{"negative width", 18, -2},
		{"negative height", 22, -2},
	} {
		b := encode(t, r)
		binary.LittleEndian.PutUint32(b[tc.offset:], uint32(tc.value))
		_, err := DecodeBMP(bytes.NewReader(b))
		var fe FormatError
		if !errors.As(err, &fe) {
			t.Errorf("%s: err = %v, want FormatError", tc.name, err)
		}
	}
}

func TestDecodeBMPLimit(t *testing.T) {
	r, _ := NewRaster(10, 10)
	b := encode(t, r)
	if _, err := DecodeBMPLimit(bytes.NewReader(b), 99); err != ErrTooLarge {
		t.Fatalf("limit 99: err = %v", err)
	}
	if _, err := DecodeBMPLimit(bytes.NewReader(b), 100); err != nil {
		t.Fatalf("limit 100: %v", err)
	}
	if _, err := DecodeBMPLimit(bytes.NewReader(b), -1); err != nil {
		t.Fatalf("no limit: %v", err)
	}
}

func TestDecodeBMPHugeHeaderTruncated(t *testing.T) {
	var h [headerLen]byte
	hdr := newHeader(40000, 40000)
	hdr.put(h[:])
	data := append(h[:], make([]byte, 1000)...)
	_, err := DecodeBMPLimit(bytes.NewReader(data), -1)
	if err != io.ErrUnexpectedEOF {
		t.Fatalf("err = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestDecodeBMPHeader(t *testing.T) {
	r, _ := NewRaster(7, 5)
	h, err := DecodeBMPHeader(bytes.NewReader(encode(t, r)))
	if err != nil {
		t.Fatal(err)
	}
	want := newHeader(7, 5)
	if h != want {
		t.Fatalf("header = %+v, want %+v", h, want)
	}
}

func TestEncodeBMPReadableByXImage(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for _, size := range [][2]int{{1, 1}, {5, 3}, {6, 7}, {33, 9}} {
		r := randomRaster(t, rng, size[0], size[1])
		m, err := xbmp.Decode(bytes.NewReader(encode(t, r)))
		if err != nil {
			t.Fatalf("%v: %v", size, err)
		}
		if m.Bounds() != r.Bounds() {
			t.Fatalf("%v: bounds %v", size, m.Bounds())
		}
		for y := 0; y < r.Height; y++ {
			for x := 0; x < r.Width; x++ {
				gr, gg, gb, _ := m.At(x, y).RGBA()
				wr, wg, wb, _ := r.At(x, y).RGBA()
				if gr != wr || gg != wg || gb != wb {
					t.Fatalf("%v: pixel (%d,%d) differs", size, x, y)
				}
			}
		}
	}
}

func TestDecodeBMPFromXImage(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	r := randomRaster(t, rng, 9, 4)
	var buf bytes.Buffer
	if err := xbmp.Encode(&buf, r); err != nil {
		t.Fatal(err)
	}
	got, err := DecodeBMP(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(r) {
		t.Fatal("pixels differ")
	}
}
