// Package imgconv converts raster images between BMP, JPEG and PPM files.
//
// The BMP codec is implemented here for uncompressed 24-bit bottom-up
// images; JPEG and PPM use existing Go codecs. Formats are chosen from
// file extensions with Resolve and dispatched to a Handler.
package imgconv

import (
	"bufio"
	"io"
	"path/filepath"
	"strings"
)

// Format identifies one of the image formats the converter knows.
type Format int

const (
	Unknown Format = iota
	JPEG
	PPM
	BMP
)

func (f Format) String() string {
	switch f {
	case JPEG:
		return "jpeg"
	case PPM:
		return "ppm"
	case BMP:
		return "bmp"
	}
	return "unknown"
}

// Resolve maps the extension of path to a Format. The comparison is case
// insensitive. Paths without a known extension resolve to Unknown.
func Resolve(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return JPEG
	case ".ppm":
		return PPM
	case ".bmp":
		return BMP
	}
	return Unknown
}

// A reader is an io.Reader that can also peek ahead.
type reader interface {
	io.Reader
	Peek(int) ([]byte, error)
}

// asReader converts an io.Reader to a reader.
func asReader(r io.Reader) reader {
	if rr, ok := r.(reader); ok {
		return rr
	}
	return bufio.NewReader(r)
}

// match reports whether magic matches b. Magic may contain "?" wildcards.
func match(magic string, b []byte) bool {
	if len(magic) != len(b) {
		return false
	}
	for i, c := range b {
		if magic[i] != c && magic[i] != '?' {
			return false
		}
	}
	return true
}

// Sniff identifies the format of r from its leading bytes. It consumes
// from r unless r implements Peek. Unrecognized content yields Unknown
// and a nil error.
func Sniff(r io.Reader) (Format, error) {
	rr := asReader(r)
	for _, e := range formats {
		for _, magic := range e.magic {
			b, err := rr.Peek(len(magic))
			if err == nil && match(magic, b) {
				return e.format, nil
			}
			if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
				return Unknown, err
			}
		}
	}
	return Unknown, nil
}
