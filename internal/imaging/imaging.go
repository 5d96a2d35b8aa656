// Package imaging normalizes product photos before they are stored.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"

	"github.com/itec-nfc/inventario/internal/model"
)

// MIME is the type of every processed photo.
const MIME = "image/jpeg"

// Options control photo processing.
type Options struct {
	MaxDimension int   // longest side after downscaling
	Quality      int   // JPEG quality
	MaxBytes     int64 // upload size limit
}

// DefaultOptions fit product photos shown in listings and detail pages.
var DefaultOptions = Options{
	MaxDimension: 1024,
	Quality:      85,
	MaxBytes:     4 << 20,
}

var accepted = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Photo is a processed product photo.
type Photo struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Process sniffs the upload, rejects anything but JPEG and PNG, downscales
// it to fit opts.MaxDimension and re-encodes it as JPEG. Rejected uploads
// wrap model.ErrInvalidArgument.
func Process(r io.Reader, opts Options) (*Photo, error) {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultOptions.MaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, opts.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	if int64(len(data)) > opts.MaxBytes {
		return nil, fmt.Errorf("%w: photo larger than %d bytes", model.ErrInvalidArgument, opts.MaxBytes)
	}

	// Client headers are not trusted.
	if mime := http.DetectContentType(data); !accepted[mime] {
		return nil, fmt.Errorf("%w: unsupported photo format %s", model.ErrInvalidArgument, mime)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding photo: %v", model.ErrInvalidArgument, err)
	}

	return encode(fit(img, opts.MaxDimension), opts.Quality)
}

// Thumbnail crops the center square of a stored photo and scales it to
// size x size.
func Thumbnail(data []byte, size int) (*Photo, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding photo: %w", err)
	}

	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	src := image.Rect(x0, y0, x0+side, y0+side)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	return encode(dst, DefaultOptions.Quality)
}

func encode(img image.Image, quality int) (*Photo, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultOptions.Quality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding photo: %w", err)
	}
	b := img.Bounds()
	return &Photo{Data: buf.Bytes(), MIME: MIME, Width: b.Dx(), Height: b.Dy()}, nil
}

// fit scales img down, keeping its aspect ratio, so that neither side
// exceeds maxDim. Smaller images are returned unchanged.
func fit(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}

	nw, nh := maxDim, maxDim
	if w > h {
		nh = max(1, h*maxDim/w)
	} else {
		nw = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
