// Package imaging normalizes uploaded vehicle photos.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

// Limits applied to uploads.
const (
	// MaxUploadBytes caps the size of an uploaded file.
	MaxUploadBytes = 8 << 20
	// MaxPixels caps the decoded size, checked before decoding.
	MaxPixels = 40_000_000
	// MaxDimension is the longest side of a stored photo.
	MaxDimension = 1024
	// JPEGQuality is the compression quality of stored photos.
	JPEGQuality = 85
)

// Upload errors. Both describe a bad request, not a server failure.
var (
	ErrUnsupported = errors.New("unsupported image format (only JPEG and PNG accepted)")
	ErrTooLarge    = errors.New("image too large")
)

var acceptedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Photo is a normalized vehicle photo, always JPEG.
type Photo struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// ProcessPhoto reads an upload, checks its format by sniffing the bytes,
// shrinks it to fit MaxDimension and re-encodes it as JPEG.
func ProcessPhoto(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}

	// Client-supplied content types are ignored.
	if !acceptedMIME[http.DetectContentType(data)] {
		return nil, ErrUnsupported
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if cfg.Width*cfg.Height > MaxPixels {
		return nil, ErrTooLarge
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	img = fit(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	b := img.Bounds()
	return &Photo{Data: buf.Bytes(), MIME: "image/jpeg", Width: b.Dx(), Height: b.Dy()}, nil
}

// fit scales img down with Catmull-Rom so its longest side is at most
// maxSide, keeping the aspect ratio. Smaller images are returned as is.
func fit(img image.Image, maxSide int) image.Image {
	src := img.Bounds()
	w, h := src.Dx(), src.Dy()
	if w <= maxSide && h <= maxSide {
		return img
	}

	if w >= h {
		h = max(1, h*maxSide/w)
		w = maxSide
	} else {
		w = max(1, w*maxSide/h)
		h = maxSide
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	return dst
}
