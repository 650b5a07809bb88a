package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodeJPEG(w, h int) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, solid(w, h, color.RGBA{255, 0, 0, 255}), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func encodePNG(w, h int) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, solid(w, h, color.RGBA{0, 0, 255, 255}))
	return buf.Bytes()
}

func TestProcessPhotoFormats(t *testing.T) {
	for name, data := range map[string][]byte{
		"jpeg": encodeJPEG(100, 80),
		"png":  encodePNG(100, 80),
	} {
		t.Run(name, func(t *testing.T) {
			photo, err := ProcessPhoto(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("ProcessPhoto: %v", err)
			}
			if photo.MIME != "image/jpeg" {
				t.Errorf("expected image/jpeg output, got %s", photo.MIME)
			}
			if photo.Width != 100 || photo.Height != 80 {
				t.Errorf("small photo should keep its size, got %dx%d", photo.Width, photo.Height)
			}
		})
	}
}

func TestProcessPhotoDownscalesKeepingAspect(t *testing.T) {
	photo, err := ProcessPhoto(bytes.NewReader(encodeJPEG(2048, 1024)))
	if err != nil {
		t.Fatalf("ProcessPhoto: %v", err)
	}
	if photo.Width != MaxDimension || photo.Height != MaxDimension/2 {
		t.Errorf("expected %dx%d, got %dx%d", MaxDimension, MaxDimension/2, photo.Width, photo.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(photo.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if img.Bounds().Dx() != photo.Width {
		t.Errorf("encoded width %d does not match reported %d", img.Bounds().Dx(), photo.Width)
	}
}

func TestProcessPhotoPortrait(t *testing.T) {
	photo, err := ProcessPhoto(bytes.NewReader(encodePNG(600, 1800)))
	if err != nil {
		t.Fatalf("ProcessPhoto: %v", err)
	}
	if photo.Height != MaxDimension || photo.Width != 341 {
		t.Errorf("expected 341x%d, got %dx%d", MaxDimension, photo.Width, photo.Height)
	}
}

func TestProcessPhotoRejectsOtherFormats(t *testing.T) {
	for name, data := range map[string][]byte{
		"text": []byte("not an image"),
		"gif":  []byte("GIF89a..."),
	} {
		if _, err := ProcessPhoto(bytes.NewReader(data)); !errors.Is(err, ErrUnsupported) {
			t.Errorf("%s: expected ErrUnsupported, got %v", name, err)
		}
	}
}

func TestProcessPhotoRejectsOversizedUpload(t *testing.T) {
	data := make([]byte, MaxUploadBytes+10)
	copy(data, encodeJPEG(10, 10))
	if _, err := ProcessPhoto(bytes.NewReader(data)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}
