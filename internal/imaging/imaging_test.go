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

func jpegBytes(w, h int) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, solid(w, h, color.RGBA{200, 30, 30, 255}), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func pngBytes(w, h int) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, solid(w, h, color.RGBA{30, 30, 200, 255}))
	return buf.Bytes()
}

func bounds(t *testing.T, data []byte) image.Rectangle {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	return img.Bounds()
}

func TestNormalizePhotoReencodesAsJPEG(t *testing.T) {
	for name, data := range map[string][]byte{"jpeg": jpegBytes(100, 80), "png": pngBytes(100, 80)} {
		p, err := NormalizePhoto(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if p.MIME != "image/jpeg" {
			t.Errorf("%s: expected image/jpeg, got %s", name, p.MIME)
		}
		if b := bounds(t, p.Data); b.Dx() != 100 || b.Dy() != 80 {
			t.Errorf("%s: small photo should keep its size, got %v", name, b)
		}
	}
}

func TestNormalizePhotoDownscales(t *testing.T) {
	p, err := NormalizePhoto(bytes.NewReader(jpegBytes(2048, 1024)))
	if err != nil {
		t.Fatal(err)
	}
	if b := bounds(t, p.Data); b.Dx() != 1024 || b.Dy() != 512 {
		t.Errorf("expected 1024x512, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestThumbnail(t *testing.T) {
	p, err := Thumbnail(pngBytes(400, 800))
	if err != nil {
		t.Fatal(err)
	}
	if b := bounds(t, p.Data); b.Dy() != thumbEdge || b.Dx() != thumbEdge/2 {
		t.Errorf("unexpected thumbnail size %v", b)
	}
}

func TestNormalizePhotoRejectsOtherFormats(t *testing.T) {
	for _, data := range [][]byte{[]byte("not an image"), []byte("GIF89a......")} {
		_, err := NormalizePhoto(bytes.NewReader(data))
		if !errors.Is(err, ErrUnsupported) {
			t.Errorf("expected ErrUnsupported, got %v", err)
		}
	}
}

func TestNormalizePhotoTooLarge(t *testing.T) {
	data := append(jpegBytes(10, 10), make([]byte, MaxPhotoBytes)...)
	if _, err := NormalizePhoto(bytes.NewReader(data)); err == nil {
		t.Error("expected oversized upload to fail")
	}
}
