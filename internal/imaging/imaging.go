// Package imaging normalizes uploaded resource photos.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

// MaxPhotoBytes caps the size of an uploaded photo.
const MaxPhotoBytes = 5 << 20

const (
	maxEdge     = 1024
	thumbEdge   = 160
	jpegQuality = 85
)

// ErrUnsupported is returned for anything that does not sniff as JPEG or PNG.
var ErrUnsupported = errors.New("unsupported image format")

// Photo is an encoded image ready to store.
type Photo struct {
	Data []byte
	MIME string
}

// NormalizePhoto sniffs the upload, fits it into a 1024px box and re-encodes
// it as JPEG. Client-supplied content types are ignored.
func NormalizePhoto(r io.Reader) (*Photo, error) {
	return encode(r, maxEdge)
}

// Thumbnail produces a small JPEG preview of a stored photo.
func Thumbnail(data []byte) (*Photo, error) {
	return encode(bytes.NewReader(data), thumbEdge)
}

func encode(r io.Reader, edge int) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	if len(data) > MaxPhotoBytes {
		return nil, fmt.Errorf("photo exceeds %d bytes", MaxPhotoBytes)
	}

	switch mime := http.DetectContentType(data); mime {
	case "image/jpeg", "image/png":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, mime)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding photo: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fit(img, edge), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding photo: %w", err)
	}
	return &Photo{Data: buf.Bytes(), MIME: "image/jpeg"}, nil
}

// fit scales img down so its longer side is at most edge, keeping the aspect
// ratio. Smaller images are returned unchanged.
func fit(img image.Image, edge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= edge && h <= edge {
		return img
	}

	nw, nh := edge, edge
	if w > h {
		nh = max(1, h*edge/w)
	} else {
		nw = max(1, w*edge/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
