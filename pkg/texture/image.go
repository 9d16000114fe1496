// Package texture decodes, resizes and encodes the images referenced by a
// scene's materials, and runs the per-LOD texture resize pipeline.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Texture pipeline errors.
var (
	ErrDecodeFailed = errors.New("texture decode failed")
	ErrResizeFailed = errors.New("texture resize failed")
	ErrEncodeFailed = errors.New("texture encode failed")
	ErrLoadFailed   = errors.New("texture load failed")
)

// jpegQuality is used when re-encoding JPEG output.
const jpegQuality = 85

// Image is a decoded texture: RGBA8 pixels, row-major, 4 bytes per pixel.
type Image struct {
	W, H       int
	Pix        []byte
	FormatHint string // "png", "jpeg" or ""
}

// Decode decodes PNG or JPEG bytes into an RGBA8 image.
func Decode(data []byte) (*Image, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return fromGoImage(src, format), nil
}

// Load reads and decodes an external texture file.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: file not found: %s", ErrLoadFailed, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	img, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, path, err)
	}
	if hint := strings.TrimPrefix(filepath.Ext(path), "."); hint != "" {
		img.FormatHint = normalizeHint(hint)
	}
	return img, nil
}

// Resize scales the image to newW x newH with Catmull-Rom filtering.
func Resize(src *Image, newW, newH int) (*Image, error) {
	if newW <= 0 || newH <= 0 {
		return nil, fmt.Errorf("%w: invalid target %dx%d", ErrResizeFailed, newW, newH)
	}
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src.rgba(), src.rgba().Bounds(), xdraw.Src, nil)
	return &Image{W: newW, H: newH, Pix: dst.Pix, FormatHint: src.FormatHint}, nil
}

// Encode serializes the image as PNG, or JPEG when hint is "jpg"/"jpeg".
func Encode(img *Image, hint string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch normalizeHint(hint) {
	case "jpeg":
		err = jpeg.Encode(&buf, img.rgba(), &jpeg.Options{Quality: jpegQuality})
	default:
		err = png.Encode(&buf, img.rgba())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: hint %q: %v", ErrEncodeFailed, hint, err)
	}
	return buf.Bytes(), nil
}

// MimeType returns the MIME type for a format hint.
func MimeType(hint string) string {
	if normalizeHint(hint) == "jpeg" {
		return "image/jpeg"
	}
	return "image/png"
}

// HintFromMime returns the format hint for a MIME type.
func HintFromMime(mime string) string {
	if mime == "image/jpeg" {
		return "jpeg"
	}
	return "png"
}

func normalizeHint(hint string) string {
	switch strings.ToLower(hint) {
	case "jpg", "jpeg":
		return "jpeg"
	default:
		return "png"
	}
}

// rgba wraps the pixel buffer as a stdlib image without copying.
func (img *Image) rgba() *image.RGBA {
	return &image.RGBA{
		Pix:    img.Pix,
		Stride: img.W * 4,
		Rect:   image.Rect(0, 0, img.W, img.H),
	}
}

func fromGoImage(src image.Image, format string) *Image {
	b := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	return &Image{W: b.Dx(), H: b.Dy(), Pix: rgba.Pix, FormatHint: normalizeHint(format)}
}
