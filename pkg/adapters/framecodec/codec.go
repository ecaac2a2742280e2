// Package framecodec converts frames to and from still-image files.
package framecodec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/user/framehost/pkg/frame"
)

// Extension values returned by Encode.
const (
	ExtPNG = ".png"
	ExtRaw = ".raw"
)

// Encode serializes f as PNG when its pixel format has an image
// representation and as raw packed planes otherwise.
func Encode(f *frame.Frame) ([]byte, string, error) {
	img, err := frame.ToImage(f)
	if errors.Is(err, frame.ErrUnsupportedFormat) {
		return f.Data, ExtRaw, nil
	}
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("encode PNG: %w", err)
	}
	return buf.Bytes(), ExtPNG, nil
}

// EncodeJPEG serializes f as JPEG at the given quality.
func EncodeJPEG(f *frame.Frame, quality int) ([]byte, error) {
	img, err := frame.ToImage(f)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode decodes PNG, JPEG, BMP or WebP data.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// IsImageFile reports whether name has an extension Decode understands.
func IsImageFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".bmp", ".webp"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
