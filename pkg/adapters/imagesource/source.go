// Package imagesource reads a directory of still images as a stream.
package imagesource

import (
	"context"
	"fmt"
	"image"
	"io"
	"path/filepath"

	"golang.org/x/image/draw"

	"github.com/user/framehost/pkg/adapters/framecodec"
	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/ports"
)

// Formats lists the pixel formats the source can produce.
var Formats = []string{"rgba", "gray", "yuv420p"}

// Source yields the images of a directory in name order. Every image is
// resized to the size of the first one.
type Source struct {
	fs        ports.FileSystem
	dir       string
	files     []string
	frameRate frame.Rational
	width     int
	height    int
	first     image.Image

	pixfmt string
	next   int
}

// Open lists dir and decodes the first image to learn the stream size.
// A zero frameRate means 25/1.
func Open(fs ports.FileSystem, dir string, frameRate frame.Rational) (*Source, error) {
	names, err := fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var files []string
	for _, name := range names {
		if framecodec.IsImageFile(name) {
			files = append(files, filepath.Join(dir, name))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no images in %s", dir)
	}
	if !frameRate.Valid() {
		frameRate = frame.Rational{Num: 25, Den: 1}
	}

	s := &Source{fs: fs, dir: dir, files: files, frameRate: frameRate}
	first, err := s.load(0)
	if err != nil {
		return nil, err
	}
	b := first.Bounds()
	s.first, s.width, s.height = first, b.Dx(), b.Dy()
	return s, nil
}

// Info describes the stream.
func (s *Source) Info() ports.SourceInfo {
	return ports.SourceInfo{
		Width:     s.width,
		Height:    s.height,
		Formats:   Formats,
		TimeBase:  frame.TimeBaseMicros,
		FrameRate: s.frameRate,
	}
}

// Configure selects the output pixel format.
func (s *Source) Configure(pixfmt string) error {
	for _, f := range Formats {
		if f == pixfmt {
			s.pixfmt = pixfmt
			return nil
		}
	}
	return fmt.Errorf("imagesource cannot produce %s", pixfmt)
}

// Next decodes the next image.
func (s *Source) Next(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.files) {
		return nil, io.EOF
	}
	if s.pixfmt == "" {
		return nil, fmt.Errorf("imagesource: Configure not called")
	}

	i := s.next
	s.next++

	var img image.Image
	if i == 0 && s.first != nil {
		img, s.first = s.first, nil
	} else {
		var err error
		if img, err = s.load(i); err != nil {
			return nil, err
		}
	}
	if b := img.Bounds(); b.Dx() != s.width || b.Dy() != s.height {
		img = resize(img, s.width, s.height)
	}

	pts := frame.Rescale(int64(i), frame.Rational{Num: s.frameRate.Den, Den: s.frameRate.Num}, frame.TimeBaseMicros)
	return frame.FromImage(img, s.pixfmt, pts)
}

func (s *Source) load(i int) (image.Image, error) {
	data, err := s.fs.ReadFile(s.files[i])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.files[i], err)
	}
	img, _, err := framecodec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.files[i], err)
	}
	return img, nil
}

func resize(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// Close releases the cached first image.
func (s *Source) Close() error {
	s.first = nil
	s.next = len(s.files)
	return nil
}

var _ ports.FrameSource = (*Source)(nil)
