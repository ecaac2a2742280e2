// Package testsrc generates a synthetic moving test pattern.
package testsrc

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/ports"
)

// Formats lists the pixel formats the source can produce, preferred first.
var Formats = []string{"yuv420p", "yuva420p", "rgba", "gray", "yuv422p", "yuv444p"}

// Config controls the generated stream.
type Config struct {
	Width     int
	Height    int
	Frames    int            // number of frames; 0 means DefaultFrames
	FrameRate frame.Rational // zero means 25/1
}

// DefaultFrames is used when Config.Frames is zero.
const DefaultFrames = 50

// Source renders frames with gg: a gradient background, a box that
// sweeps across the frame and the frame number.
type Source struct {
	cfg    Config
	pixfmt string
	next   int
	closed bool
}

// New creates a test source.
func New(cfg Config) (*Source, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Frames <= 0 {
		cfg.Frames = DefaultFrames
	}
	if !cfg.FrameRate.Valid() {
		cfg.FrameRate = frame.Rational{Num: 25, Den: 1}
	}
	return &Source{cfg: cfg}, nil
}

// Info describes the stream.
func (s *Source) Info() ports.SourceInfo {
	return ports.SourceInfo{
		Width:     s.cfg.Width,
		Height:    s.cfg.Height,
		Formats:   Formats,
		TimeBase:  frame.TimeBaseMicros,
		FrameRate: s.cfg.FrameRate,
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
	return fmt.Errorf("testsrc cannot produce %s", pixfmt)
}

// Next renders the next frame.
func (s *Source) Next(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.closed || s.next >= s.cfg.Frames {
		return nil, io.EOF
	}
	if s.pixfmt == "" {
		return nil, fmt.Errorf("testsrc: Configure not called")
	}

	i := s.next
	s.next++
	pts := frame.Rescale(int64(i), frame.Rational{Num: s.cfg.FrameRate.Den, Den: s.cfg.FrameRate.Num}, frame.TimeBaseMicros)
	return frame.FromImage(s.render(i), s.pixfmt, pts)
}

func (s *Source) render(i int) image.Image {
	w, h := float64(s.cfg.Width), float64(s.cfg.Height)
	dc := gg.NewContext(s.cfg.Width, s.cfg.Height)

	grad := gg.NewLinearGradient(0, 0, w, h)
	grad.AddColorStop(0, color.RGBA{R: 32, G: 64, B: uint8(i * 5), A: 255})
	grad.AddColorStop(1, color.RGBA{R: 200, G: uint8(255 - i*3), B: 96, A: 255})
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	box := h / 4
	x := float64(i%s.cfg.Frames) / float64(s.cfg.Frames) * (w - box)
	dc.SetColor(color.White)
	dc.DrawRectangle(x, (h-box)/2, box, box)
	dc.Fill()

	dc.SetColor(color.Black)
	dc.DrawStringAnchored(fmt.Sprintf("%d", i), w/2, h-8, 0.5, 0)
	return dc.Image()
}

// Close stops the source. Next returns io.EOF afterwards.
func (s *Source) Close() error {
	s.closed = true
	return nil
}

var _ ports.FrameSource = (*Source)(nil)
