package ports

import (
	"context"

	"github.com/user/framehost/pkg/frame"
)

// SourceInfo describes the stream a FrameSource produces.
type SourceInfo struct {
	Width  int
	Height int

	// Formats lists the pixel formats the source can produce, most
	// preferred first. These are the candidates for negotiation.
	Formats []string

	TimeBase  frame.Rational
	FrameRate frame.Rational
}

// FrameSource produces the frames of one stream.
type FrameSource interface {
	// Info describes the stream before any frame is read.
	Info() SourceInfo

	// Configure selects the negotiated pixel format. It is called once,
	// before the first Next.
	Configure(pixfmt string) error

	// Next returns the next frame, or io.EOF at end of stream.
	Next(ctx context.Context) (*frame.Frame, error)

	// Close releases the source.
	Close() error
}

// Downstream accepts the frames a stage emits. Send may block until the
// receiver has room; it returns early with the context's error when ctx
// is done.
type Downstream interface {
	Send(ctx context.Context, f *frame.Frame) error
}

// FrameSink is a Downstream that owns resources and must be closed after
// the last frame.
type FrameSink interface {
	Downstream
	Close() error
}
