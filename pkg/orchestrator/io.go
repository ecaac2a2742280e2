package orchestrator

import (
	"errors"
	"fmt"

	"github.com/user/framehost/pkg/adapters/imagesink"
	"github.com/user/framehost/pkg/adapters/imagesource"
	"github.com/user/framehost/pkg/adapters/rawmp4"
	"github.com/user/framehost/pkg/adapters/testsrc"
	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/pipeline"
	"github.com/user/framehost/pkg/ports"
)

var (
	// ErrUnknownSource is returned for an unsupported source type.
	ErrUnknownSource = errors.New("unknown source type")

	// ErrUnknownOutput is returned for an unsupported output type.
	ErrUnknownOutput = errors.New("unknown output type")
)

// Source and output types understood by the built-in openers.
const (
	SourceTestsrc = "testsrc"
	SourceImages  = "images"
	SourceMP4     = "mp4"

	OutputNull   = "null"
	OutputImages = "images"
	OutputMP4    = "mp4"
)

// SourceConfig selects and configures a frame source.
type SourceConfig struct {
	Type      string // testsrc (default), images or mp4
	Path      string // directory for images, file for mp4
	Width     int    // testsrc only
	Height    int    // testsrc only
	Frames    int    // testsrc only
	FrameRate frame.Rational
}

// OutputConfig selects where processed frames go.
type OutputConfig struct {
	Type string // null (default), images or mp4
	Path string
}

// SourceOpener creates the source of a stream.
type SourceOpener func(cfg SourceConfig) (ports.FrameSource, error)

// OutputOpener creates the output of a stream. info describes the frames
// the stage will emit.
type OutputOpener func(cfg OutputConfig, info ports.SourceInfo) (ports.FrameSink, error)

func (o *Orchestrator) defaultSource(cfg SourceConfig) (ports.FrameSource, error) {
	switch cfg.Type {
	case "", SourceTestsrc:
		return testsrc.New(testsrc.Config{
			Width:     cfg.Width,
			Height:    cfg.Height,
			Frames:    cfg.Frames,
			FrameRate: cfg.FrameRate,
		})
	case SourceImages:
		return imagesource.Open(o.fs, cfg.Path, cfg.FrameRate)
	case SourceMP4:
		return rawmp4.Open(o.fs, cfg.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Type)
	}
}

func (o *Orchestrator) defaultOutput(cfg OutputConfig, info ports.SourceInfo) (ports.FrameSink, error) {
	switch cfg.Type {
	case "", OutputNull:
		return pipeline.Discard{}, nil
	case OutputImages:
		return imagesink.New(o.fs, cfg.Path)
	case OutputMP4:
		return rawmp4.NewWriter(o.fs, cfg.Path, rawmp4.Options{FrameRate: info.FrameRate}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOutput, cfg.Type)
	}
}
