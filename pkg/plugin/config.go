package plugin

import (
	"fmt"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/ports"
)

// MaxFramesOut caps the frames a single process or flush call may return.
const MaxFramesOut = 256

// ProcessMode declares the arity a plugin promises for ProcessFrame.
type ProcessMode int

const (
	// OneToOne returns exactly one frame per input.
	OneToOne ProcessMode = iota
	// OneToMany returns zero or more frames per input.
	OneToMany
	// ManyToOne consumes several inputs per emitted frame.
	ManyToOne
)

// String returns the configuration name of the mode.
func (m ProcessMode) String() string {
	switch m {
	case OneToOne:
		return "one_to_one"
	case OneToMany:
		return "one_to_many"
	case ManyToOne:
		return "many_to_one"
	default:
		return "unknown"
	}
}

// ParseProcessMode parses a mode name. An empty name selects OneToOne.
func ParseProcessMode(s string) (ProcessMode, error) {
	switch s {
	case "", "one_to_one":
		return OneToOne, nil
	case "one_to_many":
		return OneToMany, nil
	case "many_to_one":
		return ManyToOne, nil
	default:
		return OneToOne, fmt.Errorf("unknown process mode %q", s)
	}
}

// StageConfig is the validated configuration of a stage. Geometry is
// fixed for the stage's lifetime.
type StageConfig struct {
	Width       int         `json:"w"`
	Height      int         `json:"h"`
	PixelFormat string      `json:"pixfmt"`
	FrameRatio  float64     `json:"fr_ratio"`
	ProcessMode ProcessMode `json:"-"`
	Mode        string      `json:"process_mode"`
}

// OutputFrameRate scales the input frame rate by the frame ratio.
// The result is informational; the stage never enforces it.
func (c StageConfig) OutputFrameRate(in frame.Rational) frame.Rational {
	return in.Mul(c.FrameRatio)
}

// resolveConfig fills absent keys from the input geometry and validates
// the result.
func resolveConfig(raw ports.PluginConfig, width, height int, pixfmt string) (StageConfig, error) {
	cfg := StageConfig{
		Width:       width,
		Height:      height,
		PixelFormat: pixfmt,
		FrameRatio:  1,
	}

	if raw.Width < 0 || raw.Height < 0 {
		return cfg, fmt.Errorf("%w: w=%d h=%d", ErrInvalidConfig, raw.Width, raw.Height)
	}
	if raw.Width > 0 {
		cfg.Width = raw.Width
	}
	if raw.Height > 0 {
		cfg.Height = raw.Height
	}

	if raw.PixelFormat != "" {
		cfg.PixelFormat = raw.PixelFormat
	}
	info, ok := frame.LookupPixelFormat(cfg.PixelFormat)
	if !ok {
		return cfg, fmt.Errorf("%w: unknown pixfmt %q", ErrInvalidConfig, cfg.PixelFormat)
	}
	if !info.Processable() {
		return cfg, fmt.Errorf("%w: unsupported pixfmt %q", ErrInvalidConfig, cfg.PixelFormat)
	}

	if raw.FrameRatio < 0 {
		return cfg, fmt.Errorf("%w: fr_ratio %v", ErrInvalidConfig, raw.FrameRatio)
	}
	if raw.FrameRatio > 0 {
		cfg.FrameRatio = raw.FrameRatio
	}

	mode, err := ParseProcessMode(raw.ProcessMode)
	if err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.ProcessMode = mode
	cfg.Mode = mode.String()

	return cfg, nil
}
