// Package plugin wraps plugins behind a uniform, fault-isolating adapter
// and keeps the registry of plugins selectable by name.
package plugin

import (
	"fmt"
	"io"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/ports"
)

// Adapter owns one plugin instance for the lifetime of one stream,
// including the processor handle returned by Setup.
//
// Adapter is not safe for concurrent use; the owning stage serialises calls.
type Adapter struct {
	name   string
	plugin ports.Plugin
	logger ports.Logger

	config      StageConfig
	processor   ports.Processor
	initialized bool
	flushed     bool
}

// NewAdapter wraps p. name identifies the plugin in faults and logs.
func NewAdapter(name string, p ports.Plugin, logger ports.Logger) *Adapter {
	return &Adapter{
		name:   name,
		plugin: p,
		logger: logger.WithComponent("plugin").WithField("plugin", name),
	}
}

// Name returns the plugin name.
func (a *Adapter) Name() string {
	return a.name
}

// Config returns the configuration resolved by Initialize.
func (a *Adapter) Config() StageConfig {
	return a.config
}

// Flushed reports whether Flush has been called.
func (a *Adapter) Flushed() bool {
	return a.flushed
}

// QueryFormats asks the plugin for its supported pixel formats.
func (a *Adapter) QueryFormats() ([]string, error) {
	var formats []string
	err := a.call(PhaseQueryFormats, func() error {
		var err error
		formats, err = a.plugin.QueryFormats()
		return err
	})
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Plugin supports formats %v", formats)
	return formats, nil
}

// Initialize runs the plugin's setup for the negotiated geometry and
// stores the processor handle it returns.
func (a *Adapter) Initialize(width, height int, pixfmt string, extra ports.Options) (StageConfig, error) {
	if a.initialized {
		return a.config, ErrAlreadyInitialized
	}
	if extra == nil {
		extra = ports.Options{}
	}

	var result ports.SetupResult
	err := a.call(PhaseSetup, func() error {
		var err error
		result, err = a.plugin.Setup(width, height, pixfmt, extra)
		return err
	})
	if err != nil {
		return StageConfig{}, err
	}

	cfg, err := resolveConfig(result.Config, width, height, pixfmt)
	if err != nil {
		return StageConfig{}, newFault(a.name, PhaseSetup, err)
	}

	a.config = cfg
	a.processor = result.Processor
	a.initialized = true

	a.logger.Debug("Plugin configured: %dx%d %s, mode %s, ratio %.2f",
		cfg.Width, cfg.Height, cfg.PixelFormat, cfg.ProcessMode, cfg.FrameRatio)
	return cfg, nil
}

// Process hands in to the plugin and returns its output in the exact
// order the plugin produced it.
func (a *Adapter) Process(in *frame.Frame) ([]*frame.Frame, error) {
	if !a.initialized {
		return nil, ErrNotInitialized
	}
	if a.flushed {
		return nil, ErrAlreadyFlushed
	}

	var out []*frame.Frame
	err := a.call(PhaseProcess, func() error {
		var err error
		out, err = a.plugin.ProcessFrame(in, a.processor)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := a.checkOutput(PhaseProcess, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Flush drains the plugin. The plugin is called at most once; later
// calls fail with ErrAlreadyFlushed.
func (a *Adapter) Flush() ([]*frame.Frame, error) {
	if !a.initialized {
		return nil, ErrNotInitialized
	}
	if a.flushed {
		return nil, ErrAlreadyFlushed
	}
	a.flushed = true

	var out []*frame.Frame
	err := a.call(PhaseFlush, func() error {
		var err error
		out, err = a.plugin.FlushFrames(a.processor)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := a.checkOutput(PhaseFlush, out); err != nil {
		return nil, err
	}
	a.logger.Debug("Plugin flushed %d frames", len(out))
	return out, nil
}

// Release drops the processor handle and closes plugins that implement
// io.Closer. The adapter cannot process afterwards.
func (a *Adapter) Release() {
	a.processor = nil
	a.flushed = true
	if c, ok := a.plugin.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.logger.Warn("Failed to close plugin: %v", err)
		}
	}
}

// call runs fn and converts errors and panics into a *Fault.
func (a *Adapter) call(phase Phase, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Plugin panicked in %s: %v", phase, r)
			err = newFault(a.name, phase, fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()
	if err := fn(); err != nil {
		return newFault(a.name, phase, err)
	}
	return nil
}

func (a *Adapter) checkOutput(phase Phase, out []*frame.Frame) error {
	if len(out) > MaxFramesOut {
		return newFault(a.name, phase, fmt.Errorf("%w: %d > %d", ErrTooManyFrames, len(out), MaxFramesOut))
	}
	for i, f := range out {
		if f == nil {
			return newFault(a.name, phase, fmt.Errorf("%w: index %d", ErrInvalidFrame, i))
		}
	}
	return nil
}
