// Package mocks provides mock implementations for testing.
package mocks

import (
	"sync"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/ports"
)

// Plugin is a mock implementation of ports.Plugin.
//
// Without hooks it supports Formats, returns Config from Setup, echoes
// each input frame and flushes nothing.
type Plugin struct {
	mu sync.Mutex

	Formats   []string
	Config    ports.PluginConfig
	Processor ports.Processor

	QueryFormatsFunc func() ([]string, error)
	SetupFunc        func(width, height int, pixfmt string, opts ports.Options) (ports.SetupResult, error)
	ProcessFrameFunc func(in *frame.Frame, proc ports.Processor) ([]*frame.Frame, error)
	FlushFramesFunc  func(proc ports.Processor) ([]*frame.Frame, error)

	// Recorded calls for verification
	QueryFormatsCalls int
	SetupCalls        []SetupCall
	ProcessedPTS      []int64
	ProcessorsSeen    []ports.Processor
	FlushCalls        int
}

// SetupCall records a call to Setup.
type SetupCall struct {
	Width       int
	Height      int
	PixelFormat string
	Options     ports.Options
}

func (m *Plugin) QueryFormats() ([]string, error) {
	m.mu.Lock()
	m.QueryFormatsCalls++
	m.mu.Unlock()
	if m.QueryFormatsFunc != nil {
		return m.QueryFormatsFunc()
	}
	return m.Formats, nil
}

func (m *Plugin) Setup(width, height int, pixfmt string, opts ports.Options) (ports.SetupResult, error) {
	m.mu.Lock()
	m.SetupCalls = append(m.SetupCalls, SetupCall{Width: width, Height: height, PixelFormat: pixfmt, Options: opts})
	m.mu.Unlock()
	if m.SetupFunc != nil {
		return m.SetupFunc(width, height, pixfmt, opts)
	}
	return ports.SetupResult{Config: m.Config, Processor: m.Processor}, nil
}

func (m *Plugin) ProcessFrame(in *frame.Frame, proc ports.Processor) ([]*frame.Frame, error) {
	m.mu.Lock()
	m.ProcessedPTS = append(m.ProcessedPTS, in.PTS)
	m.ProcessorsSeen = append(m.ProcessorsSeen, proc)
	m.mu.Unlock()
	if m.ProcessFrameFunc != nil {
		return m.ProcessFrameFunc(in, proc)
	}
	return []*frame.Frame{in}, nil
}

func (m *Plugin) FlushFrames(proc ports.Processor) ([]*frame.Frame, error) {
	m.mu.Lock()
	m.FlushCalls++
	m.mu.Unlock()
	if m.FlushFramesFunc != nil {
		return m.FlushFramesFunc(proc)
	}
	return nil, nil
}

var _ ports.Plugin = (*Plugin)(nil)
