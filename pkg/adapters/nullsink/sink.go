// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/ports"
)

// Sink is a no-op implementation of ports.DebugSink.
// It discards all debug output.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

// SaveStageConfig does nothing.
func (s *Sink) SaveStageConfig(stream string, data []byte) error {
	return nil
}

// SaveInputFrame does nothing.
func (s *Sink) SaveInputFrame(stream string, index int, f *frame.Frame) error {
	return nil
}

// SaveOutputFrame does nothing.
func (s *Sink) SaveOutputFrame(stream string, index int, f *frame.Frame) error {
	return nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
