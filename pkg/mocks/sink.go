package mocks

import (
	"sync"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	StageConfigs map[string][]byte
	InputFrames  map[string][]*frame.Frame
	OutputFrames map[string][]*frame.Frame
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:      enabled,
		StageConfigs: make(map[string][]byte),
		InputFrames:  make(map[string][]*frame.Frame),
		OutputFrames: make(map[string][]*frame.Frame),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveStageConfig(stream string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StageConfigs[stream] = data
	return nil
}

func (m *DebugSink) SaveInputFrame(stream string, index int, f *frame.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InputFrames[stream] = append(m.InputFrames[stream], f)
	return nil
}

func (m *DebugSink) SaveOutputFrame(stream string, index int, f *frame.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OutputFrames[stream] = append(m.OutputFrames[stream], f)
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)
