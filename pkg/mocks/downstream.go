package mocks

import (
	"context"
	"sync"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/ports"
)

// Downstream is a mock ports.FrameSink that records forwarded frames.
type Downstream struct {
	mu sync.Mutex

	SendFunc  func(ctx context.Context, f *frame.Frame) error
	CloseFunc func() error

	Frames      []*frame.Frame
	CloseCalled bool
}

func (m *Downstream) Send(ctx context.Context, f *frame.Frame) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, f); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames = append(m.Frames, f)
	return nil
}

func (m *Downstream) Close() error {
	m.mu.Lock()
	m.CloseCalled = true
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// PTS returns the timestamps of the recorded frames in arrival order.
func (m *Downstream) PTS() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	pts := make([]int64, len(m.Frames))
	for i, f := range m.Frames {
		pts[i] = f.PTS
	}
	return pts
}

var _ ports.FrameSink = (*Downstream)(nil)
