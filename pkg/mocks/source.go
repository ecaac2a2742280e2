package mocks

import (
	"context"
	"io"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/ports"
)

// Source is a mock ports.FrameSource yielding Count frames with PTS
// 0, Step, 2*Step, ... in the configured format.
type Source struct {
	SourceInfo ports.SourceInfo
	Count      int
	Step       int64

	NextFunc func(ctx context.Context) (*frame.Frame, error)

	Configured  string
	Produced    int
	CloseCalled bool
}

func (m *Source) Info() ports.SourceInfo {
	return m.SourceInfo
}

func (m *Source) Configure(pixfmt string) error {
	m.Configured = pixfmt
	return nil
}

func (m *Source) Next(ctx context.Context) (*frame.Frame, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx)
	}
	if m.Produced >= m.Count {
		return nil, io.EOF
	}
	f := frame.New(m.SourceInfo.Width, m.SourceInfo.Height, m.Configured, int64(m.Produced)*m.Step, nil)
	m.Produced++
	return f, nil
}

func (m *Source) Close() error {
	m.CloseCalled = true
	return nil
}

var _ ports.FrameSource = (*Source)(nil)
