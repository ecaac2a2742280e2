// Package pipeline provides the Downstream building blocks stages forward
// frames into.
package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/ports"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("downstream closed")

// DownstreamFunc is a function adapter for the Downstream interface.
type DownstreamFunc func(ctx context.Context, f *frame.Frame) error

// Send implements ports.Downstream.
func (fn DownstreamFunc) Send(ctx context.Context, f *frame.Frame) error {
	return fn(ctx, f)
}

// Channel is a bounded Downstream. Send blocks while the buffer is full,
// which is how backpressure reaches the stage.
type Channel struct {
	ch     chan *frame.Frame
	done   chan struct{}
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

// NewChannel creates a Channel buffering up to capacity frames.
// A capacity of 0 makes every Send wait for a receiver.
func NewChannel(capacity int) *Channel {
	if capacity < 0 {
		capacity = 0
	}
	return &Channel{
		ch:   make(chan *frame.Frame, capacity),
		done: make(chan struct{}),
	}
}

// Send queues f, blocking until there is room, ctx is done or the
// channel is closed.
func (c *Channel) Send(ctx context.Context, f *frame.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.ch <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

// Frames returns the receive side. It is closed after Close.
func (c *Channel) Frames() <-chan *frame.Frame {
	return c.ch
}

// Len returns the number of buffered frames.
func (c *Channel) Len() int {
	return len(c.ch)
}

// Close stops accepting frames. Blocked senders return ErrClosed; frames
// already buffered can still be received.
func (c *Channel) Close() error {
	c.once.Do(func() {
		close(c.done)
		c.mu.Lock()
		c.closed = true
		close(c.ch)
		c.mu.Unlock()
	})
	return nil
}

// Collector keeps every frame it receives in memory.
type Collector struct {
	mu     sync.Mutex
	frames []*frame.Frame
	closed bool
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Send appends f.
func (c *Collector) Send(ctx context.Context, f *frame.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.frames = append(c.frames, f)
	return nil
}

// Close marks the collector closed.
func (c *Collector) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// Frames returns a copy of the collected frames in arrival order.
func (c *Collector) Frames() []*frame.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*frame.Frame(nil), c.frames...)
}

// Len returns the number of collected frames.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

// Counter wraps a sink and counts frames and payload bytes passing
// through it.
type Counter struct {
	next   ports.FrameSink
	mu     sync.Mutex
	frames int64
	bytes  int64
}

// NewCounter wraps next.
func NewCounter(next ports.FrameSink) *Counter {
	return &Counter{next: next}
}

// Send forwards f and counts it when next accepted it.
func (c *Counter) Send(ctx context.Context, f *frame.Frame) error {
	if err := c.next.Send(ctx, f); err != nil {
		return err
	}
	c.mu.Lock()
	c.frames++
	c.bytes += int64(len(f.Data))
	c.mu.Unlock()
	return nil
}

// Close closes the wrapped sink.
func (c *Counter) Close() error {
	return c.next.Close()
}

// Totals returns the frames and bytes forwarded so far.
func (c *Counter) Totals() (frames, bytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames, c.bytes
}

// Discard is a FrameSink that drops every frame.
type Discard struct{}

// Send drops f.
func (Discard) Send(ctx context.Context, f *frame.Frame) error {
	return ctx.Err()
}

// Close does nothing.
func (Discard) Close() error {
	return nil
}

var (
	_ ports.Downstream = DownstreamFunc(nil)
	_ ports.FrameSink  = Discard{}
	_ ports.FrameSink  = (*Channel)(nil)
	_ ports.FrameSink  = (*Collector)(nil)
	_ ports.FrameSink  = (*Counter)(nil)
)
