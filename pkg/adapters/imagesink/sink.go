// Package imagesink writes every frame it receives to its own file.
package imagesink

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/user/framehost/pkg/adapters/framecodec"
	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/ports"
)

// Sink writes frame-NNNNNN.png (or .raw for formats without an image
// form) into a directory, numbered in arrival order.
type Sink struct {
	fs  ports.FileSystem
	dir string

	mu     sync.Mutex
	count  int
	closed bool
}

// New creates the directory and returns a sink writing into it.
func New(fs ports.FileSystem, dir string) (*Sink, error) {
	if err := fs.MkdirAll(dir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Sink{fs: fs, dir: dir}, nil
}

// Send encodes and writes f.
func (s *Sink) Send(ctx context.Context, f *frame.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("image sink closed")
	}

	data, ext, err := framecodec.Encode(f)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", s.count, err)
	}
	path := filepath.Join(s.dir, fmt.Sprintf("frame-%06d%s", s.count, ext))
	if err := s.fs.WriteFile(path, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	s.count++
	return nil
}

// Count returns the number of frames written.
func (s *Sink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Close stops accepting frames.
func (s *Sink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

var _ ports.FrameSink = (*Sink)(nil)
