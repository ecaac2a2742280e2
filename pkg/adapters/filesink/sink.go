// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"path/filepath"

	"github.com/user/framehost/pkg/adapters/framecodec"
	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/ports"
)

// Sink saves debug output to files under baseDir/<stream>.
type Sink struct {
	baseDir string
	fs      ports.FileSystem
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem) *Sink {
	return &Sink{
		baseDir: baseDir,
		fs:      fs,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveStageConfig saves the resolved stage configuration as JSON.
func (s *Sink) SaveStageConfig(stream string, data []byte) error {
	path := filepath.Join(s.streamDir(stream), "stage.json")
	return s.fs.WriteFile(path, data)
}

// SaveInputFrame saves a frame handed to the plugin.
func (s *Sink) SaveInputFrame(stream string, index int, f *frame.Frame) error {
	return s.saveFrame(filepath.Join(s.streamDir(stream), "frames", "in"), index, f)
}

// SaveOutputFrame saves a frame the stage forwarded.
func (s *Sink) SaveOutputFrame(stream string, index int, f *frame.Frame) error {
	return s.saveFrame(filepath.Join(s.streamDir(stream), "frames", "out"), index, f)
}

func (s *Sink) saveFrame(dir string, index int, f *frame.Frame) error {
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, ext, err := framecodec.Encode(f)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", index, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%04d%s", index, ext))
	return s.fs.WriteFile(path, data)
}

func (s *Sink) streamDir(stream string) string {
	if stream == "" {
		stream = "default"
	}
	return filepath.Join(s.baseDir, stream)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
