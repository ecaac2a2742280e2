// Package rawmp4 stores frames verbatim as samples of a fragmented MP4
// and reads them back. Payloads are never encoded; the file is a capture
// format for replaying a stream through a plugin, not a playable video.
package rawmp4

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/ports"
)

// Timescale is the track timescale: timestamps are stored in microseconds.
const Timescale = 1000000

// DefaultFragmentFrames is the number of samples per moof/mdat pair.
const DefaultFragmentFrames = 30

// handlerPrefix tags the hdlr name so the reader can recover the pixel format.
const handlerPrefix = "framehost raw "

var (
	// ErrNonMonotonicPTS is returned when a frame's pts is before the previous one.
	ErrNonMonotonicPTS = errors.New("pts goes backwards")

	// ErrNegativePTS is returned for frames with pts below zero.
	ErrNegativePTS = errors.New("negative pts")

	// ErrGeometryChanged is returned when a frame differs in size or format
	// from the first frame.
	ErrGeometryChanged = errors.New("frame geometry changed")

	// ErrClosed is returned by Send after Close.
	ErrClosed = errors.New("raw mp4 writer closed")

	// ErrDurationOverflow is returned when the gap between two frames does
	// not fit a 32-bit sample duration.
	ErrDurationOverflow = errors.New("sample duration overflows")
)

// Options configures a Writer.
type Options struct {
	FrameRate      frame.Rational // used for the last sample's duration; zero means 25/1
	FragmentFrames int            // zero means DefaultFragmentFrames
}

// Writer is a FrameSink that streams frames into a fragmented MP4. The
// init segment is written with the first frame and each fragment once it
// is full. The file appears at its path on Close.
type Writer struct {
	fs   ports.FileSystem
	path string
	opts Options

	mu      sync.Mutex
	file    io.WriteCloser
	header  bool
	width   int
	height  int
	pixfmt  string
	frag    *mp4.Fragment
	inFrag  int
	seq     uint32
	pending *frame.Frame
	lastDur uint32
	samples int
	failed  error // first encode or file error; later sends return it
	closed  bool
}

// NewWriter creates a writer that saves to path through fs.
func NewWriter(fs ports.FileSystem, path string, opts Options) *Writer {
	if !opts.FrameRate.Valid() {
		opts.FrameRate = frame.Rational{Num: 25, Den: 1}
	}
	if opts.FragmentFrames <= 0 {
		opts.FragmentFrames = DefaultFragmentFrames
	}
	return &Writer{fs: fs, path: path, opts: opts}
}

// Send adds f. Its duration is known once the next frame arrives.
func (w *Writer) Send(ctx context.Context, f *frame.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if w.failed != nil {
		return w.failed
	}

	pts := frame.Rescale(f.PTS, f.TimeBase, frame.TimeBaseMicros)
	if pts < 0 {
		return fmt.Errorf("%w: %d", ErrNegativePTS, f.PTS)
	}
	if !w.header {
		if err := w.writeHeader(f); err != nil {
			w.failed = err
			return err
		}
	} else if f.Width != w.width || f.Height != w.height || f.PixelFormat != w.pixfmt {
		return fmt.Errorf("%w: %dx%d %s, stream is %dx%d %s", ErrGeometryChanged,
			f.Width, f.Height, f.PixelFormat, w.width, w.height, w.pixfmt)
	}

	if w.pending != nil {
		prev := frame.Rescale(w.pending.PTS, w.pending.TimeBase, frame.TimeBaseMicros)
		if pts < prev {
			return fmt.Errorf("%w: %d after %d", ErrNonMonotonicPTS, pts, prev)
		}
		if pts-prev > math.MaxUint32 {
			return fmt.Errorf("%w: %d us after %d", ErrDurationOverflow, pts-prev, prev)
		}
		if err := w.addSample(w.pending, prev, uint32(pts-prev)); err != nil {
			w.failed = err
			return err
		}
	}
	w.pending = f
	return nil
}

func (w *Writer) writeHeader(f *frame.Frame) error {
	file, err := w.fs.Create(w.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", w.path, err)
	}
	w.file = file
	w.width, w.height, w.pixfmt = f.Width, f.Height, f.PixelFormat

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(Timescale, "video", "und")
	trak := init.Moov.Trak
	trak.Tkhd.Width = mp4.Fixed32(f.Width << 16)
	trak.Tkhd.Height = mp4.Fixed32(f.Height << 16)
	trak.Mdia.Hdlr.Name = handlerPrefix + f.PixelFormat

	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso6", "mp41"})
	if err := ftyp.Encode(w.file); err != nil {
		return fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(w.file); err != nil {
		return fmt.Errorf("encode moov: %w", err)
	}
	w.header = true
	return nil
}

func (w *Writer) addSample(f *frame.Frame, pts int64, dur uint32) error {
	if w.frag == nil {
		w.seq++
		frag, err := mp4.CreateFragment(w.seq, 1)
		if err != nil {
			return fmt.Errorf("create fragment: %w", err)
		}
		w.frag = frag
	}
	w.frag.AddFullSample(mp4.FullSample{
		Sample: mp4.Sample{
			Flags: mp4.SyncSampleFlags,
			Size:  uint32(len(f.Data)),
			Dur:   dur,
		},
		DecodeTime: uint64(pts),
		Data:       f.Data,
	})
	w.lastDur = dur
	w.inFrag++
	w.samples++
	if w.inFrag >= w.opts.FragmentFrames {
		return w.flushFragment()
	}
	return nil
}

func (w *Writer) flushFragment() error {
	if w.frag == nil {
		return nil
	}
	if err := w.frag.Encode(w.file); err != nil {
		return fmt.Errorf("encode fragment: %w", err)
	}
	w.frag = nil
	w.inFrag = 0
	return nil
}

// Samples returns the number of samples written so far, excluding the
// frame still waiting for its duration.
func (w *Writer) Samples() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.samples
}

// Close writes the last frame and closes the file. A writer that never
// received a frame creates nothing.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.file == nil {
		return nil
	}
	if err := w.finish(); err != nil {
		w.file.Close()
		return err
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	return nil
}

func (w *Writer) finish() error {
	if !w.header {
		return nil
	}
	if w.pending != nil {
		dur := w.lastDur
		if dur == 0 {
			dur = uint32(frame.Rescale(1, frame.Rational{Num: w.opts.FrameRate.Den, Den: w.opts.FrameRate.Num}, frame.TimeBaseMicros))
		}
		pts := frame.Rescale(w.pending.PTS, w.pending.TimeBase, frame.TimeBaseMicros)
		if err := w.addSample(w.pending, pts, dur); err != nil {
			return err
		}
		w.pending = nil
	}
	return w.flushFragment()
}

// pixelFormatFromHandler recovers the pixel format from a hdlr name.
func pixelFormatFromHandler(name string) (string, bool) {
	name = strings.TrimRight(name, "\x00")
	if !strings.HasPrefix(name, handlerPrefix) {
		return "", false
	}
	return strings.TrimPrefix(name, handlerPrefix), true
}

var _ ports.FrameSink = (*Writer)(nil)
