// Package stage runs one plugin instance bound to one stream: it
// negotiates the format, drives the per-frame call cycle and forwards
// output downstream in emission order.
package stage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/metrics"
	"github.com/user/framehost/pkg/negotiate"
	"github.com/user/framehost/pkg/plugin"
	"github.com/user/framehost/pkg/ports"
)

// Options configures a Stage. Logger is required; the other zero values
// are usable.
type Options struct {
	Name        string // plugin name used in logs and metrics
	Stream      string // stream id
	Logger      ports.Logger
	Debug       ports.DebugSink
	Metrics     *metrics.Metrics
	ClonePolicy frame.ClonePolicy

	// Flusher drains the stage at end of stream. Defaults to a private
	// coordinator.
	Flusher *FlushCoordinator
}

// StreamInfo describes the stream at open time.
type StreamInfo struct {
	Width   int
	Height  int
	Formats []string // candidate pixel formats, most preferred first
	Options ports.Options
}

// Stats is a snapshot of a stage's counters.
type Stats struct {
	State         State
	FramesIn      int64
	FramesOut     int64
	Flushed       int64
	ArityWarnings int64
	Reordered     int64
}

// Stage owns one plugin adapter for the lifetime of one stream.
//
// Process, EndOfStream and Open are serialised; the plugin never sees
// concurrent calls. Abort and Stats may be called from any goroutine.
type Stage struct {
	mu sync.Mutex

	name        string
	stream      string
	adapter     *plugin.Adapter
	down        ports.Downstream
	negotiator  *negotiate.Negotiator
	flusher     *FlushCoordinator
	logger      ports.Logger
	debug       ports.DebugSink
	metrics     *metrics.Metrics
	clonePolicy frame.ClonePolicy

	config  plugin.StageConfig
	format  string
	lastPTS int64
	sawPTS  bool
	opened  bool

	lifetime context.Context
	cancel   context.CancelCauseFunc

	state         atomic.Int32
	framesIn      atomic.Int64
	framesOut     atomic.Int64
	flushed       atomic.Int64
	arityWarnings atomic.Int64
	reordered     atomic.Int64
}

// New creates a stage for p forwarding to down.
func New(p ports.Plugin, down ports.Downstream, opts Options) *Stage {
	log := opts.Logger
	if opts.Name == "" {
		opts.Name = "plugin"
	}
	if opts.Stream != "" {
		log = log.WithField("stream", opts.Stream)
	}
	flusher := opts.Flusher
	if flusher == nil {
		flusher = NewFlushCoordinator()
	}

	lifetime, cancel := context.WithCancelCause(context.Background())
	return &Stage{
		name:        opts.Name,
		stream:      opts.Stream,
		adapter:     plugin.NewAdapter(opts.Name, p, log),
		down:        down,
		negotiator:  negotiate.New(log),
		flusher:     flusher,
		logger:      log.WithComponent("stage"),
		debug:       opts.Debug,
		metrics:     opts.Metrics,
		clonePolicy: opts.ClonePolicy,
		lifetime:    lifetime,
		cancel:      cancel,
	}
}

// State returns the current state.
func (s *Stage) State() State {
	return State(s.state.Load())
}

// Config returns the configuration resolved by Open.
func (s *Stage) Config() plugin.StageConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// InputFormat returns the pixel format negotiated for frames handed to
// the plugin. It is empty before Open succeeds.
func (s *Stage) InputFormat() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format
}

// Stats returns a snapshot of the stage's counters.
func (s *Stage) Stats() Stats {
	return Stats{
		State:         s.State(),
		FramesIn:      s.framesIn.Load(),
		FramesOut:     s.framesOut.Load(),
		Flushed:       s.flushed.Load(),
		ArityWarnings: s.arityWarnings.Load(),
		Reordered:     s.reordered.Load(),
	}
}

func (s *Stage) setState(st State) {
	prev := State(s.state.Swap(int32(st)))
	if prev != st {
		s.logger.Debug("Stage state %s -> %s", prev, st)
	}
}

// Open negotiates a pixel format against info.Formats and initializes the
// plugin. Any failure closes the stage.
func (s *Stage) Open(ctx context.Context, info StreamInfo) (plugin.StageConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.State(); st != Uninitialized {
		return plugin.StageConfig{}, fmt.Errorf("%w: open in state %s", ErrInvalidTransition, st)
	}
	if err := ctx.Err(); err != nil {
		s.closeLocked("abort")
		return plugin.StageConfig{}, err
	}

	s.setState(Negotiating)
	format, err := s.negotiator.Negotiate(info.Formats, s.adapter)
	if err != nil {
		s.recordFault(err)
		s.logger.Error("Negotiation failed: %v", err)
		s.closeLocked("fault")
		return plugin.StageConfig{}, fmt.Errorf("negotiate: %w", err)
	}

	cfg, err := s.adapter.Initialize(info.Width, info.Height, format, info.Options)
	if err != nil {
		s.recordFault(err)
		s.logger.Error("Plugin setup failed: %v", err)
		s.closeLocked("fault")
		return plugin.StageConfig{}, fmt.Errorf("initialize: %w", err)
	}

	s.config = cfg
	s.format = format
	s.opened = true
	s.setState(Ready)
	s.metrics.RecordStageOpen(s.name)

	if s.debug != nil && s.debug.Enabled() {
		if data, err := json.MarshalIndent(cfg, "", "  "); err == nil {
			if err := s.debug.SaveStageConfig(s.stream, data); err != nil {
				s.logger.Warn("Failed to save debug output: %v", err)
			}
		}
	}

	s.logger.Info("Stage ready: %dx%d %s, %s", cfg.Width, cfg.Height, cfg.PixelFormat, cfg.ProcessMode)
	return cfg, nil
}

// Process hands f to the plugin and forwards every returned frame
// downstream before returning. Forwarding blocks while downstream is
// full. A plugin fault or a failed forward closes the stage.
func (s *Stage) Process(ctx context.Context, f *frame.Frame) error {
	if f == nil {
		return ErrNilFrame
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch st := s.State(); st {
	case Ready:
		s.setState(Processing)
	case Processing:
	case Closed:
		return ErrStageClosed
	default:
		return fmt.Errorf("%w: process in state %s", ErrInvalidTransition, st)
	}
	if err := s.abortedErr(); err != nil {
		s.closeLocked("abort")
		return err
	}

	index := int(s.framesIn.Add(1)) - 1
	f.Policy = s.clonePolicy
	pts := f.PTS
	if s.debugEnabled() {
		if err := s.debug.SaveInputFrame(s.stream, index, f); err != nil {
			s.logger.Warn("Failed to save debug output: %v", err)
		}
	}

	start := time.Now()
	out, err := s.adapter.Process(f)
	s.metrics.RecordProcess(s.name, time.Since(start))
	if err != nil {
		s.recordFault(err)
		s.logger.Error("Plugin fault, closing stream: %v", err)
		s.closeLocked("fault")
		return err
	}

	if s.config.ProcessMode == plugin.OneToOne && len(out) != 1 {
		w := &ArityWarning{Plugin: s.name, Mode: s.config.ProcessMode, PTS: pts, Got: len(out)}
		s.arityWarnings.Add(1)
		s.metrics.RecordArityWarning(s.name)
		s.logger.Warn("Arity violation: %v", w)
	}

	return s.forwardLocked(ctx, out)
}

// EndOfStream drains the plugin through the flush coordinator. Only the
// first call flushes; later calls return nothing.
func (s *Stage) EndOfStream(ctx context.Context) ([]*frame.Frame, error) {
	return s.flusher.Drain(ctx, s)
}

// Abort closes the stage without flushing. Frames still buffered inside
// the plugin are lost. A forward blocked on backpressure returns
// ErrAborted. Abort on a closed stage does nothing.
func (s *Stage) Abort(reason error) {
	if reason == nil {
		reason = ErrAborted
	}
	s.cancel(reason)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() == Closed {
		return
	}
	s.logger.Warn("Stage aborted in state %s: %v", s.State(), reason)
	s.closeLocked("abort")
}

// forwardLocked sends frames downstream in order. Timestamps going
// backwards are counted but never reordered.
func (s *Stage) forwardLocked(ctx context.Context, frames []*frame.Frame) error {
	if len(frames) == 0 {
		return nil
	}
	ctx, stop := s.bind(ctx)
	defer stop()

	sent := 0
	defer func() { s.metrics.RecordForward(s.name, sent) }()

	for _, f := range frames {
		if s.sawPTS && f.PTS < s.lastPTS {
			s.reordered.Add(1)
			s.logger.Debug("Output pts %d is before previous %d", f.PTS, s.lastPTS)
		}
		s.lastPTS, s.sawPTS = f.PTS, true

		if err := s.down.Send(ctx, f); err != nil {
			if aerr := s.abortedErr(); aerr != nil {
				err = aerr
			} else if ctx.Err() != nil {
				err = fmt.Errorf("%w: %v", ErrAborted, err)
			} else {
				err = fmt.Errorf("forward: %w", err)
			}
			s.logger.Warn("Forwarding stopped, closing stream: %v", err)
			s.closeLocked("abort")
			return err
		}
		sent++

		index := int(s.framesOut.Add(1)) - 1
		if s.debugEnabled() {
			if err := s.debug.SaveOutputFrame(s.stream, index, f); err != nil {
				s.logger.Warn("Failed to save debug output: %v", err)
			}
		}
	}
	return nil
}

// bind returns a context that is done when ctx is done or the stage is
// aborted.
func (s *Stage) bind(ctx context.Context) (context.Context, func()) {
	merged, cancel := context.WithCancelCause(ctx)
	stop := context.AfterFunc(s.lifetime, func() {
		cancel(context.Cause(s.lifetime))
	})
	return merged, func() {
		stop()
		cancel(nil)
	}
}

func (s *Stage) abortedErr() error {
	if s.lifetime.Err() == nil {
		return nil
	}
	cause := context.Cause(s.lifetime)
	if errors.Is(cause, ErrAborted) {
		return cause
	}
	return fmt.Errorf("%w: %v", ErrAborted, cause)
}

// closeLocked moves the stage to Closed and releases the processor.
func (s *Stage) closeLocked(reason string) {
	if s.State() == Closed {
		return
	}
	s.adapter.Release()
	s.setState(Closed)
	s.metrics.RecordStageClose(s.name, reason, s.opened)
	s.logger.Info("Stage closed (%s): %d frames in, %d frames out", reason, s.framesIn.Load(), s.framesOut.Load())
}

func (s *Stage) recordFault(err error) {
	var fault *plugin.Fault
	if errors.As(err, &fault) {
		s.metrics.RecordFault(s.name, string(fault.Phase))
	}
}

func (s *Stage) debugEnabled() bool {
	return s.debug != nil && s.debug.Enabled()
}
