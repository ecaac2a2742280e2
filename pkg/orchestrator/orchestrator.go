// Package orchestrator runs streams: each stream pairs a source, one
// plugin stage and an output, and streams run side by side on a bounded
// worker pool.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/metrics"
	"github.com/user/framehost/pkg/pipeline"
	"github.com/user/framehost/pkg/plugin"
	"github.com/user/framehost/pkg/ports"
	"github.com/user/framehost/pkg/stage"
)

var (
	// ErrNoStreams is returned by Run when the config has no streams.
	ErrNoStreams = errors.New("no streams configured")

	// ErrDuplicateStream is returned when two streams share an id.
	ErrDuplicateStream = errors.New("duplicate stream id")
)

// DefaultBuffer is the number of frames queued between a stage and its
// output writer.
const DefaultBuffer = 8

// Config contains all configuration for the orchestrator.
type Config struct {
	Streams     []StreamConfig
	Workers     int // streams run concurrently; zero means runtime.NumCPU()
	ClonePolicy frame.ClonePolicy

	// Buffer bounds the frames queued for each output. When it is full
	// the stage blocks. Zero hands every frame over synchronously.
	Buffer int
}

// StreamConfig describes one stream.
type StreamConfig struct {
	ID     string // a UUID is assigned when empty
	Source SourceConfig
	Plugin PluginRef
	Output OutputConfig

	// Parallel runs this many instances of a one_to_one plugin and keeps
	// output in input order. Values below 2 run one instance.
	Parallel int
}

// PluginRef selects a plugin and its options. Options take precedence
// over keys parsed from Opts.
type PluginRef struct {
	Name    string
	Opts    string // "key=value,key=value"
	Options ports.Options
}

// ResolveOptions merges Opts and Options.
func (r PluginRef) ResolveOptions() (ports.Options, error) {
	opts, err := ports.ParseOptions(r.Opts)
	if err != nil {
		return nil, fmt.Errorf("plugin %s options: %w", r.Name, err)
	}
	return opts.Merge(r.Options), nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Workers:     runtime.NumCPU(),
		ClonePolicy: frame.CloneCopy,
		Buffer:      DefaultBuffer,
	}
}

// Orchestrator coordinates the execution of streams.
type Orchestrator struct {
	registry   *plugin.Registry
	fs         ports.FileSystem
	sink       ports.DebugSink
	logger     ports.Logger
	metrics    *metrics.Metrics
	flusher    *stage.FlushCoordinator
	openSource SourceOpener
	openOutput OutputOpener

	mu    sync.RWMutex
	runID string
	runs  []*streamRun
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRegistry selects the plugin registry. The default is plugin.Default.
func WithRegistry(r *plugin.Registry) Option {
	return func(o *Orchestrator) { o.registry = r }
}

// WithMetrics records stage metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithSourceOpener replaces the built-in source types.
func WithSourceOpener(fn SourceOpener) Option {
	return func(o *Orchestrator) { o.openSource = fn }
}

// WithOutputOpener replaces the built-in output types.
func WithOutputOpener(fn OutputOpener) Option {
	return func(o *Orchestrator) { o.openOutput = fn }
}

// New creates a new Orchestrator. log is required.
func New(fs ports.FileSystem, sink ports.DebugSink, log ports.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: plugin.Default,
		fs:       fs,
		sink:     sink,
		logger:   log.WithComponent("orchestrator"),
	}
	o.openSource = o.defaultSource
	o.openOutput = o.defaultOutput
	for _, opt := range opts {
		opt(o)
	}
	o.flusher = stage.NewFlushCoordinator()
	return o
}

// Run executes every stream and waits for all of them. Streams fail
// independently; the returned error joins the failures, each wrapped
// with its stream id. Cancelling ctx aborts running streams without
// flushing and skips streams not yet started.
func (o *Orchestrator) Run(ctx context.Context, cfg Config) (RunResult, error) {
	runs, err := o.prepare(cfg)
	if err != nil {
		return RunResult{}, err
	}

	runID := uuid.NewString()
	o.mu.Lock()
	o.runID = runID
	o.runs = runs
	o.mu.Unlock()

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(runs) {
		workers = len(runs)
	}

	o.logger.Info("Starting run %s: %d streams, %d workers", runID, len(runs), workers)
	start := time.Now()

	jobs := make(chan *streamRun, len(runs))
	for _, r := range runs {
		jobs <- r
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go o.worker(ctx, &wg, cfg, jobs)
	}
	wg.Wait()

	result := RunResult{
		RunID:    runID,
		Streams:  o.Status(),
		Duration: time.Since(start),
		Aborted:  ctx.Err() != nil,
	}

	var errs []error
	for _, r := range runs {
		if err := r.error(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		o.logger.Warn("Run %s finished with %d failed streams", runID, len(errs))
	} else {
		o.logger.Info("Run %s completed in %d ms", runID, result.Duration.Milliseconds())
	}
	return result, errors.Join(errs...)
}

func (o *Orchestrator) prepare(cfg Config) ([]*streamRun, error) {
	if len(cfg.Streams) == 0 {
		return nil, ErrNoStreams
	}
	seen := make(map[string]bool, len(cfg.Streams))
	runs := make([]*streamRun, 0, len(cfg.Streams))
	for _, sc := range cfg.Streams {
		if sc.ID == "" {
			sc.ID = uuid.NewString()
		}
		if seen[sc.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStream, sc.ID)
		}
		seen[sc.ID] = true
		runs = append(runs, &streamRun{cfg: sc})
	}
	return runs, nil
}

// worker runs streams from jobs until the channel is drained.
func (o *Orchestrator) worker(ctx context.Context, wg *sync.WaitGroup, cfg Config, jobs <-chan *streamRun) {
	defer wg.Done()

	for r := range jobs {
		if err := ctx.Err(); err != nil {
			r.finish(fmt.Errorf("stream %s: %w: %v", r.cfg.ID, stage.ErrAborted, err))
			continue
		}
		r.start()
		err := o.runStream(ctx, r, cfg.ClonePolicy, cfg.Buffer)
		if err != nil {
			err = fmt.Errorf("stream %s: %w", r.cfg.ID, err)
			o.logger.Error("Stream %s failed: %v", r.cfg.ID, err)
		}
		r.finish(err)
	}
}

// runStream opens the source, the stage and the output, then pumps
// frames until end of stream. Stage output reaches the output through a
// bounded hand-off drained by a writer goroutine.
func (o *Orchestrator) runStream(ctx context.Context, r *streamRun, policy frame.ClonePolicy, buffer int) (err error) {
	sc := r.cfg
	log := o.logger.WithField("stream", sc.ID)

	p, err := o.newPlugin(sc)
	if err != nil {
		return err
	}
	opts, err := sc.Plugin.ResolveOptions()
	if err != nil {
		return err
	}

	src, err := o.openSource(sc.Source)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			log.Warn("Failed to close source: %v", cerr)
		}
	}()
	info := src.Info()

	// The hand-off exists before the stage so nothing is forwarded
	// before the output is open.
	handoff := pipeline.NewChannel(buffer)
	st := stage.New(p, handoff, stage.Options{
		Name:        sc.Plugin.Name,
		Stream:      sc.ID,
		Logger:      o.logger,
		Debug:       o.sink,
		Metrics:     o.metrics,
		ClonePolicy: policy,
		Flusher:     o.flusher,
	})
	r.attach(st)

	stop := context.AfterFunc(ctx, func() {
		st.Abort(fmt.Errorf("%w: %v", stage.ErrAborted, context.Cause(ctx)))
	})
	defer stop()

	cfg, err := st.Open(ctx, stage.StreamInfo{
		Width:   info.Width,
		Height:  info.Height,
		Formats: info.Formats,
		Options: opts,
	})
	if err != nil {
		return err
	}
	format := st.InputFormat()
	r.configured(cfg, format)

	if err := src.Configure(format); err != nil {
		st.Abort(err)
		return fmt.Errorf("configure source: %w", err)
	}

	sink, err := o.openOutput(sc.Output, ports.SourceInfo{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Formats:   []string{cfg.PixelFormat},
		TimeBase:  frame.TimeBaseMicros,
		FrameRate: cfg.OutputFrameRate(info.FrameRate),
	})
	if err != nil {
		st.Abort(err)
		return fmt.Errorf("open output: %w", err)
	}
	out := pipeline.NewCounter(sink)
	r.output(out)

	written := make(chan error, 1)
	go func() {
		written <- o.writeOutput(ctx, st, handoff, out)
	}()
	defer func() {
		_ = handoff.Close()
		if werr := <-written; werr != nil && ctx.Err() == nil {
			err = werr
		}
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()

	log.Info("Stream %s: %s %dx%d %s -> %dx%d %s", sc.ID, sc.Plugin.Name,
		info.Width, info.Height, format, cfg.Width, cfg.Height, cfg.PixelFormat)

	for {
		f, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			st.Abort(err)
			return fmt.Errorf("read source: %w", err)
		}
		if f.TimeBase != frame.TimeBaseMicros {
			f.PTS = frame.Rescale(f.PTS, f.TimeBase, frame.TimeBaseMicros)
			f.DTS = frame.Rescale(f.DTS, f.TimeBase, frame.TimeBaseMicros)
			f.TimeBase = frame.TimeBaseMicros
		}
		if err := st.Process(ctx, f); err != nil {
			return err
		}
	}

	if _, err := st.EndOfStream(ctx); err != nil {
		return fmt.Errorf("end of stream: %w", err)
	}
	return nil
}

// writeOutput drains handoff into out. After the first write failure it
// aborts the stage and discards the rest so the stage never blocks.
func (o *Orchestrator) writeOutput(ctx context.Context, st *stage.Stage, handoff *pipeline.Channel, out ports.FrameSink) error {
	var failed error
	for f := range handoff.Frames() {
		if failed != nil {
			continue
		}
		if err := out.Send(ctx, f); err != nil {
			failed = fmt.Errorf("write output: %w", err)
			st.Abort(failed)
		}
	}
	return failed
}

// newPlugin creates the stream's plugin, spread over several instances
// when the stream asks for it.
func (o *Orchestrator) newPlugin(sc StreamConfig) (ports.Plugin, error) {
	factory, err := o.registry.Factory(sc.Plugin.Name)
	if err != nil {
		return nil, err
	}
	if sc.Parallel < 2 {
		return factory(), nil
	}
	par := plugin.NewParallel(factory, sc.Parallel)
	o.logger.Debug("Stream %s runs %d instances of %s", sc.ID, par.Size(), sc.Plugin.Name)
	return par, nil
}

// Status returns a snapshot of the streams of the current or last run,
// in configuration order.
func (o *Orchestrator) Status() []StreamStatus {
	o.mu.RLock()
	runs := o.runs
	o.mu.RUnlock()

	out := make([]StreamStatus, 0, len(runs))
	for _, r := range runs {
		out = append(out, r.status())
	}
	return out
}

// RunID returns the id of the current or last run.
func (o *Orchestrator) RunID() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.runID
}
