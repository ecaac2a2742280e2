package orchestrator

import (
	"sync"
	"time"

	"github.com/user/framehost/pkg/pipeline"
	"github.com/user/framehost/pkg/plugin"
	"github.com/user/framehost/pkg/stage"
)

// StreamStatus is a snapshot of one stream.
type StreamStatus struct {
	ID          string             `json:"id"`
	Plugin      string             `json:"plugin"`
	State       string             `json:"state"`
	InputFormat string             `json:"input_format,omitempty"`
	Config      plugin.StageConfig `json:"config"`
	Stats       stage.Stats        `json:"-"`
	FramesIn    int64              `json:"frames_in"`
	FramesOut   int64              `json:"frames_out"`
	Flushed     int64              `json:"flushed"`
	BytesOut    int64              `json:"bytes_out"`
	Started     bool               `json:"started"`
	Done        bool               `json:"done"`
	Duration    time.Duration      `json:"duration_ns"`
	Error       string             `json:"error,omitempty"`
}

// RunResult contains the results of a run for summary generation.
type RunResult struct {
	RunID    string
	Streams  []StreamStatus
	Duration time.Duration
	Aborted  bool
}

// Failed returns the number of streams that ended with an error.
func (r RunResult) Failed() int {
	n := 0
	for _, s := range r.Streams {
		if s.Error != "" {
			n++
		}
	}
	return n
}

// streamRun tracks one stream while it runs.
type streamRun struct {
	cfg StreamConfig

	mu          sync.Mutex
	stage       *stage.Stage
	counter     *pipeline.Counter
	config      plugin.StageConfig
	inputFormat string
	startedAt   time.Time
	finishedAt  time.Time
	started     bool
	done        bool
	err         error
}

func (r *streamRun) start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
	r.startedAt = time.Now()
}

func (r *streamRun) attach(st *stage.Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stage = st
}

func (r *streamRun) configured(cfg plugin.StageConfig, format string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config = cfg
	r.inputFormat = format
}

func (r *streamRun) output(c *pipeline.Counter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counter = c
}

func (r *streamRun) finish(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = true
	r.finishedAt = time.Now()
	r.err = err
}

func (r *streamRun) error() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *streamRun) status() StreamStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := StreamStatus{
		ID:          r.cfg.ID,
		Plugin:      r.cfg.Plugin.Name,
		State:       "pending",
		InputFormat: r.inputFormat,
		Config:      r.config,
		Started:     r.started,
		Done:        r.done,
	}
	if r.stage != nil {
		s.Stats = r.stage.Stats()
		s.State = s.Stats.State.String()
		s.FramesIn = s.Stats.FramesIn
		s.FramesOut = s.Stats.FramesOut
		s.Flushed = s.Stats.Flushed
	}
	if r.counter != nil {
		_, s.BytesOut = r.counter.Totals()
	}
	switch {
	case r.done && r.started:
		s.Duration = r.finishedAt.Sub(r.startedAt)
	case r.started:
		s.Duration = time.Since(r.startedAt)
	}
	if r.err != nil {
		s.Error = r.err.Error()
	}
	return s
}
