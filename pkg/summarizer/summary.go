// Package summarizer provides summary generation for processing runs.
package summarizer

import "time"

// Summary contains all data collected during a run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string

	// Run configuration
	Settings Settings

	// Per-stream results, in configuration order
	Streams []StreamInfo

	// Wall-clock duration of the whole run
	Duration time.Duration

	// Aborted is set when the run was cancelled before all streams ended.
	Aborted bool
}

// Settings contains the run configuration.
type Settings struct {
	Workers     int
	ClonePolicy string
	Debug       bool
}

// StreamInfo contains the outcome of one stream.
type StreamInfo struct {
	ID     string
	Plugin string
	Source string
	Output string

	// Negotiated stage configuration
	PixelFormat string
	InputWidth  int
	InputHeight int
	Width       int
	Height      int
	ProcessMode string
	FrameRatio  float64

	// Counters
	State         string
	FramesIn      int64
	FramesOut     int64
	Flushed       int64
	ArityWarnings int64
	BytesOut      int64

	Duration time.Duration
	Error    string
}

// Failed reports whether the stream ended with an error.
func (s StreamInfo) Failed() bool {
	return s.Error != ""
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Totals sums the counters of every stream.
func (s *Summary) Totals() StreamInfo {
	var t StreamInfo
	for _, st := range s.Streams {
		t.FramesIn += st.FramesIn
		t.FramesOut += st.FramesOut
		t.Flushed += st.Flushed
		t.ArityWarnings += st.ArityWarnings
		t.BytesOut += st.BytesOut
	}
	return t
}

// FailedCount returns the number of streams that ended with an error.
func (s *Summary) FailedCount() int {
	n := 0
	for _, st := range s.Streams {
		if st.Failed() {
			n++
		}
	}
	return n
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithRunID sets the run identifier.
func (b *Builder) WithRunID(id string) *Builder {
	b.summary.RunID = id
	return b
}

// WithSettings sets run settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// AddStream appends a stream result.
func (b *Builder) AddStream(stream StreamInfo) *Builder {
	b.summary.Streams = append(b.summary.Streams, stream)
	return b
}

// WithDuration sets the run duration.
func (b *Builder) WithDuration(d time.Duration) *Builder {
	b.summary.Duration = d
	return b
}

// WithAborted marks the run as cancelled.
func (b *Builder) WithAborted(aborted bool) *Builder {
	b.summary.Aborted = aborted
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
