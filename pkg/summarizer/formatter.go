package summarizer

import (
	"encoding/json"
	"time"
)

// Formatter converts a Summary to the text written to disk.
type Formatter interface {
	Format(summary *Summary) string
}

// FormatFunc is a function adapter for the Formatter interface.
type FormatFunc func(summary *Summary) string

// Format implements the Formatter interface.
func (f FormatFunc) Format(summary *Summary) string {
	return f(summary)
}

type jsonStream struct {
	ID            string  `json:"id"`
	Plugin        string  `json:"plugin"`
	Source        string  `json:"source,omitempty"`
	Output        string  `json:"output,omitempty"`
	PixelFormat   string  `json:"pixfmt,omitempty"`
	Width         int     `json:"w,omitempty"`
	Height        int     `json:"h,omitempty"`
	ProcessMode   string  `json:"process_mode,omitempty"`
	FrameRatio    float64 `json:"fr_ratio,omitempty"`
	State         string  `json:"state"`
	FramesIn      int64   `json:"frames_in"`
	FramesOut     int64   `json:"frames_out"`
	Flushed       int64   `json:"flushed"`
	ArityWarnings int64   `json:"arity_warnings"`
	BytesOut      int64   `json:"bytes_out"`
	DurationMs    int64   `json:"duration_ms"`
	Error         string  `json:"error,omitempty"`
}

type jsonSummary struct {
	RunID       string       `json:"run_id,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
	DurationMs  int64        `json:"duration_ms"`
	Workers     int          `json:"workers"`
	ClonePolicy string       `json:"clone_policy,omitempty"`
	Aborted     bool         `json:"aborted"`
	Streams     []jsonStream `json:"streams"`
}

// JSONFormatter renders a Summary as indented JSON.
var JSONFormatter = FormatFunc(func(s *Summary) string {
	out := jsonSummary{
		RunID:       s.RunID,
		GeneratedAt: s.GeneratedAt,
		DurationMs:  s.Duration.Milliseconds(),
		Workers:     s.Settings.Workers,
		ClonePolicy: s.Settings.ClonePolicy,
		Aborted:     s.Aborted,
		Streams:     make([]jsonStream, 0, len(s.Streams)),
	}
	for _, st := range s.Streams {
		out.Streams = append(out.Streams, jsonStream{
			ID:            st.ID,
			Plugin:        st.Plugin,
			Source:        st.Source,
			Output:        st.Output,
			PixelFormat:   st.PixelFormat,
			Width:         st.Width,
			Height:        st.Height,
			ProcessMode:   st.ProcessMode,
			FrameRatio:    st.FrameRatio,
			State:         st.State,
			FramesIn:      st.FramesIn,
			FramesOut:     st.FramesOut,
			Flushed:       st.Flushed,
			ArityWarnings: st.ArityWarnings,
			BytesOut:      st.BytesOut,
			DurationMs:    st.Duration.Milliseconds(),
			Error:         st.Error,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data) + "\n"
})
