package main

import (
	"fmt"

	"github.com/user/framehost/pkg/config"
	"github.com/user/framehost/pkg/orchestrator"
	"github.com/user/framehost/pkg/summarizer"
)

// buildSummary converts a run result into a summary. Streams keep the
// order of the configuration.
func buildSummary(cfg config.Config, result orchestrator.RunResult) *summarizer.Summary {
	b := summarizer.NewBuilder().
		WithRunID(result.RunID).
		WithSettings(summarizer.Settings{
			Workers:     cfg.Workers,
			ClonePolicy: cfg.ClonePolicy,
			Debug:       cfg.Debug,
		}).
		WithDuration(result.Duration).
		WithAborted(result.Aborted)

	for i, st := range result.Streams {
		info := summarizer.StreamInfo{
			ID:            st.ID,
			Plugin:        st.Plugin,
			PixelFormat:   st.Config.PixelFormat,
			Width:         st.Config.Width,
			Height:        st.Config.Height,
			ProcessMode:   st.Config.Mode,
			FrameRatio:    st.Config.FrameRatio,
			State:         st.State,
			FramesIn:      st.FramesIn,
			FramesOut:     st.FramesOut,
			Flushed:       st.Flushed,
			ArityWarnings: st.Stats.ArityWarnings,
			BytesOut:      st.BytesOut,
			Duration:      st.Duration,
			Error:         st.Error,
		}
		if i < len(cfg.Streams) {
			sc := cfg.Streams[i]
			info.Source = describe(sc.Source.Type, sc.Source.Path, "testsrc")
			info.Output = describe(sc.Output.Type, sc.Output.Path, "null")
			if sc.Source.Type == "" || sc.Source.Type == orchestrator.SourceTestsrc {
				info.InputWidth, info.InputHeight = sc.Source.Width, sc.Source.Height
			}
		}
		b.AddStream(info)
	}
	return b.Build()
}

func describe(kind, path, def string) string {
	if kind == "" {
		kind = def
	}
	if path == "" {
		return kind
	}
	return fmt.Sprintf("%s:%s", kind, path)
}
