package ports

import "github.com/user/framehost/pkg/frame"

// DebugSink receives intermediate results of a stream for inspection.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveStageConfig saves the negotiated stage configuration as JSON.
	SaveStageConfig(stream string, data []byte) error

	// SaveInputFrame saves the index-th frame handed to the plugin.
	SaveInputFrame(stream string, index int, f *frame.Frame) error

	// SaveOutputFrame saves the index-th frame the stage forwarded.
	SaveOutputFrame(stream string, index int, f *frame.Frame) error
}
