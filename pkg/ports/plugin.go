package ports

import "github.com/user/framehost/pkg/frame"

// Processor is plugin-private state returned by Setup. The host never
// looks inside it; it only hands it back on every later call.
type Processor interface{}

// PluginConfig is the raw stream configuration a plugin returns from
// Setup. Zero values mean the key was absent.
type PluginConfig struct {
	Width       int     // "w"
	Height      int     // "h"
	PixelFormat string  // "pixfmt"
	FrameRatio  float64 // "fr_ratio", informational output:input ratio
	ProcessMode string  // "process_mode"
}

// SetupResult is what Setup returns: the stream configuration and an
// optional processor handle.
type SetupResult struct {
	Config    PluginConfig
	Processor Processor
}

// Plugin is the four-operation frame processing contract.
//
// Implementations are not required to be safe for concurrent use; the
// host calls one plugin instance from one stream at a time.
type Plugin interface {
	// QueryFormats returns the supported pixel format tags in preference order.
	QueryFormats() ([]string, error)

	// Setup is called once per stream with the negotiated geometry and the
	// user supplied options.
	Setup(width, height int, pixfmt string, opts Options) (SetupResult, error)

	// ProcessFrame takes ownership of in and returns zero or more frames
	// in emission order.
	ProcessFrame(in *frame.Frame, proc Processor) ([]*frame.Frame, error)

	// FlushFrames releases every frame the plugin still buffers.
	FlushFrames(proc Processor) ([]*frame.Frame, error)
}
