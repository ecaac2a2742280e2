// Package framerate2x doubles the frame rate by emitting every frame
// twice, the copy shifted by a fixed step.
package framerate2x

import (
	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/plugin"
	"github.com/user/framehost/pkg/ports"
)

// Name is the registry name of the plugin.
const Name = "framerate2x"

// DefaultStep is the pts offset of the duplicated frame in microseconds.
const DefaultStep = 10

func init() {
	plugin.Register(Name, func() ports.Plugin { return New() })
}

// Plugin emits [frame, clone(pts+step)] for every input.
type Plugin struct{}

// New creates the plugin.
func New() *Plugin {
	return &Plugin{}
}

// processor holds the step resolved at setup.
type processor struct {
	step int64
}

func (p *Plugin) QueryFormats() ([]string, error) {
	return []string{"yuv420p", "yuv422p"}, nil
}

// Setup recognizes "step" (default DefaultStep).
func (p *Plugin) Setup(width, height int, pixfmt string, opts ports.Options) (ports.SetupResult, error) {
	step, err := opts.Int("step", DefaultStep)
	if err != nil {
		return ports.SetupResult{}, err
	}
	return ports.SetupResult{
		Config: ports.PluginConfig{
			Width:       width,
			Height:      height,
			PixelFormat: pixfmt,
			FrameRatio:  2,
			ProcessMode: plugin.OneToMany.String(),
		},
		Processor: &processor{step: int64(step)},
	}, nil
}

func (p *Plugin) ProcessFrame(in *frame.Frame, proc ports.Processor) ([]*frame.Frame, error) {
	step := int64(DefaultStep)
	if pr, ok := proc.(*processor); ok {
		step = pr.step
	}
	dup := in.Clone()
	dup.PTS += step
	dup.DTS += step
	return []*frame.Frame{in, dup}, nil
}

func (p *Plugin) FlushFrames(proc ports.Processor) ([]*frame.Frame, error) {
	return nil, nil
}

var _ ports.Plugin = (*Plugin)(nil)
