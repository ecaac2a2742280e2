// Package delay holds frames back by a fixed depth: nothing comes out
// until the queue is full, then one frame out for every frame in.
package delay

import (
	"fmt"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/plugin"
	"github.com/user/framehost/pkg/ports"
)

// Name is the registry name of the plugin.
const Name = "delay"

// DefaultDepth is used when the "depth" option is absent.
const DefaultDepth = 5

func init() {
	plugin.Register(Name, func() ports.Plugin { return New() })
}

// Plugin is stateless; the queue lives in the processor returned by Setup.
type Plugin struct {
	formats []string
}

// New creates the plugin.
func New() *Plugin {
	return &Plugin{formats: []string{"yuva420p"}}
}

// Processor is the FIFO queue of one stream.
type Processor struct {
	depth int
	count int
	queue []*frame.Frame
}

// NewProcessor creates a queue of the given depth.
func NewProcessor(depth int) *Processor {
	return &Processor{depth: depth}
}

// Push queues f and pops the oldest frame once depth frames have arrived.
func (q *Processor) Push(f *frame.Frame) []*frame.Frame {
	q.queue = append(q.queue, f)
	q.count++
	if q.count < q.depth {
		return nil
	}
	head := q.queue[0]
	q.queue[0] = nil
	q.queue = q.queue[1:]
	return []*frame.Frame{head}
}

// Drain returns every queued frame in arrival order and empties the queue.
func (q *Processor) Drain() []*frame.Frame {
	out := q.queue
	q.queue = nil
	return out
}

// Len returns the number of queued frames.
func (q *Processor) Len() int {
	return len(q.queue)
}

// QueryFormats returns yuva420p unless overridden with WithFormats.
func (p *Plugin) QueryFormats() ([]string, error) {
	return p.formats, nil
}

// WithFormats overrides the advertised formats.
func (p *Plugin) WithFormats(formats ...string) *Plugin {
	p.formats = formats
	return p
}

// Setup recognizes "depth" (default DefaultDepth, minimum 1).
func (p *Plugin) Setup(width, height int, pixfmt string, opts ports.Options) (ports.SetupResult, error) {
	depth, err := opts.Int("depth", DefaultDepth)
	if err != nil {
		return ports.SetupResult{}, err
	}
	if depth < 1 {
		return ports.SetupResult{}, fmt.Errorf("depth must be at least 1, got %d", depth)
	}
	return ports.SetupResult{
		Config: ports.PluginConfig{
			Width:       width,
			Height:      height,
			PixelFormat: pixfmt,
			ProcessMode: plugin.OneToMany.String(),
		},
		Processor: NewProcessor(depth),
	}, nil
}

func (p *Plugin) ProcessFrame(in *frame.Frame, proc ports.Processor) ([]*frame.Frame, error) {
	q, ok := proc.(*Processor)
	if !ok {
		return nil, fmt.Errorf("unexpected processor %T", proc)
	}
	return q.Push(in), nil
}

func (p *Plugin) FlushFrames(proc ports.Processor) ([]*frame.Frame, error) {
	q, ok := proc.(*Processor)
	if !ok {
		return nil, fmt.Errorf("unexpected processor %T", proc)
	}
	return q.Drain(), nil
}

var _ ports.Plugin = (*Plugin)(nil)
