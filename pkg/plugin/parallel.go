package plugin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/ports"
)

const (
	// MaxParallel caps the plugin instances a Parallel runs.
	MaxParallel = 16

	// MaxInFlight caps the frames a Parallel holds between submission
	// and emission.
	MaxInFlight = 32
)

// ErrNotParallel is returned by Parallel.Setup when the wrapped plugin
// cannot be split across instances.
var ErrNotParallel = errors.New("plugin cannot run in parallel")

// Parallel spreads frames of one stream over several instances of a
// one_to_one plugin and emits results in input order.
//
// Every instance is set up with the same arguments and keeps its own
// processor, and each instance still sees one call at a time. A
// ProcessFrame call returns the results that are complete at the head
// of the queue, so Parallel declares one_to_many. FlushFrames waits for
// every frame in flight.
type Parallel struct {
	factory   Factory
	size      int
	instances []ports.Plugin
	procs     []ports.Processor

	jobs      chan parallelJob
	wg        sync.WaitGroup
	pending   []*parallelResult
	maxQueued int
	started   bool
	stopped   bool
}

type parallelJob struct {
	in  *frame.Frame
	res *parallelResult
}

type parallelResult struct {
	done chan struct{}
	out  []*frame.Frame
	err  error
}

// NewParallel creates a Parallel running size instances made by factory.
// size is clamped to [1, MaxParallel].
func NewParallel(factory Factory, size int) *Parallel {
	if size < 1 {
		size = 1
	}
	if size > MaxParallel {
		size = MaxParallel
	}
	queued := 2 * size
	if queued > MaxInFlight {
		queued = MaxInFlight
	}
	return &Parallel{
		factory:   factory,
		size:      size,
		instances: []ports.Plugin{factory()},
		maxQueued: queued,
	}
}

// Size returns the number of instances.
func (p *Parallel) Size() int {
	return p.size
}

// QueryFormats asks the first instance.
func (p *Parallel) QueryFormats() ([]string, error) {
	return p.instances[0].QueryFormats()
}

// Setup configures every instance and starts one worker per instance.
func (p *Parallel) Setup(width, height int, pixfmt string, opts ports.Options) (ports.SetupResult, error) {
	if p.started {
		return ports.SetupResult{}, ErrAlreadyInitialized
	}
	first, err := p.instances[0].Setup(width, height, pixfmt, opts)
	if err != nil {
		return ports.SetupResult{}, err
	}
	mode, err := ParseProcessMode(first.Config.ProcessMode)
	if err != nil {
		return ports.SetupResult{}, err
	}
	if mode != OneToOne {
		return ports.SetupResult{}, fmt.Errorf("%w: process mode %s", ErrNotParallel, mode)
	}

	p.procs = []ports.Processor{first.Processor}
	for i := 1; i < p.size; i++ {
		inst := p.factory()
		res, err := inst.Setup(width, height, pixfmt, opts)
		if err != nil {
			return ports.SetupResult{}, fmt.Errorf("instance %d: %w", i, err)
		}
		if res.Config != first.Config {
			return ports.SetupResult{}, fmt.Errorf("%w: instance %d configured differently", ErrNotParallel, i)
		}
		p.instances = append(p.instances, inst)
		p.procs = append(p.procs, res.Processor)
	}

	p.jobs = make(chan parallelJob)
	for i := range p.instances {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.started = true

	cfg := first.Config
	cfg.ProcessMode = OneToMany.String()
	return ports.SetupResult{Config: cfg}, nil
}

// ProcessFrame hands in to the next free instance and returns the
// results completed so far, oldest first.
func (p *Parallel) ProcessFrame(in *frame.Frame, _ ports.Processor) ([]*frame.Frame, error) {
	if !p.started || p.stopped {
		return nil, ErrNotInitialized
	}
	res := &parallelResult{done: make(chan struct{})}
	p.jobs <- parallelJob{in: in, res: res}
	p.pending = append(p.pending, res)

	var out []*frame.Frame
	for len(p.pending) > 0 {
		head := p.pending[0]
		if len(p.pending) <= p.maxQueued {
			select {
			case <-head.done:
			default:
				return out, nil
			}
		} else {
			<-head.done
		}
		if head.err != nil {
			return nil, head.err
		}
		out = append(out, head.out...)
		p.pending = p.pending[1:]
	}
	return out, nil
}

// FlushFrames waits for every frame in flight, stops the workers and
// then flushes each instance in order.
func (p *Parallel) FlushFrames(_ ports.Processor) ([]*frame.Frame, error) {
	if !p.started {
		return nil, ErrNotInitialized
	}
	var out []*frame.Frame
	for _, res := range p.pending {
		<-res.done
		if res.err != nil {
			p.Close()
			return nil, res.err
		}
		out = append(out, res.out...)
	}
	p.pending = nil
	p.Close()

	for i, inst := range p.instances {
		rest, err := inst.FlushFrames(p.procs[i])
		if err != nil {
			return nil, fmt.Errorf("instance %d: %w", i, err)
		}
		out = append(out, rest...)
	}
	return out, nil
}

// Close stops the workers after the frames in flight complete. Results
// not yet emitted are dropped.
func (p *Parallel) Close() error {
	if !p.started || p.stopped {
		return nil
	}
	p.stopped = true
	close(p.jobs)
	p.wg.Wait()
	p.pending = nil
	return nil
}

func (p *Parallel) worker(i int) {
	defer p.wg.Done()
	for job := range p.jobs {
		job.res.out, job.res.err = p.call(i, job.in)
		close(job.res.done)
	}
}

func (p *Parallel) call(i int, in *frame.Frame) (out []*frame.Frame, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: instance %d: %v", ErrPanic, i, r)
		}
	}()
	return p.instances[i].ProcessFrame(in, p.procs[i])
}

var _ ports.Plugin = (*Parallel)(nil)
