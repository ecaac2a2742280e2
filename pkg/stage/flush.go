package stage

import (
	"context"
	"fmt"

	"github.com/user/framehost/pkg/frame"
)

// FlushCoordinator handles end of stream for stages. Draining is
// idempotent per stage: the first call flushes the plugin exactly once,
// later calls are logged and return nothing. One coordinator may serve
// many stages; it logs through each stage's own logger.
type FlushCoordinator struct{}

// NewFlushCoordinator creates a coordinator.
func NewFlushCoordinator() *FlushCoordinator {
	return &FlushCoordinator{}
}

// Drain flushes the plugin of s, forwards the residual frames in plugin
// order and closes the stage. The returned slice holds the flushed
// frames. A stage that is already closed, whether by an earlier drain,
// an abort or a fault, yields an empty result and no error.
func (c *FlushCoordinator) Drain(ctx context.Context, s *Stage) ([]*frame.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.logger.WithComponent("flush")

	switch st := s.State(); st {
	case Ready, Processing:
	case Flushing, Closed:
		log.Warn("End of stream on %s stage ignored", st)
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: end of stream in state %s", ErrInvalidTransition, st)
	}

	s.setState(Flushing)
	out, err := s.adapter.Flush()
	if err != nil {
		s.recordFault(err)
		s.logger.Error("Plugin fault during flush: %v", err)
		s.closeLocked("fault")
		return nil, err
	}

	s.flushed.Add(int64(len(out)))
	s.metrics.RecordFlush(s.name, len(out))
	log.Debug("Flushing %d buffered frames", len(out))

	if err := s.forwardLocked(ctx, out); err != nil {
		return out, err
	}
	s.closeLocked("eos")
	return out, nil
}
