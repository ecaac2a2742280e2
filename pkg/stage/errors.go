package stage

import (
	"errors"
	"fmt"

	"github.com/user/framehost/pkg/plugin"
)

// Sentinel errors for stage operations.
var (
	// ErrInvalidTransition is returned when an operation is not allowed
	// in the stage's current state.
	ErrInvalidTransition = errors.New("invalid stage state transition")

	// ErrStageClosed is returned by Process after the stage closed.
	ErrStageClosed = errors.New("stage closed")

	// ErrAborted is returned when an abort interrupts an operation.
	ErrAborted = errors.New("stage aborted")

	// ErrNilFrame is returned by Process for a nil input frame. The stage
	// state is left unchanged.
	ErrNilFrame = errors.New("nil input frame")
)

// ArityWarning reports a one_to_one plugin call that did not return
// exactly one frame. It is logged and counted, never returned.
type ArityWarning struct {
	Plugin string
	Mode   plugin.ProcessMode
	PTS    int64
	Got    int
}

func (w *ArityWarning) Error() string {
	return fmt.Sprintf("plugin %s declared %s but returned %d frames for pts %d", w.Plugin, w.Mode, w.Got, w.PTS)
}
