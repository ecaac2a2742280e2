package plugin

import (
	"errors"
	"fmt"
)

// Sentinel errors for plugin operations.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrPluginFault matches every *Fault.
	ErrPluginFault = errors.New("plugin fault")

	// ErrAlreadyFlushed is returned by a second Flush on the same adapter.
	ErrAlreadyFlushed = errors.New("plugin already flushed")

	// ErrNotInitialized is returned when Process or Flush run before Initialize.
	ErrNotInitialized = errors.New("plugin not initialized")

	// ErrAlreadyInitialized is returned by a second Initialize.
	ErrAlreadyInitialized = errors.New("plugin already initialized")

	// ErrUnknownPlugin is returned by the registry for unregistered names.
	ErrUnknownPlugin = errors.New("unknown plugin")
)

// Causes attached to a Fault when the plugin's output, not the plugin
// itself, is at fault.
var (
	// ErrInvalidConfig means Setup returned an unusable configuration.
	ErrInvalidConfig = errors.New("invalid stage config")

	// ErrTooManyFrames means a single call returned more than MaxFramesOut frames.
	ErrTooManyFrames = errors.New("too many frames returned")

	// ErrInvalidFrame means an output list contained a nil frame.
	ErrInvalidFrame = errors.New("invalid frame in output list")

	// ErrPanic wraps a recovered panic.
	ErrPanic = errors.New("plugin panicked")
)

// Phase names the plugin entry point that failed.
type Phase string

const (
	PhaseQueryFormats Phase = "query_formats"
	PhaseSetup        Phase = "setup"
	PhaseProcess      Phase = "process_frame"
	PhaseFlush        Phase = "flush_frames"
)

// Fault wraps any error raised by a plugin entry point.
type Fault struct {
	Phase  Phase
	Plugin string
	Cause  error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("plugin %s: %s: %v", f.Plugin, f.Phase, f.Cause)
}

// Unwrap returns the underlying cause.
func (f *Fault) Unwrap() error {
	return f.Cause
}

// Is makes errors.Is(err, ErrPluginFault) true for any Fault.
func (f *Fault) Is(target error) bool {
	return target == ErrPluginFault
}

func newFault(name string, phase Phase, cause error) *Fault {
	return &Fault{Phase: phase, Plugin: name, Cause: cause}
}
