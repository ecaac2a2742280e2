// Package frame provides the frame value passed between sources, plugins and outputs.
package frame

import "fmt"

// ClonePolicy controls whether a cloned frame shares or copies its payload.
type ClonePolicy int

const (
	// CloneCopy gives the clone its own copy of the payload bytes.
	CloneCopy ClonePolicy = iota
	// CloneShare lets the clone reference the same payload bytes.
	CloneShare
)

// String returns the configuration name of the policy.
func (p ClonePolicy) String() string {
	switch p {
	case CloneCopy:
		return "copy"
	case CloneShare:
		return "share"
	default:
		return "unknown"
	}
}

// ParseClonePolicy parses a policy name. An empty string selects CloneCopy.
func ParseClonePolicy(s string) (ClonePolicy, error) {
	switch s {
	case "", "copy":
		return CloneCopy, nil
	case "share":
		return CloneShare, nil
	default:
		return CloneCopy, fmt.Errorf("unknown clone policy %q", s)
	}
}

// Frame is a single video frame. Frames are immutable by convention:
// whoever holds a frame owns it until it is handed on.
type Frame struct {
	PTS      int64    // Presentation timestamp in TimeBase units
	DTS      int64    // Decode timestamp in TimeBase units
	TimeBase Rational // Unit of PTS and DTS

	Width       int
	Height      int
	PixelFormat string // Pixel format tag, e.g. "yuv420p"
	ColorRange  string // "tv", "pc" or empty when unknown

	// Data holds the packed planes of the frame.
	Data []byte

	// Policy is applied by Clone when no explicit policy is requested.
	Policy ClonePolicy
}

// New creates a frame in the microsecond time base.
func New(width, height int, pixfmt string, pts int64, data []byte) *Frame {
	return &Frame{
		PTS:         pts,
		DTS:         pts,
		TimeBase:    TimeBaseMicros,
		Width:       width,
		Height:      height,
		PixelFormat: pixfmt,
		Data:        data,
	}
}

// Clone duplicates the frame using the frame's own policy.
func (f *Frame) Clone() *Frame {
	return f.CloneWith(f.Policy)
}

// CloneWith duplicates the frame. The clone is a distinct value whose
// timestamps can be changed without affecting f.
func (f *Frame) CloneWith(policy ClonePolicy) *Frame {
	c := *f
	c.Policy = policy
	if policy == CloneCopy && f.Data != nil {
		c.Data = make([]byte, len(f.Data))
		copy(c.Data, f.Data)
	}
	return &c
}

// String returns a short description for logs.
func (f *Frame) String() string {
	return fmt.Sprintf("%dx%d %s pts=%d", f.Width, f.Height, f.PixelFormat, f.PTS)
}
