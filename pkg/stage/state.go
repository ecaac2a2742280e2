package stage

// State is the lifecycle state of a Stage.
type State int32

const (
	Uninitialized State = iota
	Negotiating
	Ready
	Processing
	Flushing
	Closed
)

// String returns the snake-case name of the state.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Negotiating:
		return "negotiating"
	case Ready:
		return "ready"
	case Processing:
		return "processing"
	case Flushing:
		return "flushing"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Closed
}
