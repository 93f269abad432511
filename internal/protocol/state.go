package protocol

// State is the lifecycle phase of a single Call.
type State int

const (
	// StateIdle means no call has started.
	StateIdle State = iota
	// StateLaunching means the service process is being started.
	StateLaunching
	// StateAwaitingResponse means the request was written and a reply is pending.
	StateAwaitingResponse
	// StateDelivered means a result was returned to the caller.
	StateDelivered
	// StateTimedOut means the call exceeded its timeout and the process was killed.
	StateTimedOut
	// StateErrored means the call failed for any other reason.
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLaunching:
		return "launching"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateDelivered:
		return "delivered"
	case StateTimedOut:
		return "timed_out"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a call.
func (s State) Terminal() bool {
	return s == StateDelivered || s == StateTimedOut || s == StateErrored
}
