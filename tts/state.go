package tts

// StateType represents the processing stage of one conversion request.
type StateType int

const (
	// StateReceived indicates a request has been accepted but not started.
	StateReceived StateType = iota
	// StateSegmenting indicates text is being split into units.
	StateSegmenting
	// StateSynthesizing indicates units are being synthesized.
	StateSynthesizing
	// StateComposing indicates synthesized buffers are being assembled.
	StateComposing
	// StateExporting indicates the composed buffer is being written.
	StateExporting
	// StateDone indicates the request completed and produced an artifact.
	StateDone
	// StateFailed indicates the request terminated without an artifact.
	StateFailed
)

// String returns the string representation of the state.
func (s StateType) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateSegmenting:
		return "segmenting"
	case StateSynthesizing:
		return "synthesizing"
	case StateComposing:
		return "composing"
	case StateExporting:
		return "exporting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends a request.
func (s StateType) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// StateMachine tracks the stage of one request and enforces the legal
// progression Received → Segmenting → Synthesizing → Composing → Exporting →
// Done, with Failed reachable from every non-terminal stage.
type StateMachine struct {
	current     StateType
	transitions map[StateType][]StateType
}

// NewStateMachine creates a state machine positioned at StateReceived.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateReceived,
		transitions: map[StateType][]StateType{
			StateReceived:     {StateSegmenting, StateFailed},
			StateSegmenting:   {StateSynthesizing, StateFailed},
			StateSynthesizing: {StateComposing, StateFailed},
			StateComposing:    {StateExporting, StateFailed},
			StateExporting:    {StateDone, StateFailed},
		},
	}
}

// Transition attempts to move to the given state and reports success.
func (sm *StateMachine) Transition(to StateType) bool {
	valid, ok := sm.transitions[sm.current]
	if !ok {
		return false
	}
	for _, state := range valid {
		if state == to {
			sm.current = to
			return true
		}
	}
	return false
}

// Current returns the current state.
func (sm *StateMachine) Current() StateType {
	return sm.current
}
