package tts

import (
	"errors"
	"fmt"
)

// Common errors for the conversion pipeline.
var (
	// ErrEmptyInput indicates text with no segmentable content.
	ErrEmptyInput = errors.New("input text is empty or contains no segmentable content")
	// ErrNoContent indicates a batch or QA call with zero items.
	ErrNoContent = errors.New("no content provided")
	// ErrUnsupportedFormat indicates an unknown output format tag.
	ErrUnsupportedFormat = errors.New("unsupported output format")
	// ErrEngineClosed indicates a synthesis call after Close.
	ErrEngineClosed = errors.New("engine has been closed")
	// ErrInvalidState indicates an invalid pipeline state transition.
	ErrInvalidState = errors.New("invalid state transition")
)

// Synthesis failure reasons.
const (
	ReasonTimeout     = "timeout"
	ReasonUnavailable = "engine unavailable"
	ReasonBadText     = "unsupported characters"
	ReasonBackend     = "backend failure"
)

// SynthesisError describes a failed synthesis call for one unit. Transient
// failures are eligible for retry; permanent ones are not.
type SynthesisError struct {
	UnitIndex int
	Reason    string
	Transient bool
	Err       error // Underlying cause, may be nil
}

// Error implements the error interface.
func (e *SynthesisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("synthesis failed for unit %d (%s): %v", e.UnitIndex, e.Reason, e.Err)
	}
	return fmt.Sprintf("synthesis failed for unit %d (%s)", e.UnitIndex, e.Reason)
}

// Unwrap returns the underlying error.
func (e *SynthesisError) Unwrap() error { return e.Err }

// NewSynthesisError creates a synthesis error for the given unit.
func NewSynthesisError(unitIndex int, reason string, transient bool, err error) *SynthesisError {
	return &SynthesisError{UnitIndex: unitIndex, Reason: reason, Transient: transient, Err: err}
}

// IsTransient reports whether err is a synthesis error worth retrying.
func IsTransient(err error) bool {
	var se *SynthesisError
	if errors.As(err, &se) {
		return se.Transient
	}
	return false
}

// CompositionError indicates that no unit in a request produced audio.
type CompositionError struct {
	FailedUnits []int // Indices of the units that failed synthesis
}

// Error implements the error interface.
func (e *CompositionError) Error() string {
	return fmt.Sprintf("nothing to compose: all %d units failed synthesis", len(e.FailedUnits))
}

// ExportError describes a failed export: bad format, write failure, or a
// collision-policy violation.
type ExportError struct {
	Path   string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("export to %s failed (%s): %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("export to %s failed (%s)", e.Path, e.Reason)
}

// Unwrap returns the underlying error.
func (e *ExportError) Unwrap() error { return e.Err }
