package pipeline

import (
	"errors"
	"fmt"
)

// Stage names a pipeline step that talks to an external capability.
type Stage string

const (
	StageExtraction     Stage = "extraction"
	StageSimplification Stage = "simplification"
	StageSource         Stage = "source"
	StageRelevance      Stage = "relevance"
	StageAlignment      Stage = "alignment"
	StageLegal          Stage = "legal"
)

var (
	// ErrEmptyScript is returned when the script text is blank.
	ErrEmptyScript = errors.New("no script_text provided")
	// ErrMalformedResponse marks a capability response that does not match its contract.
	ErrMalformedResponse = errors.New("malformed capability response")
)

// CapabilityError reports a failed capability call. Raw keeps the offending
// response text, when there was one, for diagnostics.
type CapabilityError struct {
	Stage Stage
	Raw   string
	Err   error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// Malformed builds a CapabilityError wrapping ErrMalformedResponse.
func Malformed(stage Stage, raw string, format string, args ...any) *CapabilityError {
	return &CapabilityError{
		Stage: stage,
		Raw:   raw,
		Err:   fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...)),
	}
}

// wrapStage attaches the stage to err unless it already carries one.
func wrapStage(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var ce *CapabilityError
	if errors.As(err, &ce) {
		return err
	}
	return &CapabilityError{Stage: stage, Err: err}
}
