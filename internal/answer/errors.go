package answer

import (
	"errors"
	"fmt"
)

// ErrEmptyQuestion rejects empty or all-whitespace questions. It maps to a
// 400 at the HTTP boundary and is never retried.
var ErrEmptyQuestion = errors.New("question is required")

// GenerationError wraps a failed remote-model call. The pipeline recovers
// from it by switching to the fallback strategy; the cause is logged and
// never shown to the end user.
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }
