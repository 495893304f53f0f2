package storybuilder

import (
	"errors"
	"fmt"

	"github.com/jonathan/star-builder/internal/types"
)

// State errors returned by Builder operations. They indicate a call that the current UI state
// does not allow and never involve the backend.
var (
	ErrGenerationInFlight = errors.New("a story is already being generated")
	ErrNoSelection        = errors.New("select at least one experience")
	ErrNoTheme            = errors.New("no story theme available")
	ErrUnknownStory       = errors.New("unknown story")
	ErrUnknownExperience  = errors.New("unknown experience")
	ErrUnknownTheme       = errors.New("unknown theme")
	ErrNotEditing         = errors.New("story is not in edit mode")
	ErrPracticeClosed     = errors.New("no practice session is open")
)

// ErrEmptyResponse is wrapped in a BackendError when the service reports success without a story.
var ErrEmptyResponse = errors.New("story service returned no story")

// BackendError wraps a failed call to the story service.
type BackendError struct {
	Op    string
	Cause error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Cause)
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// ToneError is returned when a tone outside the fixed set is chosen.
type ToneError struct {
	Tone types.Tone
}

func (e *ToneError) Error() string {
	return fmt.Sprintf("unknown tone %q", e.Tone)
}
