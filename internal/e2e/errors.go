package e2e

import (
	"fmt"
	"strings"
)

// BrowserError wraps a failed browser step.
type BrowserError struct {
	Scenario string
	Step     string
	Cause    error
}

func (e *BrowserError) Error() string {
	return fmt.Sprintf("scenario %q: %s: %v", e.Scenario, e.Step, e.Cause)
}

func (e *BrowserError) Unwrap() error {
	return e.Cause
}

// AssertionError lists what was wrong with a rendered page.
type AssertionError struct {
	Scenario string
	Problems []string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("scenario %q: %s", e.Scenario, strings.Join(e.Problems, "; "))
}
