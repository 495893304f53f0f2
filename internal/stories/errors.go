package stories

import "fmt"

// Stage names the step of drafting that failed.
type Stage string

// Drafting stages
const (
	StagePrompt Stage = "prompt"
	StageLLM    Stage = "llm"
	StageSchema Stage = "schema"
	StageDecode Stage = "decode"
)

// GenerationError wraps a failure at one drafting stage.
type GenerationError struct {
	Stage Stage
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("story generation failed at %s: %v", e.Stage, e.Cause)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
