package stories

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/star-builder/internal/llm"
	"github.com/jonathan/star-builder/internal/prompts"
	"github.com/jonathan/star-builder/internal/schemas"
	"github.com/jonathan/star-builder/internal/types"
)

// Generator drafts stories with an LLM.
type Generator struct {
	client llm.Client
	tier   llm.ModelTier
	logger *zap.Logger
	now    func() time.Time
}

// NewGenerator returns a Generator using the standard model tier.
func NewGenerator(client llm.Client, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{client: client, tier: llm.TierStandard, logger: logger, now: time.Now}
}

type promptData struct {
	Theme           string
	Tone            types.Tone
	ToneDescription string
	Company         string
	JobTitle        string
	JobDescription  string
	Experiences     []types.Experience
}

// Prompt renders the generation prompt for req.
func Prompt(req types.CreateStoryRequest) (string, error) {
	tone := req.Tone
	if !tone.Valid() {
		tone = types.DefaultTone
	}
	return prompts.Render(prompts.StarStories, "generate", promptData{
		Theme:           req.Theme,
		Tone:            tone,
		ToneDescription: tone.Description(),
		Company:         req.Company,
		JobTitle:        req.JobTitle,
		JobDescription:  req.JobDescription,
		Experiences:     types.NormalizeExperiences(req.Experiences),
	})
}

// Draft implements Drafter.
func (g *Generator) Draft(ctx context.Context, req types.CreateStoryRequest) (*types.Story, error) {
	prompt, err := Prompt(req)
	if err != nil {
		return nil, &GenerationError{Stage: StagePrompt, Cause: err}
	}

	start := g.now()
	raw, err := g.client.GenerateJSON(ctx, prompt, g.tier)
	if err != nil {
		return nil, &GenerationError{Stage: StageLLM, Cause: err}
	}
	g.logger.Debug("story drafted",
		zap.String("model", g.client.GetModel(g.tier)),
		zap.String("theme", req.Theme),
		zap.Duration("elapsed", g.now().Sub(start)),
		zap.Int("bytes", len(raw)),
	)

	if err := schemas.ValidateStory([]byte(raw)); err != nil {
		g.logger.Warn("draft failed schema validation", zap.Error(err))
		return nil, &GenerationError{Stage: StageSchema, Cause: err}
	}
	var d Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, &GenerationError{Stage: StageDecode, Cause: err}
	}
	return Finalize(req, d, g.now()), nil
}
