package stories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/star-builder/internal/types"
)

// TemplateDrafter assembles a story directly from experience bullets without
// calling a model. It backs the server when no LLM key is configured.
type TemplateDrafter struct {
	Now func() time.Time
}

// Draft implements Drafter.
func (t TemplateDrafter) Draft(ctx context.Context, req types.CreateStoryRequest) (*types.Story, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	exps := types.NormalizeExperiences(req.Experiences)
	if len(exps) == 0 {
		return nil, &GenerationError{Stage: StagePrompt, Cause: fmt.Errorf("no experiences selected")}
	}
	lead := exps[0]
	role := lead.Label(0)

	var bullets []string
	ids := make([]string, 0, len(exps))
	for _, e := range exps {
		bullets = append(bullets, e.Bullets...)
		ids = append(ids, e.ID)
	}

	d := Draft{
		Title:         fmt.Sprintf("%s as %s", req.Theme, role),
		Situation:     situation(role, lead.Company),
		Task:          fmt.Sprintf("I needed to show %s.", strings.ToLower(req.Theme)),
		ExperienceIDs: ids,
		KeyThemes:     []string{req.Theme},
	}
	switch len(bullets) {
	case 0:
		d.Action = "I took ownership of the work end to end."
		d.Result = "The team delivered on its commitments."
	case 1:
		d.Action = sentence(bullets[0])
		d.Result = "The work shipped as planned."
	default:
		d.Action = joinSentences(bullets[:len(bullets)-1])
		d.Result = sentence(bullets[len(bullets)-1])
	}
	d.TalkingPoints = bullets

	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	return Finalize(req, d, now()), nil
}

func situation(role, company string) string {
	if company == "" {
		return fmt.Sprintf("I was working as %s.", role)
	}
	return fmt.Sprintf("I was working as %s at %s.", role, company)
}

func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.HasSuffix(s, ".") {
		s += "."
	}
	return s
}

func joinSentences(in []string) string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = sentence(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, " ")
}
