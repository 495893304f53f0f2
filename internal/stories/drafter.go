// Package stories turns selected experiences into persisted-ready STAR stories.
package stories

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/star-builder/internal/sanitize"
	"github.com/jonathan/star-builder/internal/types"
)

// Drafter writes a new story for a generate request.
type Drafter interface {
	Draft(ctx context.Context, req types.CreateStoryRequest) (*types.Story, error)
}

// Draft is the raw story shape produced by a drafter before normalization.
type Draft struct {
	Title         string   `json:"title"`
	Situation     string   `json:"situation"`
	Task          string   `json:"task"`
	Action        string   `json:"action"`
	Result        string   `json:"result"`
	KeyThemes     []string `json:"key_themes"`
	TalkingPoints []string `json:"talking_points"`
	ExperienceIDs []string `json:"experience_ids"`
}

const maxListItems = 5

// Finalize converts a draft into a Story for req. Text is reduced to plain
// text, lists are de-duplicated and capped, and experience ids the request
// did not include are dropped. A fresh id and timestamps are assigned.
func Finalize(req types.CreateStoryRequest, d Draft, now time.Time) *types.Story {
	exps := types.NormalizeExperiences(req.Experiences)
	known := make([]string, 0, len(exps))
	for _, e := range exps {
		known = append(known, e.ID)
	}

	ids := make([]string, 0, len(d.ExperienceIDs))
	for _, id := range d.ExperienceIDs {
		if slices.Contains(known, id) && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		ids = known
	}

	title := sanitize.PlainText(d.Title)
	if title == "" {
		title = req.Theme
	}
	tone := req.Tone
	if !tone.Valid() {
		tone = types.DefaultTone
	}

	return &types.Story{
		ID:               uuid.NewString(),
		TailoredResumeID: req.TailoredResumeID,
		Title:            title,
		Situation:        sanitize.PlainText(d.Situation),
		Task:             sanitize.PlainText(d.Task),
		Action:           sanitize.PlainText(d.Action),
		Result:           sanitize.PlainText(d.Result),
		KeyThemes:        cleanList(d.KeyThemes),
		TalkingPoints:    cleanList(d.TalkingPoints),
		Theme:            req.Theme,
		Tone:             tone,
		ExperienceIDs:    ids,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func cleanList(in []string) []string {
	out := make([]string, 0, min(len(in), maxListItems))
	for _, item := range in {
		item = sanitize.PlainText(item)
		if item == "" || slices.ContainsFunc(out, func(s string) bool { return strings.EqualFold(s, item) }) {
			continue
		}
		out = append(out, item)
		if len(out) == maxListItems {
			break
		}
	}
	return out
}
