// Package types provides type definitions for structured data used throughout the STAR story builder.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Experience is one prior job entry supplied by the parent context.
// Title is the canonical role label; on input it may arrive as either "header" or "title".
type Experience struct {
	ID      string   `json:"id,omitempty" yaml:"id,omitempty"`
	Title   string   `json:"title,omitempty" yaml:"title,omitempty"`
	Company string   `json:"company,omitempty" yaml:"company,omitempty"`
	Bullets []string `json:"bullets" yaml:"bullets"`
}

// experienceInput is the accepted input shape, with both role-label aliases.
type experienceInput struct {
	ID      string   `json:"id" yaml:"id"`
	Header  string   `json:"header" yaml:"header"`
	Title   string   `json:"title" yaml:"title"`
	Company string   `json:"company" yaml:"company"`
	Bullets []string `json:"bullets" yaml:"bullets"`
}

// experience folds the aliases into Title. "header" wins when both are present.
func (in experienceInput) experience() Experience {
	title := strings.TrimSpace(in.Header)
	if title == "" {
		title = strings.TrimSpace(in.Title)
	}
	return Experience{
		ID:      strings.TrimSpace(in.ID),
		Title:   title,
		Company: strings.TrimSpace(in.Company),
		Bullets: in.Bullets,
	}
}

// UnmarshalJSON accepts both role-label aliases and folds them into Title.
func (e *Experience) UnmarshalJSON(data []byte) error {
	var in experienceInput
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*e = in.experience()
	return nil
}

// UnmarshalYAML applies the same alias rules as UnmarshalJSON.
func (e *Experience) UnmarshalYAML(node *yaml.Node) error {
	var in experienceInput
	if err := node.Decode(&in); err != nil {
		return err
	}
	*e = in.experience()
	return nil
}

// Label returns the role label, falling back to a positional name.
func (e Experience) Label(index int) string {
	if e.Title != "" {
		return e.Title
	}
	return fmt.Sprintf("Experience %d", index+1)
}

// NormalizeExperiences assigns stable identifiers and drops blank bullets.
// The input slice is not modified.
func NormalizeExperiences(in []Experience) []Experience {
	out := make([]Experience, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for i, exp := range in {
		id := exp.ID
		if id == "" {
			id = fmt.Sprintf("exp-%d", i)
		}
		if _, dup := seen[id]; dup {
			id = fmt.Sprintf("%s-%d", id, i)
		}
		seen[id] = struct{}{}

		bullets := make([]string, 0, len(exp.Bullets))
		for _, b := range exp.Bullets {
			if b = strings.TrimSpace(b); b != "" {
				bullets = append(bullets, b)
			}
		}

		out = append(out, Experience{
			ID:      id,
			Title:   strings.TrimSpace(exp.Title),
			Company: strings.TrimSpace(exp.Company),
			Bullets: bullets,
		})
	}
	return out
}
