package storybuilder

import (
	"fmt"

	"github.com/jonathan/star-builder/internal/sanitize"
	"github.com/jonathan/star-builder/internal/types"
)

// Messages shown in place of content.
const (
	NoExperiencesAdvisory = "No experiences found. Try refreshing the page to load your resume experiences."
	NoThemesAdvisory      = "No story themes available."
)

// ExperienceOption is one selectable experience.
type ExperienceOption struct {
	ID       string
	Label    string
	Company  string
	Bullets  []string
	Selected bool
}

// ToneOption is one entry of the tone selector.
type ToneOption struct {
	Tone     types.Tone
	Selected bool
}

// Section is one STAR section of a story card. HTML is sanitized and safe to inject.
type Section struct {
	Label string
	HTML  string
}

// StoryCard is the render model for one story.
type StoryCard struct {
	ID            string
	Title         string
	Expanded      bool
	AriaExpanded  string
	Sections      []Section
	TalkingPoints []string
	KeyThemes     []string
	Editing       bool
	Edit          *types.StoryFields
	EditError     string
}

// View is an immutable snapshot of everything needed to render the builder.
type View struct {
	Phase           Phase
	Advisory        string
	Experiences     []ExperienceOption
	Themes          []string
	Theme           string
	ThemeAdvisory   string
	Tones           []ToneOption
	Tone            types.Tone
	ToneDescription string
	GenerateEnabled bool
	Generating      bool
	CountLabel      string
	Stories         []StoryCard
	Practice        *PracticeSession
}

// CountLabel formats the heading above the story list.
func CountLabel(n int) string {
	return fmt.Sprintf("Your STAR Stories (%d)", n)
}

// View builds a render snapshot. Story text is sanitized here: titles and talking points with the
// Strict policy, narrative sections with SanitizeSummary.
func (b *Builder) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := View{
		Phase:           b.phase,
		Themes:          b.Themes(),
		Theme:           b.theme,
		Tone:            b.tone,
		ToneDescription: b.tone.Description(),
		GenerateEnabled: b.canGenerateLocked() && !b.generating.Load(),
		Generating:      b.generating.Load(),
		CountLabel:      CountLabel(len(b.stories)),
	}

	if len(b.props.Experiences) == 0 {
		v.Advisory = NoExperiencesAdvisory
	}
	if len(b.props.Themes) == 0 {
		v.ThemeAdvisory = NoThemesAdvisory
	}

	for i, exp := range b.props.Experiences {
		_, sel := b.selected[exp.ID]
		v.Experiences = append(v.Experiences, ExperienceOption{
			ID:       exp.ID,
			Label:    sanitize.Sanitize(exp.Label(i), sanitize.Strict),
			Company:  sanitize.Sanitize(exp.Company, sanitize.Strict),
			Bullets:  sanitize.SanitizeStrings(exp.Bullets, sanitize.Strict),
			Selected: sel,
		})
	}

	for _, t := range types.Tones {
		v.Tones = append(v.Tones, ToneOption{Tone: t, Selected: t == b.tone})
	}

	for _, s := range b.stories {
		v.Stories = append(v.Stories, b.cardLocked(s))
	}

	if b.practice != nil {
		p := b.practice.clone()
		v.Practice = &p
	}
	return v
}

func (b *Builder) cardLocked(s types.Story) StoryCard {
	expanded := !b.collapsed[s.ID]
	card := StoryCard{
		ID:           s.ID,
		Title:        sanitize.Sanitize(s.Title, sanitize.Strict),
		Expanded:     expanded,
		AriaExpanded: fmt.Sprintf("%t", expanded),
		KeyThemes:    sanitize.SanitizeStrings(s.KeyThemes, sanitize.Basic),
	}

	if e, editing := b.edits[s.ID]; editing {
		buf := e.buffer
		card.Editing = true
		card.Edit = &buf
		if e.err != nil {
			card.EditError = e.err.Error()
		}
	}

	if !expanded {
		return card
	}

	fields := s.Fields()
	for _, f := range types.STARFields {
		text, _ := fields.Get(f)
		card.Sections = append(card.Sections, Section{Label: f.Label(), HTML: sanitize.SanitizeSummary(text)})
	}
	card.TalkingPoints = sanitize.SanitizeStrings(s.TalkingPoints, sanitize.Strict)
	return card
}
