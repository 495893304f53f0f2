package storybuilder

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/jonathan/star-builder/internal/types"
)

var practicePrompts = map[types.StoryField]string{
	types.FieldSituation: "Set the scene. Where were you and what was going on?",
	types.FieldTask:      "What were you responsible for?",
	types.FieldAction:    "What did you do, step by step?",
	types.FieldResult:    "What changed because of it? Use numbers if you can.",
}

// PracticeStep is one prompt in a practice session.
type PracticeStep struct {
	Label     string
	Prompt    string
	Reference string
}

// PracticeSession rehearses one story section by section. It holds a snapshot of the story, so
// edits made elsewhere do not affect a session already open.
type PracticeSession struct {
	StoryID  string
	Title    string
	Steps    []PracticeStep
	Current  int
	Answers  map[int]string
	OpenedAt time.Time
}

func newPracticeSession(s types.Story) *PracticeSession {
	fields := s.Fields()
	steps := make([]PracticeStep, 0, len(types.STARFields)+1)
	for _, f := range types.STARFields {
		text, _ := fields.Get(f)
		if strings.TrimSpace(text) == "" {
			continue
		}
		steps = append(steps, PracticeStep{Label: f.Label(), Prompt: practicePrompts[f], Reference: text})
	}
	if len(s.TalkingPoints) > 0 {
		steps = append(steps, PracticeStep{
			Label:     "Talking Points",
			Prompt:    "Close with the points you want the interviewer to remember.",
			Reference: strings.Join(s.TalkingPoints, "\n"),
		})
	}
	return &PracticeSession{
		StoryID:  s.ID,
		Title:    s.Title,
		Steps:    steps,
		Answers:  make(map[int]string),
		OpenedAt: time.Now(),
	}
}

// Step returns the current step, if any.
func (p PracticeSession) Step() (PracticeStep, bool) {
	if p.Current < 0 || p.Current >= len(p.Steps) {
		return PracticeStep{}, false
	}
	return p.Steps[p.Current], true
}

// Done reports whether every step has been visited.
func (p PracticeSession) Done() bool {
	return p.Current >= len(p.Steps)-1
}

func (p *PracticeSession) clone() PracticeSession {
	out := *p
	out.Steps = slices.Clone(p.Steps)
	out.Answers = maps.Clone(p.Answers)
	return out
}

// OpenPractice opens a practice session for one story, replacing any session already open.
func (b *Builder) OpenPractice(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexLocked(id)
	if i < 0 {
		return ErrUnknownStory
	}
	b.practice = newPracticeSession(b.stories[i])
	return nil
}

// Practice returns a copy of the open practice session.
func (b *Builder) Practice() (PracticeSession, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.practice == nil {
		return PracticeSession{}, false
	}
	return b.practice.clone(), true
}

// PracticeNext advances to the next step. It stays on the last step.
func (b *Builder) PracticeNext() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.practice == nil {
		return ErrPracticeClosed
	}
	if b.practice.Current < len(b.practice.Steps)-1 {
		b.practice.Current++
	}
	return nil
}

// PracticePrev goes back one step. It stays on the first step.
func (b *Builder) PracticePrev() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.practice == nil {
		return ErrPracticeClosed
	}
	if b.practice.Current > 0 {
		b.practice.Current--
	}
	return nil
}

// RecordAnswer stores the user's rehearsal draft for the current step.
func (b *Builder) RecordAnswer(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.practice == nil {
		return ErrPracticeClosed
	}
	b.practice.Answers[b.practice.Current] = text
	return nil
}

// ClosePractice closes the practice session. Story data is not touched.
func (b *Builder) ClosePractice() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.practice = nil
}
