package types

import (
	"fmt"
	"time"
)

// Story is a persisted STAR narrative. ID is assigned by the backend on creation and never changes.
type Story struct {
	ID               string    `json:"id"`
	TailoredResumeID string    `json:"tailored_resume_id,omitempty"`
	Title            string    `json:"title"`
	Situation        string    `json:"situation,omitempty"`
	Task             string    `json:"task,omitempty"`
	Action           string    `json:"action,omitempty"`
	Result           string    `json:"result,omitempty"`
	KeyThemes        []string  `json:"key_themes,omitempty"`
	TalkingPoints    []string  `json:"talking_points,omitempty"`
	Theme            string    `json:"theme,omitempty"`
	Tone             Tone      `json:"tone,omitempty"`
	ExperienceIDs    []string  `json:"experience_ids,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitzero"`
	UpdatedAt        time.Time `json:"updated_at,omitzero"`
}

// StoryField names one of the editable text fields of a story.
type StoryField string

// Editable story fields
const (
	FieldTitle     StoryField = "title"
	FieldSituation StoryField = "situation"
	FieldTask      StoryField = "task"
	FieldAction    StoryField = "action"
	FieldResult    StoryField = "result"
)

// STARFields lists the four narrative fields in display order.
var STARFields = []StoryField{FieldSituation, FieldTask, FieldAction, FieldResult}

// Label returns the display label for the field.
func (f StoryField) Label() string {
	switch f {
	case FieldTitle:
		return "Title"
	case FieldSituation:
		return "Situation"
	case FieldTask:
		return "Task"
	case FieldAction:
		return "Action"
	case FieldResult:
		return "Result"
	default:
		return string(f)
	}
}

// StoryFields is the editable subset of a story: the title plus the four narrative fields.
type StoryFields struct {
	Title     string `json:"title" validate:"max=300"`
	Situation string `json:"situation" validate:"max=5000"`
	Task      string `json:"task" validate:"max=5000"`
	Action    string `json:"action" validate:"max=5000"`
	Result    string `json:"result" validate:"max=5000"`
}

// Fields returns the editable fields of the story.
func (s Story) Fields() StoryFields {
	return StoryFields{
		Title:     s.Title,
		Situation: s.Situation,
		Task:      s.Task,
		Action:    s.Action,
		Result:    s.Result,
	}
}

// WithFields returns a copy of the story with the editable fields replaced.
func (s Story) WithFields(f StoryFields) Story {
	s.Title = f.Title
	s.Situation = f.Situation
	s.Task = f.Task
	s.Action = f.Action
	s.Result = f.Result
	return s
}

// Get returns the value of a single field.
func (f StoryFields) Get(field StoryField) (string, error) {
	switch field {
	case FieldTitle:
		return f.Title, nil
	case FieldSituation:
		return f.Situation, nil
	case FieldTask:
		return f.Task, nil
	case FieldAction:
		return f.Action, nil
	case FieldResult:
		return f.Result, nil
	default:
		return "", fmt.Errorf("unknown story field %q", field)
	}
}

// Set returns a copy with a single field replaced.
func (f StoryFields) Set(field StoryField, value string) (StoryFields, error) {
	switch field {
	case FieldTitle:
		f.Title = value
	case FieldSituation:
		f.Situation = value
	case FieldTask:
		f.Task = value
	case FieldAction:
		f.Action = value
	case FieldResult:
		f.Result = value
	default:
		return f, fmt.Errorf("unknown story field %q", field)
	}
	return f, nil
}

// Complete reports whether all four narrative fields are populated.
func (s Story) Complete() bool {
	return s.Situation != "" && s.Task != "" && s.Action != "" && s.Result != ""
}
