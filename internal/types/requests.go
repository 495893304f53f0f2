package types

import (
	"github.com/go-playground/validator/v10"
)

// CreateStoryRequest asks the backend to generate and persist a STAR story.
type CreateStoryRequest struct {
	TailoredResumeID string       `json:"tailored_resume_id" validate:"required"`
	Experiences      []Experience `json:"experiences" validate:"required,min=1"`
	Theme            string       `json:"theme" validate:"required"`
	Tone             Tone         `json:"tone" validate:"required,oneof=professional conversational confident humble concise"`
	Company          string       `json:"company,omitempty"`
	JobTitle         string       `json:"job_title,omitempty"`
	JobDescription   string       `json:"job_description,omitempty"`
}

// UpdateStoryRequest replaces the editable fields of a story.
type UpdateStoryRequest struct {
	StoryFields
}

// ListStoriesResponse is the body of GET /api/star-stories/list.
type ListStoriesResponse struct {
	Success bool    `json:"success"`
	Stories []Story `json:"stories"`
	Error   string  `json:"error,omitempty"`
}

// StoryResponse is the body returned by create and update.
type StoryResponse struct {
	Success bool   `json:"success"`
	Story   *Story `json:"story,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DeleteStoryResponse is the body returned by delete.
type DeleteStoryResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

var validate = validator.New()

// Validate validates the CreateStoryRequest using the validator.
func (r *CreateStoryRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the UpdateStoryRequest using the validator.
func (r *UpdateStoryRequest) Validate() error {
	return validate.Struct(r)
}
