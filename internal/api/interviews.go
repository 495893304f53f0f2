package api

import (
	"context"
	"net/http"
	"net/url"
)

// InterviewQuestion is one generated practice question.
type InterviewQuestion struct {
	Question string `json:"question"`
	Category string `json:"category,omitempty"`
	Hint     string `json:"hint,omitempty"`
}

// QuestionsRequest asks for practice questions for a tailored resume.
type QuestionsRequest struct {
	TailoredResumeID string `json:"tailored_resume_id"`
	Count            int    `json:"count,omitempty"`
}

// InterviewPrep is the saved interview preparation for a tailored resume.
type InterviewPrep struct {
	ID               string              `json:"id"`
	TailoredResumeID string              `json:"tailored_resume_id"`
	Questions        []InterviewQuestion `json:"questions"`
}

// InterviewsClient fetches interview preparation material.
type InterviewsClient struct {
	t *transport
}

// GenerateQuestions asks the backend for practice questions.
func (c *InterviewsClient) GenerateQuestions(ctx context.Context, req QuestionsRequest) ([]InterviewQuestion, error) {
	var resp struct {
		Questions []InterviewQuestion `json:"questions"`
	}
	if err := c.t.do(ctx, http.MethodPost, "/api/interview-prep/questions", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.Questions, nil
}

// GetPrep returns the interview prep saved for a tailored resume.
func (c *InterviewsClient) GetPrep(ctx context.Context, tailoredResumeID string) (*InterviewPrep, error) {
	var resp struct {
		Prep *InterviewPrep `json:"interview_prep"`
	}
	path := "/api/interview-prep/" + url.PathEscape(tailoredResumeID)
	if err := c.t.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Prep, nil
}
