package api

import (
	"context"
	"net/http"
	"net/url"
)

// TailorRequest asks the backend to tailor a resume to a job.
type TailorRequest struct {
	BaseResumeID   string `json:"base_resume_id"`
	Company        string `json:"company"`
	JobTitle       string `json:"job_title"`
	JobDescription string `json:"job_description"`
	JobURL         string `json:"job_url,omitempty"`
}

// TailoredResume is a resume variant adjusted for a specific job target.
type TailoredResume struct {
	ID             string         `json:"id"`
	BaseResumeID   string         `json:"base_resume_id"`
	Company        string         `json:"company"`
	JobTitle       string         `json:"job_title"`
	JobDescription string         `json:"job_description,omitempty"`
	Content        map[string]any `json:"tailored_content,omitempty"`
}

// TailoringClient creates and fetches tailored resumes.
type TailoringClient struct {
	t *transport
}

// Tailor creates a tailored resume.
func (c *TailoringClient) Tailor(ctx context.Context, req TailorRequest) (*TailoredResume, error) {
	var resp struct {
		TailoredResume *TailoredResume `json:"tailored_resume"`
	}
	if err := c.t.do(ctx, http.MethodPost, "/api/tailor/tailor", nil, req, &resp); err != nil {
		return nil, err
	}
	if resp.TailoredResume == nil {
		return nil, &APIError{Message: "response did not include a tailored resume"}
	}
	return resp.TailoredResume, nil
}

// Get returns one tailored resume.
func (c *TailoringClient) Get(ctx context.Context, id string) (*TailoredResume, error) {
	var resp struct {
		TailoredResume *TailoredResume `json:"tailored_resume"`
	}
	if err := c.t.do(ctx, http.MethodGet, "/api/tailor/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.TailoredResume, nil
}

// List returns the caller's tailored resumes.
func (c *TailoringClient) List(ctx context.Context) ([]TailoredResume, error) {
	var resp struct {
		TailoredResumes []TailoredResume `json:"tailored_resumes"`
	}
	if err := c.t.do(ctx, http.MethodGet, "/api/tailor/list", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.TailoredResumes, nil
}
