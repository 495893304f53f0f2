package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// Resume is an uploaded resume as returned by the backend.
type Resume struct {
	ID       string         `json:"id"`
	Filename string         `json:"filename"`
	Content  map[string]any `json:"content,omitempty"`
}

// ResumesClient uploads and manages source resumes.
type ResumesClient struct {
	t *transport
}

// Upload sends a resume file as multipart form data.
func (c *ResumesClient) Upload(ctx context.Context, filename string, r io.Reader) (*Resume, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to copy resume: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload: %w", err)
	}

	var resp struct {
		Resume *Resume `json:"resume"`
	}
	if err := c.t.send(ctx, http.MethodPost, "/api/resumes/upload", nil, &buf, mw.FormDataContentType(), &resp); err != nil {
		return nil, err
	}
	if resp.Resume == nil {
		return nil, &APIError{Message: "response did not include a resume"}
	}
	return resp.Resume, nil
}

// List returns the caller's resumes.
func (c *ResumesClient) List(ctx context.Context) ([]Resume, error) {
	var resp struct {
		Resumes []Resume `json:"resumes"`
	}
	if err := c.t.do(ctx, http.MethodGet, "/api/resumes", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Resumes, nil
}

// Get returns one resume.
func (c *ResumesClient) Get(ctx context.Context, id string) (*Resume, error) {
	var resp struct {
		Resume *Resume `json:"resume"`
	}
	if err := c.t.do(ctx, http.MethodGet, "/api/resumes/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Resume, nil
}

// Delete removes a resume.
func (c *ResumesClient) Delete(ctx context.Context, id string) error {
	return c.t.do(ctx, http.MethodDelete, "/api/resumes/"+url.PathEscape(id), nil, nil, nil)
}
