package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jonathan/star-builder/internal/types"
)

// StarStoriesClient manages STAR story records scoped to a tailored resume.
type StarStoriesClient struct {
	t *transport
}

// List returns the stories saved for a tailored resume.
func (c *StarStoriesClient) List(ctx context.Context, tailoredResumeID string) ([]types.Story, error) {
	var resp types.ListStoriesResponse
	q := url.Values{"tailored_resume_id": {tailoredResumeID}}
	if err := c.t.do(ctx, http.MethodGet, "/api/star-stories/list", q, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Stories == nil {
		return []types.Story{}, nil
	}
	return resp.Stories, nil
}

// Create asks the backend to generate a story and returns the persisted record.
func (c *StarStoriesClient) Create(ctx context.Context, req types.CreateStoryRequest) (*types.Story, error) {
	var resp types.StoryResponse
	if err := c.t.do(ctx, http.MethodPost, "/api/star-stories/generate", nil, req, &resp); err != nil {
		return nil, err
	}
	if resp.Story == nil {
		return nil, &APIError{Message: "response did not include a story"}
	}
	return resp.Story, nil
}

// Update replaces the editable fields of a story.
func (c *StarStoriesClient) Update(ctx context.Context, id string, req types.UpdateStoryRequest) (*types.Story, error) {
	var resp types.StoryResponse
	if err := c.t.do(ctx, http.MethodPut, "/api/star-stories/"+url.PathEscape(id), nil, req, &resp); err != nil {
		return nil, err
	}
	if resp.Story == nil {
		return nil, &APIError{Message: "response did not include a story"}
	}
	return resp.Story, nil
}

// Delete removes a story.
func (c *StarStoriesClient) Delete(ctx context.Context, id string) error {
	var resp types.DeleteStoryResponse
	return c.t.do(ctx, http.MethodDelete, "/api/star-stories/"+url.PathEscape(id), nil, nil, &resp)
}
