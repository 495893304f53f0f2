package api

import (
	"context"
	"net/http"
	"net/url"
)

// ResourceClient is a plain CRUD client for resources whose payloads the façade does not model:
// career paths, applications and cover letters.
type ResourceClient struct {
	t    *transport
	base string
}

// List returns the response body of GET {base}.
func (c *ResourceClient) List(ctx context.Context) (map[string]any, error) {
	out := map[string]any{}
	if err := c.t.do(ctx, http.MethodGet, c.base, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the response body of GET {base}/{id}.
func (c *ResourceClient) Get(ctx context.Context, id string) (map[string]any, error) {
	out := map[string]any{}
	if err := c.t.do(ctx, http.MethodGet, c.base+"/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create posts payload to {base} and returns the response body.
func (c *ResourceClient) Create(ctx context.Context, payload map[string]any) (map[string]any, error) {
	out := map[string]any{}
	if err := c.t.do(ctx, http.MethodPost, c.base, nil, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes {base}/{id}.
func (c *ResourceClient) Delete(ctx context.Context, id string) error {
	return c.t.do(ctx, http.MethodDelete, c.base+"/"+url.PathEscape(id), nil, nil, nil)
}

// Path returns the resource collection path.
func (c *ResourceClient) Path() string {
	return c.base
}
