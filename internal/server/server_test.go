package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/star-builder/internal/config"
	"github.com/jonathan/star-builder/internal/db"
	"github.com/jonathan/star-builder/internal/stories"
	"github.com/jonathan/star-builder/internal/types"
)

const testSecret = "test-secret-at-least-16-chars"

var ipCounter atomic.Int32

type testServer struct {
	*Server
	t       *testing.T
	handler http.Handler
	store   *db.Memory
}

func newTestServer(t *testing.T, cfg Config, drafter stories.Drafter) *testServer {
	t.Helper()
	if drafter == nil {
		drafter = stories.TemplateDrafter{}
	}
	store := db.NewMemory()
	s, err := New(cfg, Deps{
		Store:     store,
		Drafter:   drafter,
		JWT:       &config.JWTConfig{Secret: testSecret, ExpirationHours: 1},
		Passwords: &config.PasswordConfig{BcryptCost: 10},
		Logger:    zap.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return &testServer{Server: s, t: t, handler: s.Handler(), store: store}
}

// do sends a request from a fresh client IP unless remote is given.
func (ts *testServer) do(method, path, token string, body any, remote ...string) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if len(remote) > 0 {
		req.RemoteAddr = remote[0]
	} else {
		n := ipCounter.Add(1)
		req.RemoteAddr = fmt.Sprintf("10.0.%d.%d:5000", n/250, n%250+1)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func (ts *testServer) register(email string) (string, *types.User) {
	ts.t.Helper()
	w := ts.do(http.MethodPost, "/api/auth/register", "", types.CreateUserRequest{
		Name: "Test User", Email: email, Password: "correct-horse",
	})
	require.Equal(ts.t, http.StatusCreated, w.Code, w.Body.String())
	var resp types.LoginResponse
	require.NoError(ts.t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(ts.t, resp.Success)
	require.NotEmpty(ts.t, resp.Token)
	return resp.Token, resp.User
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func sampleRequest() types.CreateStoryRequest {
	return types.CreateStoryRequest{
		TailoredResumeID: "resume-1",
		Theme:            "Leadership",
		Tone:             types.ToneConfident,
		Experiences: []types.Experience{{
			Title:   "Tech Lead",
			Company: "Initech",
			Bullets: []string{"Led a team of five engineers", "Cut release time by 40%"},
		}},
	}
}

func TestNew_RequiresDeps(t *testing.T) {
	jwtCfg := &config.JWTConfig{Secret: testSecret, ExpirationHours: 1}
	pw := &config.PasswordConfig{BcryptCost: 10}
	tests := []struct {
		name string
		deps Deps
	}{
		{"no store", Deps{Drafter: stories.TemplateDrafter{}, JWT: jwtCfg, Passwords: pw}},
		{"no drafter", Deps{Store: db.NewMemory(), JWT: jwtCfg, Passwords: pw}},
		{"no jwt", Deps{Store: db.NewMemory(), Drafter: stories.TemplateDrafter{}, Passwords: pw}},
		{"no passwords", Deps{Store: db.NewMemory(), Drafter: stories.TemplateDrafter{}, JWT: jwtCfg}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Config{}, tt.deps)
			assert.Error(t, err)
		})
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	w := ts.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDPropagates(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	t.Run("wildcard", func(t *testing.T) {
		ts := newTestServer(t, Config{AllowedOrigins: []string{"*"}}, nil)
		w := ts.do(http.MethodOptions, "/api/star-stories/list", "", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("listed origin", func(t *testing.T) {
		ts := newTestServer(t, Config{AllowedOrigins: []string{"https://app.example.com"}}, nil)
		for origin, want := range map[string]string{
			"https://app.example.com": "https://app.example.com",
			"https://evil.example":    "",
		} {
			req := httptest.NewRequest(http.MethodOptions, "/health", nil)
			req.Header.Set("Origin", origin)
			w := httptest.NewRecorder()
			ts.handler.ServeHTTP(w, req)
			assert.Equal(t, want, w.Header().Get("Access-Control-Allow-Origin"), origin)
		}
	})
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	token, user := ts.register("Ada@Example.com")
	assert.Equal(t, "ada@example.com", user.Email)

	t.Run("duplicate email", func(t *testing.T) {
		w := ts.do(http.MethodPost, "/api/auth/register", "", types.CreateUserRequest{
			Name: "Other", Email: "ada@example.com", Password: "another-pass",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.False(t, decode[errorBody](t, w).Success)
	})

	t.Run("me", func(t *testing.T) {
		w := ts.do(http.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"email":"ada@example.com"`)
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("login", func(t *testing.T) {
		w := ts.do(http.MethodPost, "/api/auth/login", "", types.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, decode[types.LoginResponse](t, w).Token)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		bad := ts.do(http.MethodPost, "/api/auth/login", "", types.LoginRequest{Email: "ada@example.com", Password: "nope-nope"})
		unknown := ts.do(http.MethodPost, "/api/auth/login", "", types.LoginRequest{Email: "who@example.com", Password: "nope-nope"})
		assert.Equal(t, http.StatusUnauthorized, bad.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, decode[errorBody](t, bad).Error, decode[errorBody](t, unknown).Error)
	})

	t.Run("change password", func(t *testing.T) {
		w := ts.do(http.MethodPut, "/api/auth/password", token, types.UpdatePasswordRequest{
			CurrentPassword: "wrong-current", NewPassword: "battery-staple",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = ts.do(http.MethodPut, "/api/auth/password", token, types.UpdatePasswordRequest{
			CurrentPassword: "correct-horse", NewPassword: "battery-staple",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = ts.do(http.MethodPost, "/api/auth/login", "", types.LoginRequest{Email: "ada@example.com", Password: "battery-staple"})
		assert.Equal(t, http.StatusOK, w.Code)
		w = ts.do(http.MethodPost, "/api/auth/login", "", types.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	tests := []struct {
		name      string
		body      any
		wantField string
	}{
		{"bad email", types.CreateUserRequest{Name: "A", Email: "not-an-email", Password: "long-enough"}, "email"},
		{"short password", types.CreateUserRequest{Name: "A", Email: "a@example.com", Password: "short"}, "password"},
		{"missing name", types.CreateUserRequest{Email: "a@example.com", Password: "long-enough"}, "name"},
		{"not json", "{{{", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode[errorBody](t, w).Error, tt.wantField)
		})
	}
}

func TestStoriesRequireAuth(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/star-stories/list?tailored_resume_id=r"},
		{http.MethodPost, "/api/star-stories/generate"},
		{http.MethodGet, "/api/star-stories/abc"},
		{http.MethodPut, "/api/star-stories/abc"},
		{http.MethodDelete, "/api/star-stories/abc"},
		{http.MethodGet, "/api/star-stories/abc/export"},
		{http.MethodGet, "/api/auth/me"},
	}
	for _, rt := range routes {
		for _, token := range []string{"", "not-a-jwt"} {
			w := ts.do(rt.method, rt.path, token, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", rt.method, rt.path)
			assert.Equal(t, errorBody{Error: "unauthorized"}, decode[errorBody](t, w))
		}
	}
}

func TestStoryLifecycle(t *testing.T) {
	ts := newTestServer(t, Config{RateLimitPerMinute: 60}, nil)
	token, _ := ts.register("owner@example.com")
	other, _ := ts.register("other@example.com")

	w := ts.do(http.MethodPost, "/api/star-stories/generate", token, sampleRequest())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[types.StoryResponse](t, w)
	require.True(t, created.Success)
	story := created.Story
	require.NotNil(t, story)
	assert.NotEmpty(t, story.ID)
	assert.Equal(t, "resume-1", story.TailoredResumeID)
	assert.Equal(t, types.ToneConfident, story.Tone)
	assert.True(t, story.Complete())

	w = ts.do(http.MethodGet, "/api/star-stories/list?tailored_resume_id=resume-1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[types.ListStoriesResponse](t, w)
	require.Len(t, list.Stories, 1)
	assert.Equal(t, story.ID, list.Stories[0].ID)

	w = ts.do(http.MethodGet, "/api/star-stories/list?tailored_resume_id=resume-2", token, nil)
	assert.JSONEq(t, `{"success":true,"stories":[]}`, w.Body.String())

	t.Run("other user cannot see it", func(t *testing.T) {
		w := ts.do(http.MethodGet, "/api/star-stories/"+story.ID, other, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = ts.do(http.MethodDelete, "/api/star-stories/"+story.ID, other, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = ts.do(http.MethodGet, "/api/star-stories/list?tailored_resume_id=resume-1", other, nil)
		assert.Empty(t, decode[types.ListStoriesResponse](t, w).Stories)
	})

	t.Run("update strips markup", func(t *testing.T) {
		fields := story.Fields()
		fields.Title = "<b>Shipping</b> under pressure"
		fields.Result = `Cut p99 latency <script>alert(1)</script>by half`
		w := ts.do(http.MethodPut, "/api/star-stories/"+story.ID, token, types.UpdateStoryRequest{StoryFields: fields})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		updated := decode[types.StoryResponse](t, w).Story
		assert.Equal(t, "Shipping under pressure", updated.Title)
		assert.NotContains(t, updated.Result, "<script>")
		assert.Equal(t, story.CreatedAt.Unix(), updated.CreatedAt.Unix())
	})

	t.Run("update requires title", func(t *testing.T) {
		fields := story.Fields()
		fields.Title = "<i></i>  "
		w := ts.do(http.MethodPut, "/api/star-stories/"+story.ID, token, types.UpdateStoryRequest{StoryFields: fields})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[errorBody](t, w).Error, "title")
	})

	t.Run("update rejects oversized field", func(t *testing.T) {
		fields := story.Fields()
		fields.Title = strings.Repeat("x", 301)
		w := ts.do(http.MethodPut, "/api/star-stories/"+story.ID, token, types.UpdateStoryRequest{StoryFields: fields})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := ts.do(http.MethodDelete, "/api/star-stories/"+story.ID, token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, types.DeleteStoryResponse{Success: true, ID: story.ID}, decode[types.DeleteStoryResponse](t, w))

		w = ts.do(http.MethodGet, "/api/star-stories/"+story.ID, token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = ts.do(http.MethodDelete, "/api/star-stories/"+story.ID, token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListRequiresResumeID(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	token, _ := ts.register("a@example.com")
	w := ts.do(http.MethodGet, "/api/star-stories/list", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).Error, "tailored_resume_id")
}

func TestGenerateValidation(t *testing.T) {
	ts := newTestServer(t, Config{RateLimitPerMinute: 60}, nil)
	token, _ := ts.register("a@example.com")

	tests := []struct {
		name      string
		mutate    func(*types.CreateStoryRequest)
		wantField string
	}{
		{"no experiences", func(r *types.CreateStoryRequest) { r.Experiences = nil }, "experiences"},
		{"no theme", func(r *types.CreateStoryRequest) { r.Theme = "" }, "theme"},
		{"no resume", func(r *types.CreateStoryRequest) { r.TailoredResumeID = "" }, "tailored_resume_id"},
		{"bad tone", func(r *types.CreateStoryRequest) { r.Tone = "sarcastic" }, "tone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := sampleRequest()
			tt.mutate(&req)
			w := ts.do(http.MethodPost, "/api/star-stories/generate", token, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode[errorBody](t, w).Error, tt.wantField)
		})
	}
}

type failingDrafter struct{ err error }

func (f failingDrafter) Draft(context.Context, types.CreateStoryRequest) (*types.Story, error) {
	return nil, f.err
}

func TestGenerateDrafterFailure(t *testing.T) {
	genErr := &stories.GenerationError{Stage: stories.StageLLM, Cause: errors.New("upstream 503 with secret details")}
	ts := newTestServer(t, Config{RateLimitPerMinute: 60}, failingDrafter{err: genErr})
	token, _ := ts.register("a@example.com")

	w := ts.do(http.MethodPost, "/api/star-stories/generate", token, sampleRequest())
	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decode[errorBody](t, w)
	assert.Equal(t, "story generation failed", body.Error)
	w = ts.do(http.MethodGet, "/api/star-stories/list?tailored_resume_id=resume-1", token, nil)
	assert.Empty(t, decode[types.ListStoriesResponse](t, w).Stories)
}

func TestGenerateRateLimited(t *testing.T) {
	// 4 per minute gives a burst of one.
	ts := newTestServer(t, Config{RateLimitPerMinute: 4}, nil)
	token, _ := ts.register("a@example.com")

	const ip = "198.51.100.7:1234"
	w := ts.do(http.MethodPost, "/api/star-stories/generate", token, sampleRequest(), ip)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Limit"))

	w = ts.do(http.MethodPost, "/api/star-stories/generate", token, sampleRequest(), ip)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "rate limit exceeded", decode[errorBody](t, w).Error)

	// other clients and other routes are unaffected
	w = ts.do(http.MethodPost, "/api/star-stories/generate", token, sampleRequest())
	assert.Equal(t, http.StatusCreated, w.Code)
	w = ts.do(http.MethodGet, "/api/star-stories/list?tailored_resume_id=resume-1", token, nil, ip)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitAllowlist(t *testing.T) {
	ts := newTestServer(t, Config{RateLimitPerMinute: 4, RateLimitAllowlist: []string{"198.51.100.9"}}, nil)
	token, _ := ts.register("a@example.com")
	for range 3 {
		w := ts.do(http.MethodPost, "/api/star-stories/generate", token, sampleRequest(), "198.51.100.9:1")
		assert.Equal(t, http.StatusCreated, w.Code)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&ErrEmailAlreadyExists{Email: "a"}, http.StatusConflict},
		{fmt.Errorf("wrap: %w", db.ErrConflict), http.StatusConflict},
		{&ErrInvalidCredentials{}, http.StatusUnauthorized},
		{&ErrPasswordMismatch{}, http.StatusUnauthorized},
		{&ErrValidation{Field: "x", Message: "bad"}, http.StatusBadRequest},
		{fmt.Errorf("get: %w", db.ErrNotFound), http.StatusNotFound},
		{&stories.GenerationError{Stage: stories.StageSchema, Cause: errors.New("x")}, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestSnakeCase(t *testing.T) {
	for in, want := range map[string]string{
		"TailoredResumeID": "tailored_resume_id",
		"Email":            "email",
		"CurrentPassword":  "current_password",
		"ID":               "id",
		"JobTitle":         "job_title",
	} {
		assert.Equal(t, want, snakeCase(in), in)
	}
}
