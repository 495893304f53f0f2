// Package server provides the HTTP REST API for STAR stories and accounts.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/star-builder/internal/config"
	"github.com/jonathan/star-builder/internal/db"
	"github.com/jonathan/star-builder/internal/server/middleware"
	"github.com/jonathan/star-builder/internal/server/ratelimit"
	"github.com/jonathan/star-builder/internal/stories"
)

const maxBodyBytes = 1 << 20

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	store      db.Store
	drafter    stories.Drafter
	jwt        *JWTService
	users      *UserService
	limiter    *ratelimit.Limiter
	logger     *zap.Logger
	origins    []string
	now        func() time.Time
}

// Config holds listener and policy settings.
type Config struct {
	Port           int
	AllowedOrigins []string
	// RateLimitPerMinute caps story generation per client. Zero disables that rule.
	RateLimitPerMinute int
	// RateLimitAllowlist lists client IPs exempt from rate limiting.
	RateLimitAllowlist []string
}

// Deps are the collaborators the server needs.
type Deps struct {
	Store     db.Store
	Drafter   stories.Drafter
	JWT       *config.JWTConfig
	Passwords *config.PasswordConfig
	Logger    *zap.Logger
}

// New creates a server. The store is owned by the server from here on and
// is closed by Close.
func New(cfg Config, deps Deps) (*Server, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("server: store is required")
	case deps.Drafter == nil:
		return nil, errors.New("server: drafter is required")
	case deps.JWT == nil:
		return nil, errors.New("server: JWT config is required")
	case deps.Passwords == nil:
		return nil, errors.New("server: password config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	allow := make(map[string]bool, len(cfg.RateLimitAllowlist))
	for _, ip := range cfg.RateLimitAllowlist {
		allow[ip] = true
	}

	s := &Server{
		store:   deps.Store,
		drafter: deps.Drafter,
		jwt:     NewJWTService(deps.JWT),
		users:   NewUserService(deps.Store, deps.Passwords),
		logger:  logger.Named("server"),
		origins: cfg.AllowedOrigins,
		now:     time.Now,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			Enabled:   true,
			Rules:     ratelimit.DefaultRules(cfg.RateLimitPerMinute),
			Allowlist: allow,
			IdleTTL:   10 * time.Minute,
		}),
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // generation waits on the LLM
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	return s.withRateLimit(s.withLogging(s.withCORS(s.routes())))
}

func (s *Server) routes() *http.ServeMux {
	auth := middleware.AuthMiddleware(s.jwt.AsTokenValidator(), s.unauthorized)
	protected := func(h http.HandlerFunc) http.Handler { return auth(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.Handle("PUT /api/auth/password", protected(s.handleUpdatePassword))
	mux.Handle("GET /api/auth/me", protected(s.handleMe))

	mux.Handle("GET /api/star-stories/list", protected(s.handleListStories))
	mux.Handle("POST /api/star-stories/generate", protected(s.handleGenerateStory))
	mux.Handle("GET /api/star-stories/{id}", protected(s.handleGetStory))
	mux.Handle("PUT /api/star-stories/{id}", protected(s.handleUpdateStory))
	mux.Handle("DELETE /api/star-stories/{id}", protected(s.handleDeleteStory))
	mux.Handle("GET /api/star-stories/{id}/export", protected(s.handleExportStory))
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully and closes the store.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			_ = s.Close(context.Background())
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := s.Close(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// Close stops the rate limiter and closes the store.
func (s *Server) Close(ctx context.Context) error {
	s.limiter.Stop()
	return s.store.Close(ctx)
}

// withCORS answers preflight requests and sets CORS headers for allowed origins.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case slices.Contains(s.origins, "*"):
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(s.origins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// withLogging tags each request with an ID and writes one access log line.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		fields := []zap.Field{
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
		}
		if rec.status >= http.StatusInternalServerError {
			s.logger.Warn("request", fields...)
			return
		}
		s.logger.Info("request", fields...)
	})
}

// withRateLimit applies the per-route token buckets keyed by client IP.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := s.limiter.Allow(clientIP(r), r.Method, r.URL.Path)
		if info.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		}
		if !info.Allowed {
			retry := int(math.Ceil(info.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			s.logger.Warn("rate limit exceeded",
				zap.String("client", clientIP(r)),
				zap.String("path", r.URL.Path),
				zap.Int("limit", info.Limit))
			s.jsonResponse(w, http.StatusTooManyRequests, map[string]any{
				"success":     false,
				"error":       "rate limit exceeded",
				"retry_after": retry,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP uses RemoteAddr only; forwarded headers are not trusted.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request, reason string) {
	s.logger.Debug("unauthorized", zap.String("path", r.URL.Path), zap.String("reason", reason))
	s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes the {"success":false,"error":...} envelope.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]any{"success": false, "error": message})
}

// writeError maps err to a status. Internal errors are logged and hidden from the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal server error"
	case http.StatusNotFound:
		msg = "not found"
	case http.StatusBadGateway:
		s.logger.Warn("story generation failed", zap.Error(err))
		msg = "story generation failed"
	}
	s.errorResponse(w, status, msg)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &ErrValidation{Message: "invalid request body"}
	}
	return nil
}

// userID returns the authenticated caller. Routes calling it are behind AuthMiddleware.
func (s *Server) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := middleware.UserID(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return id, true
}
