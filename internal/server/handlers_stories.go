package server

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/star-builder/internal/sanitize"
	"github.com/jonathan/star-builder/internal/types"
)

func (s *Server) handleListStories(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	resumeID := strings.TrimSpace(r.URL.Query().Get("tailored_resume_id"))
	if resumeID == "" {
		s.writeError(w, r, &ErrValidation{Field: "tailored_resume_id", Message: "is required"})
		return
	}
	list, err := s.store.ListStories(r.Context(), userID, resumeID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []types.Story{}
	}
	s.jsonResponse(w, http.StatusOK, types.ListStoriesResponse{Success: true, Stories: list})
}

// handleGenerateStory drafts a story from the request and persists it.
func (s *Server) handleGenerateStory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req types.CreateStoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, validationError(err))
		return
	}

	story, err := s.drafter.Draft(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.CreateStory(r.Context(), userID, story); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("story generated",
		zap.String("story_id", story.ID),
		zap.String("tailored_resume_id", story.TailoredResumeID),
		zap.String("tone", string(story.Tone)))
	s.jsonResponse(w, http.StatusCreated, types.StoryResponse{Success: true, Story: story})
}

func (s *Server) handleGetStory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	story, err := s.store.GetStory(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, types.StoryResponse{Success: true, Story: story})
}

// handleUpdateStory replaces the editable fields. Markup is stripped before storage.
func (s *Server) handleUpdateStory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req types.UpdateStoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, validationError(err))
		return
	}

	fields := types.StoryFields{
		Title:     sanitize.PlainText(req.Title),
		Situation: sanitize.PlainText(req.Situation),
		Task:      sanitize.PlainText(req.Task),
		Action:    sanitize.PlainText(req.Action),
		Result:    sanitize.PlainText(req.Result),
	}
	if fields.Title == "" {
		s.writeError(w, r, &ErrValidation{Field: "title", Message: "is required"})
		return
	}

	story, err := s.store.UpdateStory(r.Context(), userID, r.PathValue("id"), fields, s.now().UTC())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, types.StoryResponse{Success: true, Story: story})
}

func (s *Server) handleDeleteStory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if err := s.store.DeleteStory(r.Context(), userID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, types.DeleteStoryResponse{Success: true, ID: id})
}
