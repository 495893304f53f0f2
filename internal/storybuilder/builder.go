// Package storybuilder is the STAR story builder state machine.
//
// A Builder owns all ephemeral UI state for one tailored resume: which experiences are selected,
// the chosen theme and tone, per-story collapse and edit state, and an optional practice session.
// Durable stories belong to the backend and are reached through a StoryService. The local list is
// only ever appended to, replaced-by-id or removed-by-id, so results that resolve in any order
// never clobber each other.
//
// A Builder is safe for concurrent use. Backend calls are made without holding the lock.
package storybuilder

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonathan/star-builder/internal/types"
	"go.uber.org/zap"
)

// StoryService is the backend the builder persists stories through.
// *api.StarStoriesClient satisfies it.
type StoryService interface {
	List(ctx context.Context, tailoredResumeID string) ([]types.Story, error)
	Create(ctx context.Context, req types.CreateStoryRequest) (*types.Story, error)
	Update(ctx context.Context, id string, req types.UpdateStoryRequest) (*types.Story, error)
	Delete(ctx context.Context, id string) error
}

// Props is the read-only input supplied by the parent page.
type Props struct {
	TailoredResumeID string
	Experiences      []types.Experience
	Themes           []string
	Company          string
	JobTitle         string
	JobDescription   string
}

// Phase is the loading lifecycle of the story list.
type Phase int

// Phases
const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading-existing"
	case PhaseReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Option customizes a Builder.
type Option func(*Builder)

// WithNotifier sets where user notifications go.
func WithNotifier(n Notifier) Option {
	return func(b *Builder) {
		if n != nil {
			b.notifier = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

type editState struct {
	buffer types.StoryFields
	err    error
}

// Builder is the story builder state machine.
type Builder struct {
	service  StoryService
	notifier Notifier
	logger   *zap.Logger
	props    Props

	// generating is the in-flight guard for Generate. It is set before any I/O.
	generating atomic.Bool

	mu        sync.Mutex
	phase     Phase
	loadErr   error
	selected  map[string]struct{}
	theme     string
	tone      types.Tone
	stories   []types.Story
	collapsed map[string]bool
	edits     map[string]*editState
	deleted   map[string]struct{}
	practice  *PracticeSession
}

// New creates a Builder. Experiences are normalized once here: each gets a stable ID and a single
// canonical role label.
func New(service StoryService, props Props, opts ...Option) *Builder {
	props.Experiences = types.NormalizeExperiences(props.Experiences)
	props.Themes = slices.Clone(props.Themes)

	b := &Builder{
		service:   service,
		notifier:  discardNotifier{},
		logger:    zap.NewNop(),
		props:     props,
		phase:     PhaseIdle,
		selected:  make(map[string]struct{}),
		tone:      types.DefaultTone,
		collapsed: make(map[string]bool),
		edits:     make(map[string]*editState),
		deleted:   make(map[string]struct{}),
	}
	if len(props.Themes) > 0 {
		b.theme = props.Themes[0]
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// notify must be called without b.mu held; notifiers may read builder state.
func (b *Builder) notify(level Level, msg string) {
	b.notifier.Notify(Notification{Level: level, Message: msg, At: time.Now()})
}

// Phase returns the current loading phase.
func (b *Builder) Phase() Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}

// LoadError returns the error from the initial fetch, if any.
func (b *Builder) LoadError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loadErr
}

// Initialize fetches the stories already saved for the tailored resume. Only the first call does
// anything. A failed fetch leaves the list empty, raises an error notification and still moves the
// builder to ready, so the rest of the UI stays usable. Stories generated while the fetch was in
// flight are kept after the fetched ones.
func (b *Builder) Initialize(ctx context.Context) error {
	b.mu.Lock()
	if b.phase != PhaseIdle {
		b.mu.Unlock()
		return nil
	}
	if b.props.TailoredResumeID == "" {
		b.phase = PhaseReady
		b.mu.Unlock()
		return nil
	}
	b.phase = PhaseLoading
	b.mu.Unlock()

	fetched, err := b.service.List(ctx, b.props.TailoredResumeID)

	b.mu.Lock()
	b.phase = PhaseReady

	if err != nil {
		loadErr := &BackendError{Op: "load stories", Cause: err}
		b.loadErr = loadErr
		b.mu.Unlock()
		b.logger.Warn("failed to load existing stories",
			zap.String("tailored_resume_id", b.props.TailoredResumeID),
			zap.Error(err))
		b.notify(LevelError, "Failed to load existing stories")
		return loadErr
	}
	defer b.mu.Unlock()

	merged := make([]types.Story, 0, len(fetched)+len(b.stories))
	seen := make(map[string]struct{}, len(fetched))
	for _, s := range fetched {
		if _, gone := b.deleted[s.ID]; gone {
			continue
		}
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		merged = append(merged, s)
	}
	for _, s := range b.stories {
		if _, dup := seen[s.ID]; !dup {
			merged = append(merged, s)
		}
	}
	b.stories = merged

	b.logger.Debug("loaded existing stories", zap.Int("count", len(fetched)))
	return nil
}

// Experiences returns the normalized experiences.
func (b *Builder) Experiences() []types.Experience {
	return slices.Clone(b.props.Experiences)
}

func (b *Builder) hasExperience(id string) bool {
	for _, exp := range b.props.Experiences {
		if exp.ID == id {
			return true
		}
	}
	return false
}

// ToggleExperience adds or removes an experience from the selection.
func (b *Builder) ToggleExperience(id string) error {
	if !b.hasExperience(id) {
		return ErrUnknownExperience
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.selected[id]; ok {
		delete(b.selected, id)
	} else {
		b.selected[id] = struct{}{}
	}
	return nil
}

// IsSelected reports whether an experience is selected.
func (b *Builder) IsSelected(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.selected[id]
	return ok
}

// Selected returns the selected experience IDs in input order.
func (b *Builder) Selected() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selectedIDsLocked()
}

func (b *Builder) selectedIDsLocked() []string {
	out := make([]string, 0, len(b.selected))
	for _, exp := range b.props.Experiences {
		if _, ok := b.selected[exp.ID]; ok {
			out = append(out, exp.ID)
		}
	}
	return out
}

// Themes returns the themes offered by the parent.
func (b *Builder) Themes() []string {
	return slices.Clone(b.props.Themes)
}

// SelectTheme replaces the chosen theme.
func (b *Builder) SelectTheme(theme string) error {
	if !slices.Contains(b.props.Themes, theme) {
		return ErrUnknownTheme
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.theme = theme
	return nil
}

// Theme returns the chosen theme, or "" when no themes were supplied.
func (b *Builder) Theme() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.theme
}

// SelectTone replaces the chosen tone.
func (b *Builder) SelectTone(tone types.Tone) error {
	if !tone.Valid() {
		return &ToneError{Tone: tone}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tone = tone
	return nil
}

// Tone returns the chosen tone.
func (b *Builder) Tone() types.Tone {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tone
}

// ToneDescription returns the description of the chosen tone.
func (b *Builder) ToneDescription() string {
	return b.Tone().Description()
}

// CanGenerate reports whether the generate control is enabled: at least one experience is
// selected and a theme is available.
func (b *Builder) CanGenerate() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.canGenerateLocked()
}

func (b *Builder) canGenerateLocked() bool {
	return len(b.selected) > 0 && b.theme != ""
}

// IsGenerating reports whether a generate request is in flight.
func (b *Builder) IsGenerating() bool {
	return b.generating.Load()
}

// Generate asks the backend for a new story built from the current selection and appends it.
// The in-flight guard is taken before anything else, so a second call made while one is pending
// returns ErrGenerationInFlight without issuing a request.
func (b *Builder) Generate(ctx context.Context) (*types.Story, error) {
	if !b.generating.CompareAndSwap(false, true) {
		return nil, ErrGenerationInFlight
	}
	defer b.generating.Store(false)

	b.mu.Lock()
	if len(b.selected) == 0 {
		b.mu.Unlock()
		return nil, ErrNoSelection
	}
	if b.theme == "" {
		b.mu.Unlock()
		return nil, ErrNoTheme
	}
	req := b.createRequestLocked()
	b.mu.Unlock()

	b.logger.Info("generating story",
		zap.String("tailored_resume_id", req.TailoredResumeID),
		zap.Int("experiences", len(req.Experiences)),
		zap.String("theme", req.Theme),
		zap.String("tone", string(req.Tone)))

	story, err := b.service.Create(ctx, req)
	if err == nil && story == nil {
		err = ErrEmptyResponse
	}
	if err != nil {
		b.logger.Warn("story generation failed", zap.Error(err))
		b.notify(LevelError, "Failed to generate STAR story")
		return nil, &BackendError{Op: "generate story", Cause: err}
	}

	b.mu.Lock()
	if i := b.indexLocked(story.ID); i >= 0 {
		b.stories[i] = *story
	} else {
		b.stories = append(b.stories, *story)
	}
	b.mu.Unlock()

	b.notify(LevelSuccess, "STAR story generated")
	out := *story
	return &out, nil
}

func (b *Builder) createRequestLocked() types.CreateStoryRequest {
	exps := make([]types.Experience, 0, len(b.selected))
	for _, exp := range b.props.Experiences {
		if _, ok := b.selected[exp.ID]; ok {
			exps = append(exps, exp)
		}
	}
	return types.CreateStoryRequest{
		TailoredResumeID: b.props.TailoredResumeID,
		Experiences:      exps,
		Theme:            b.theme,
		Tone:             b.tone,
		Company:          b.props.Company,
		JobTitle:         b.props.JobTitle,
		JobDescription:   b.props.JobDescription,
	}
}

func (b *Builder) indexLocked(id string) int {
	return slices.IndexFunc(b.stories, func(s types.Story) bool { return s.ID == id })
}

// Stories returns a copy of the current story list.
func (b *Builder) Stories() []types.Story {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.stories)
}

// Story returns one story by ID.
func (b *Builder) Story(id string) (types.Story, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexLocked(id)
	if i < 0 {
		return types.Story{}, false
	}
	return b.stories[i], true
}

// ToggleCollapse flips a story between collapsed and expanded. No backend call is made.
func (b *Builder) ToggleCollapse(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.indexLocked(id) < 0 {
		return ErrUnknownStory
	}
	b.collapsed[id] = !b.collapsed[id]
	return nil
}

// IsExpanded reports whether a story is expanded. Stories start expanded.
func (b *Builder) IsExpanded(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.collapsed[id]
}

// StartEdit enters edit mode, copying the story's current fields into a working buffer.
// Calling it again while already editing keeps the existing buffer.
func (b *Builder) StartEdit(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexLocked(id)
	if i < 0 {
		return ErrUnknownStory
	}
	if _, editing := b.edits[id]; editing {
		return nil
	}
	b.edits[id] = &editState{buffer: b.stories[i].Fields()}
	return nil
}

// IsEditing reports whether a story is in edit mode.
func (b *Builder) IsEditing(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.edits[id]
	return ok
}

// EditBuffer returns the working copy for a story in edit mode.
func (b *Builder) EditBuffer(id string) (types.StoryFields, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.edits[id]
	if !ok {
		return types.StoryFields{}, false
	}
	return e.buffer, true
}

// SetEditField changes one field of the working copy.
func (b *Builder) SetEditField(id string, field types.StoryField, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.edits[id]
	if !ok {
		return ErrNotEditing
	}
	updated, err := e.buffer.Set(field, value)
	if err != nil {
		return err
	}
	e.buffer = updated
	return nil
}

// CancelEdit discards the working copy. The story keeps its original values and no request is sent.
func (b *Builder) CancelEdit(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.edits[id]; !ok {
		return ErrNotEditing
	}
	delete(b.edits, id)
	return nil
}

// SaveEdit sends the working copy to the backend. On success the story is replaced and edit mode
// ends. On failure the buffer is kept so the user can retry.
func (b *Builder) SaveEdit(ctx context.Context, id string) error {
	b.mu.Lock()
	e, ok := b.edits[id]
	if !ok {
		b.mu.Unlock()
		return ErrNotEditing
	}
	req := types.UpdateStoryRequest{StoryFields: e.buffer}
	b.mu.Unlock()

	updated, err := b.service.Update(ctx, id, req)
	if err == nil && updated == nil {
		err = ErrEmptyResponse
	}

	b.mu.Lock()
	if err != nil {
		if cur, still := b.edits[id]; still {
			cur.err = err
		}
		b.mu.Unlock()
		b.logger.Warn("story update failed", zap.String("story_id", id), zap.Error(err))
		b.notify(LevelError, "Failed to save story")
		return &BackendError{Op: "update story", Cause: err}
	}

	if i := b.indexLocked(id); i >= 0 {
		b.stories[i] = *updated
	}
	delete(b.edits, id)
	b.mu.Unlock()

	b.notify(LevelSuccess, "Story updated")
	return nil
}

// EditError returns the error from the last failed save of a story still in edit mode.
func (b *Builder) EditError(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.edits[id]; ok {
		return e.err
	}
	return nil
}

// Delete removes a story from the backend and then from the local list. There is no undo.
func (b *Builder) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	if b.indexLocked(id) < 0 {
		b.mu.Unlock()
		return ErrUnknownStory
	}
	b.mu.Unlock()

	if err := b.service.Delete(ctx, id); err != nil {
		b.logger.Warn("story delete failed", zap.String("story_id", id), zap.Error(err))
		b.notify(LevelError, "Failed to delete story")
		return &BackendError{Op: "delete story", Cause: err}
	}

	b.mu.Lock()
	if i := b.indexLocked(id); i >= 0 {
		b.stories = slices.Delete(b.stories, i, i+1)
	}
	b.deleted[id] = struct{}{}
	delete(b.collapsed, id)
	delete(b.edits, id)
	if b.practice != nil && b.practice.StoryID == id {
		b.practice = nil
	}
	b.mu.Unlock()

	b.notify(LevelSuccess, "Story deleted")
	return nil
}
