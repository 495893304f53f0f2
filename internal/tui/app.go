// Package tui is the terminal front end for the story builder. All state
// transitions go through storybuilder.Builder; this package only maps keys to
// builder calls and renders the builder's View snapshot.
package tui

import (
	"context"
	"errors"
	"slices"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jonathan/star-builder/internal/storybuilder"
	"github.com/jonathan/star-builder/internal/types"
)

type mode int

const (
	modeBrowse mode = iota
	modeEdit
	modeConfirmDelete
	modePractice
)

type focusArea int

const (
	focusExperiences focusArea = iota
	focusStories
)

// editFields is the order fields are visited while editing.
var editFields = append([]types.StoryField{types.FieldTitle}, types.STARFields...)

type (
	initMsg     struct{ err error }
	generateMsg struct {
		story *types.Story
		err   error
	}
	saveMsg struct {
		id  string
		err error
	}
	deleteMsg struct {
		id  string
		err error
	}
)

// App is the bubbletea model.
type App struct {
	ctx     context.Context
	builder *storybuilder.Builder
	notes   *storybuilder.NotificationLog

	mode        mode
	focus       focusArea
	expCursor   int
	storyCursor int

	editID    string
	editField int
	input     textinput.Model
	spinner   spinner.Model

	status      string
	statusLevel storybuilder.Level

	width  int
	height int
}

// New creates the model. notes must be the notifier the builder was created with.
func New(ctx context.Context, b *storybuilder.Builder, notes *storybuilder.NotificationLog) *App {
	in := textinput.New()
	in.CharLimit = 5000
	in.Width = 72

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	if notes == nil {
		notes = &storybuilder.NotificationLog{}
	}
	return &App{ctx: ctx, builder: b, notes: notes, input: in, spinner: sp}
}

// Init loads stories saved for the tailored resume.
func (a *App) Init() tea.Cmd {
	return func() tea.Msg {
		return initMsg{err: a.builder.Initialize(a.ctx)}
	}
}

// Update handles one message.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.input.Width = max(20, msg.Width-16)
		return a, nil

	case spinner.TickMsg:
		if !a.builder.IsGenerating() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case initMsg:
		a.pullNotifications()
		return a, nil

	case generateMsg:
		a.pullNotifications()
		if msg.err == nil {
			a.focus = focusStories
			a.storyCursor = len(a.builder.Stories()) - 1
		} else if !isBackendErr(msg.err) {
			a.setStatus(storybuilder.LevelInfo, generateHint(msg.err))
		}
		return a, nil

	case saveMsg:
		a.pullNotifications()
		if msg.err == nil && a.mode == modeEdit && a.editID == msg.id {
			a.leaveEdit()
		}
		return a, nil

	case deleteMsg:
		a.pullNotifications()
		a.clampCursors()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}
	switch a.mode {
	case modeEdit:
		return a.handleEditKey(msg)
	case modeConfirmDelete:
		return a.handleConfirmKey(msg)
	case modePractice:
		return a.handlePracticeKey(msg)
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "tab":
		if a.focus == focusExperiences {
			a.focus = focusStories
		} else {
			a.focus = focusExperiences
		}
	case "up", "k":
		a.moveCursor(-1)
	case "down", "j":
		a.moveCursor(1)
	case " ", "enter":
		a.toggleAtCursor()
	case "t":
		a.cycleTheme()
	case "o":
		a.cycleTone()
	case "g":
		return a, a.generate()
	case "e":
		return a, a.startEdit()
	case "d":
		if _, ok := a.currentStory(); ok {
			a.mode = modeConfirmDelete
		}
	case "p":
		return a, a.startPractice()
	}
	return a, nil
}

func (a *App) moveCursor(delta int) {
	if a.focus == focusExperiences {
		a.expCursor = clamp(a.expCursor+delta, len(a.builder.Experiences()))
		return
	}
	a.storyCursor = clamp(a.storyCursor+delta, len(a.builder.Stories()))
}

func (a *App) clampCursors() {
	a.expCursor = clamp(a.expCursor, len(a.builder.Experiences()))
	a.storyCursor = clamp(a.storyCursor, len(a.builder.Stories()))
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	return min(i, n-1)
}

func (a *App) toggleAtCursor() {
	if a.focus == focusExperiences {
		exps := a.builder.Experiences()
		if a.expCursor < len(exps) {
			_ = a.builder.ToggleExperience(exps[a.expCursor].ID)
		}
		return
	}
	if s, ok := a.currentStory(); ok {
		_ = a.builder.ToggleCollapse(s.ID)
	}
}

func (a *App) currentStory() (types.Story, bool) {
	list := a.builder.Stories()
	if a.storyCursor < 0 || a.storyCursor >= len(list) {
		return types.Story{}, false
	}
	return list[a.storyCursor], true
}

func (a *App) cycleTheme() {
	themes := a.builder.Themes()
	if len(themes) == 0 {
		return
	}
	i := slices.Index(themes, a.builder.Theme())
	_ = a.builder.SelectTheme(themes[(i+1)%len(themes)])
}

func (a *App) cycleTone() {
	i := slices.Index(types.Tones, a.builder.Tone())
	_ = a.builder.SelectTone(types.Tones[(i+1)%len(types.Tones)])
}

func (a *App) generate() tea.Cmd {
	if !a.builder.CanGenerate() {
		a.setStatus(storybuilder.LevelInfo, "Select at least one experience and a theme first")
		return nil
	}
	if a.builder.IsGenerating() {
		return nil
	}
	a.setStatus(storybuilder.LevelInfo, "Generating STAR story...")
	run := func() tea.Msg {
		story, err := a.builder.Generate(a.ctx)
		return generateMsg{story: story, err: err}
	}
	return tea.Batch(run, a.spinner.Tick)
}

func isBackendErr(err error) bool {
	var be *storybuilder.BackendError
	return errors.As(err, &be)
}

func generateHint(err error) string {
	switch {
	case errors.Is(err, storybuilder.ErrNoSelection):
		return "Select at least one experience first"
	case errors.Is(err, storybuilder.ErrNoTheme):
		return "Pick a theme first"
	case errors.Is(err, storybuilder.ErrGenerationInFlight):
		return "A story is already being generated"
	default:
		return err.Error()
	}
}

func (a *App) setStatus(level storybuilder.Level, msg string) {
	a.status, a.statusLevel = msg, level
}

// pullNotifications shows the newest notification the builder raised.
func (a *App) pullNotifications() {
	notes := a.notes.Drain()
	if len(notes) == 0 {
		return
	}
	last := notes[len(notes)-1]
	a.setStatus(last.Level, last.Message)
}
