package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jonathan/star-builder/internal/storybuilder"
)

func (a *App) startEdit() tea.Cmd {
	s, ok := a.currentStory()
	if !ok {
		return nil
	}
	if err := a.builder.StartEdit(s.ID); err != nil {
		a.setStatus(storybuilder.LevelError, err.Error())
		return nil
	}
	a.mode = modeEdit
	a.editID = s.ID
	a.editField = 0
	a.loadField()
	return a.input.Focus()
}

// loadField copies the current buffer field into the text input.
func (a *App) loadField() {
	buf, ok := a.builder.EditBuffer(a.editID)
	if !ok {
		return
	}
	v, _ := buf.Get(editFields[a.editField])
	a.input.SetValue(v)
	a.input.Placeholder = editFields[a.editField].Label()
	a.input.CursorEnd()
}

// storeField writes the text input back into the builder's buffer.
func (a *App) storeField() {
	_ = a.builder.SetEditField(a.editID, editFields[a.editField], a.input.Value())
}

func (a *App) leaveEdit() {
	a.mode = modeBrowse
	a.editID = ""
	a.input.Blur()
	a.input.SetValue("")
}

func (a *App) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		_ = a.builder.CancelEdit(a.editID)
		a.leaveEdit()
		a.setStatus(storybuilder.LevelInfo, "Edit cancelled")
		return a, nil
	case "tab", "down":
		a.storeField()
		a.editField = (a.editField + 1) % len(editFields)
		a.loadField()
		return a, nil
	case "shift+tab", "up":
		a.storeField()
		a.editField = (a.editField + len(editFields) - 1) % len(editFields)
		a.loadField()
		return a, nil
	case "enter", "ctrl+s":
		a.storeField()
		id := a.editID
		a.setStatus(storybuilder.LevelInfo, "Saving...")
		return a, func() tea.Msg {
			return saveMsg{id: id, err: a.builder.SaveEdit(a.ctx, id)}
		}
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.mode = modeBrowse
	if msg.String() != "y" {
		a.setStatus(storybuilder.LevelInfo, "Delete cancelled")
		return a, nil
	}
	s, ok := a.currentStory()
	if !ok {
		return a, nil
	}
	id := s.ID
	a.setStatus(storybuilder.LevelInfo, fmt.Sprintf("Deleting %q...", s.Title))
	return a, func() tea.Msg {
		return deleteMsg{id: id, err: a.builder.Delete(a.ctx, id)}
	}
}

func (a *App) startPractice() tea.Cmd {
	s, ok := a.currentStory()
	if !ok {
		return nil
	}
	if err := a.builder.OpenPractice(s.ID); err != nil {
		a.setStatus(storybuilder.LevelError, err.Error())
		return nil
	}
	a.mode = modePractice
	a.loadAnswer()
	return a.input.Focus()
}

func (a *App) loadAnswer() {
	p, ok := a.builder.Practice()
	if !ok {
		return
	}
	a.input.SetValue(p.Answers[p.Current])
	a.input.Placeholder = "Say it in your own words"
	a.input.CursorEnd()
}

func (a *App) handlePracticeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		_ = a.builder.RecordAnswer(a.input.Value())
		a.builder.ClosePractice()
		a.mode = modeBrowse
		a.input.Blur()
		a.input.SetValue("")
		return a, nil
	case "enter", "right":
		_ = a.builder.RecordAnswer(a.input.Value())
		_ = a.builder.PracticeNext()
		a.loadAnswer()
		return a, nil
	case "left":
		_ = a.builder.RecordAnswer(a.input.Value())
		_ = a.builder.PracticePrev()
		a.loadAnswer()
		return a, nil
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}
