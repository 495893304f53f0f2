package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/lipgloss"

	"github.com/jonathan/star-builder/internal/storybuilder"
)

var (
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	activeCard   = cardStyle.BorderForeground(lipgloss.Color("#5B8DEF"))
)

var brTag = regexp.MustCompile(`(?i)<br\s*/?>`)

// htmlText turns a sanitized HTML fragment into terminal text. Line breaks
// survive, every other tag is dropped and entities are decoded.
func htmlText(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(brTag.ReplaceAllString(fragment, "\n")))
	if err != nil {
		return fragment
	}
	return strings.TrimSpace(doc.Text())
}

// View renders the current builder snapshot.
func (a *App) View() string {
	v := a.builder.View()
	var b strings.Builder

	b.WriteString(headerStyle.Render("STAR Story Builder"))
	b.WriteString("\n\n")

	if v.Practice != nil && a.mode == modePractice {
		b.WriteString(a.renderPractice(v.Practice))
		b.WriteString("\n")
		b.WriteString(a.renderStatus())
		return b.String()
	}

	b.WriteString(a.renderControls(v))
	b.WriteString("\n")
	b.WriteString(a.renderStories(v))
	b.WriteString("\n")
	b.WriteString(a.renderStatus())
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(a.help()))
	return b.String()
}

func (a *App) renderControls(v storybuilder.View) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Experiences"))
	b.WriteString("\n")
	if v.Advisory != "" {
		b.WriteString(mutedStyle.Render(htmlText(v.Advisory)))
		b.WriteString("\n")
	}
	for i, exp := range v.Experiences {
		box := "[ ]"
		if exp.Selected {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s", box, htmlText(exp.Label))
		if exp.Company != "" {
			line += mutedStyle.Render(" · " + htmlText(exp.Company))
		}
		b.WriteString(a.pointer(a.focus == focusExperiences && i == a.expCursor))
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case v.ThemeAdvisory != "":
		b.WriteString(labelStyle.Render("Theme: ") + mutedStyle.Render(v.ThemeAdvisory))
	default:
		b.WriteString(labelStyle.Render("Theme: ") + htmlText(v.Theme))
	}
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Tone:  ") + string(v.Tone) + mutedStyle.Render("  "+v.ToneDescription))
	b.WriteString("\n\n")

	switch {
	case v.Generating:
		b.WriteString(a.spinner.View() + " Generating...")
	case v.GenerateEnabled:
		b.WriteString(accentStyle.Render("[ Generate STAR Story ]"))
	default:
		b.WriteString(mutedStyle.Render("[ Generate STAR Story ]"))
	}
	b.WriteString("\n")
	return b.String()
}

func (a *App) renderStories(v storybuilder.View) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render(v.CountLabel))
	b.WriteString("\n")
	if v.Phase != storybuilder.PhaseReady {
		b.WriteString(mutedStyle.Render("Loading stories..."))
		b.WriteString("\n")
		return b.String()
	}

	for i, card := range v.Stories {
		active := a.focus == focusStories && i == a.storyCursor
		b.WriteString(a.renderCard(card, active))
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) renderCard(card storybuilder.StoryCard, active bool) string {
	var b strings.Builder
	arrow := "▸"
	if card.Expanded {
		arrow = "▾"
	}
	b.WriteString(fmt.Sprintf("%s %s", arrow, labelStyle.Render(htmlText(card.Title))))

	if card.Editing && card.Edit != nil {
		b.WriteString("\n")
		for i, f := range editFields {
			val, _ := card.Edit.Get(f)
			if a.mode == modeEdit && a.editID == card.ID && i == a.editField {
				b.WriteString(fmt.Sprintf("\n%s %s", cursorStyle.Render(f.Label()+":"), a.input.View()))
				continue
			}
			b.WriteString(fmt.Sprintf("\n%s %s", labelStyle.Render(f.Label()+":"), val))
		}
		if card.EditError != "" {
			b.WriteString("\n" + errorStyle.Render(card.EditError))
		}
	} else if card.Expanded {
		for _, sec := range card.Sections {
			b.WriteString(fmt.Sprintf("\n\n%s\n%s", labelStyle.Render(sec.Label), htmlText(sec.HTML)))
		}
		if len(card.TalkingPoints) > 0 {
			b.WriteString("\n\n" + labelStyle.Render("Talking points"))
			for _, tp := range card.TalkingPoints {
				b.WriteString("\n• " + htmlText(tp))
			}
		}
	}

	if active && a.mode == modeConfirmDelete {
		b.WriteString("\n\n" + errorStyle.Render("Delete this story? (y/n)"))
	}

	style := cardStyle
	if active {
		style = activeCard
	}
	if a.width > 0 {
		style = style.Width(max(20, a.width-4))
	}
	return style.Render(b.String())
}

func (a *App) renderPractice(p *storybuilder.PracticeSession) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Practice: " + htmlText(p.Title)))
	b.WriteString("\n\n")
	step, ok := p.Step()
	if !ok {
		b.WriteString(mutedStyle.Render("This story has nothing to rehearse yet."))
		return b.String()
	}
	b.WriteString(fmt.Sprintf("%s  %s\n", accentStyle.Render(step.Label), mutedStyle.Render(fmt.Sprintf("%d/%d", p.Current+1, len(p.Steps)))))
	b.WriteString(step.Prompt + "\n\n")
	b.WriteString(a.input.View() + "\n\n")
	b.WriteString(mutedStyle.Render("Reference: " + htmlText(step.Reference)))
	b.WriteString("\n\n")
	if p.Done() {
		b.WriteString(successStyle.Render("Last step. Esc to finish."))
	} else {
		b.WriteString(mutedStyle.Render("enter/→ next · ← back · esc close"))
	}
	return b.String()
}

func (a *App) renderStatus() string {
	if a.status == "" {
		return ""
	}
	switch a.statusLevel {
	case storybuilder.LevelError:
		return errorStyle.Render(a.status)
	case storybuilder.LevelSuccess:
		return successStyle.Render(a.status)
	default:
		return mutedStyle.Render(a.status)
	}
}

func (a *App) pointer(on bool) string {
	if on {
		return cursorStyle.Render("> ")
	}
	return "  "
}

func (a *App) help() string {
	switch a.mode {
	case modeEdit:
		return "tab/↓ next field · shift+tab/↑ previous · enter save · esc cancel"
	case modeConfirmDelete:
		return "y confirm · any other key cancels"
	}
	return "tab switch pane · ↑/↓ move · space toggle · t theme · o tone · g generate · e edit · d delete · p practice · q quit"
}
