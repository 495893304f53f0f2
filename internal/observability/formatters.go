// Package observability provides formatted output utilities for CLI commands.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/star-builder/internal/sanitize"
	"github.com/jonathan/star-builder/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow caps themes and talking points per story
	maxItemsToShow = 5
)

// Printer writes stories as plain-text boxes.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(title, boxWidth-4), boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, boxWidth-4), boxWidth-4))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func pad(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}

// wrap breaks text into lines of at most width runes on word boundaries.
func wrap(text string, width int) []string {
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && utf8.RuneCountInString(line.String())+1+utf8.RuneCountInString(word) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

// PrintStory outputs one story with its STAR sections. Field text is stripped
// of markup before printing.
func (p *Printer) PrintStory(story *types.Story) {
	if story == nil {
		return
	}

	var sb strings.Builder
	if story.Theme != "" || story.Tone != "" {
		sb.WriteString(fmt.Sprintf("Theme: %s  Tone: %s\n", story.Theme, story.Tone))
	}
	sb.WriteString(fmt.Sprintf("ID:    %s\n", story.ID))

	fields := story.Fields()
	for _, f := range types.STARFields {
		raw, err := fields.Get(f)
		if err != nil {
			continue
		}
		text := sanitize.PlainText(raw)
		if text == "" {
			continue
		}
		sb.WriteString("\n" + f.Label() + ":\n")
		for _, line := range wrap(text, boxWidth-6) {
			sb.WriteString("  " + line + "\n")
		}
	}

	if len(story.TalkingPoints) > 0 {
		sb.WriteString("\nTalking points:\n")
		count := min(len(story.TalkingPoints), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", sanitize.PlainText(story.TalkingPoints[i])))
		}
		if len(story.TalkingPoints) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(story.TalkingPoints)-maxItemsToShow))
		}
	}

	title := sanitize.PlainText(story.Title)
	if title == "" {
		title = "UNTITLED STORY"
	}
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStories outputs a summary line followed by each story.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintStories(stories []types.Story) {
	if len(stories) == 0 {
		fmt.Fprintln(p.out, "No stories yet.")
		return
	}
	fmt.Fprintf(p.out, "%d stor%s\n", len(stories), plural(len(stories)))
	for i := range stories {
		p.PrintStory(&stories[i])
	}
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
