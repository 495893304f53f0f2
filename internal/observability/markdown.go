package observability

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jonathan/star-builder/internal/sanitize"
	"github.com/jonathan/star-builder/internal/types"
)

// StoryMarkdown renders a story as a markdown document with one heading per
// STAR section. Field text is reduced to plain text first.
func StoryMarkdown(story types.Story) string {
	var sb strings.Builder
	title := sanitize.PlainText(story.Title)
	if title == "" {
		title = "Untitled story"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if story.Theme != "" {
		fmt.Fprintf(&sb, "*%s*", sanitize.PlainText(story.Theme))
		if story.Tone != "" {
			fmt.Fprintf(&sb, " · %s", story.Tone)
		}
		sb.WriteString("\n\n")
	}

	fields := story.Fields()
	for _, f := range types.STARFields {
		raw, err := fields.Get(f)
		if err != nil {
			continue
		}
		if text := sanitize.PlainText(raw); text != "" {
			fmt.Fprintf(&sb, "## %s\n\n%s\n\n", f.Label(), text)
		}
	}

	var points []string
	for _, p := range story.TalkingPoints {
		if p = sanitize.PlainText(p); p != "" {
			points = append(points, "- "+p)
		}
	}
	if len(points) > 0 {
		sb.WriteString("## Talking points\n\n")
		sb.WriteString(strings.Join(points, "\n"))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// RenderMarkdown styles stories for a terminal of the given width.
func RenderMarkdown(stories []types.Story, width int) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	docs := make([]string, 0, len(stories))
	for _, s := range stories {
		docs = append(docs, StoryMarkdown(s))
	}
	out, err := renderer.Render(strings.Join(docs, "\n---\n\n"))
	if err != nil {
		return "", fmt.Errorf("failed to render stories: %w", err)
	}
	return out, nil
}
