package server

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/star-builder/internal/sanitize"
	"github.com/jonathan/star-builder/internal/types"
)

var exportTemplate = template.Must(template.New("story").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<article class="star-story" data-story-id="{{.ID}}">
<h1>{{.Title}}</h1>
{{- range .Sections}}
<section class="star-{{.Key}}">
<h2>{{.Label}}</h2>
<p>{{.Body}}</p>
</section>
{{- end}}
{{- if .TalkingPoints}}
<h2>Talking points</h2>
<ul>
{{- range .TalkingPoints}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
</article>
</body>
</html>
`))

type exportSection struct {
	Key   types.StoryField
	Label string
	Body  template.HTML
}

type exportPage struct {
	ID            string
	Title         string
	Sections      []exportSection
	TalkingPoints []string
}

// exportPageFor builds the printable view. Narrative fields pass through the
// sanitizer before being marked safe; everything else is escaped by the template.
func exportPageFor(story *types.Story) exportPage {
	page := exportPage{
		ID:    story.ID,
		Title: sanitize.PlainText(story.Title),
	}
	fields := story.Fields()
	for _, f := range types.STARFields {
		text, _ := fields.Get(f)
		if text == "" {
			continue
		}
		page.Sections = append(page.Sections, exportSection{
			Key:   f,
			Label: f.Label(),
			Body:  template.HTML(sanitize.SanitizeSummary(text)), //nolint:gosec // sanitized above
		})
	}
	for _, tp := range story.TalkingPoints {
		if tp = sanitize.PlainText(tp); tp != "" {
			page.TalkingPoints = append(page.TalkingPoints, tp)
		}
	}
	return page
}

// handleExportStory renders a story as a standalone HTML page.
func (s *Server) handleExportStory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	story, err := s.store.GetStory(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", "default-src 'none'")
	if err := exportTemplate.Execute(w, exportPageFor(story)); err != nil {
		s.logger.Error("failed to render export", zap.String("story_id", story.ID), zap.Error(err))
	}
}
