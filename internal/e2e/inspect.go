package e2e

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selectors locate the elements a scenario interacts with.
type Selectors struct {
	FileInput      string
	JobDescription string
	Submit         string
	// Output is the container the tailored result is rendered into.
	Output    string
	StoryCard string
}

// DefaultSelectors matches the data-testid attributes the web client renders.
func DefaultSelectors() Selectors {
	return Selectors{
		FileInput:      `input[type="file"]`,
		JobDescription: `textarea[name="job_description"]`,
		Submit:         `button[type="submit"]`,
		Output:         `[data-testid="tailored-resume"]`,
		StoryCard:      `[data-testid="star-story-card"]`,
	}
}

// PageReport summarizes what a rendered page contains.
type PageReport struct {
	OutputFound    bool
	StoryCards     int
	Scripts        int
	EventHandlers  []string
	JavaScriptURLs int
}

// Inspect parses a rendered page. Script, handler and URL counts cover the
// output container only, since the application shell has scripts of its own.
func Inspect(html string, sel Selectors) (PageReport, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return PageReport{}, fmt.Errorf("failed to parse page: %w", err)
	}

	var r PageReport
	r.StoryCards = doc.Find(sel.StoryCard).Length()

	out := doc.Find(sel.Output)
	r.OutputFound = out.Length() > 0
	r.Scripts = out.Find("script").Length()

	out.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range s.Nodes[0].Attr {
			key := strings.ToLower(attr.Key)
			if strings.HasPrefix(key, "on") {
				r.EventHandlers = append(r.EventHandlers, goquery.NodeName(s)+"["+key+"]")
			}
			if (key == "href" || key == "src") && strings.HasPrefix(strings.ToLower(strings.TrimSpace(attr.Val)), "javascript:") {
				r.JavaScriptURLs++
			}
		}
	})
	return r, nil
}

// Check returns the problems that make the page fail: a missing output
// container, fewer than minStories cards, or any executable markup.
func (r PageReport) Check(minStories int) []string {
	var problems []string
	if !r.OutputFound {
		problems = append(problems, "tailored output not found")
	}
	if r.StoryCards < minStories {
		problems = append(problems, fmt.Sprintf("expected at least %d story cards, found %d", minStories, r.StoryCards))
	}
	if r.Scripts > 0 {
		problems = append(problems, fmt.Sprintf("%d script elements in output", r.Scripts))
	}
	if len(r.EventHandlers) > 0 {
		problems = append(problems, "event handlers in output: "+strings.Join(r.EventHandlers, ", "))
	}
	if r.JavaScriptURLs > 0 {
		problems = append(problems, fmt.Sprintf("%d javascript: URLs in output", r.JavaScriptURLs))
	}
	return problems
}
