package e2e

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cleanPage = `<!DOCTYPE html><html><head><script src="/app.js"></script></head><body>
<div data-testid="tailored-resume">
  <div data-testid="star-story-card"><h3>Led migration</h3><p>Situation<br>text</p></div>
  <div data-testid="star-story-card"><h3>Cut costs &amp; waste</h3></div>
</div></body></html>`

func TestInspect(t *testing.T) {
	tests := []struct {
		name       string
		html       string
		minStories int
		want       PageReport
		problems   int
	}{
		{
			name:       "clean page ignores shell scripts",
			html:       cleanPage,
			minStories: 2,
			want:       PageReport{OutputFound: true, StoryCards: 2},
		},
		{
			name:       "too few stories",
			html:       cleanPage,
			minStories: 3,
			want:       PageReport{OutputFound: true, StoryCards: 2},
			problems:   1,
		},
		{
			name:     "script in output",
			html:     `<div data-testid="tailored-resume"><script>alert(1)</script></div>`,
			want:     PageReport{OutputFound: true, Scripts: 1},
			problems: 1,
		},
		{
			name:     "handler and javascript url",
			html:     `<div data-testid="tailored-resume"><img src="x" onerror="alert(1)"><a href=" JavaScript:alert(1)">x</a></div>`,
			want:     PageReport{OutputFound: true, EventHandlers: []string{"img[onerror]"}, JavaScriptURLs: 1},
			problems: 2,
		},
		{
			name:     "missing output",
			html:     `<main>loading</main>`,
			want:     PageReport{},
			problems: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Inspect(tt.html, DefaultSelectors())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got.Check(tt.minStories), tt.problems)
		})
	}
}

func TestAssertionError(t *testing.T) {
	err := &AssertionError{Scenario: "smoke", Problems: []string{"a", "b"}}
	assert.Equal(t, `scenario "smoke": a; b`, err.Error())
}
