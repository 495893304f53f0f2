package storybuilder

import (
	"context"
	"strings"
	"testing"

	"github.com/jonathan/star-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView_ZeroExperiencesAdvisory(t *testing.T) {
	props := testProps()
	props.Experiences = nil
	b := New(&fakeService{}, props)

	v := b.View()
	assert.Equal(t, NoExperiencesAdvisory, v.Advisory)
	assert.Empty(t, v.Experiences)
	assert.False(t, v.GenerateEnabled)
}

func TestView_ThemeDefaultsToFirst(t *testing.T) {
	b := New(&fakeService{}, testProps())

	v := b.View()
	assert.Equal(t, "Leadership", v.Theme)
	assert.Equal(t, []string{"Leadership", "Problem Solving"}, v.Themes)
	assert.Empty(t, v.ThemeAdvisory)

	require.NoError(t, b.SelectTheme("Problem Solving"))
	assert.Equal(t, "Problem Solving", b.View().Theme)
}

func TestView_NoThemesAdvisory(t *testing.T) {
	props := testProps()
	props.Themes = []string{}
	v := New(&fakeService{}, props).View()

	assert.Equal(t, NoThemesAdvisory, v.ThemeAdvisory)
	assert.Empty(t, v.Theme)
}

func TestView_GenerateEnabledIffSelection(t *testing.T) {
	b := New(&fakeService{}, testProps())
	assert.False(t, b.View().GenerateEnabled)

	require.NoError(t, b.ToggleExperience("exp-0"))
	assert.True(t, b.View().GenerateEnabled)

	require.NoError(t, b.ToggleExperience("exp-0"))
	assert.False(t, b.View().GenerateEnabled)
}

func TestView_ToneOptions(t *testing.T) {
	b := New(&fakeService{}, testProps())
	require.NoError(t, b.SelectTone(types.ToneHumble))

	v := b.View()
	require.Len(t, v.Tones, len(types.Tones))
	selected := 0
	for _, opt := range v.Tones {
		if opt.Selected {
			selected++
			assert.Equal(t, types.ToneHumble, opt.Tone)
		}
	}
	assert.Equal(t, 1, selected)
	assert.Equal(t, types.ToneHumble.Description(), v.ToneDescription)
}

func TestView_OneFetchedStory(t *testing.T) {
	svc := &fakeService{stories: []types.Story{existingStory()}}
	b := New(svc, testProps())
	require.NoError(t, b.Initialize(context.Background()))

	v := b.View()
	assert.Equal(t, "Your STAR Stories (1)", v.CountLabel)
	require.Len(t, v.Stories, 1)

	card := v.Stories[0]
	var labels []string
	for _, s := range card.Sections {
		labels = append(labels, s.Label)
	}
	assert.Equal(t, []string{"Situation", "Task", "Action", "Result"}, labels)
	assert.Equal(t, "true", card.AriaExpanded)
	assert.Equal(t, []string{"dual writes", "rollback plan"}, card.TalkingPoints)
}

func TestView_CollapseHidesBody(t *testing.T) {
	svc := &fakeService{stories: []types.Story{existingStory()}}
	b := New(svc, testProps())
	require.NoError(t, b.Initialize(context.Background()))

	require.NoError(t, b.ToggleCollapse("s1"))
	card := b.View().Stories[0]
	assert.False(t, card.Expanded)
	assert.Equal(t, "false", card.AriaExpanded)
	assert.Empty(t, card.Sections)
	assert.Empty(t, card.TalkingPoints)
	assert.Equal(t, "Database migration", card.Title, "title stays visible")

	require.NoError(t, b.ToggleCollapse("s1"))
	card = b.View().Stories[0]
	assert.Equal(t, "true", card.AriaExpanded)
	assert.Len(t, card.Sections, 4)
	assert.Contains(t, card.Sections[0].HTML, "Legacy Oracle cluster")
}

func TestView_SanitizesStoryContent(t *testing.T) {
	hostile := types.Story{
		ID:            "x",
		Title:         `<img src=x onerror=alert(1)>Title`,
		Situation:     "Line one\nLine <script>steal()</script>two",
		Action:        `<a href="javascript:alert(1)">click</a>`,
		TalkingPoints: []string{"<b>point</b>"},
		KeyThemes:     []string{"<i>grit</i><script>x</script>"},
	}
	svc := &fakeService{stories: []types.Story{hostile}}
	b := New(svc, testProps())
	require.NoError(t, b.Initialize(context.Background()))

	card := b.View().Stories[0]
	assert.Equal(t, "Title", card.Title)
	assert.Contains(t, card.Sections[0].HTML, "<br")
	assert.NotContains(t, card.Sections[0].HTML, "script")
	assert.NotContains(t, card.Sections[2].HTML, "javascript")
	assert.Equal(t, []string{"point"}, card.TalkingPoints)
	assert.Equal(t, []string{"<i>grit</i>"}, card.KeyThemes)
	for _, s := range card.Sections {
		assert.False(t, strings.Contains(strings.ToLower(s.HTML), "onerror"))
	}
}

func TestView_EditState(t *testing.T) {
	svc := &fakeService{stories: []types.Story{existingStory()}}
	b := New(svc, testProps())
	require.NoError(t, b.Initialize(context.Background()))
	require.NoError(t, b.StartEdit("s1"))

	card := b.View().Stories[0]
	require.True(t, card.Editing)
	require.NotNil(t, card.Edit)
	assert.Equal(t, "Database migration", card.Edit.Title)
}

func TestView_ExperienceLabelsFromEitherAlias(t *testing.T) {
	var exps []types.Experience
	for _, raw := range []string{`{"header":"From Header"}`, `{"title":"From Title"}`} {
		var e types.Experience
		require.NoError(t, e.UnmarshalJSON([]byte(raw)))
		exps = append(exps, e)
	}
	props := testProps()
	props.Experiences = exps

	v := New(&fakeService{}, props).View()
	require.Len(t, v.Experiences, 2)
	assert.Equal(t, "From Header", v.Experiences[0].Label)
	assert.Equal(t, "From Title", v.Experiences[1].Label)
}
