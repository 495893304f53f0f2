package sanitize

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withHardening forces the process-wide link rule for one test.
func withHardening(t *testing.T, enabled bool) {
	t.Helper()
	prev := hardening.Load()
	hardening.Store(enabled)
	t.Cleanup(func() { hardening.Store(prev) })
}

var hostileInputs = []string{
	"",
	"plain text",
	"a < b && c > d",
	`<script>alert("x")</script>hello`,
	`<SCRIPT SRC=//evil.example/x.js></SCRIPT>`,
	`<img src=x onerror=alert(1)>caption`,
	`<p class="lead">Intro <strong>bold</strong> <em>it</em></p>`,
	`<a href="https://example.com/jobs?id=1&ref=2">apply</a>`,
	`<a href="javascript:alert(1)">click</a>`,
	`<a href="mailto:hr@example.com">mail</a>`,
	`<a href="/relative/path">rel</a>`,
	`<ul><li>one</li><li>two</li></ul>`,
	`<div onclick="steal()"><span class="x y">nested</span></div>`,
	`<iframe src="https://evil.example"></iframe>after`,
	"line one\nline two",
	`<svg><a xlink:href="https://example.com">svg</a></svg>`,
	`&lt;script&gt;already escaped&lt;/script&gt;`,
	`<b onmouseover="x()">bold</b><br>`,
}

func TestSanitize_StrictHasNoMarkup(t *testing.T) {
	for _, hardened := range []bool{false, true} {
		withHardening(t, hardened)
		for _, in := range hostileInputs {
			out := Sanitize(in, Strict)
			assert.NotContains(t, out, "<", "input %q", in)
		}
	}
}

func TestSanitize_StrictKeepsText(t *testing.T) {
	assert.Equal(t, "hello", Sanitize(`<script>alert("x")</script>hello`, Strict))
	assert.Equal(t, "Intro bold it", Sanitize(`<p>Intro <b>bold</b> <i>it</i></p>`, Strict))
}

func TestSanitize_BasicNeverHasScript(t *testing.T) {
	for _, in := range hostileInputs {
		out := strings.ToLower(Sanitize(in, Basic))
		assert.NotContains(t, out, "<script", "input %q", in)
	}
}

func TestSanitize_BasicKeepsEmphasisWithoutAttributes(t *testing.T) {
	out := Sanitize(`<b onmouseover="x()">bold</b> <em class="c">em</em> <p>para</p>`, Basic)

	assert.Contains(t, out, "<b>bold</b>")
	assert.Contains(t, out, "<em>em</em>")
	assert.NotContains(t, out, "onmouseover")
	assert.NotContains(t, out, "class")
	assert.NotContains(t, out, "<p>")
}

func TestSanitize_RichAnchors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantActive bool
	}{
		{"https", `<a href="https://example.com">x</a>`, true},
		{"http", `<a href="http://example.com">x</a>`, true},
		{"javascript", `<a href="javascript:alert(1)">x</a>`, false},
		{"mailto", `<a href="mailto:a@example.com">x</a>`, false},
		{"data", `<a href="data:text/html;base64,PHNjcmlwdD4=">x</a>`, false},
		{"relative", `<a href="/jobs">x</a>`, false},
		{"vbscript mixed case", `<a href="VbScript:msgbox(1)">x</a>`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Sanitize(tt.input, Rich)
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
			require.NoError(t, err)

			links := doc.Find("a[href]")
			if tt.wantActive {
				assert.Equal(t, 1, links.Length(), out)
			} else {
				assert.Equal(t, 0, links.Length(), out)
				assert.Contains(t, out, "x", "link text survives")
			}
		})
	}
}

func TestSanitize_RichKeepsStructure(t *testing.T) {
	out := Sanitize(`<h2>Role</h2><p>We <strong>ship</strong></p><ul><li>Go</li></ul><blockquote>q</blockquote>`, Rich)

	assert.Contains(t, out, "<h2>Role</h2>")
	assert.Contains(t, out, "<strong>ship</strong>")
	assert.Contains(t, out, "<li>Go</li>")
	assert.Contains(t, out, "<blockquote>q</blockquote>")
}

func TestSanitize_ResumeKeepsClassDropsAnchors(t *testing.T) {
	out := Sanitize(`<p class="summary">Led <a href="https://example.com">team</a></p><span style="color:red">s</span>`, Resume)

	assert.Contains(t, out, `<p class="summary">`)
	assert.NotContains(t, out, "<a")
	assert.Contains(t, out, "team")
	assert.NotContains(t, out, "style")
}

func TestSanitize_UnknownPolicyFallsBackToStrict(t *testing.T) {
	assert.Equal(t, Sanitize("<b>x</b>", Strict), Sanitize("<b>x</b>", Policy("nonsense")))
}

func TestSanitize_Idempotent(t *testing.T) {
	for _, hardened := range []bool{false, true} {
		withHardening(t, hardened)
		for _, p := range Policies {
			for _, in := range hostileInputs {
				once := Sanitize(in, p)
				twice := Sanitize(once, p)
				assert.Equal(t, once, twice, "policy=%s hardened=%v input=%q", p, hardened, in)
			}
		}
	}
}

func TestSanitizeValue_NonString(t *testing.T) {
	assert.Equal(t, "", SanitizeValue(nil, Basic))
	assert.Equal(t, "", SanitizeValue(42, Basic))
	assert.Equal(t, "", SanitizeValue([]string{"x"}, Basic))
	assert.Equal(t, "", SanitizeValue("", Basic))
	assert.Equal(t, "<b>x</b>", SanitizeValue("<b>x</b>", Basic))
}

func TestSanitizeArray(t *testing.T) {
	out := SanitizeArray([]any{"<b>a</b>", nil, 7, "<script>x</script>b"}, Basic)
	assert.Equal(t, []string{"<b>a</b>", "", "", "b"}, out)

	empty := SanitizeArray(nil, Basic)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSanitizeSummary(t *testing.T) {
	out := SanitizeSummary("Line one\nLine two\r\nLine <script>x</script>three")

	assert.Equal(t, 2, strings.Count(out, "<br"))
	assert.Contains(t, out, "Line one")
	assert.NotContains(t, out, "script")
	assert.Equal(t, "", SanitizeSummary(""))
}

func TestSanitizeObject(t *testing.T) {
	in := map[string]any{
		"title": "<script>x</script>Engineer",
		"count": 3,
		"ok":    true,
		"bullets": []any{
			"<b>shipped</b><img src=x onerror=y>",
			map[string]any{"note": "<i>nested</i><iframe></iframe>"},
			12.5,
		},
		"tags":  []string{"<u>go</u>", "<script>bad</script>"},
		"inner": map[string]any{"deep": map[string]any{"leaf": `<a href="javascript:x">l</a>`}},
	}

	out := SanitizeObject(in, Basic)

	require.Len(t, out, len(in))
	assert.Equal(t, "Engineer", out["title"])
	assert.Equal(t, 3, out["count"])
	assert.Equal(t, true, out["ok"])

	bullets := out["bullets"].([]any)
	require.Len(t, bullets, 3)
	assert.Equal(t, "<b>shipped</b>", bullets[0])
	assert.Equal(t, map[string]any{"note": "<i>nested</i>"}, bullets[1])
	assert.Equal(t, 12.5, bullets[2])

	assert.Equal(t, []string{"<u>go</u>", ""}, out["tags"])

	leaf := out["inner"].(map[string]any)["deep"].(map[string]any)["leaf"]
	assert.Equal(t, "l", leaf)

	// input untouched
	assert.Equal(t, "<script>x</script>Engineer", in["title"])
}

func TestSanitizeObject_LeavesSatisfyStrict(t *testing.T) {
	in := map[string]any{
		"a": "<p>x</p>",
		"b": []any{"<i>y</i>", []any{"<b>z</b>"}},
		"c": map[string]any{"d": "<em>w</em>"},
	}
	out := SanitizeObject(in, Strict)

	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case string:
			assert.NotContains(t, val, "<")
		case []any:
			for _, item := range val {
				walk(item)
			}
		case map[string]any:
			for _, item := range val {
				walk(item)
			}
		}
	}
	walk(out)
	assert.Equal(t, map[string]any{}, SanitizeObject(nil, Strict))
}

func TestSanitizeMarkdown(t *testing.T) {
	out := SanitizeMarkdown("# Senior Engineer\n\n- Go\n- **Postgres**\n\n[apply](https://example.com) [bad](javascript:alert(1))\n\n<script>x</script>")

	assert.Contains(t, out, "<h1>Senior Engineer</h1>")
	assert.Contains(t, out, "<strong>Postgres</strong>")
	assert.Contains(t, out, `href="https://example.com"`)
	assert.NotContains(t, out, "javascript")
	assert.NotContains(t, out, "<script")
	assert.Equal(t, "", SanitizeMarkdown("   "))
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Cut costs <b>30%</b>", "Cut costs 30%"},
		{"<script>alert(1)</script>Shipped", "Shipped"},
		{"R&amp;D &lt;team&gt;", "R&D <team>"},
		{"  padded  ", "padded"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PlainText(tt.in), tt.in)
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("rich")
	require.NoError(t, err)
	assert.Equal(t, Rich, p)

	_, err = ParsePolicy("loose")
	assert.Error(t, err)
}
