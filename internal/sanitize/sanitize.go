package sanitize

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// Gateway holds one compiled policy per preset. It is safe for concurrent use.
type Gateway struct {
	policies map[Policy]*bluemonday.Policy
	markdown goldmark.Markdown
}

// New compiles all presets.
func New() *Gateway {
	return &Gateway{
		policies: map[Policy]*bluemonday.Policy{
			Strict: strictPolicy(),
			Basic:  basicPolicy(),
			Rich:   richPolicy(),
			Resume: resumePolicy(),
		},
		markdown: goldmark.New(),
	}
}

// Default is the process-wide gateway used by the package-level functions.
var Default = New()

// Sanitize cleans text with the named policy. Unknown policies fall back to Strict.
func (g *Gateway) Sanitize(text string, p Policy) string {
	if text == "" {
		return ""
	}
	policy, ok := g.policies[p]
	if !ok {
		policy = g.policies[Strict]
	}
	out := policy.Sanitize(text)
	if hardening.Load() {
		out = hardenLinks(out)
	}
	return out
}

// SanitizeValue cleans v if it is a string. Any other value yields "".
func (g *Gateway) SanitizeValue(v any, p Policy) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return g.Sanitize(s, p)
}

// SanitizeArray cleans each entry, preserving order and length.
// Entries that are not strings become "".
func (g *Gateway) SanitizeArray(items []any, p Policy) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = g.SanitizeValue(item, p)
	}
	return out
}

// SanitizeStrings is SanitizeArray for a typed slice.
func (g *Gateway) SanitizeStrings(items []string, p Policy) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = g.Sanitize(item, p)
	}
	return out
}

var newlines = strings.NewReplacer("\r\n", "<br>", "\r", "<br>", "\n", "<br>")

// SanitizeSummary converts newlines to line breaks and applies the Resume policy.
func (g *Gateway) SanitizeSummary(text string) string {
	if text == "" {
		return ""
	}
	return g.Sanitize(newlines.Replace(text), Resume)
}

// SanitizeObject returns a copy of obj with every string leaf cleaned.
// Slices are mapped element-wise, nested maps are recursed, other values pass through.
func (g *Gateway) SanitizeObject(obj map[string]any, p Policy) map[string]any {
	if obj == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = g.sanitizeAny(v, p)
	}
	return out
}

func (g *Gateway) sanitizeAny(v any, p Policy) any {
	switch val := v.(type) {
	case string:
		return g.Sanitize(val, p)
	case map[string]any:
		return g.SanitizeObject(val, p)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = g.sanitizeAny(item, p)
		}
		return out
	case []string:
		return g.SanitizeStrings(val, p)
	default:
		return v
	}
}

// SanitizeMarkdown renders markdown to HTML and applies the Rich policy.
// Raw HTML embedded in the markdown is dropped by the renderer.
func (g *Gateway) SanitizeMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := g.markdown.Convert([]byte(md), &buf); err != nil {
		return g.Sanitize(md, Strict)
	}
	return g.Sanitize(buf.String(), Rich)
}

// PlainText strips all markup and decodes entities, for text that is stored
// and later re-sanitized at render time. The result may contain a literal '<'.
func (g *Gateway) PlainText(text string) string {
	return strings.TrimSpace(html.UnescapeString(g.Sanitize(text, Strict)))
}

// Sanitize cleans text with the Default gateway.
func Sanitize(text string, p Policy) string { return Default.Sanitize(text, p) }

// SanitizeValue cleans v with the Default gateway.
func SanitizeValue(v any, p Policy) string { return Default.SanitizeValue(v, p) }

// SanitizeArray cleans items with the Default gateway.
func SanitizeArray(items []any, p Policy) []string { return Default.SanitizeArray(items, p) }

// SanitizeStrings cleans items with the Default gateway.
func SanitizeStrings(items []string, p Policy) []string { return Default.SanitizeStrings(items, p) }

// SanitizeSummary cleans a multi-line summary with the Default gateway.
func SanitizeSummary(text string) string { return Default.SanitizeSummary(text) }

// SanitizeObject cleans obj with the Default gateway.
func SanitizeObject(obj map[string]any, p Policy) map[string]any {
	return Default.SanitizeObject(obj, p)
}

// PlainText strips markup with the Default gateway.
func PlainText(text string) string { return Default.PlainText(text) }

// SanitizeMarkdown renders and cleans md with the Default gateway.
func SanitizeMarkdown(md string) string { return Default.SanitizeMarkdown(md) }
