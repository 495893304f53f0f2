// Package sanitize cleans untrusted HTML (resume content, job descriptions, user input) before rendering.
//
// Four named presets are available. Sanitization is total: every input, including empty or
// non-string values, produces safe output and no operation returns an error.
package sanitize

import (
	"fmt"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// Policy names a sanitization preset.
type Policy string

// Sanitization presets
const (
	// Strict strips all markup and keeps text content only. Used for freeform user input.
	Strict Policy = "strict"
	// Basic keeps inline emphasis tags without attributes. Used for short labels.
	Basic Policy = "basic"
	// Rich keeps block and inline structure plus http(s) anchors. Used for job descriptions.
	Rich Policy = "rich"
	// Resume keeps structure, emphasis and class attributes, no anchors. Used for resume bodies.
	Resume Policy = "resume"
)

// Policies lists every preset.
var Policies = []Policy{Strict, Basic, Rich, Resume}

// ParsePolicy converts a string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	for _, p := range Policies {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown sanitize policy %q", s)
}

var (
	basicTags     = []string{"b", "i", "em", "strong", "u", "br"}
	structureTags = []string{"p", "br", "ul", "ol", "li", "h1", "h2", "h3", "h4", "h5", "h6", "div", "span"}
	emphasisTags  = []string{"strong", "em", "b", "i", "u"}
	richOnlyTags  = []string{"blockquote", "code", "pre"}

	classNames = regexp.MustCompile(`^[A-Za-z0-9_\- ]*$`)
)

func strictPolicy() *bluemonday.Policy {
	return bluemonday.StrictPolicy()
}

func basicPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(basicTags...)
	return p
}

func richPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(structureTags...)
	p.AllowElements(emphasisTags...)
	p.AllowElements(richOnlyTags...)
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https")
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(false)
	return p
}

func resumePolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(structureTags...)
	p.AllowElements(emphasisTags...)
	p.AllowAttrs("class").Matching(classNames).OnElements(append(structureTags, emphasisTags...)...)
	return p
}
