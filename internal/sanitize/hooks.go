package sanitize

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	initOnce  = new(sync.Once)
	hardening atomic.Bool
)

// Init turns on link hardening for every gateway in the process.
// From then on each anchor opens in a new browsing context with rel="noopener noreferrer",
// and any other element carrying href or xlink:href is marked to open in a new context.
// Init is safe to call more than once; only the first call has an effect.
func Init() {
	initOnce.Do(func() {
		hardening.Store(true)
	})
}

// Initialized reports whether Init has run.
func Initialized() bool {
	return hardening.Load()
}

// hardenLinks applies the link rules to already-sanitized markup.
// Fragments without link attributes are returned untouched.
func hardenLinks(fragment string) string {
	if !strings.Contains(fragment, "href") {
		return fragment
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return fragment
	}
	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		container.AppendChild(n)
	}

	root := goquery.NewDocumentFromNode(container).Selection
	root.Find("*").Each(func(_ int, el *goquery.Selection) {
		_, hasHref := el.Attr("href")
		_, hasXlink := el.Attr("xlink:href")
		if !hasHref && !hasXlink {
			return
		}
		if goquery.NodeName(el) == "a" {
			el.SetAttr("target", "_blank")
			el.SetAttr("rel", "noopener noreferrer")
			return
		}
		el.SetAttr("target", "_blank")
		el.SetAttr("xlink:show", "new")
	})

	out, err := root.Html()
	if err != nil {
		return fragment
	}
	return out
}
