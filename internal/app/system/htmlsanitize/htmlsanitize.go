// Package htmlsanitize turns rendered prompt Markdown into HTML that is safe to
// inject into a page.
//
// The policy is an allow-list: anything not listed here is removed, never
// escaped-and-shown. Script, style, iframe and object elements are dropped
// together with their content; event-handler attributes are never allowed.
package htmlsanitize

import (
	"html/template"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// commonElements is the inline/structural set allowed with no attributes.
var commonElements = []string{
	"address", "article", "aside", "footer", "header", "hgroup", "main", "nav", "section",
	"blockquote", "dd", "div", "dl", "dt", "figcaption", "figure", "hr", "li", "ol", "p", "ul",
	"abbr", "b", "bdi", "bdo", "br", "cite", "data", "dfn", "em", "i", "kbd", "mark", "q",
	"rb", "rp", "rt", "rtc", "ruby", "s", "samp", "small", "span", "strong", "sub", "sup",
	"time", "u", "var", "wbr", "del", "ins",
	"caption", "col", "colgroup", "tfoot",
}

// markdownElements are added on top of the common set for rendered Markdown.
var markdownElements = []string{
	"h1", "h2", "h3", "h4", "h5", "h6",
	"table", "thead", "tbody", "tr", "th", "td",
	"code", "pre",
}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(commonElements...)
	p.AllowElements(markdownElements...)

	p.AllowAttrs("href", "name", "target", "rel").OnElements("a")
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowAttrs("class").OnElements("code")

	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(true)
	p.RequireParseableURLs(true)

	return p
}

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = newPolicy()
	})
	return policy
}

// Sanitize returns s with every element, attribute and URL scheme outside the
// allow-list removed. It never fails; malformed input at worst collapses to
// its text content.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return getPolicy().Sanitize(s)
}

// SanitizeToHTML is Sanitize typed for direct use in html/template.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}
