package termhtml

import (
	"regexp"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// stylePattern matches exactly the declaration lists produced by style.css.
var stylePattern = regexp.MustCompile(
	`^(?:(?:color|background-color):#[0-9a-f]{6};` +
		`|font-weight:bold;` +
		`|opacity:0\.7;` +
		`|font-style:italic;` +
		`|text-decoration:(?:underline|line-through|underline line-through);)+$`,
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// outputPolicy allows the markup terminal servers emit (line breaks and
// simple emphasis) plus the styled spans produced by ToMarkup. Everything
// else, including every event handler attribute and URL bearing element, is
// removed.
func outputPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("br", "b", "i", "u", "strong", "em", "pre", "code", "span")
		p.AllowAttrs("style").Matching(stylePattern).OnElements("span")
		p.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-zA-Z0-9_\- ]+$`)).OnElements("span")
		policy = p
	})
	return policy
}

// Sanitize reduces arbitrary HTML to the allow-listed subset.
func Sanitize(markup string) string {
	if markup == "" {
		return ""
	}
	return outputPolicy().Sanitize(markup)
}
