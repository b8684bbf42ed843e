package pipeline

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// classTokens matches highlight.js and chroma class lists, including
// language names such as "c++" or "c#".
var classTokens = regexp.MustCompile(`^[\w\s+#.\-]+$`)

// ValidClassPrefix reports whether code classes built from prefix survive
// sanitizing. Other characters make the policy drop the whole class
// attribute, and with it the block language.
func ValidClassPrefix(prefix string) bool {
	return prefix == "" || classTokens.MatchString(prefix)
}

// Sanitizer strips scripts, event handlers and unsafe URLs from rendered
// fragments while keeping the markup goldmark and the highlighter produce.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds the fragment policy on top of bluemonday's UGC policy.
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(classTokens).OnElements("code", "span", "pre", "div", "a", "sup", "section", "li", "ol")
	p.AllowAttrs("role").Matching(regexp.MustCompile(`^doc-[a-z]+$`)).OnElements("a", "section", "li")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("checked", "disabled").Matching(regexp.MustCompile(`^(|checked|disabled)$`)).OnElements("input")
	p.AllowAttrs("align").Matching(regexp.MustCompile(`^(left|right|center)$`)).OnElements("th", "td")
	return &Sanitizer{policy: p}
}

// Sanitize returns the policy-filtered fragment.
func (s *Sanitizer) Sanitize(fragment string) string {
	return s.policy.Sanitize(fragment)
}
