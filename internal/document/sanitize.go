package document

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// IDPattern matches the annotation ids that survive Sanitize.
	IDPattern = regexp.MustCompile(`^[A-Za-z0-9_.:\-]+$`)

	// ClassPattern matches the class attribute values that survive Sanitize.
	ClassPattern = regexp.MustCompile(`^[A-Za-z0-9_\- ]+$`)
)

// markupPolicy is the allowlist applied to markup read back from storage.
// bluemonday policies are safe for concurrent use after creation.
var markupPolicy *bluemonday.Policy

func init() {
	markupPolicy = createMarkupPolicy()
}

// createMarkupPolicy allows the block and inline elements an editable region
// produces, plus the span attributes annotations are keyed by.
func createMarkupPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	// Structural
	p.AllowElements("p", "div", "br", "span", "blockquote", "pre", "hr")
	p.AllowElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowElements("ul", "ol", "li")

	// Formatting
	p.AllowElements("b", "strong", "i", "em", "u", "s", "del", "code", "sub", "sup")

	// Annotation spans
	p.AllowAttrs("class").Matching(ClassPattern).OnElements("span")
	p.AllowAttrs("data-note-id").Matching(IDPattern).OnElements("span")

	// Direction is meaningful for mixed Arabic/Latin text.
	p.AllowAttrs("dir").Matching(regexp.MustCompile(`^(rtl|ltr|auto)$`)).Globally()

	return p
}

// Sanitize strips everything from markup that an editable region should not
// contain. Text content, including zero-width markers, is preserved.
func Sanitize(markup string) string {
	if markup == "" {
		return markup
	}
	return markupPolicy.Sanitize(markup)
}
