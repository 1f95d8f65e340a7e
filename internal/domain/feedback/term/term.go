package term

import "fmt"

// Style controls how interesting terms are rendered in the response.
type Style string

// Rendering styles for interesting terms.
const (
	// StyleNone suppresses the field and disables term collection entirely.
	StyleNone Style = "none"
	// StyleList emits term texts only, in ranked order.
	StyleList Style = "list"
	// StyleDetails emits ranked (term, boost) entries.
	StyleDetails Style = "details"
)

// ParseStyle maps a request parameter to a Style. Empty means none.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case "":
		return StyleNone, nil
	case StyleNone, StyleList, StyleDetails:
		return Style(s), nil
	}
	return StyleNone, fmt.Errorf("invalid interestingTerms style: %q", s)
}

// IsValid checks if the style is one of the supported values.
func (s Style) IsValid() bool {
	return s == StyleNone || s == StyleList || s == StyleDetails
}

// InterestingTerm is a (term, boost) pair extracted from the seed document.
// Instances are created during expansion and never mutated.
type InterestingTerm struct {
	field string
	text  string
	boost float64
}

// New creates an interesting term.
func New(field, text string, boost float64) InterestingTerm {
	return InterestingTerm{field: field, text: text, boost: boost}
}

// Field returns the field the term was extracted from.
func (t InterestingTerm) Field() string { return t.field }

// Text returns the term text.
func (t InterestingTerm) Text() string { return t.text }

// Boost returns the relative boost weight assigned to the term.
func (t InterestingTerm) Boost() float64 { return t.boost }

// Label returns the field-qualified term text used in detailed rendering.
func (t InterestingTerm) Label() string {
	return t.field + ":" + t.text
}
