// Package expr parses mapping expressions of the form
//
//	<term>[@language][^^datatype][§visibility]
//
// such as "dcterms:title @fr-FR ^^literal §private".
package expr

import (
	"regexp"
	"strings"
)

// Visibility values.
const (
	Public  = "public"
	Private = "private"
)

// Separator splits several expressions written in one field name or target.
const Separator = "|"

// The whole string must match: term, then language, datatype and visibility,
// each optional and in that order.
var expressionRegex = regexp.MustCompile(
	`^([a-zA-Z][^@§^]*)` +
		`( *@ *([a-zA-Z]+(?:-[a-zA-Z]+)?)?)?` +
		`( *\^\^ *([a-zA-Z][a-zA-Z0-9]*(?::[a-zA-Z][\w-]*)?)?)?` +
		`( *§ *(private|public)?)?$`,
)

// Expression is a parsed mapping expression.
type Expression struct {
	// Field is the term, label or source name before any suffix
	Field string `yaml:"field" json:"field"`

	// Language is the language tag after "@", empty when absent
	Language string `yaml:"language,omitempty" json:"@language,omitempty"`

	// Datatype is the datatype after "^^", empty when absent
	Datatype string `yaml:"datatype,omitempty" json:"type,omitempty"`

	// Visibility is "public", "private" or empty when absent
	Visibility string `yaml:"visibility,omitempty" json:"visibility,omitempty"`
}

// Parse parses a single expression. It returns false when s does not match
// the grammar; there is no partial result.
func Parse(s string) (Expression, bool) {
	m := expressionRegex.FindStringSubmatch(s)
	if m == nil {
		return Expression{}, false
	}
	e := Expression{
		Field:      strings.TrimSpace(m[1]),
		Language:   strings.TrimSpace(m[3]),
		Datatype:   strings.TrimSpace(m[5]),
		Visibility: strings.TrimSpace(m[7]),
	}
	if e.Field == "" {
		return Expression{}, false
	}
	return e, true
}

// ParseAll splits s on "|" and parses every part, silently dropping the
// parts that do not match.
func ParseAll(s string) []Expression {
	var out []Expression
	for _, part := range strings.Split(s, Separator) {
		if e, ok := Parse(strings.TrimSpace(part)); ok {
			out = append(out, e)
		}
	}
	return out
}

// IsPublic converts the visibility to a tri-state flag: nil when unset.
func (e Expression) IsPublic() *bool {
	var v bool
	switch e.Visibility {
	case Public:
		v = true
	case Private:
		v = false
	default:
		return nil
	}
	return &v
}

// String renders the canonical form of the expression. Parse(e.String())
// returns e.
func (e Expression) String() string {
	var b strings.Builder
	b.WriteString(e.Field)
	if e.Language != "" {
		b.WriteString(" @")
		b.WriteString(e.Language)
	}
	if e.Datatype != "" {
		b.WriteString(" ^^")
		b.WriteString(e.Datatype)
	}
	if e.Visibility != "" {
		b.WriteString(" §")
		b.WriteString(e.Visibility)
	}
	return b.String()
}

// Join renders several expressions separated by " | ".
func Join(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, " "+Separator+" ")
}
