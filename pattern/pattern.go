// Package pattern renders the "{{ name|filter }}" templates used in mapping
// files for params, default values and per-rule patterns.
package pattern

import (
	"regexp"
	"strings"
)

// ValueName is the placeholder bound to the current source value.
const ValueName = "value"

var placeholderRegex = regexp.MustCompile(`\{\{\s*([^{}|\s]+)\s*((?:\|\s*[A-Za-z_]+\s*)*)\}\}`)

// Lookup resolves a placeholder name. Unresolved names render as "".
type Lookup func(name string) (string, bool)

// Pattern is a compiled template. It is immutable and safe for concurrent use.
type Pattern struct {
	text  string
	parts []part
}

type part struct {
	literal     string
	name        string
	filters     []string
	placeholder bool
}

// Compile splits s into literal text and placeholders. Text that looks like
// a placeholder but does not match the syntax is kept literally.
func Compile(s string) *Pattern {
	p := &Pattern{text: s}
	last := 0
	for _, loc := range placeholderRegex.FindAllStringSubmatchIndex(s, -1) {
		if loc[0] > last {
			p.parts = append(p.parts, part{literal: s[last:loc[0]]})
		}
		ph := part{name: s[loc[2]:loc[3]], placeholder: true}
		if loc[4] >= 0 {
			for _, f := range strings.Split(s[loc[4]:loc[5]], "|") {
				if f = strings.TrimSpace(f); f != "" {
					ph.filters = append(ph.filters, f)
				}
			}
		}
		p.parts = append(p.parts, ph)
		last = loc[1]
	}
	if last < len(s) {
		p.parts = append(p.parts, part{literal: s[last:]})
	}
	return p
}

// String returns the source text.
func (p *Pattern) String() string {
	return p.text
}

// IsLiteral reports whether the pattern has no placeholder.
func (p *Pattern) IsLiteral() bool {
	for _, pt := range p.parts {
		if pt.placeholder {
			return false
		}
	}
	return true
}

// Placeholders returns the distinct placeholder names, in order of first use.
func (p *Pattern) Placeholders() []string {
	var names []string
	seen := make(map[string]bool)
	for _, pt := range p.parts {
		if pt.placeholder && !seen[pt.name] {
			seen[pt.name] = true
			names = append(names, pt.name)
		}
	}
	return names
}

// Wrap reports whether the pattern is exactly "prefix{{ value }}suffix"
// without filters, and returns the prefix and suffix.
func (p *Pattern) Wrap() (prepend, appendText string, ok bool) {
	idx := -1
	for i, pt := range p.parts {
		if !pt.placeholder {
			continue
		}
		if idx >= 0 || pt.name != ValueName || len(pt.filters) > 0 {
			return "", "", false
		}
		idx = i
	}
	if idx < 0 {
		return "", "", false
	}
	for i, pt := range p.parts {
		switch {
		case i < idx:
			prepend += pt.literal
		case i > idx:
			appendText += pt.literal
		}
	}
	return prepend, appendText, true
}

// UnknownFilters returns the filter names the pattern uses that have no
// implementation. They are applied as no-ops.
func (p *Pattern) UnknownFilters() []string {
	var unknown []string
	for _, pt := range p.parts {
		for _, f := range pt.filters {
			if _, ok := filters[f]; !ok {
				unknown = append(unknown, f)
			}
		}
	}
	return unknown
}

// Render substitutes every placeholder through lookup and its filters.
func (p *Pattern) Render(lookup Lookup) string {
	var b strings.Builder
	for _, pt := range p.parts {
		if !pt.placeholder {
			b.WriteString(pt.literal)
			continue
		}
		v, _ := lookup(pt.name)
		for _, f := range pt.filters {
			if fn, ok := filters[f]; ok {
				v = fn(v)
			}
		}
		b.WriteString(v)
	}
	return b.String()
}

// MapLookup resolves names from a map.
func MapLookup(vars map[string]string) Lookup {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

// Chain tries each lookup in order.
func Chain(lookups ...Lookup) Lookup {
	return func(name string) (string, bool) {
		for _, l := range lookups {
			if l == nil {
				continue
			}
			if v, ok := l(name); ok {
				return v, true
			}
		}
		return "", false
	}
}
