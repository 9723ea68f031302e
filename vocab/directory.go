package vocab

import (
	"strconv"
	"strings"
)

// Directory holds the lookup tables of a catalog snapshot. Every table maps a
// variant (name or label) to the canonical term string. When two properties
// produce the same variant, the first registered one keeps it.
type Directory struct {
	// Names maps each canonical term to itself
	Names map[string]string

	// Labels maps "<VocabularyLabel>:<PropertyLabel>" to the term. A label
	// already taken is registered with " (#<PropertyID>)" appended.
	Labels map[string]string

	// LocalNames maps a term's local name (without prefix) to the term
	LocalNames map[string]string

	// LocalLabels maps a property label (without vocabulary label) to the term
	LocalLabels map[string]string

	// order keeps the registration order of terms for deterministic
	// case-insensitive tables
	order []entry
}

type entry struct {
	term       string
	label      string
	localName  string
	localLabel string
}

// Build registers every property of every vocabulary, in enumeration order.
// Which property keeps a shared label therefore depends on the order the
// catalog returns vocabularies and properties.
func Build(vocabs []Vocabulary) *Directory {
	d := &Directory{
		Names:       make(map[string]string),
		Labels:      make(map[string]string),
		LocalNames:  make(map[string]string),
		LocalLabels: make(map[string]string),
	}

	for _, v := range vocabs {
		for _, p := range v.Properties {
			term := v.Term(p).String()
			if _, ok := d.Names[term]; ok {
				continue
			}
			d.Names[term] = term

			label := v.Label + ":" + p.Label
			localLabel := p.Label
			if _, taken := d.Labels[label]; taken {
				suffix := " (#" + strconv.Itoa(p.ID) + ")"
				label += suffix
				localLabel += suffix
			}
			d.Labels[label] = term

			setFirst(d.LocalNames, p.LocalName, term)
			setFirst(d.LocalLabels, localLabel, term)

			d.order = append(d.order, entry{
				term:       term,
				label:      label,
				localName:  p.LocalName,
				localLabel: localLabel,
			})
		}
	}

	return d
}

// Len returns the number of registered terms.
func (d *Directory) Len() int {
	return len(d.order)
}

// Terms returns the registered terms in registration order.
func (d *Directory) Terms() []string {
	terms := make([]string, len(d.order))
	for i, e := range d.order {
		terms[i] = e.term
	}
	return terms
}

// Table identifies one of the directory lookup tables.
type Table int

const (
	TableNames Table = iota
	TableLabels
	TableLocalNames
	TableLocalLabels
)

// Pairs returns the variant/term pairs of a table in registration order.
// The automapper uses it to build its case-insensitive tables with the same
// first-wins rule as the exact ones.
func (d *Directory) Pairs(t Table) [][2]string {
	pairs := make([][2]string, 0, len(d.order))
	for _, e := range d.order {
		var key string
		switch t {
		case TableNames:
			key = e.term
		case TableLabels:
			key = e.label
		case TableLocalNames:
			key = e.localName
		case TableLocalLabels:
			key = e.localLabel
		}
		pairs = append(pairs, [2]string{key, e.term})
	}
	return pairs
}

// Lookup returns the term registered under key in a table.
func (d *Directory) Lookup(t Table, key string) (string, bool) {
	var m map[string]string
	switch t {
	case TableNames:
		m = d.Names
	case TableLabels:
		m = d.Labels
	case TableLocalNames:
		m = d.LocalNames
	case TableLocalLabels:
		m = d.LocalLabels
	}
	term, ok := m[key]
	return term, ok
}

func setFirst(m map[string]string, key, value string) {
	if strings.TrimSpace(key) == "" {
		return
	}
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}
