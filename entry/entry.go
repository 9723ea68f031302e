// Package entry holds one unit of source data (a spreadsheet row, an API
// record) as an ordered set of fields with one or more values each.
package entry

import (
	"iter"
	"slices"
)

// Entry is an immutable import entry. Fields keep their source order and can
// be read by name, by index or by iteration.
type Entry struct {
	index  int
	fields []string
	values [][]string
	byName map[string]int
}

// New builds an entry from parallel field and value lists. Missing values
// are treated as empty; duplicate field names keep the first position and
// accumulate values. The inputs are copied.
func New(index int, fields []string, values [][]string) *Entry {
	e := &Entry{
		index:  index,
		byName: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		var vs []string
		if i < len(values) {
			vs = values[i]
		}
		if pos, ok := e.byName[f]; ok {
			e.values[pos] = append(e.values[pos], vs...)
			continue
		}
		e.byName[f] = len(e.fields)
		e.fields = append(e.fields, f)
		e.values = append(e.values, slices.Clone(vs))
	}
	return e
}

// Index returns the position of the entry in its source, starting at 1.
func (e *Entry) Index() int {
	return e.index
}

// Fields returns the field names in source order.
func (e *Entry) Fields() []string {
	return slices.Clone(e.fields)
}

// Len returns the number of fields.
func (e *Entry) Len() int {
	return len(e.fields)
}

// Values returns the values of a field, nil when the field is absent.
func (e *Entry) Values(field string) []string {
	pos, ok := e.byName[field]
	if !ok {
		return nil
	}
	return slices.Clone(e.values[pos])
}

// First returns the first non-empty value of a field.
func (e *Entry) First(field string) (string, bool) {
	pos, ok := e.byName[field]
	if !ok {
		return "", false
	}
	for _, v := range e.values[pos] {
		if v != "" {
			return v, true
		}
	}
	return "", false
}

// At returns the field name and values at position i.
func (e *Entry) At(i int) (string, []string, bool) {
	if i < 0 || i >= len(e.fields) {
		return "", nil, false
	}
	return e.fields[i], slices.Clone(e.values[i]), true
}

// All iterates over fields and their values in source order.
func (e *Entry) All() iter.Seq2[string, []string] {
	return func(yield func(string, []string) bool) {
		for i, f := range e.fields {
			if !yield(f, slices.Clone(e.values[i])) {
				return
			}
		}
	}
}

// IsEmpty reports whether every value of the entry is empty.
func (e *Entry) IsEmpty() bool {
	for _, vs := range e.values {
		for _, v := range vs {
			if v != "" {
				return false
			}
		}
	}
	return true
}

// FirstValues returns a map of each field to its first non-empty value, the
// shape conditional rules are evaluated against.
func (e *Entry) FirstValues() map[string]string {
	out := make(map[string]string, len(e.fields))
	for _, f := range e.fields {
		if v, ok := e.First(f); ok {
			out[f] = v
		}
	}
	return out
}
