// Package mapping provides the mapping file format: a small ini-like text
// with [info], [params], [default] and [mapping] sections describing how
// source fields become metadata statements.
package mapping

import (
	"github.com/lehigh-university-libraries/bulkimport/expr"
	"github.com/lehigh-university-libraries/bulkimport/pattern"
)

// Section names.
const (
	SectionInfo    = "info"
	SectionParams  = "params"
	SectionDefault = "default"
	SectionMapping = "mapping"
)

// InfoMapper is the [info] key naming a parent mapping merged under this one.
const InfoMapper = "mapper"

// Config is a normalized mapping file. A Config is never modified once
// built: merging and re-parsing return new values.
type Config struct {
	// Name is the mapping name the config was loaded under (e.g. "csv_dc")
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Info holds metadata about the mapping file itself
	Info []KeyValue `yaml:"info,omitempty" json:"info,omitempty"`

	// Params are run-level variables, evaluated in declaration order
	Params []KeyValue `yaml:"params,omitempty" json:"params,omitempty"`

	// Default rules apply to every entry and carry no source
	Default []Rule `yaml:"default,omitempty" json:"default,omitempty"`

	// Mapping rules turn a source field into one or more targets
	Mapping []Rule `yaml:"mapping,omitempty" json:"mapping,omitempty"`
}

// KeyValue is one line of the [info] or [params] section.
type KeyValue struct {
	Key   string `yaml:"key" json:"key"`
	Value string `yaml:"value" json:"value"`
}

// Rule associates a source with its targets.
type Rule struct {
	// Source is the entry field name; empty for default rules
	Source string `yaml:"source,omitempty" json:"source,omitempty"`

	// Targets are the metadata expressions the value is written to
	Targets []expr.Expression `yaml:"targets" json:"targets"`

	// Modifier changes the value before it is written
	Modifier Modifier `yaml:"modifier,omitempty" json:"modifier,omitempty"`
}

// Modifier describes how a value is built. At most one of Raw, the
// Prepend/Append pair and Pattern is set.
type Modifier struct {
	// Raw is a literal value used instead of the source value
	Raw string `yaml:"raw,omitempty" json:"raw,omitempty"`

	// Prepend and Append wrap the source value
	Prepend string `yaml:"prepend,omitempty" json:"prepend,omitempty"`
	Append  string `yaml:"append,omitempty" json:"append,omitempty"`

	// Pattern is a template with placeholders
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`

	// Placeholders lists the names Pattern refers to
	Placeholders []string `yaml:"placeholders,omitempty" json:"placeholders,omitempty"`
}

// ParseModifier derives a modifier from the text after "~": text without
// placeholders is a raw value, "prefix{{ value }}suffix" wraps the value and
// anything else is a pattern.
func ParseModifier(text string) Modifier {
	if text == "" {
		return Modifier{}
	}
	p := pattern.Compile(text)
	if p.IsLiteral() {
		return Modifier{Raw: text}
	}
	if prepend, appendText, ok := p.Wrap(); ok {
		return Modifier{Prepend: prepend, Append: appendText}
	}
	return Modifier{Pattern: text, Placeholders: p.Placeholders()}
}

// IsZero reports whether the modifier leaves the value unchanged.
func (m Modifier) IsZero() bool {
	return m.Raw == "" && m.Prepend == "" && m.Append == "" && m.Pattern == ""
}

// String renders the modifier back to the text ParseModifier reads.
func (m Modifier) String() string {
	switch {
	case m.Raw != "":
		return m.Raw
	case m.Pattern != "":
		return m.Pattern
	case m.Prepend != "" || m.Append != "":
		return m.Prepend + "{{ " + pattern.ValueName + " }}" + m.Append
	}
	return ""
}

// InfoValue returns the value of an [info] key.
func (c *Config) InfoValue(key string) string {
	for _, kv := range c.Info {
		if kv.Key == key {
			return kv.Value
		}
	}
	return ""
}

// IsEmpty reports whether the config has no rules and no params.
func (c *Config) IsEmpty() bool {
	return len(c.Params) == 0 && len(c.Default) == 0 && len(c.Mapping) == 0
}

// Sources returns the distinct source fields of the mapping rules, in order.
func (c *Config) Sources() []string {
	var sources []string
	seen := make(map[string]bool)
	for _, r := range c.Mapping {
		if !seen[r.Source] {
			seen[r.Source] = true
			sources = append(sources, r.Source)
		}
	}
	return sources
}
