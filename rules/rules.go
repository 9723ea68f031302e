// Package rules provides conditional rules evaluated against each import
// entry before its mapping is applied.
//
// Rules decide entry-level outcomes from source values. For example, an
// entry whose "Type" column is "Dataset" might become a dctype:Dataset
// resource, while entries flagged "withdrawn" are skipped.
package rules

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"text/template"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// RuleSet contains all rules for an import.
type RuleSet struct {
	// Name identifies this rule set
	Name string `yaml:"name" json:"name"`

	// Description documents what these rules are for
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// ResourceType restricts the rule set to one resource type (e.g., "items").
	// Empty applies to all. See AppliesTo.
	ResourceType string `yaml:"resource_type,omitempty" json:"resource_type,omitempty"`

	// Rules is the list of rules, evaluated by priority then file order
	Rules []Rule `yaml:"rules" json:"rules"`
}

// Rule defines a single conditional action.
type Rule struct {
	// Name identifies this rule for debugging/logging
	Name string `yaml:"name" json:"name"`

	// Description documents what this rule does
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Priority determines rule evaluation order (higher = first). Default is 0.
	Priority int `yaml:"priority,omitempty" json:"priority,omitempty"`

	// When defines the conditions that must be met for this rule to apply
	When Condition `yaml:"when" json:"when"`

	// Then defines the actions to apply when conditions are met
	Then Action `yaml:"then" json:"then"`
}

// Condition defines when a rule should be applied.
type Condition struct {
	// Field is the source field to check (e.g., "Type", "Language")
	Field string `yaml:"field,omitempty" json:"field,omitempty"`

	// Equals matches exact value, case-insensitively
	Equals string `yaml:"equals,omitempty" json:"equals,omitempty"`

	// Contains matches if the field contains this substring
	Contains string `yaml:"contains,omitempty" json:"contains,omitempty"`

	// Matches is a regex pattern to match against
	Matches string `yaml:"matches,omitempty" json:"matches,omitempty"`

	// In matches if the field value is in this list
	In []string `yaml:"in,omitempty" json:"in,omitempty"`

	// Exists checks if the field has any value
	Exists *bool `yaml:"exists,omitempty" json:"exists,omitempty"`

	// All requires all sub-conditions to match (AND)
	All []Condition `yaml:"all,omitempty" json:"all,omitempty"`

	// Any requires at least one sub-condition to match (OR)
	Any []Condition `yaml:"any,omitempty" json:"any,omitempty"`

	// Not inverts the sub-condition
	Not *Condition `yaml:"not,omitempty" json:"not,omitempty"`
}

// Action defines what to do when a rule matches.
type Action struct {
	// SetType sets the resource class of the entry (e.g., "dctype:Dataset")
	SetType string `yaml:"set_type,omitempty" json:"set_type,omitempty"`

	// SetField names the target of the value computed by SetValue, MapValue
	// or Template. It is a field expression such as "dcterms:type ^^literal".
	SetField string `yaml:"set_field,omitempty" json:"set_field,omitempty"`

	// SetValue sets a literal value for SetField
	SetValue string `yaml:"set_value,omitempty" json:"set_value,omitempty"`

	// From names the source field read by MapValue. Defaults to the field of
	// the rule condition.
	From string `yaml:"from,omitempty" json:"from,omitempty"`

	// MapValue transforms the source value using a mapping table
	MapValue map[string]string `yaml:"map_value,omitempty" json:"map_value,omitempty"`

	// Template uses Go template syntax over the entry values, e.g.
	// "{{ .Title }} ({{ .Date }})"
	Template string `yaml:"template,omitempty" json:"template,omitempty"`

	// Skip causes the entry to be dropped
	Skip bool `yaml:"skip,omitempty" json:"skip,omitempty"`

	// Multiple actions can be combined
	Actions []Action `yaml:"actions,omitempty" json:"actions,omitempty"`
}

// Field is one value set by a rule.
type Field struct {
	Name  string
	Value string
}

// Result holds the outcome of rule evaluation.
type Result struct {
	// Matched indicates if any rule matched
	Matched bool

	// RuleName is the name of the matched rule
	RuleName string

	// Type is the resource class if SetType was used
	Type string

	// Fields contains the field/value pairs to set, in action order
	Fields []Field

	// Skip indicates the entry should be dropped
	Skip bool

	// Errors collects template failures; the rest of the action still applies
	Errors []error
}

// Set records a field value, replacing an earlier value for the same field.
func (r *Result) Set(name, value string) {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			r.Fields[i].Value = value
			return
		}
	}
	r.Fields = append(r.Fields, Field{Name: name, Value: value})
}

// Get returns the value set for a field.
func (r *Result) Get(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Evaluate checks the rules against the given field values and returns the
// result of the first matching rule. fieldValues maps source field names to
// their first value.
func (rs *RuleSet) Evaluate(fieldValues map[string]string) *Result {
	result := &Result{}
	if rs == nil {
		return result
	}

	for _, rule := range rs.ordered() {
		if rule.When.Evaluate(fieldValues) {
			result.Matched = true
			result.RuleName = rule.Name
			rule.Then.Apply(result, fieldValues, rule.When.Field)
			break
		}
	}

	return result
}

// AppliesTo reports whether the rule set may run for resourceType. An empty
// resource type on either side matches; otherwise case is ignored.
func (rs *RuleSet) AppliesTo(resourceType string) bool {
	if rs == nil || rs.ResourceType == "" || resourceType == "" {
		return true
	}
	return strings.EqualFold(rs.ResourceType, resourceType)
}

// ordered returns the rules sorted by descending priority, keeping file order
// among equal priorities.
func (rs *RuleSet) ordered() []Rule {
	rules := slices.Clone(rs.Rules)
	slices.SortStableFunc(rules, func(a, b Rule) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
	return rules
}

// Evaluate checks if the condition matches the given field values.
func (c *Condition) Evaluate(fieldValues map[string]string) bool {
	// Handle composite conditions first
	if len(c.All) > 0 {
		for _, sub := range c.All {
			if !sub.Evaluate(fieldValues) {
				return false
			}
		}
		return true
	}

	if len(c.Any) > 0 {
		for _, sub := range c.Any {
			if sub.Evaluate(fieldValues) {
				return true
			}
		}
		return false
	}

	if c.Not != nil {
		return !c.Not.Evaluate(fieldValues)
	}

	// No condition means always match
	if c.Field == "" {
		return true
	}

	value, exists := fieldValues[c.Field]
	exists = exists && value != ""

	if c.Exists != nil {
		return exists == *c.Exists
	}

	if !exists {
		return false
	}

	if c.Equals != "" {
		return strings.EqualFold(value, c.Equals)
	}

	if c.Contains != "" {
		return strings.Contains(strings.ToLower(value), strings.ToLower(c.Contains))
	}

	if c.Matches != "" {
		matched, _ := regexp.MatchString(c.Matches, value)
		return matched
	}

	if len(c.In) > 0 {
		for _, v := range c.In {
			if strings.EqualFold(value, v) {
				return true
			}
		}
		return false
	}

	// No specific condition, just check field exists
	return true
}

// Apply executes the action and updates the result. conditionField is the
// field of the matched condition, read by MapValue when From is empty.
func (a *Action) Apply(result *Result, fieldValues map[string]string, conditionField string) {
	if a.SetType != "" {
		result.Type = a.SetType
	}

	if a.SetField != "" && a.SetValue != "" {
		result.Set(a.SetField, a.SetValue)
	}

	if len(a.MapValue) > 0 && a.SetField != "" {
		from := cmp.Or(a.From, conditionField)
		if mapped, ok := lookupFold(a.MapValue, fieldValues[from]); ok {
			result.Set(a.SetField, mapped)
		}
	}

	if a.Template != "" && a.SetField != "" {
		value, err := renderTemplate(a.Template, fieldValues)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("rule template for %s: %w", a.SetField, err))
		} else if value != "" {
			result.Set(a.SetField, value)
		}
	}

	if a.Skip {
		result.Skip = true
	}

	// Apply nested actions
	for _, sub := range a.Actions {
		sub.Apply(result, fieldValues, conditionField)
	}
}

// lookupFold finds key in table, falling back to a case-insensitive match.
func lookupFold(table map[string]string, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	if v, ok := table[key]; ok {
		return v, true
	}
	for k, v := range table {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

func renderTemplate(text string, fieldValues map[string]string) (string, error) {
	tmpl, err := template.New("rule").Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, fieldValues); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// LoadRuleSet loads a rule set from a YAML file path or URL.
func LoadRuleSet(ctx context.Context, location string) (*RuleSet, error) {
	data, err := afs.New().DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	return LoadRuleSetFromBytes(data)
}

// LoadRuleSetFromBytes loads a rule set from YAML bytes.
func LoadRuleSetFromBytes(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parsing rules YAML: %w", err)
	}
	return &rs, nil
}
