// Package transform applies a mapping config to import entries and produces
// metadata statements.
//
// A config is prepared once per run: params are evaluated against the run
// variables, then every entry goes through the conditional rules, the
// [default] section and the [mapping] section, in that order.
package transform

import (
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/bulkimport/entry"
	"github.com/lehigh-university-libraries/bulkimport/expr"
	"github.com/lehigh-university-libraries/bulkimport/mapping"
	"github.com/lehigh-university-libraries/bulkimport/normalize"
	"github.com/lehigh-university-libraries/bulkimport/pattern"
	"github.com/lehigh-university-libraries/bulkimport/rules"
)

// IndexName is the placeholder bound to the position of the current value
// within its field, starting at 1.
const IndexName = "index"

// ErrNilEntry is returned when Transform is called without an entry.
var ErrNilEntry = errors.New("transform: nil entry")

// Engine holds a mapping config with its patterns compiled.
type Engine struct {
	cfg          *mapping.Config
	rules        *rules.RuleSet
	logger       *slog.Logger
	resourceType string

	defaults []compiledRule
	mappings []compiledRule
}

type compiledRule struct {
	rule    mapping.Rule
	pattern *pattern.Pattern
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules evaluates rs against every entry before the mapping.
func WithRules(rs *rules.RuleSet) Option {
	return func(e *Engine) { e.rules = rs }
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithResourceType sets the resource type the run creates. A rule set scoped
// to another resource type is not evaluated.
func WithResourceType(resourceType string) Option {
	return func(e *Engine) { e.resourceType = resourceType }
}

// New compiles cfg. A nil config behaves as an empty one.
func New(cfg *mapping.Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = &mapping.Config{}
	}
	e := &Engine{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rules != nil && !e.rules.AppliesTo(e.resourceType) {
		e.logger.Info("rule set does not apply to resource type, ignored",
			"rules", e.rules.Name, "rules_resource_type", e.rules.ResourceType, "resource_type", e.resourceType)
		e.rules = nil
	}

	unknown := make(map[string]bool)
	compile := func(rs []mapping.Rule) []compiledRule {
		out := make([]compiledRule, 0, len(rs))
		for _, r := range rs {
			cr := compiledRule{rule: r}
			if r.Modifier.Pattern != "" {
				cr.pattern = pattern.Compile(r.Modifier.Pattern)
				for _, f := range cr.pattern.UnknownFilters() {
					if !unknown[f] {
						unknown[f] = true
						e.logger.Warn("unknown template filter, value left unchanged", "mapping", cfg.Name, "filter", f)
					}
				}
			}
			out = append(out, cr)
		}
		return out
	}
	e.defaults = compile(cfg.Default)
	e.mappings = compile(cfg.Mapping)
	return e
}

// Config returns the engine config.
func (e *Engine) Config() *mapping.Config {
	return e.cfg
}

// Run is an engine bound to the evaluated variables of one import run. It is
// read-only and safe for concurrent use.
type Run struct {
	engine *Engine
	vars   map[string]string
}

// Prepare evaluates the config params over vars.
func (e *Engine) Prepare(vars map[string]string) *Run {
	return &Run{
		engine: e,
		vars:   e.cfg.EvaluateParams(vars),
	}
}

// Vars returns a copy of the run variables, params included.
func (r *Run) Vars() map[string]string {
	out := make(map[string]string, len(r.vars))
	for k, v := range r.vars {
		out[k] = v
	}
	return out
}

// Transform maps one entry to statements. Values that render empty produce
// no statement.
func (r *Run) Transform(ent *entry.Entry) (*Output, error) {
	if ent == nil {
		return nil, ErrNilEntry
	}
	e := r.engine
	out := &Output{Index: ent.Index()}

	if e.rules != nil {
		res := e.rules.Evaluate(ent.FirstValues())
		for _, err := range res.Errors {
			e.logger.Warn("conditional rule failed", "entry", ent.Index(), "rule", res.RuleName, "err", err)
		}
		out.Rule = res.RuleName
		out.ResourceClass = res.Type
		if res.Skip {
			out.Skipped = true
			e.logger.Debug("entry skipped by rule", "entry", ent.Index(), "rule", res.RuleName)
			return out, nil
		}
		for _, f := range res.Fields {
			targets := expr.ParseAll(f.Name)
			if len(targets) == 0 {
				e.logger.Warn("rule sets an invalid target", "rule", res.RuleName, "target", f.Name)
				continue
			}
			out.add(targets, f.Value)
		}
	}

	for _, cr := range e.defaults {
		value := cr.rule.Modifier.Raw
		if cr.pattern != nil {
			value = cr.pattern.Render(r.lookup(ent, "", 0))
		}
		out.add(cr.rule.Targets, value)
	}

	for _, cr := range e.mappings {
		values := r.sourceValues(ent, cr.rule.Source)
		for i, v := range values {
			out.add(cr.rule.Targets, r.apply(cr, ent, v, i+1))
		}
	}

	return out, nil
}

func (o *Output) add(targets []expr.Expression, value string) {
	if value == "" {
		return
	}
	for _, t := range targets {
		o.Statements = append(o.Statements, newStatement(t, value))
	}
}

// apply runs the rule modifier on one source value.
func (r *Run) apply(cr compiledRule, ent *entry.Entry, value string, index int) string {
	m := cr.rule.Modifier
	switch {
	case cr.pattern != nil:
		return cr.pattern.Render(r.lookup(ent, value, index))
	case m.Raw != "":
		return m.Raw
	case m.Prepend != "" || m.Append != "":
		return m.Prepend + value + m.Append
	}
	return value
}

// lookup resolves template names: the current value and its index, then the
// first value of an entry field, then the run variables.
func (r *Run) lookup(ent *entry.Entry, value string, index int) pattern.Lookup {
	current := func(name string) (string, bool) {
		switch name {
		case pattern.ValueName:
			return value, true
		case IndexName:
			if index == 0 {
				return "", false
			}
			return strconv.Itoa(index), true
		}
		return "", false
	}
	return pattern.Chain(current, ent.First, pattern.MapLookup(r.vars))
}

// sourceValues returns the non-empty values of a source field. The field is
// matched exactly first, then by normalized, case-folded name.
func (r *Run) sourceValues(ent *entry.Entry, source string) []string {
	values := ent.Values(source)
	if values == nil {
		key := normalize.Fold(normalize.Name(source))
		for _, f := range ent.Fields() {
			if normalize.Fold(normalize.Name(f)) == key {
				values = ent.Values(f)
				break
			}
		}
	}

	return slices.DeleteFunc(values, func(v string) bool {
		return strings.TrimSpace(v) == ""
	})
}
