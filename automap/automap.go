// Package automap suggests target metadata terms for raw field names, such as
// spreadsheet headers, by matching them against an alias table and the
// vocabulary catalog.
package automap

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/bulkimport/expr"
	"github.com/lehigh-university-libraries/bulkimport/normalize"
	"github.com/lehigh-university-libraries/bulkimport/vocab"
)

// Options configures one automap call.
type Options struct {
	// Aliases are user aliases set over the automapper's table in their
	// own order
	Aliases *Aliases

	// CheckNamesAlone also matches local names and labels without their
	// namespace (e.g. "Title" for dcterms:title). Defaults to true.
	CheckNamesAlone *bool

	// OutputFullMatches returns language, datatype and visibility alongside
	// each matched term
	OutputFullMatches bool

	// ResourceType is advisory only
	ResourceType string
}

func (o Options) checkNamesAlone() bool {
	return o.CheckNamesAlone == nil || *o.CheckNamesAlone
}

// Match is one suggested target for a field.
type Match struct {
	Field      string
	Language   string
	Datatype   string
	Visibility string
}

// Map renders the match the way the mapping form consumes it.
func (m Match) Map() map[string]any {
	out := map[string]any{
		"field":     m.Field,
		"@language": nil,
		"type":      nil,
		"is_public": nil,
	}
	if m.Language != "" {
		out["@language"] = m.Language
	}
	if m.Datatype != "" {
		out["type"] = m.Datatype
	}
	if pub := (expr.Expression{Visibility: m.Visibility}).IsPublic(); pub != nil {
		out["is_public"] = *pub
	}
	return out
}

// Result holds the matches of one field. A nil Result means no match.
type Result []Match

// Fields returns the matched targets.
func (r Result) Fields() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r))
	for i, m := range r {
		out[i] = m.Field
	}
	return out
}

// Automapper matches field names against aliases and a vocabulary catalog.
type Automapper struct {
	catalog vocab.Catalog
	aliases *Aliases
	logger  *slog.Logger
}

// Option configures an Automapper.
type Option func(*Automapper)

// WithAliases replaces the built-in alias table.
func WithAliases(a *Aliases) Option {
	return func(am *Automapper) {
		am.aliases = a
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(am *Automapper) {
		am.logger = l
	}
}

// New creates an Automapper over catalog.
func New(catalog vocab.Catalog, opts ...Option) *Automapper {
	am := &Automapper{
		catalog: catalog,
		aliases: BuiltinAliases(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(am)
	}
	return am
}

// Automap returns one Result per field, in input order. The catalog is
// queried once per call; an unreachable catalog is the only error.
func (am *Automapper) Automap(ctx context.Context, fields []string, opts Options) ([]Result, error) {
	results := make([]Result, len(fields))
	if len(fields) == 0 {
		return results, nil
	}

	dir, err := vocab.Load(ctx, am.catalog)
	if err != nil {
		return nil, err
	}

	if opts.ResourceType != "" {
		am.logger.Debug("automap resource type is advisory", "resource_type", opts.ResourceType)
	}

	tables := buildTables(am.aliases.Extend(opts.Aliases), dir, opts.checkNamesAlone())

	for i, field := range fields {
		results[i] = tables.matchField(field, opts.OutputFullMatches, am.logger)
	}

	return results, nil
}

// table is one lookup pass. Keys are stored folded when folded is set.
type table struct {
	name   string
	values map[string]string
	folded bool
}

func newTable(name string, pairs [][2]string, folded bool) *table {
	t := &table{name: name, values: make(map[string]string, len(pairs)), folded: folded}
	for _, p := range pairs {
		key := p[0]
		if folded {
			key = normalize.Fold(key)
		}
		if key == "" {
			continue
		}
		if _, ok := t.values[key]; !ok {
			t.values[key] = p[1]
		}
	}
	return t
}

// sameAsExact reports whether folding the pairs changes no key.
func sameAsExact(pairs [][2]string) bool {
	for _, p := range pairs {
		if normalize.Fold(p[0]) != p[0] {
			return false
		}
	}
	return true
}

func (t *table) lookup(term string) (string, bool) {
	if t.folded {
		term = normalize.Fold(term)
	}
	v, ok := t.values[term]
	return v, ok
}

type tables []*table

type source struct {
	name  string
	pairs [][2]string
	// dropSameFolded omits the case-insensitive pass when folding leaves
	// every key unchanged.
	dropSameFolded bool
}

// buildTables returns the lookup passes in priority order: aliases, names,
// labels, then local names and local labels when checkNamesAlone is set.
// Each source gets an exact pass followed by a case-insensitive one. The
// case-insensitive alias pass is left out when it would hold the same keys
// as the exact one, so an all lower case alias table only matches exactly.
func buildTables(aliases *Aliases, dir *vocab.Directory, checkNamesAlone bool) tables {
	aliasPairs := aliases.Pairs()
	for i := range aliasPairs {
		aliasPairs[i][0] = normalize.Name(aliasPairs[i][0])
	}

	sources := []source{
		{name: "aliases", pairs: aliasPairs, dropSameFolded: true},
		{name: "names", pairs: dir.Pairs(vocab.TableNames)},
		{name: "labels", pairs: dir.Pairs(vocab.TableLabels)},
	}
	if checkNamesAlone {
		sources = append(sources,
			source{name: "local names", pairs: dir.Pairs(vocab.TableLocalNames)},
			source{name: "local labels", pairs: dir.Pairs(vocab.TableLocalLabels)},
		)
	}

	var ts tables
	for _, src := range sources {
		ts = append(ts, newTable(src.name, src.pairs, false))
		if src.dropSameFolded && sameAsExact(src.pairs) {
			continue
		}
		ts = append(ts, newTable(src.name+" (case-insensitive)", src.pairs, true))
	}
	return ts
}

func (ts tables) matchField(field string, full bool, logger *slog.Logger) Result {
	if normalize.Name(field) == "" {
		return nil
	}

	var result Result
	for _, part := range strings.Split(field, expr.Separator) {
		part = normalize.Name(part)
		if part == "" {
			continue
		}
		e, ok := expr.Parse(part)
		if !ok {
			continue
		}
		target, pass, ok := ts.lookup(e.Field)
		if !ok {
			logger.Debug("no match for field", "field", field, "term", e.Field)
			continue
		}
		logger.Debug("matched field", "field", field, "term", e.Field, "target", target, "pass", pass)
		m := Match{Field: target}
		if full {
			m.Language = e.Language
			m.Datatype = e.Datatype
			m.Visibility = e.Visibility
		}
		result = append(result, m)
	}
	return result
}

// lookup returns the target from the first pass that knows term, and the
// name of that pass.
func (ts tables) lookup(term string) (string, string, bool) {
	for _, t := range ts {
		if v, ok := t.lookup(term); ok {
			return v, t.name, true
		}
	}
	return "", "", false
}
