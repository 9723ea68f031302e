package profile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/bulkimport/automap"
	"github.com/lehigh-university-libraries/bulkimport/expr"
	"github.com/lehigh-university-libraries/bulkimport/normalize"
)

// MinMatchScore is the column overlap an importer needs to be picked by
// MatchColumns.
const MinMatchScore = 0.5

// MatchColumns finds the saved importer whose source columns best fit the
// given header. An importer with the same fingerprint wins outright;
// otherwise the best overlap above MinMatchScore is returned. No match is
// (nil, nil).
func MatchColumns(columns []string) (*Importer, error) {
	names, err := List()
	if err != nil {
		return nil, err
	}

	fingerprint, err := Fingerprint(columns)
	if err != nil {
		return nil, err
	}

	var bestMatch *Importer
	bestScore := 0.0

	for _, name := range names {
		i, err := Load(name)
		if err != nil {
			slog.Warn("skipping unreadable importer", "importer", name, "err", err)
			continue
		}

		if i.Source.FieldFingerprint != "" && i.Source.FieldFingerprint == fingerprint {
			return i, nil
		}

		score := scoreColumns(i, columns)
		if score > bestScore && score > MinMatchScore {
			bestScore = score
			bestMatch = i
		}
	}

	return bestMatch, nil
}

// scoreColumns returns the share of the importer's columns present in columns.
func scoreColumns(i *Importer, columns []string) float64 {
	if len(i.Source.Columns) == 0 {
		return 0
	}

	// Create a set of expected columns
	expected := make(map[string]bool)
	for _, c := range i.Source.Columns {
		expected[normalize.Fold(normalize.Name(c))] = true
	}

	// Count matches
	matches := 0
	for _, c := range columns {
		key := normalize.Fold(normalize.Name(c))
		if expected[key] {
			matches++
			delete(expected, key)
		}
	}

	// Score based on overlap
	return float64(matches) / float64(len(i.Source.Columns))
}

// CreateOptions configures CreateFromColumns.
type CreateOptions struct {
	// Format is the reader name, "csv" when empty
	Format string

	// Processor holds the processor settings; its aliases, names-alone flag
	// and resource type drive the automapper
	Processor ProcessorSettings
}

// CreateFromColumns builds an importer whose fields are the automapper's
// suggestions for columns. Columns without a confident match are skipped.
func CreateFromColumns(ctx context.Context, am *automap.Automapper, name string, columns []string, opts CreateOptions) (*Importer, error) {
	format := opts.Format
	if format == "" {
		format = "csv"
	}

	fingerprint, err := Fingerprint(columns)
	if err != nil {
		return nil, fmt.Errorf("computing fingerprint: %w", err)
	}

	results, err := am.Automap(ctx, columns, automap.Options{
		Aliases:           opts.Processor.Aliases,
		CheckNamesAlone:   opts.Processor.NamesAlone,
		OutputFullMatches: true,
		ResourceType:      opts.Processor.ResourceType,
	})
	if err != nil {
		return nil, fmt.Errorf("automapping columns: %w", err)
	}

	i := &Importer{
		Name:        name,
		Description: fmt.Sprintf("Auto-generated %s importer", format),
		Reader: ReaderSettings{
			Format: format,
		},
		Processor: opts.Processor,
		Source: SourceInfo{
			Columns:          append([]string(nil), columns...),
			FieldFingerprint: fingerprint,
		},
	}

	for idx, col := range columns {
		if results[idx] == nil {
			// Skip unknown columns by default
			i.Fields = append(i.Fields, FieldMapping{Source: col, Skip: true})
			continue
		}
		targets := make([]expr.Expression, 0, len(results[idx]))
		for _, m := range results[idx] {
			targets = append(targets, expr.Expression{
				Field:      m.Field,
				Language:   m.Language,
				Datatype:   m.Datatype,
				Visibility: m.Visibility,
			})
		}
		i.Fields = append(i.Fields, FieldMapping{Source: col, Targets: expr.Join(targets)})
	}

	return i, nil
}
