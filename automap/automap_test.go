package automap

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/bulkimport/vocab"
)

func newTestAutomapper() *Automapper {
	return New(vocab.Default())
}

func boolPtr(b bool) *bool {
	return &b
}

func aliasesOf(pairs ...string) *Aliases {
	a := NewAliases()
	for i := 0; i+1 < len(pairs); i += 2 {
		a.Set(pairs[i], pairs[i+1])
	}
	return a
}

func TestAutomapCanonicalTerms(t *testing.T) {
	am := newTestAutomapper()
	terms := vocab.Build(vocab.Default()).Terms()

	results, err := am.Automap(context.Background(), terms, Options{})
	require.NoError(t, err)
	require.Len(t, results, len(terms))
	for i, term := range terms {
		assert.Equal(t, []string{term}, results[i].Fields(), "term %s", term)
	}
}

func TestAutomapMatching(t *testing.T) {
	tests := []struct {
		name  string
		field string
		opts  Options
		want  []string
	}{
		{name: "exact term", field: "dcterms:title", want: []string{"dcterms:title"}},
		{name: "term with spaces around colon", field: "dcterms : title", want: []string{"dcterms:title"}},
		{name: "case-insensitive term", field: "DCTerms:Title", want: []string{"dcterms:title"}},
		{name: "label", field: "Dublin Core:Title", want: []string{"dcterms:title"}},
		{name: "label spaced", field: "Dublin Core : Date Created", want: []string{"dcterms:created"}},
		{name: "label lower case", field: "dublin core:date created", want: []string{"dcterms:created"}},
		{name: "local name", field: "title", want: []string{"dcterms:title"}},
		{name: "local label", field: "Title", want: []string{"dcterms:title"}},
		{name: "upper case local name", field: "TITLE", want: []string{"dcterms:title"}},
		{name: "local label with spaces", field: "Date Issued", want: []string{"dcterms:issued"}},
		{
			name:  "names alone disabled",
			field: "TITLE",
			opts:  Options{CheckNamesAlone: boolPtr(false)},
			want:  nil,
		},
		{
			name:  "names alone disabled still matches labels",
			field: "Dublin Core:Title",
			opts:  Options{CheckNamesAlone: boolPtr(false)},
			want:  []string{"dcterms:title"},
		},
		{name: "built-in alias", field: "internal id", want: []string{"o:id"}},
		{name: "lower case built-in alias matches exactly only", field: "Internal ID", want: nil},
		{name: "several targets", field: "Title | Creator", want: []string{"dcterms:title", "dcterms:creator"}},
		{name: "unparseable part dropped", field: "Title | 1st | dcterms:creator", want: []string{"dcterms:title", "dcterms:creator"}},
		{name: "unknown field", field: "favourite colour", want: nil},
		{name: "empty", field: "", want: nil},
		{name: "blank", field: "   ", want: nil},
		{name: "language with two regions", field: "dcterms:title@fr-FR-2", want: nil},
	}

	am := newTestAutomapper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := am.Automap(context.Background(), []string{tt.field}, tt.opts)
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, tt.want, results[0].Fields(), spew.Sdump(results))
			if tt.want == nil {
				assert.Nil(t, results[0])
			}
		})
	}
}

func TestAutomapKeepsOrderAndNulls(t *testing.T) {
	am := newTestAutomapper()
	fields := []string{"Creator", "unknown", "", "Subject"}

	results, err := am.Automap(context.Background(), fields, Options{})
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, []string{"dcterms:creator"}, results[0].Fields())
	assert.Nil(t, results[1])
	assert.Nil(t, results[2])
	assert.Equal(t, []string{"dcterms:subject"}, results[3].Fields())
}

func TestAutomapEmptyInput(t *testing.T) {
	am := New(failingCatalog{})
	results, err := am.Automap(context.Background(), nil, Options{})
	require.NoError(t, err, "the catalog is not queried for an empty field list")
	assert.Empty(t, results)
}

func TestAutomapFullMatches(t *testing.T) {
	am := newTestAutomapper()
	results, err := am.Automap(context.Background(), []string{
		"Dublin Core : Title @fr-FR ^^resource:item",
		"dcterms:creator §private",
	}, Options{OutputFullMatches: true})
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Len(t, results[0], 1)
	assert.Equal(t, Match{Field: "dcterms:title", Language: "fr-FR", Datatype: "resource:item"}, results[0][0])
	assert.Equal(t, map[string]any{
		"field":     "dcterms:title",
		"@language": "fr-FR",
		"type":      "resource:item",
		"is_public": nil,
	}, results[0][0].Map())

	require.Len(t, results[1], 1)
	assert.Equal(t, false, results[1][0].Map()["is_public"])
}

func TestAutomapWithoutFullMatchesDropsSuffixes(t *testing.T) {
	am := newTestAutomapper()
	results, err := am.Automap(context.Background(), []string{"dcterms:title @fr"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, Result{{Field: "dcterms:title"}}, results[0])
}

func TestAutomapUserAliasWins(t *testing.T) {
	catalog := vocab.Static{
		{
			ID: 1, Prefix: "local", Label: "Local",
			Properties: []vocab.Property{
				{ID: 1, LocalName: "internal id", Label: "Internal id"},
			},
		},
	}
	am := New(catalog, WithAliases(NewAliases()))

	results, err := am.Automap(context.Background(), []string{"internal id"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"local:internal id"}, results[0].Fields())

	results, err = am.Automap(context.Background(), []string{"internal id"}, Options{
		Aliases: aliasesOf("internal id", "o:id"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"o:id"}, results[0].Fields())
}

func TestAutomapUserAliasOverridesBuiltin(t *testing.T) {
	am := newTestAutomapper()
	results, err := am.Automap(context.Background(), []string{"collection", "id"}, Options{
		Aliases: aliasesOf("collection", "dcterms:isPartOf"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"dcterms:isPartOf"}, results[0].Fields())
	assert.Equal(t, []string{"o:id"}, results[1].Fields())
}

func TestAutomapExactCaseBeatsFolded(t *testing.T) {
	aliases := NewAliases()
	aliases.Set("Note", "dcterms:description")
	aliases.Set("note", "bibo:content")
	am := New(vocab.Default(), WithAliases(aliases))

	results, err := am.Automap(context.Background(), []string{"Note", "note", "NOTE"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"dcterms:description"}, results[0].Fields())
	assert.Equal(t, []string{"bibo:content"}, results[1].Fields())
	assert.Equal(t, []string{"dcterms:description"}, results[2].Fields(), "first alias wins among folded keys")
}

func TestAutomapCaseInsensitiveAliasPass(t *testing.T) {
	lower := NewAliases()
	lower.Set("internal id", "o:id")
	mixed := NewAliases()
	mixed.Set("internal id", "o:id")
	mixed.Set("Shelf Mark", "bibo:locator")

	tests := []struct {
		name    string
		aliases *Aliases
		field   string
		want    []string
	}{
		{name: "lower case table exact", aliases: lower, field: "internal id", want: []string{"o:id"}},
		{name: "lower case table other case", aliases: lower, field: "Internal ID", want: nil},
		{name: "mixed case table folds lower key", aliases: mixed, field: "Internal ID", want: []string{"o:id"}},
		{name: "mixed case table folds mixed key", aliases: mixed, field: "SHELF MARK", want: []string{"bibo:locator"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			am := New(vocab.Default(), WithAliases(tt.aliases))
			results, err := am.Automap(context.Background(), []string{tt.field}, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, results[0].Fields())
		})
	}
}

func TestAutomapLabelCollision(t *testing.T) {
	catalog := vocab.Static{
		{ID: 1, Prefix: "dcterms", Label: "Dublin Core", Properties: []vocab.Property{{ID: 1, LocalName: "title", Label: "Title"}}},
		{ID: 2, Prefix: "mine", Label: "Dublin Core", Properties: []vocab.Property{{ID: 90, LocalName: "heading", Label: "Title"}}},
	}
	am := New(catalog, WithAliases(NewAliases()))

	results, err := am.Automap(context.Background(), []string{"Dublin Core:Title", "Dublin Core:Title (#90)"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"dcterms:title"}, results[0].Fields())
	assert.Equal(t, []string{"mine:heading"}, results[1].Fields())
}

type failingCatalog struct{}

func (failingCatalog) Vocabularies(ctx context.Context) ([]vocab.Vocabulary, error) {
	return nil, errors.New("database is down")
}

func TestAutomapCatalogUnavailable(t *testing.T) {
	am := New(failingCatalog{})
	_, err := am.Automap(context.Background(), []string{"Title"}, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, vocab.ErrCatalogUnavailable)
}

func TestLoadAliases(t *testing.T) {
	a, err := LoadAliases(strings.NewReader("zeta: dcterms:title\nalpha: dcterms:creator\n"))
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"zeta", "dcterms:title"}, {"alpha", "dcterms:creator"}}, a.Pairs())

	extra := NewAliases()
	extra.Set("beta", "foaf:nick")
	extra.Set("alpha", "foaf:name")
	merged := a.Extend(extra)
	assert.Equal(t, [][2]string{
		{"zeta", "dcterms:title"},
		{"alpha", "foaf:name"},
		{"beta", "foaf:nick"},
	}, merged.Pairs())
	assert.Equal(t, 2, a.Len(), "extend does not modify the receiver")

	_, err = LoadAliases(strings.NewReader("- a\n- b\n"))
	assert.Error(t, err)
}

func TestUserAliasOrderDecidesFoldedMatch(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{name: "upper first", doc: "Note: dcterms:description\nnote: bibo:content\n", want: []string{"dcterms:description"}},
		{name: "lower first", doc: "note: bibo:content\nNote: dcterms:description\n", want: []string{"bibo:content"}},
	}

	am := New(vocab.Default(), WithAliases(NewAliases()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := LoadAliases(strings.NewReader(tt.doc))
			require.NoError(t, err)
			results, err := am.Automap(context.Background(), []string{"NOTE"}, Options{Aliases: user})
			require.NoError(t, err)
			assert.Equal(t, tt.want, results[0].Fields())
		})
	}
}

func TestAliasesYAML(t *testing.T) {
	var doc struct {
		Aliases *Aliases `yaml:"aliases,omitempty"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("aliases:\n  zeta: dcterms:title\n  alpha: dcterms:creator\n"), &doc))
	require.NotNil(t, doc.Aliases)
	assert.Equal(t, [][2]string{{"zeta", "dcterms:title"}, {"alpha", "dcterms:creator"}}, doc.Aliases.Pairs())

	out, err := yaml.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, "aliases:\n    zeta: dcterms:title\n    alpha: dcterms:creator\n", string(out))

	js, err := json.Marshal(doc.Aliases)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":"dcterms:title","alpha":"dcterms:creator"}`, string(js))

	doc.Aliases = NewAliases()
	out, err = yaml.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(out))

	var bad struct {
		Aliases *Aliases `yaml:"aliases"`
	}
	assert.Error(t, yaml.Unmarshal([]byte("aliases: [a, b]\n"), &bad))
}

func TestBuiltinAliases(t *testing.T) {
	a := BuiltinAliases()
	target, ok := a.Get("internal id")
	require.True(t, ok)
	assert.Equal(t, "o:id", target)
}
