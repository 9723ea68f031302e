package vocab

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVocabularies() Static {
	return Static{
		{
			ID: 1, Prefix: "dcterms", Label: "Dublin Core",
			Properties: []Property{
				{ID: 1, LocalName: "title", Label: "Title"},
				{ID: 2, LocalName: "creator", Label: "Creator"},
			},
		},
		{
			ID: 2, Prefix: "mine", Label: "Dublin Core",
			Properties: []Property{
				{ID: 90, LocalName: "heading", Label: "Title"},
			},
		},
		{
			ID: 3, Prefix: "foaf", Label: "Friend of a Friend",
			Properties: []Property{
				{ID: 100, LocalName: "title", Label: "title"},
			},
		},
	}
}

func TestBuildNames(t *testing.T) {
	d := Build(testVocabularies())

	assert.Equal(t, 4, d.Len())
	assert.Equal(t, []string{"dcterms:title", "dcterms:creator", "mine:heading", "foaf:title"}, d.Terms())
	for _, term := range d.Terms() {
		got, ok := d.Lookup(TableNames, term)
		require.True(t, ok, term)
		assert.Equal(t, term, got)
	}
}

func TestBuildLabelCollision(t *testing.T) {
	d := Build(testVocabularies())

	term, ok := d.Lookup(TableLabels, "Dublin Core:Title")
	require.True(t, ok)
	assert.Equal(t, "dcterms:title", term, "first registered keeps the bare label")

	term, ok = d.Lookup(TableLabels, "Dublin Core:Title (#90)")
	require.True(t, ok)
	assert.Equal(t, "mine:heading", term)

	_, ok = d.Lookup(TableLabels, "Dublin Core:Title (#1)")
	assert.False(t, ok, "the first entry is never suffixed")

	term, ok = d.Lookup(TableLocalLabels, "Title (#90)")
	require.True(t, ok)
	assert.Equal(t, "mine:heading", term)
}

func TestBuildLabelCollisionOrderDependent(t *testing.T) {
	vocabs := testVocabularies()
	reversed := Static{vocabs[1], vocabs[0]}

	d := Build(reversed)
	term, _ := d.Lookup(TableLabels, "Dublin Core:Title")
	assert.Equal(t, "mine:heading", term)
	term, _ = d.Lookup(TableLabels, "Dublin Core:Title (#1)")
	assert.Equal(t, "dcterms:title", term)
}

func TestBuildLocalNamesFirstWins(t *testing.T) {
	d := Build(testVocabularies())

	term, ok := d.Lookup(TableLocalNames, "title")
	require.True(t, ok)
	assert.Equal(t, "dcterms:title", term)

	pairs := d.Pairs(TableLocalNames)
	require.Len(t, pairs, 4)
	assert.Equal(t, [2]string{"title", "foaf:title"}, pairs[3])
}

func TestParseTerm(t *testing.T) {
	term, ok := ParseTerm("dcterms:title")
	require.True(t, ok)
	assert.Equal(t, Term{Prefix: "dcterms", LocalName: "title"}, term)
	assert.Equal(t, "dcterms:title", term.String())

	for _, bad := range []string{"title", ":title", "dcterms:", ""} {
		_, ok := ParseTerm(bad)
		assert.False(t, ok, bad)
	}
}

func TestDefaultCatalog(t *testing.T) {
	d := Build(Default())

	term, ok := d.Lookup(TableLabels, "Dublin Core:Title")
	require.True(t, ok)
	assert.Equal(t, "dcterms:title", term)

	term, ok = d.Lookup(TableLocalNames, "title")
	require.True(t, ok)
	assert.Equal(t, "dcterms:title", term)

	_, ok = d.Lookup(TableNames, "bibo:doi")
	assert.True(t, ok)
}

type failingCatalog struct{}

func (failingCatalog) Vocabularies(ctx context.Context) ([]Vocabulary, error) {
	return nil, errors.New("connection refused")
}

func TestLoadPropagatesCatalogError(t *testing.T) {
	_, err := Load(context.Background(), failingCatalog{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFileCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	doc := `vocabularies:
  - id: 1
    prefix: dcterms
    label: Dublin Core
    properties:
      - {id: 1, local_name: title, label: Title}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	d, err := Load(context.Background(), NewFileCatalog(path))
	require.NoError(t, err)
	assert.Equal(t, []string{"dcterms:title"}, d.Terms())

	_, err = Load(context.Background(), NewFileCatalog(filepath.Join(dir, "missing.yaml")))
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}
