package csv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/bulkimport/entry"
	"github.com/lehigh-university-libraries/bulkimport/reader"
)

func readAll(t *testing.T, src reader.Source) []*entry.Entry {
	t.Helper()
	var entries []*entry.Entry
	for e, err := range reader.Entries(src) {
		require.NoError(t, err)
		entries = append(entries, e)
	}
	return entries
}

func TestOpenCSV(t *testing.T) {
	input := "\ufeffTitle, Creator ,Date\n" +
		"First,\"Smith, J. | Jones, K.\",1921\n" +
		",,\n" +
		"Second,,\n" +
		"Third\n"

	src, err := CSV().Open(strings.NewReader(input), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Title", "Creator", "Date"}, src.Fields())

	entries := readAll(t, src)
	require.Len(t, entries, 3)

	assert.Equal(t, 1, entries[0].Index())
	assert.Equal(t, []string{"Smith, J.", "Jones, K."}, entries[0].Values("Creator"))
	assert.Equal(t, []string{"1921"}, entries[0].Values("Date"))

	assert.Equal(t, 2, entries[1].Index(), "blank rows are not counted")
	assert.Nil(t, entries[1].Values("Creator"))

	assert.Equal(t, []string{"Third"}, entries[2].Values("Title"))
	assert.Nil(t, entries[2].Values("Date"))
}

func TestOpenTSV(t *testing.T) {
	input := "Title\tSubject\nA, B\tmaps;charts\n"
	opts := &reader.Options{MultiValueSeparator: ";", TrimValues: true}

	src, err := TSV().Open(strings.NewReader(input), opts)
	require.NoError(t, err)
	entries := readAll(t, src)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"A, B"}, entries[0].Values("Title"))
	assert.Equal(t, []string{"maps", "charts"}, entries[0].Values("Subject"))
}

func TestOpenWithoutSplitting(t *testing.T) {
	opts := &reader.Options{}
	src, err := CSV().Open(strings.NewReader("Title\n a | b \n"), opts)
	require.NoError(t, err)
	entries := readAll(t, src)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{" a | b "}, entries[0].Values("Title"))
}

func TestOpenEmpty(t *testing.T) {
	src, err := CSV().Open(strings.NewReader(""), nil)
	require.NoError(t, err)
	assert.Empty(t, src.Fields())
	assert.Empty(t, readAll(t, src))
}

func TestCanRead(t *testing.T) {
	tests := []struct {
		name string
		peek string
		csv  bool
		tsv  bool
	}{
		{name: "csv", peek: "a,b\n1,2\n", csv: true},
		{name: "tsv", peek: "a\tb\n1\t2\n", tsv: true},
		{name: "json", peek: `[{"a": "b,c"}]`},
		{name: "xml", peek: "<record>a,b</record>"},
		{name: "empty", peek: "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.csv, CSV().CanRead([]byte(tt.peek)))
			assert.Equal(t, tt.tsv, TSV().CanRead([]byte(tt.peek)))
		})
	}
}

func TestRegistered(t *testing.T) {
	assert.Subset(t, reader.List(), []string{"csv", "tsv"})

	rd, err := reader.Detect("items.TSV", nil)
	require.NoError(t, err)
	assert.Equal(t, "tsv", rd.Name())

	rd, err = reader.Detect("export.txt", []byte("a,b\n1,2"))
	require.NoError(t, err)
	assert.Equal(t, "csv", rd.Name())

	_, err = reader.Get("json")
	assert.Error(t, err)

	fields, err := reader.Fields("csv", strings.NewReader("Title,Date\nx,y\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Title", "Date"}, fields)
}
