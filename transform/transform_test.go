package transform

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/lehigh-university-libraries/bulkimport/entry"
	"github.com/lehigh-university-libraries/bulkimport/mapping"
	"github.com/lehigh-university-libraries/bulkimport/rules"
)

const sampleMapping = `[params]
base_url = https://example.org
item_url = {{ base_url }}/item/

[default]
dcterms:license ^^literal = Public domain
dcterms:publisher §private = {{ publisher }}

[mapping]
Title = dcterms:title @en ~ {{ value|trim|upper }}
Creator = dcterms:creator | dcterms:contributor
Identifier = dcterms:identifier ^^uri ~ {{ item_url }}{{ value }}
Handle = dcterms:relation ^^uri §public ~ https://hdl.handle.net/{{ value }}
Rights = dcterms:rights ~ All rights reserved
Subject = dcterms:subject ~ {{ index }}. {{ value }} ({{ Title }})
`

func mustConfig(t *testing.T, text string) *mapping.Config {
	t.Helper()
	cfg, problems := mapping.ParseString(text)
	require.Empty(t, problems)
	return cfg
}

func TestTransform(t *testing.T) {
	engine := New(mustConfig(t, sampleMapping))
	run := engine.Prepare(map[string]string{"publisher": "Lehigh"})

	ent := entry.New(7,
		[]string{"Title", "Creator", "Identifier", "Handle", "Rights", "subject", "Unmapped"},
		[][]string{
			{" annual report "},
			{"Smith", "", "Jones"},
			{"42"},
			{"1234/5"},
			{"anything"},
			{"maps", "charts"},
			{"ignored"},
		})

	out, err := run.Transform(ent)
	require.NoError(t, err)
	msg := spew.Sdump(out)

	assert.Equal(t, 7, out.Index)
	assert.False(t, out.Skipped)
	assert.Equal(t, []string{"Public domain"}, out.Values("dcterms:license"), msg)
	assert.Equal(t, []string{"Lehigh"}, out.Values("dcterms:publisher"), msg)
	assert.Equal(t, []string{"ANNUAL REPORT"}, out.Values("dcterms:title"), msg)
	assert.Equal(t, []string{"Smith", "Jones"}, out.Values("dcterms:creator"), msg)
	assert.Equal(t, []string{"Smith", "Jones"}, out.Values("dcterms:contributor"), msg)
	assert.Equal(t, []string{"https://example.org/item/42"}, out.Values("dcterms:identifier"), msg)
	assert.Equal(t, []string{"https://hdl.handle.net/1234/5"}, out.Values("dcterms:relation"), msg)
	assert.Equal(t, []string{"All rights reserved"}, out.Values("dcterms:rights"), msg)
	assert.Equal(t, []string{"1. maps ( annual report )", "2. charts ( annual report )"}, out.Values("dcterms:subject"), msg)

	require.GreaterOrEqual(t, len(out.Statements), 3)
	assert.Equal(t, Statement{Term: "dcterms:license", Type: "literal", Value: "Public domain"}, out.Statements[0])
	publisher := out.Statements[1]
	require.NotNil(t, publisher.IsPublic)
	assert.False(t, *publisher.IsPublic)
	assert.Equal(t, Statement{Term: "dcterms:title", Type: "literal", Language: "en", Value: "ANNUAL REPORT"}, out.Statements[2])
}

func TestTransformEmptyValues(t *testing.T) {
	engine := New(mustConfig(t, sampleMapping))
	run := engine.Prepare(nil)

	out, err := run.Transform(entry.New(1, []string{"Title", "Identifier"}, [][]string{{""}, {"  "}}))
	require.NoError(t, err)

	assert.Nil(t, out.Values("dcterms:title"))
	assert.Nil(t, out.Values("dcterms:identifier"))
	assert.Nil(t, out.Values("dcterms:publisher"), "an unresolved default renders empty")
	assert.Equal(t, []string{"Public domain"}, out.Values("dcterms:license"))
}

func TestTransformNilInputs(t *testing.T) {
	run := New(nil).Prepare(nil)
	out, err := run.Transform(entry.New(1, []string{"Title"}, [][]string{{"x"}}))
	require.NoError(t, err)
	assert.Empty(t, out.Statements)

	_, err = run.Transform(nil)
	assert.ErrorIs(t, err, ErrNilEntry)
}

func TestTransformRules(t *testing.T) {
	rs, err := rules.LoadRuleSetFromBytes([]byte(`name: items
rules:
  - name: withdrawn
    when:
      field: Status
      equals: withdrawn
    then:
      skip: true
  - name: dataset
    when:
      field: Type
      equals: dataset
    then:
      set_type: dctype:Dataset
      actions:
        - set_field: dcterms:type ^^literal
          set_value: Dataset
        - set_field: 1bad
          set_value: ignored
`))
	require.NoError(t, err)

	engine := New(mustConfig(t, "[mapping]\nTitle = dcterms:title\n"), WithRules(rs))
	run := engine.Prepare(nil)

	out, err := run.Transform(entry.New(1, []string{"Title", "Type"}, [][]string{{"Census"}, {"Dataset"}}))
	require.NoError(t, err)
	assert.Equal(t, "dataset", out.Rule)
	assert.Equal(t, "dctype:Dataset", out.ResourceClass)
	assert.Equal(t, []string{"Dataset"}, out.Values("dcterms:type"))
	assert.Equal(t, []string{"Census"}, out.Values("dcterms:title"))
	assert.Len(t, out.Statements, 2)

	out, err = run.Transform(entry.New(2, []string{"Title", "Status"}, [][]string{{"Old"}, {"Withdrawn"}}))
	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Empty(t, out.Statements)
}

func TestTransformRulesResourceType(t *testing.T) {
	rs, err := rules.LoadRuleSetFromBytes([]byte(`name: sets
resource_type: item_sets
rules:
  - name: all
    then:
      set_type: dctype:Collection
`))
	require.NoError(t, err)

	tests := []struct {
		name         string
		resourceType string
		wantRule     string
	}{
		{name: "same resource type", resourceType: "item_sets", wantRule: "all"},
		{name: "case differs", resourceType: "Item_Sets", wantRule: "all"},
		{name: "unknown resource type", resourceType: "", wantRule: "all"},
		{name: "other resource type", resourceType: "items", wantRule: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := New(mustConfig(t, "[mapping]\nTitle = dcterms:title\n"), WithRules(rs), WithResourceType(tt.resourceType))
			out, err := engine.Prepare(nil).Transform(entry.New(1, []string{"Title"}, [][]string{{"Maps"}}))
			require.NoError(t, err)
			assert.Equal(t, tt.wantRule, out.Rule)
			assert.Equal(t, []string{"Maps"}, out.Values("dcterms:title"))
		})
	}
}

func TestUnknownFilterLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	cfg := mustConfig(t, "[mapping]\nTitle = dcterms:title ~ {{ value|reverse }}\nAlt = dcterms:alternative ~ {{ value|reverse|trim }}\n")
	engine := New(cfg, WithLogger(logger))

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("unknown template filter")))

	out, err := engine.Prepare(nil).Transform(entry.New(1, []string{"Title"}, [][]string{{"abc"}}))
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, out.Values("dcterms:title"))
}

func TestStatementStruct(t *testing.T) {
	public := true
	st := Statement{Term: "dcterms:title", Type: "literal", Language: "fr", IsPublic: &public, Value: "Titre"}

	data, err := protojson.Marshal(st.Struct())
	require.NoError(t, err)
	assert.JSONEq(t, `{"property":"dcterms:title","type":"literal","@language":"fr","is_public":true,"@value":"Titre"}`, string(data))

	data, err = protojson.Marshal(Statement{Term: "dcterms:title", Type: "literal", Value: "x"}.Struct())
	require.NoError(t, err)
	assert.JSONEq(t, `{"property":"dcterms:title","type":"literal","@language":null,"is_public":null,"@value":"x"}`, string(data))

	out := &Output{Index: 3, ResourceClass: "bibo:Book", Statements: []Statement{{Term: "dcterms:title", Type: "literal", Value: "x"}}}
	data, err = protojson.Marshal(out.Struct())
	require.NoError(t, err)
	assert.JSONEq(t, `{"entry":3,"resource_class":"bibo:Book","statements":[{"property":"dcterms:title","type":"literal","@language":null,"is_public":null,"@value":"x"}]}`, string(data))
}
