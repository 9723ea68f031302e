package transform

import (
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lehigh-university-libraries/bulkimport/expr"
)

// DefaultType is the datatype of a statement whose target names none.
const DefaultType = "literal"

// Statement is one metadata value ready for the persistence layer.
type Statement struct {
	Term     string `json:"property"`
	Type     string `json:"type"`
	Language string `json:"@language,omitempty"`
	IsPublic *bool  `json:"is_public"`
	Value    string `json:"@value"`
}

// newStatement builds the statement for value under target.
func newStatement(target expr.Expression, value string) Statement {
	st := Statement{
		Term:     target.Field,
		Type:     target.Datatype,
		Language: target.Language,
		IsPublic: target.IsPublic(),
		Value:    value,
	}
	if st.Type == "" {
		st.Type = DefaultType
	}
	return st
}

// Struct renders the statement as a protobuf struct. An unset language or
// visibility is null.
func (s Statement) Struct() *structpb.Struct {
	fields := map[string]*structpb.Value{
		"property":  structpb.NewStringValue(s.Term),
		"type":      structpb.NewStringValue(s.Type),
		"@language": structpb.NewNullValue(),
		"is_public": structpb.NewNullValue(),
		"@value":    structpb.NewStringValue(s.Value),
	}
	if s.Language != "" {
		fields["@language"] = structpb.NewStringValue(s.Language)
	}
	if s.IsPublic != nil {
		fields["is_public"] = structpb.NewBoolValue(*s.IsPublic)
	}
	return &structpb.Struct{Fields: fields}
}

// Output is the result of transforming one entry.
type Output struct {
	// Index is the position of the entry in its source
	Index int

	// Statements are the produced values, in rule order
	Statements []Statement

	// ResourceClass is set by a matching conditional rule
	ResourceClass string

	// Skipped is true when a conditional rule dropped the entry
	Skipped bool

	// Rule is the name of the matching conditional rule, if any
	Rule string
}

// Struct renders the output as a protobuf struct.
func (o *Output) Struct() *structpb.Struct {
	statements := make([]*structpb.Value, 0, len(o.Statements))
	for _, st := range o.Statements {
		statements = append(statements, structpb.NewStructValue(st.Struct()))
	}
	fields := map[string]*structpb.Value{
		"entry":      structpb.NewNumberValue(float64(o.Index)),
		"statements": structpb.NewListValue(&structpb.ListValue{Values: statements}),
	}
	if o.ResourceClass != "" {
		fields["resource_class"] = structpb.NewStringValue(o.ResourceClass)
	}
	if o.Rule != "" {
		fields["rule"] = structpb.NewStringValue(o.Rule)
	}
	if o.Skipped {
		fields["skipped"] = structpb.NewBoolValue(true)
	}
	return &structpb.Struct{Fields: fields}
}

// Values returns the values produced for term, in order.
func (o *Output) Values(term string) []string {
	var out []string
	for _, st := range o.Statements {
		if st.Term == term {
			out = append(out, st.Value)
		}
	}
	return out
}
