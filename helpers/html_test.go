package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain", in: "Plain text", want: "Plain text"},
		{name: "inline tags", in: "Hello <b>World</b>", want: "Hello World"},
		{name: "paragraphs", in: "<p>One</p><p>Two</p>", want: "One Two"},
		{name: "line break", in: "One<br/>Two", want: "One Two"},
		{name: "comment", in: "A<!-- hidden -->B", want: "AB"},
		{name: "entities", in: "Fish &amp; Chips", want: "Fish & Chips"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripHTML(tt.in))
		})
	}
}

func TestEntities(t *testing.T) {
	assert.Equal(t, "a < b", DecodeHTMLEntities("a &lt; b"))
	assert.Equal(t, "a &lt; b", EncodeHTMLEntities("a < b"))
	assert.Equal(t, "one two", NormalizeWhitespace("  one\n\t two "))
}
