// Package helpers holds text utilities shared by template filters.
package helpers

import (
	"html"
	"regexp"
	"strings"
)

var (
	htmlTagRegex     = regexp.MustCompile(`<[^>]*>`)
	htmlCommentRegex = regexp.MustCompile(`<!--[\s\S]*?-->`)
	multiSpaceRegex  = regexp.MustCompile(`\s+`)
	blankLinesRegex  = regexp.MustCompile(`\n\s*\n`)

	brTagRegex    = regexp.MustCompile(`<br\s*/?>`)
	blockEndRegex = regexp.MustCompile(`</(?:p|div|li|h[1-6]|blockquote|tr)>`)
)

// StripHTML removes HTML tags from a cell value and decodes entities.
// Block-level closing tags and <br> become line breaks before whitespace is
// collapsed.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}

	s = htmlCommentRegex.ReplaceAllString(s, "")
	s = blockEndRegex.ReplaceAllString(s, "\n")
	s = brTagRegex.ReplaceAllString(s, "\n")
	s = htmlTagRegex.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = multiSpaceRegex.ReplaceAllString(s, " ")
	s = blankLinesRegex.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

// DecodeHTMLEntities decodes HTML entities without stripping tags.
func DecodeHTMLEntities(s string) string {
	return html.UnescapeString(s)
}

// EncodeHTMLEntities encodes special characters as HTML entities.
func EncodeHTMLEntities(s string) string {
	return html.EscapeString(s)
}

// NormalizeWhitespace collapses all whitespace, line breaks included, to
// single spaces and trims.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(multiSpaceRegex.ReplaceAllString(s, " "))
}
