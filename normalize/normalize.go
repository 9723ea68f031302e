// Package normalize cleans raw field and header names before they are matched
// against metadata terms.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Name collapses every kind of blank to a single ASCII space, trims the
// result and removes spaces around colons, so "dcterms : title" becomes
// "dcterms:title". The input is NFC-normalized first.
func Name(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	var last rune
	pendingSpace := false
	for _, r := range s {
		if isBlank(r) {
			pendingSpace = true
			continue
		}
		// A space is only written between two non-blank runes, and never
		// next to a colon.
		if pendingSpace && last != 0 && last != ':' && r != ':' {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(r)
		last = r
	}
	return b.String()
}

// Fold returns the case-folded form of s, used for every case-insensitive
// comparison of names and labels.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// isBlank reports whether r is white space in any unicode category, or one of
// the invisible characters spreadsheets leave in headers.
func isBlank(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '\u200b', '\u2060', '\ufeff', '\u180e':
		return true
	}
	return false
}
