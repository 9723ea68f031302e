package pattern

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lehigh-university-libraries/bulkimport/helpers"
)

var filters = map[string]func(string) string{
	"trim":       strings.TrimSpace,
	"lower":      func(s string) string { return cases.Lower(language.Und).String(s) },
	"upper":      func(s string) string { return cases.Upper(language.Und).String(s) },
	"title":      func(s string) string { return cases.Title(language.Und).String(s) },
	"capitalize": capitalize,
	"striptags":  helpers.StripHTML,
	"spaceless":  helpers.NormalizeWhitespace,
	"unescape":   helpers.DecodeHTMLEntities,
	"escape":     helpers.EncodeHTMLEntities,
	"length":     func(s string) string { return strconv.Itoa(utf8.RuneCountInString(s)) },
	"first":      first,
	"last":       last,
	"date":       helpers.NormalizeDate,
	"year":       helpers.DateYear,
}

// first returns the first character of s.
func first(s string) string {
	_, size := utf8.DecodeRuneInString(s)
	return s[:size]
}

// last returns the last character of s.
func last(s string) string {
	_, size := utf8.DecodeLastRuneInString(s)
	return s[len(s)-size:]
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + cases.Lower(language.Und).String(s[size:])
}

// Filters returns the names of the available filters, sorted.
func Filters() []string {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
