// Package csv provides readers for comma and tab separated spreadsheets.
package csv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lehigh-university-libraries/bulkimport/entry"
	"github.com/lehigh-university-libraries/bulkimport/reader"
)

// Reader reads delimited text with a header row.
type Reader struct {
	name        string
	description string
	delimiter   rune
	extensions  []string
}

// Ensure Reader implements the interface
var _ reader.Reader = (*Reader)(nil)

// CSV returns the comma separated reader.
func CSV() *Reader {
	return &Reader{
		name:        "csv",
		description: "Comma-separated values (CSV) spreadsheet",
		delimiter:   ',',
		extensions:  []string{"csv"},
	}
}

// TSV returns the tab separated reader.
func TSV() *Reader {
	return &Reader{
		name:        "tsv",
		description: "Tab-separated values (TSV) spreadsheet",
		delimiter:   '\t',
		extensions:  []string{"tsv", "tab"},
	}
}

// Name returns the reader identifier.
func (f *Reader) Name() string {
	return f.name
}

// Description returns a human-readable description.
func (f *Reader) Description() string {
	return f.description
}

// Extensions returns file extensions associated with this reader.
func (f *Reader) Extensions() []string {
	return f.extensions
}

// CanRead returns true if the first line contains the delimiter and the
// input does not look like JSON or XML.
func (f *Reader) CanRead(peek []byte) bool {
	peek = bytes.TrimSpace(peek)
	if len(peek) == 0 {
		return false
	}
	if peek[0] == '{' || peek[0] == '[' || peek[0] == '<' {
		return false
	}
	line, _, _ := bytes.Cut(peek, []byte("\n"))
	return bytes.ContainsRune(line, f.delimiter)
}

// Open reads the header row and returns a source over the remaining rows.
func (f *Reader) Open(r io.Reader, opts *reader.Options) (reader.Source, error) {
	if opts == nil {
		opts = reader.NewOptions()
	}

	cr := csv.NewReader(r)
	cr.Comma = f.delimiter
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1 // Allow variable number of fields
	cr.LazyQuotes = true

	src := &source{csv: cr, opts: opts}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return src, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", f.name, err)
	}
	for i, col := range header {
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		src.fields = append(src.fields, strings.TrimSpace(col))
	}
	return src, nil
}

type source struct {
	csv    *csv.Reader
	opts   *reader.Options
	fields []string
	index  int
}

func (s *source) Fields() []string {
	return append([]string(nil), s.fields...)
}

// Next returns the next non-blank row.
func (s *source) Next() (*entry.Entry, error) {
	if s.fields == nil {
		return nil, io.EOF
	}
	for {
		row, err := s.csv.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("reading row %d: %w", s.index+1, err)
		}

		values := make([][]string, len(s.fields))
		blank := true
		for i := range s.fields {
			if i >= len(row) {
				break
			}
			values[i] = s.split(row[i])
			if len(values[i]) > 0 {
				blank = false
			}
		}
		if blank {
			continue
		}

		s.index++
		return entry.New(s.index, s.fields, values), nil
	}
}

// split cuts a cell into values, dropping empty parts.
func (s *source) split(cell string) []string {
	parts := []string{cell}
	if s.opts.MultiValueSeparator != "" {
		parts = strings.Split(cell, s.opts.MultiValueSeparator)
	}
	out := parts[:0]
	for _, p := range parts {
		if s.opts.TrimValues {
			p = strings.TrimSpace(p)
		}
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func init() {
	reader.Register(CSV())
	reader.Register(TSV())
}
