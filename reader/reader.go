// Package reader defines the interface for source readers, which turn an
// input stream into import entries.
package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lehigh-university-libraries/bulkimport/entry"
)

// DefaultMultiValueSeparator splits one cell into several values.
const DefaultMultiValueSeparator = "|"

// Reader defines the interface that all reader plugins must implement.
type Reader interface {
	// Name returns the reader identifier (e.g., "csv", "tsv")
	Name() string

	// Description returns a human-readable description
	Description() string

	// Extensions returns file extensions associated with this reader
	Extensions() []string

	// CanRead returns true if this reader can read the given input
	CanRead(peek []byte) bool

	// Open prepares a source over r. The header, when the format has one,
	// is read immediately so that Fields is available before iteration.
	Open(r io.Reader, opts *Options) (Source, error)
}

// Source yields the entries of one input.
type Source interface {
	// Fields returns the available field names, in source order
	Fields() []string

	// Next returns the next entry, or io.EOF when the input is exhausted
	Next() (*entry.Entry, error)
}

// Options contains reader settings.
type Options struct {
	// MultiValueSeparator splits one cell into several values. Empty disables splitting.
	MultiValueSeparator string

	// Delimiter overrides the reader's default field delimiter
	Delimiter rune

	// TrimValues trims whitespace around each value
	TrimValues bool
}

// NewOptions creates Options with defaults.
func NewOptions() *Options {
	return &Options{
		MultiValueSeparator: DefaultMultiValueSeparator,
		TrimValues:          true,
	}
}

// ParseDelimiter reads a delimiter setting: a single character, or the
// escape "\t" for a tab. Anything else is 0, the reader default.
func ParseDelimiter(s string) rune {
	if s == `\t` {
		return '\t'
	}
	if r := []rune(s); len(r) == 1 {
		return r[0]
	}
	return 0
}

// Entries iterates over a source until io.EOF. A read error is yielded once
// and ends the iteration.
func Entries(src Source) iter.Seq2[*entry.Entry, error] {
	return func(yield func(*entry.Entry, error) bool) {
		for {
			e, err := src.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

// Registry holds registered readers.
type Registry struct {
	readers map[string]Reader
}

// DefaultRegistry is the global reader registry.
var DefaultRegistry = NewRegistry()

// NewRegistry creates a new reader registry.
func NewRegistry() *Registry {
	return &Registry{
		readers: make(map[string]Reader),
	}
}

// Register adds a reader to the registry.
func (r *Registry) Register(rd Reader) {
	r.readers[strings.ToLower(rd.Name())] = rd
}

// Get retrieves a reader by name.
func (r *Registry) Get(name string) (Reader, error) {
	rd, ok := r.readers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown reader: %s", name)
	}
	return rd, nil
}

// List returns all registered reader names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.readers))
	for name := range r.readers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detect picks a reader from the file extension, then from content.
func (r *Registry) Detect(filename string, peek []byte) (Reader, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	for _, name := range r.List() {
		rd := r.readers[name]
		for _, e := range rd.Extensions() {
			if ext == e {
				return rd, nil
			}
		}
	}

	peek = bytes.TrimSpace(peek)
	if len(peek) > 0 {
		for _, name := range r.List() {
			if rd := r.readers[name]; rd.CanRead(peek) {
				return rd, nil
			}
		}
	}

	return nil, fmt.Errorf("could not detect reader for %s", filename)
}

// Register adds a reader to the default registry.
func Register(rd Reader) {
	DefaultRegistry.Register(rd)
}

// Get retrieves a reader from the default registry.
func Get(name string) (Reader, error) {
	return DefaultRegistry.Get(name)
}

// List returns the readers of the default registry.
func List() []string {
	return DefaultRegistry.List()
}

// Detect detects a reader using the default registry.
func Detect(filename string, peek []byte) (Reader, error) {
	return DefaultRegistry.Detect(filename, peek)
}

// Fields opens r with the named reader and returns its field names without
// consuming entries.
func Fields(name string, r io.Reader, opts *Options) ([]string, error) {
	rd, err := Get(name)
	if err != nil {
		return nil, err
	}
	src, err := rd.Open(r, opts)
	if err != nil {
		return nil, err
	}
	return src.Fields(), nil
}
