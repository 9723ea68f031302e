// Package vocab describes the platform's vocabulary catalog and builds the
// lookup directory the automapper matches field names against.
package vocab

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrCatalogUnavailable is returned when the vocabulary catalog cannot be queried.
var ErrCatalogUnavailable = errors.New("vocabulary catalog unavailable")

// Vocabulary is a namespace of properties (e.g. Dublin Core Terms).
type Vocabulary struct {
	// ID is the numeric identifier of the vocabulary in the platform
	ID int `yaml:"id" json:"id"`

	// Prefix is the namespace prefix used in terms (e.g. "dcterms")
	Prefix string `yaml:"prefix" json:"prefix"`

	// NamespaceURI is the vocabulary namespace (e.g. "http://purl.org/dc/terms/")
	NamespaceURI string `yaml:"namespace_uri,omitempty" json:"namespace_uri,omitempty"`

	// Label is the human-readable vocabulary label (e.g. "Dublin Core")
	Label string `yaml:"label" json:"label"`

	// Properties are listed in catalog order
	Properties []Property `yaml:"properties" json:"properties"`
}

// Property is a single metadata property of a vocabulary.
type Property struct {
	ID        int    `yaml:"id" json:"id"`
	LocalName string `yaml:"local_name" json:"local_name"`
	Label     string `yaml:"label" json:"label"`
}

// Term is a namespaced metadata identifier such as dcterms:title.
type Term struct {
	Prefix    string
	LocalName string
}

// String returns the term as "prefix:local_name".
func (t Term) String() string {
	return t.Prefix + ":" + t.LocalName
}

// ParseTerm splits "prefix:local_name". The second return value is false when
// either part is missing.
func ParseTerm(s string) (Term, bool) {
	prefix, local, ok := strings.Cut(s, ":")
	if !ok || prefix == "" || local == "" {
		return Term{}, false
	}
	return Term{Prefix: prefix, LocalName: local}, true
}

// Term returns the term of a property in this vocabulary.
func (v Vocabulary) Term(p Property) Term {
	return Term{Prefix: v.Prefix, LocalName: p.LocalName}
}

// Catalog is the source of vocabularies, usually backed by the platform API
// or database.
type Catalog interface {
	Vocabularies(ctx context.Context) ([]Vocabulary, error)
}

// Static is a Catalog over an in-memory list.
type Static []Vocabulary

// Vocabularies returns the list as is.
func (s Static) Vocabularies(ctx context.Context) ([]Vocabulary, error) {
	return s, nil
}

// Load queries the catalog and builds a fresh directory from it.
func Load(ctx context.Context, c Catalog) (*Directory, error) {
	vocabs, err := c.Vocabularies(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	return Build(vocabs), nil
}
