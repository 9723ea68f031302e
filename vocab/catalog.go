package vocab

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// catalogDocument is the on-disk shape of a catalog file.
type catalogDocument struct {
	Vocabularies []Vocabulary `yaml:"vocabularies"`
}

// Default returns the bundled catalog (Dublin Core Terms, BIBO and FOAF).
func Default() Static {
	vocabs, err := parseCatalog(defaultCatalog)
	if err != nil {
		// The embedded file is part of the build.
		panic(fmt.Sprintf("parsing embedded catalog: %v", err))
	}
	return vocabs
}

// FileCatalog reads vocabularies from a YAML document. The location can be a
// local path or any URL supported by afs.
type FileCatalog struct {
	URL string
	fs  afs.Service
}

// NewFileCatalog creates a catalog backed by the document at url.
func NewFileCatalog(url string) *FileCatalog {
	return &FileCatalog{URL: url, fs: afs.New()}
}

// Vocabularies downloads and parses the document on every call, so each
// automap run sees the current catalog.
func (c *FileCatalog) Vocabularies(ctx context.Context) ([]Vocabulary, error) {
	data, err := c.fs.DownloadWithURL(ctx, c.URL)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", c.URL, err)
	}
	vocabs, err := parseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", c.URL, err)
	}
	return vocabs, nil
}

func parseCatalog(data []byte) (Static, error) {
	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog YAML: %w", err)
	}
	return doc.Vocabularies, nil
}
