// Package profile manages saved importers stored in ~/.bulkimport/importers.
//
// An importer pairs a reader (how the source is read) with a processor (how
// its entries are mapped), plus enough information about the source columns
// to recognize the next spreadsheet of the same shape.
package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/bulkimport/automap"
	"github.com/lehigh-university-libraries/bulkimport/expr"
	"github.com/lehigh-university-libraries/bulkimport/mapping"
	"github.com/lehigh-university-libraries/bulkimport/reader"
)

// HomeEnv overrides the configuration directory.
const HomeEnv = "BULKIMPORT_HOME"

// ErrNotFound is returned when an importer does not exist.
var ErrNotFound = errors.New("importer not found")

// Importer is a saved reader + processor configuration.
type Importer struct {
	// Name is the importer identifier (e.g., "digitization-sheet")
	Name string `yaml:"name" json:"name"`

	// Description provides human-readable documentation
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Reader configures how the source is read
	Reader ReaderSettings `yaml:"reader" json:"reader"`

	// Processor configures how entries are mapped
	Processor ProcessorSettings `yaml:"processor,omitempty" json:"processor,omitempty"`

	// Source contains information about the original source for auto-discovery
	Source SourceInfo `yaml:"source,omitempty" json:"source,omitempty"`

	// Fields maps source columns to target expressions, in column order
	Fields []FieldMapping `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// ReaderSettings selects and configures a reader.
type ReaderSettings struct {
	// Format is the reader name (e.g., "csv", "tsv")
	Format string `yaml:"format" json:"format"`

	// Delimiter overrides the reader's field delimiter
	Delimiter string `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`

	// MultiValueSeparator is the delimiter for multi-value cells
	MultiValueSeparator string `yaml:"multi_value_separator,omitempty" json:"multi_value_separator,omitempty"`
}

// ProcessorSettings configures the mapping of entries.
type ProcessorSettings struct {
	// ResourceType is the kind of resource created (e.g., "items", "item_sets")
	ResourceType string `yaml:"resource_type,omitempty" json:"resource_type,omitempty"`

	// Mapping names a mapping file. When empty, Fields is used as the mapping.
	Mapping string `yaml:"mapping,omitempty" json:"mapping,omitempty"`

	// Rules is the path of a conditional rules file
	Rules string `yaml:"rules,omitempty" json:"rules,omitempty"`

	// Aliases are user aliases merged into the built-in table when automapping
	Aliases *automap.Aliases `yaml:"aliases,omitempty" json:"aliases,omitempty"`

	// NamesAlone also matches local names and labels when automapping
	NamesAlone *bool `yaml:"names_alone,omitempty" json:"names_alone,omitempty"`

	// Params are run variables passed to the mapping params
	Params map[string]string `yaml:"params,omitempty" json:"params,omitempty"`
}

// SourceInfo contains metadata for auto-discovery.
type SourceInfo struct {
	// Columns is the expected column headers
	Columns []string `yaml:"columns,omitempty" json:"columns,omitempty"`

	// FieldFingerprint is a hash of the normalized column names for quick matching
	FieldFingerprint string `yaml:"field_fingerprint,omitempty" json:"field_fingerprint,omitempty"`
}

// FieldMapping describes where a source column goes.
type FieldMapping struct {
	// Source is the column name
	Source string `yaml:"source" json:"source"`

	// Targets are field expressions separated by "|", e.g. "dcterms:title @en"
	Targets string `yaml:"targets,omitempty" json:"targets,omitempty"`

	// Skip indicates this column should be ignored
	Skip bool `yaml:"skip,omitempty" json:"skip,omitempty"`
}

// GetMultiValueSeparator returns the multi-value separator with a default.
func (i *Importer) GetMultiValueSeparator() string {
	if i.Reader.MultiValueSeparator != "" {
		return i.Reader.MultiValueSeparator
	}
	return reader.DefaultMultiValueSeparator
}

// ReaderOptions converts the reader settings to reader options.
func (i *Importer) ReaderOptions() *reader.Options {
	opts := reader.NewOptions()
	opts.MultiValueSeparator = i.GetMultiValueSeparator()
	opts.Delimiter = reader.ParseDelimiter(i.Reader.Delimiter)
	return opts
}

// MappingConfig builds a mapping config from the importer fields. Skipped
// columns and invalid targets are left out.
func (i *Importer) MappingConfig() *mapping.Config {
	cfg := &mapping.Config{Name: i.Name}
	for _, f := range i.Fields {
		if f.Skip {
			continue
		}
		targets := expr.ParseAll(f.Targets)
		if len(targets) == 0 {
			continue
		}
		cfg.Mapping = append(cfg.Mapping, mapping.Rule{Source: f.Source, Targets: targets})
	}
	return cfg
}

// configDirOverride holds a user-specified configuration directory.
// When empty, $BULKIMPORT_HOME or $HOME/.bulkimport is used.
var configDirOverride string

// SetConfigDir overrides the default configuration directory.
func SetConfigDir(dir string) {
	configDirOverride = dir
}

// ConfigDir returns the bulkimport configuration directory.
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".bulkimport"), nil
}

// ImportersDir returns the importers directory.
func ImportersDir() (string, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "importers"), nil
}

// MappingsDir returns the directory of user mapping files, searched before
// the bundled ones.
func MappingsDir() (string, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "mapping"), nil
}

// EnsureImportersDir creates the importers directory if it doesn't exist.
func EnsureImportersDir() error {
	dir, err := ImportersDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ImporterPath returns the path for an importer file.
func ImporterPath(name string) (string, error) {
	dir, err := ImportersDir()
	if err != nil {
		return "", err
	}
	// Sanitize name
	name = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid importer name %q", name)
	}
	return filepath.Join(dir, name+".yaml"), nil
}

// Save writes the importer to disk.
func (i *Importer) Save() error {
	if err := EnsureImportersDir(); err != nil {
		return fmt.Errorf("creating importers directory: %w", err)
	}

	path, err := ImporterPath(i.Name)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(i)
	if err != nil {
		return fmt.Errorf("marshaling importer: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing importer: %w", err)
	}

	return nil
}

// Load reads an importer from disk.
func Load(name string) (*Importer, error) {
	path, err := ImporterPath(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("reading importer: %w", err)
	}

	var i Importer
	if err := yaml.Unmarshal(data, &i); err != nil {
		return nil, fmt.Errorf("parsing importer: %w", err)
	}

	return &i, nil
}

// List returns all available importer names, sorted.
func List() ([]string, error) {
	dir, err := ImportersDir()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading importers directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			names = append(names, strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml"))
		}
	}
	sort.Strings(names)

	return names, nil
}

// Delete removes an importer.
func Delete(name string) error {
	path, err := ImporterPath(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return fmt.Errorf("deleting importer: %w", err)
	}

	return nil
}

// Exists checks if an importer exists.
func Exists(name string) bool {
	path, err := ImporterPath(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
