package mapping

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
)

// Extension is the mapping file suffix tried after the bare name.
const Extension = ".ini"

// DefaultExtensions is the extension resolution order.
var DefaultExtensions = []string{"", Extension}

// Loader resolves mapping names against an ordered list of directories.
// Directories may be local paths or afs URLs.
type Loader struct {
	// Dirs are searched in order; the first hit wins
	Dirs []string

	// Extensions are tried in order within each directory
	Extensions []string

	fs     afs.Service
	logger *slog.Logger
}

// DefaultDirs returns the standard search order: the per-install override
// directory, then the two bundled data directories.
func DefaultDirs(overrideDir, dataDir string) []string {
	var dirs []string
	if overrideDir != "" {
		dirs = append(dirs, overrideDir)
	}
	if dataDir != "" {
		dirs = append(dirs, url.Join(dataDir, "mapping"), url.Join(dataDir, "mapping", "base"))
	}
	return dirs
}

// NewLoader creates a loader over dirs.
func NewLoader(dirs ...string) *Loader {
	return &Loader{
		Dirs:       dirs,
		Extensions: DefaultExtensions,
		fs:         afs.New(),
		logger:     slog.Default(),
	}
}

// WithLogger sets the logger used for skipped lines and missing files.
func (l *Loader) WithLogger(logger *slog.Logger) *Loader {
	l.logger = logger
	return l
}

// Resolve returns the location of the mapping file called name. The second
// return value is false when no candidate exists.
func (l *Loader) Resolve(ctx context.Context, name string) (string, bool, error) {
	if !validName(name) {
		return "", false, nil
	}
	for _, dir := range l.Dirs {
		for _, ext := range l.Extensions {
			candidate := url.Join(dir, name+ext)
			ok, err := l.fs.Exists(ctx, candidate)
			if err != nil {
				return "", false, fmt.Errorf("checking %s: %w", candidate, err)
			}
			if !ok {
				continue
			}
			obj, err := l.fs.Object(ctx, candidate)
			if err != nil {
				return "", false, fmt.Errorf("inspecting %s: %w", candidate, err)
			}
			if obj.IsDir() {
				continue
			}
			return candidate, true, nil
		}
	}
	return "", false, nil
}

// Load reads, parses and merges the mapping called name with its parents.
// A mapping that cannot be found resolves to an empty config: mapping files
// are optional. A file that exists but cannot be read is an error.
func (l *Loader) Load(ctx context.Context, name string) (*Config, error) {
	return l.load(ctx, name, make(map[string]bool))
}

func (l *Loader) load(ctx context.Context, name string, visiting map[string]bool) (*Config, error) {
	location, ok, err := l.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		l.logger.Debug("mapping file not found, using an empty mapping", "mapping", name, "dirs", l.Dirs)
		return &Config{Name: name}, nil
	}

	data, err := l.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("reading mapping %s: %w", location, err)
	}

	cfg, problems, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing mapping %s: %w", location, err)
	}
	for _, p := range problems {
		l.logger.Warn("skipping mapping line", "mapping", location, "line", p.Line, "reason", p.Reason, "text", p.Text)
	}
	cfg.Name = name

	parent := cfg.InfoValue(InfoMapper)
	if parent == "" || parent == name {
		return cfg, nil
	}
	visiting[name] = true
	if visiting[parent] {
		l.logger.Warn("mapping inheritance cycle, parent ignored", "mapping", name, "parent", parent)
		return cfg, nil
	}
	base, err := l.load(ctx, parent, visiting)
	if err != nil {
		return nil, fmt.Errorf("loading parent mapping %s of %s: %w", parent, name, err)
	}
	return Merge(base, cfg), nil
}

// List returns the names of every mapping file found in the loader
// directories, sorted. A name present in several directories is listed once.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	for _, dir := range l.Dirs {
		ok, err := l.fs.Exists(ctx, dir)
		if err != nil {
			return nil, fmt.Errorf("checking %s: %w", dir, err)
		}
		if !ok {
			continue
		}
		objects, err := l.fs.List(ctx, dir)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", dir, err)
		}
		for _, obj := range objects {
			if obj.IsDir() || strings.HasPrefix(obj.Name(), ".") {
				continue
			}
			seen[strings.TrimSuffix(obj.Name(), Extension)] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// validName rejects names that would escape the mapping directories.
func validName(name string) bool {
	if name == "" || strings.Contains(name, "..") {
		return false
	}
	return !strings.HasPrefix(name, "/")
}
