// Package cmd provides CLI commands for bulkimport.
package cmd

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bulkimport/automap"
	"github.com/lehigh-university-libraries/bulkimport/mapping"
	"github.com/lehigh-university-libraries/bulkimport/profile"
	"github.com/lehigh-university-libraries/bulkimport/vocab"
)

// DataEnv points at the directory holding the bundled mapping files.
const DataEnv = "BULKIMPORT_DATA"

var (
	configDir   string
	dataDir     string
	catalogFile string
)

func setupLogger() {
	logLevel := strings.ToUpper(os.Getenv("LOG_LEVEL"))
	if logLevel == "" {
		logLevel = "INFO"
	}

	var level slog.Level
	switch logLevel {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	logger := slog.New(handler)

	slog.SetDefault(logger)
}

var rootCmd = &cobra.Command{
	Use:   "bulkimport",
	Short: "Map and transform spreadsheet data into metadata statements",
	Long: `Bulkimport maps the columns of a spreadsheet onto vocabulary terms and
transforms each row into typed metadata statements.

Column names are matched against the vocabulary catalog (terms, labels and
aliases), mapping files describe how values are transformed, and saved
importers remember the settings for sources of the same shape.

Examples:
  bulkimport automap Title "Date Created" "Internal ID"
  bulkimport importer create sheet --from-file data.csv
  bulkimport transform csv -i data.csv -m dc
  bulkimport mappings check dc`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configDir != "" {
			profile.SetConfigDir(configDir)
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	setupLogger()

	defaultData := os.Getenv(DataEnv)
	if defaultData == "" {
		defaultData = "data"
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default: $"+profile.HomeEnv+" or ~/.bulkimport)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultData, "Directory holding the bundled mapping files")
	rootCmd.PersistentFlags().StringVar(&catalogFile, "catalog", "", "Vocabulary catalog YAML file or URL (default: built-in catalog)")

	rootCmd.AddCommand(automapCmd)
	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(mappingsCmd)
	rootCmd.AddCommand(importerCmd)
}

// newCatalog returns the catalog selected by --catalog.
func newCatalog() vocab.Catalog {
	if catalogFile != "" {
		return vocab.NewFileCatalog(catalogFile)
	}
	return vocab.Default()
}

// newAutomapper returns an automapper over the selected catalog.
func newAutomapper() *automap.Automapper {
	return automap.New(newCatalog(), automap.WithLogger(slog.Default()))
}

// newLoader returns a mapping loader over the user and bundled directories.
func newLoader() (*mapping.Loader, error) {
	override, err := profile.MappingsDir()
	if err != nil {
		return nil, err
	}
	return mapping.NewLoader(mapping.DefaultDirs(override, dataDir)...).WithLogger(slog.Default()), nil
}

// loadAliasFile reads a YAML map of field name to target expression,
// keeping the file order.
func loadAliasFile(path string) (*automap.Aliases, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading alias file: %w", err)
	}
	defer f.Close()

	aliases, err := automap.LoadAliases(f)
	if err != nil {
		return nil, fmt.Errorf("alias file %s: %w", path, err)
	}
	return aliases, nil
}

// parseParams turns repeated key=value flags into a map.
func parseParams(params []string) (map[string]string, error) {
	out := make(map[string]string, len(params))
	for _, p := range params {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid param %q, expected key=value", p)
		}
		out[key] = value
	}
	return out, nil
}

// openInput opens path, or stdin when path is empty. The returned reader
// supports peeking for format detection.
func openInput(path string) (*bufio.Reader, func() error, error) {
	if path == "" {
		return bufio.NewReader(os.Stdin), func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening input file: %w", err)
	}
	return bufio.NewReader(f), f.Close, nil
}

// peek returns the start of r without consuming it.
func peek(r *bufio.Reader) []byte {
	data, err := r.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil
	}
	return data
}
