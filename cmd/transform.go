package cmd

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/lehigh-university-libraries/bulkimport/mapping"
	"github.com/lehigh-university-libraries/bulkimport/profile"
	"github.com/lehigh-university-libraries/bulkimport/reader"
	"github.com/lehigh-university-libraries/bulkimport/rules"
	"github.com/lehigh-university-libraries/bulkimport/transform"
)

var (
	inputFile     string
	outputFile    string
	mappingName   string
	rulesFile     string
	importerName  string
	params        []string
	multiValueSep string
	delimiter     string
	pretty        bool
)

var transformCmd = &cobra.Command{
	Use:   "transform [reader]",
	Short: "Transform spreadsheet rows into metadata statements",
	Long: `Transform every entry of the input with a mapping file.

Arguments:
  reader  Source reader (csv, tsv). Defaults to the importer's reader or
          is detected from the input.

The mapping comes from --mapping, from the importer's processor settings, or
from the importer's field list. Without --importer, a saved importer whose
columns match the input header is used when one exists.

Input defaults to stdin, output defaults to stdout. Each entry is written as
one JSON object.

Examples:
  # Transform a CSV with the dc mapping
  bulkimport transform csv -i data.csv -m dc

  # Run-time variables for the mapping params
  bulkimport transform csv -i data.csv -m dc --param base_url=https://example.org

  # Use a saved importer and conditional rules
  bulkimport transform --importer sheet --rules rules.yaml < data.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTransform,
}

func init() {
	transformCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file (default: stdin)")
	transformCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	transformCmd.Flags().StringVarP(&mappingName, "mapping", "m", "", "Mapping file name")
	transformCmd.Flags().StringVar(&rulesFile, "rules", "", "Conditional rules YAML file")
	transformCmd.Flags().StringVar(&importerName, "importer", "", "Saved importer name")
	transformCmd.Flags().StringArrayVar(&params, "param", nil, "Run variable as key=value (repeatable)")
	transformCmd.Flags().StringVar(&multiValueSep, "separator", "", "Multi-value separator (default: importer setting or |)")
	transformCmd.Flags().StringVar(&delimiter, "delimiter", "", "Field delimiter override")
	transformCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
}

func runTransform(cmd *cobra.Command, args []string) (err error) {
	var imp *profile.Importer
	if importerName != "" {
		imp, err = profile.Load(importerName)
		if err != nil {
			return fmt.Errorf("loading importer: %w", err)
		}
	}

	// Determine input source
	in, closeIn, err := openInput(inputFile)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeIn(); cerr != nil && err == nil {
			err = fmt.Errorf("closing input file: %w", cerr)
		}
	}()

	// Determine output destination
	var output io.Writer
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing output file: %w", cerr)
			}
		}()
		output = f
	} else {
		output = os.Stdout
	}

	readerName := ""
	if len(args) > 0 {
		readerName = args[0]
	} else if imp != nil {
		readerName = imp.Reader.Format
	}
	rd, err := selectReader(readerName, inputFile, in)
	if err != nil {
		return err
	}

	src, err := rd.Open(in, readerOptions(imp))
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}

	// Try auto-discovery from saved importers based on the header
	if imp == nil && mappingName == "" {
		imp, err = profile.MatchColumns(src.Fields())
		if err != nil {
			return fmt.Errorf("matching importers: %w", err)
		}
		if imp != nil {
			slog.Info("auto-discovered importer", "importer", imp.Name)
		}
	}

	cfg, err := loadMapping(cmd, imp)
	if err != nil {
		return err
	}

	opts := []transform.Option{transform.WithLogger(slog.Default())}
	if imp != nil {
		opts = append(opts, transform.WithResourceType(imp.Processor.ResourceType))
	}
	if rs, err := loadRules(cmd, imp); err != nil {
		return err
	} else if rs != nil {
		opts = append(opts, transform.WithRules(rs))
	}

	vars := make(map[string]string)
	if imp != nil {
		for k, v := range imp.Processor.Params {
			vars[k] = v
		}
	}
	cliVars, err := parseParams(params)
	if err != nil {
		return err
	}
	for k, v := range cliVars {
		vars[k] = v
	}

	run := transform.New(cfg, opts...).Prepare(vars)
	marshal := protojson.MarshalOptions{Multiline: pretty, Indent: indent(pretty)}
	w := bufio.NewWriter(output)

	var count, skipped, failed int
	for ent, err := range reader.Entries(src) {
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		out, err := run.Transform(ent)
		if err != nil {
			failed++
			slog.Error("transforming entry", "entry", ent.Index(), "err", err)
			continue
		}
		if out.Skipped {
			skipped++
		}
		data, err := marshal.Marshal(out.Struct())
		if err != nil {
			failed++
			slog.Error("encoding entry", "entry", ent.Index(), "err", err)
			continue
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		count++
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	slog.Info("transformed entries", "count", count, "skipped", skipped, "failed", failed, "mapping", cfg.Name)
	return nil
}

// readerOptions merges the importer reader settings with the CLI flags.
func readerOptions(imp *profile.Importer) *reader.Options {
	opts := reader.NewOptions()
	if imp != nil {
		opts = imp.ReaderOptions()
	}
	if multiValueSep != "" {
		opts.MultiValueSeparator = multiValueSep
	}
	if d := reader.ParseDelimiter(delimiter); d != 0 {
		opts.Delimiter = d
	}
	return opts
}

// loadMapping picks the mapping: --mapping, the importer's mapping name, or
// the importer's field list.
func loadMapping(cmd *cobra.Command, imp *profile.Importer) (*mapping.Config, error) {
	name := mappingName
	if name == "" && imp != nil {
		name = imp.Processor.Mapping
	}
	if name == "" {
		if imp == nil {
			return nil, fmt.Errorf("no mapping: pass --mapping or --importer")
		}
		return imp.MappingConfig(), nil
	}

	loader, err := newLoader()
	if err != nil {
		return nil, err
	}
	cfg, err := loader.Load(cmd.Context(), name)
	if err != nil {
		return nil, fmt.Errorf("loading mapping: %w", err)
	}
	if cfg.IsEmpty() {
		slog.Warn("mapping is empty or was not found", "mapping", name, "dirs", loader.Dirs)
	}
	return cfg, nil
}

// loadRules reads --rules or the importer's rules file.
func loadRules(cmd *cobra.Command, imp *profile.Importer) (*rules.RuleSet, error) {
	path := rulesFile
	if path == "" && imp != nil {
		path = imp.Processor.Rules
	}
	if path == "" {
		return nil, nil
	}
	rs, err := rules.LoadRuleSet(cmd.Context(), path)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	return rs, nil
}

func indent(pretty bool) string {
	if pretty {
		return "  "
	}
	return ""
}
