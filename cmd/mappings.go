package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/viant/afs"

	"github.com/lehigh-university-libraries/bulkimport/mapping"
	"github.com/lehigh-university-libraries/bulkimport/pattern"
	"github.com/lehigh-university-libraries/bulkimport/transform"
)

var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "Inspect mapping files",
	Long: `List, show and check mapping files.

Mapping files are searched in the user mapping directory
(~/.bulkimport/mapping), then in <data-dir>/mapping and
<data-dir>/mapping/base. Names are tried as given, then with ".ini".`,
}

var mappingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available mapping files",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := newLoader()
		if err != nil {
			return err
		}

		names, err := loader.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No mapping files found in:")
			for _, dir := range loader.Dirs {
				fmt.Printf("  %s\n", dir)
			}
			return nil
		}

		fmt.Println("Available mappings:")
		for _, name := range names {
			cfg, err := loader.Load(cmd.Context(), name)
			if err != nil {
				fmt.Printf("  %s - error loading\n", name)
				continue
			}
			desc := ""
			if label := cfg.InfoValue("label"); label != "" {
				desc = " - " + label
			}
			fmt.Printf("  %s%s\n", name, desc)
		}

		return nil
	},
}

var mappingsShowCmd = &cobra.Command{
	Use:   "show <mapping>",
	Short: "Show a mapping merged with its parents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := newLoader()
		if err != nil {
			return err
		}

		cfg, err := loader.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if cfg.IsEmpty() {
			return fmt.Errorf("unknown or empty mapping: %s", args[0])
		}

		return cfg.Format(os.Stdout)
	},
}

var mappingsCheckCmd = &cobra.Command{
	Use:   "check <mapping|file>",
	Short: "Check a mapping file for malformed lines",
	Long: `Parse a mapping file and report every line that would be skipped,
unknown template filters and placeholders that nothing defines.

The argument is a mapping name, or a path or URL to a mapping file.

Examples:
  bulkimport mappings check dc
  bulkimport mappings check ./my-mapping.ini`,
	Args: cobra.ExactArgs(1),
	RunE: runMappingsCheck,
}

func init() {
	mappingsCmd.AddCommand(mappingsListCmd)
	mappingsCmd.AddCommand(mappingsShowCmd)
	mappingsCmd.AddCommand(mappingsCheckCmd)
}

func runMappingsCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name := args[0]

	loader, err := newLoader()
	if err != nil {
		return err
	}

	location, ok, err := loader.Resolve(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		location = name
	}

	data, err := afs.New().DownloadWithURL(ctx, location)
	if err != nil {
		return fmt.Errorf("reading mapping %s: %w", name, err)
	}

	cfg, problems, err := mapping.Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parsing mapping %s: %w", location, err)
	}

	for _, p := range problems {
		fmt.Printf("%s:%d: %s: %s\n", location, p.Line, p.Reason, strings.TrimSpace(p.Text))
	}

	warnings := checkPlaceholders(cfg)
	for _, w := range warnings {
		fmt.Printf("%s: %s\n", location, w)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%d malformed lines in %s", len(problems), location)
	}

	fmt.Printf("✓ Valid: %d params, %d defaults, %d mapping rules in %s\n",
		len(cfg.Params), len(cfg.Default), len(cfg.Mapping), location)
	return nil
}

// checkPlaceholders reports unknown filters and placeholders that are
// neither the current value, a param, nor a mapped source field. Those may
// still be set at run time, so they are warnings.
func checkPlaceholders(cfg *mapping.Config) []string {
	known := map[string]bool{pattern.ValueName: true, transform.IndexName: true}
	for _, src := range cfg.Sources() {
		known[src] = true
	}

	var warnings []string
	check := func(where, text string) {
		p := pattern.Compile(text)
		for _, f := range p.UnknownFilters() {
			warnings = append(warnings, fmt.Sprintf("%s: unknown filter %q (available: %s)", where, f, strings.Join(pattern.Filters(), ", ")))
		}
		for _, name := range p.Placeholders() {
			if !known[name] {
				warnings = append(warnings, fmt.Sprintf("%s: %q is not defined before use", where, name))
			}
		}
	}

	for _, kv := range cfg.Params {
		check("param "+kv.Key, kv.Value)
		known[kv.Key] = true
	}
	for _, r := range cfg.Default {
		if r.Modifier.Pattern != "" {
			check("default "+r.Targets[0].Field, r.Modifier.Pattern)
		}
	}
	for _, r := range cfg.Mapping {
		if r.Modifier.Pattern != "" {
			check("mapping "+r.Source, r.Modifier.Pattern)
		}
	}
	return warnings
}
