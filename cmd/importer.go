package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bulkimport/profile"
	"github.com/lehigh-university-libraries/bulkimport/reader"
)

var importerCmd = &cobra.Command{
	Use:   "importer",
	Short: "Manage saved importers",
	Long: `Manage saved importers.

An importer pairs a reader (csv, tsv and its settings) with processor
settings (resource type, mapping, rules, aliases). Importers are stored
in ~/.bulkimport/importers/ and are auto-discovered by "transform" when
the input header matches their columns.

Examples:
  # Create an importer from the header of a spreadsheet
  bulkimport importer create sheet --from-file sample.csv

  # List all importers
  bulkimport importer list

  # Show an importer's contents
  bulkimport importer show sheet

  # Delete an importer
  bulkimport importer delete sheet`,
}

var importerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved importers",
	RunE:  runImporterList,
}

var importerShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show an importer's contents",
	Args:  cobra.ExactArgs(1),
	RunE:  runImporterShow,
}

var importerDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an importer",
	Args:  cobra.ExactArgs(1),
	RunE:  runImporterDelete,
}

var importerCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an importer from a sample file",
	Long: `Create an importer from the header of a sample file.

Each column is automapped to vocabulary terms; columns without a confident
match are marked as skipped. Review the result with "importer show" and edit
the YAML file to adjust targets.

  bulkimport importer create sheet --from-file sample.csv --resource-type items`,
	Args: cobra.ExactArgs(1),
	RunE: runImporterCreate,
}

var (
	importerFromFile     string
	importerReader       string
	importerSeparator    string
	importerDelimiter    string
	importerResourceType string
	importerMapping      string
	importerRules        string
	importerAliasFile    string
	importerNamesAlone   bool
	importerParams       []string
)

func init() {
	importerCmd.AddCommand(importerListCmd)
	importerCmd.AddCommand(importerShowCmd)
	importerCmd.AddCommand(importerDeleteCmd)
	importerCmd.AddCommand(importerCreateCmd)

	importerCreateCmd.Flags().StringVar(&importerFromFile, "from-file", "", "Path to a sample spreadsheet")
	importerCreateCmd.Flags().StringVar(&importerReader, "reader", "", "Reader name (default: detected)")
	importerCreateCmd.Flags().StringVar(&importerSeparator, "separator", "", "Multi-value separator (default: |)")
	importerCreateCmd.Flags().StringVar(&importerDelimiter, "delimiter", "", "Field delimiter override")
	importerCreateCmd.Flags().StringVar(&importerResourceType, "resource-type", "items", "Resource type created by the importer")
	importerCreateCmd.Flags().StringVar(&importerMapping, "mapping", "", "Mapping file name used instead of the automapped fields")
	importerCreateCmd.Flags().StringVar(&importerRules, "rules", "", "Conditional rules file")
	importerCreateCmd.Flags().StringVar(&importerAliasFile, "map", "", "YAML file of user aliases used for automapping")
	importerCreateCmd.Flags().BoolVar(&importerNamesAlone, "names-alone", true, "Also match local names and labels without a vocabulary prefix")
	importerCreateCmd.Flags().StringArrayVar(&importerParams, "param", nil, "Run variable as key=value (repeatable)")
	_ = importerCreateCmd.MarkFlagRequired("from-file")
}

func runImporterList(cmd *cobra.Command, args []string) error {
	names, err := profile.List()
	if err != nil {
		return err
	}

	if len(names) == 0 {
		fmt.Println("No importers found.")
		fmt.Println("\nCreate one with:")
		fmt.Println("  bulkimport importer create <name> --from-file <path>")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tREADER\tRESOURCE TYPE\tDESCRIPTION")
	fmt.Fprintln(w, "----\t------\t-------------\t-----------")

	for _, name := range names {
		i, err := profile.Load(name)
		if err != nil {
			fmt.Fprintf(w, "%s\t?\t?\terror loading\n", name)
			continue
		}
		desc := i.Description
		if len(desc) > 50 {
			desc = desc[:47] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", i.Name, i.Reader.Format, i.Processor.ResourceType, desc)
	}
	return w.Flush()
}

func runImporterShow(cmd *cobra.Command, args []string) error {
	i, err := profile.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Name:        %s\n", i.Name)
	fmt.Printf("Reader:      %s\n", i.Reader.Format)
	fmt.Printf("Description: %s\n", i.Description)
	if len(i.Source.Columns) > 0 {
		fmt.Printf("Columns:     %d columns\n", len(i.Source.Columns))
	}
	if i.Source.FieldFingerprint != "" {
		fmt.Printf("Fingerprint: %s\n", i.Source.FieldFingerprint)
	}

	fmt.Printf("\nReader settings:\n")
	fmt.Printf("  Multi-value separator: %s\n", i.GetMultiValueSeparator())
	if i.Reader.Delimiter != "" {
		fmt.Printf("  Delimiter:             %s\n", i.Reader.Delimiter)
	}

	fmt.Printf("\nProcessor settings:\n")
	if i.Processor.ResourceType != "" {
		fmt.Printf("  Resource type: %s\n", i.Processor.ResourceType)
	}
	if i.Processor.Mapping != "" {
		fmt.Printf("  Mapping:       %s\n", i.Processor.Mapping)
	}
	if i.Processor.Rules != "" {
		fmt.Printf("  Rules:         %s\n", i.Processor.Rules)
	}
	if len(i.Processor.Params) > 0 {
		keys := make([]string, 0, len(i.Processor.Params))
		for k := range i.Processor.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  Param:         %s = %s\n", k, i.Processor.Params[k])
		}
	}

	fmt.Printf("\nField Mappings (%d fields):\n", len(i.Fields))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  SOURCE FIELD\tTARGETS")
	fmt.Fprintln(w, "  ------------\t-------")
	for _, f := range i.Fields {
		if f.Skip {
			fmt.Fprintf(w, "  %s\t(skip)\n", f.Source)
			continue
		}
		fmt.Fprintf(w, "  %s\t%s\n", f.Source, f.Targets)
	}
	return w.Flush()
}

func runImporterDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	if err := profile.Delete(name); err != nil {
		return err
	}

	fmt.Printf("Deleted importer: %s\n", name)
	return nil
}

func runImporterCreate(cmd *cobra.Command, args []string) error {
	name := args[0]

	// Check if importer already exists
	if profile.Exists(name) {
		return fmt.Errorf("importer %q already exists; delete it first or choose a different name", name)
	}

	aliases, err := loadAliasFile(importerAliasFile)
	if err != nil {
		return err
	}
	vars, err := parseParams(importerParams)
	if err != nil {
		return err
	}

	opts := reader.NewOptions()
	if importerSeparator != "" {
		opts.MultiValueSeparator = importerSeparator
	}
	opts.Delimiter = reader.ParseDelimiter(importerDelimiter)

	columns, readerName, err := readHeader(importerFromFile, importerReader, opts)
	if err != nil {
		return err
	}

	processor := profile.ProcessorSettings{
		ResourceType: importerResourceType,
		Mapping:      importerMapping,
		Rules:        importerRules,
		Aliases:      aliases,
		NamesAlone:   &importerNamesAlone,
	}
	if len(vars) > 0 {
		processor.Params = vars
	}

	i, err := profile.CreateFromColumns(cmd.Context(), newAutomapper(), name, columns, profile.CreateOptions{
		Format:    readerName,
		Processor: processor,
	})
	if err != nil {
		return fmt.Errorf("creating importer: %w", err)
	}
	i.Description = fmt.Sprintf("Generated from %s", importerFromFile)
	i.Reader.MultiValueSeparator = importerSeparator
	i.Reader.Delimiter = importerDelimiter

	if err := i.Save(); err != nil {
		return fmt.Errorf("saving importer: %w", err)
	}

	mapped := 0
	for _, f := range i.Fields {
		if !f.Skip {
			mapped++
		}
	}

	path, _ := profile.ImporterPath(name)
	fmt.Printf("Created importer: %s\n", name)
	fmt.Printf("Saved to: %s\n", path)
	fmt.Printf("\nMapped %d of %d columns. Review with:\n", mapped, len(i.Fields))
	fmt.Printf("  bulkimport importer show %s\n", name)

	return nil
}
