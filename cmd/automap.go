package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lehigh-university-libraries/bulkimport/automap"
	"github.com/lehigh-university-libraries/bulkimport/reader"
)

var (
	automapFromFile     string
	automapReader       string
	automapAliasFile    string
	automapFull         bool
	automapNamesAlone   bool
	automapResourceType string
)

var automapCmd = &cobra.Command{
	Use:   "automap [fields...]",
	Short: "Suggest vocabulary terms for field names",
	Long: `Match raw field names against the vocabulary catalog.

Each field is looked up in the alias table, then as a term, a label and,
unless disabled, a local name or label, first with its exact case and then
case-insensitively. Fields may hold several expressions separated by "|",
each with an optional language (@fr), datatype (^^uri) and visibility (§private).

The result is a JSON list with one entry per field; unmatched fields have
null targets.

Examples:
  bulkimport automap Title "Dublin Core : Date Created" "Internal ID"
  bulkimport automap --from-file data.csv --full
  bulkimport automap --map aliases.yaml "Call Number"`,
	RunE: runAutomap,
}

func init() {
	automapCmd.Flags().StringVar(&automapFromFile, "from-file", "", "Read field names from the header of a spreadsheet")
	automapCmd.Flags().StringVar(&automapReader, "reader", "", "Reader for --from-file (default: detected)")
	automapCmd.Flags().StringVar(&automapAliasFile, "map", "", "YAML file of user aliases (field name: target)")
	automapCmd.Flags().BoolVar(&automapFull, "full", false, "Output language, datatype and visibility with each match")
	automapCmd.Flags().BoolVar(&automapNamesAlone, "names-alone", true, "Also match local names and labels without a vocabulary prefix")
	automapCmd.Flags().StringVar(&automapResourceType, "resource-type", "", "Resource type being imported (advisory)")
}

func runAutomap(cmd *cobra.Command, args []string) error {
	fields := args
	if automapFromFile != "" {
		header, _, err := readHeader(automapFromFile, automapReader, nil)
		if err != nil {
			return err
		}
		fields = append(header, fields...)
	}
	if len(fields) == 0 {
		return fmt.Errorf("no field names given; pass them as arguments or use --from-file")
	}

	aliases, err := loadAliasFile(automapAliasFile)
	if err != nil {
		return err
	}

	results, err := newAutomapper().Automap(cmd.Context(), fields, automap.Options{
		Aliases:           aliases,
		CheckNamesAlone:   &automapNamesAlone,
		OutputFullMatches: automapFull,
		ResourceType:      automapResourceType,
	})
	if err != nil {
		return fmt.Errorf("automapping: %w", err)
	}

	list := make([]any, 0, len(fields))
	for i, field := range fields {
		list = append(list, map[string]any{
			"source":  field,
			"targets": resultValue(results[i], automapFull),
		})
	}
	value, err := structpb.NewList(list)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	out, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}

// resultValue shapes one automap result for JSON: nil, a list of terms, or
// a list of full matches.
func resultValue(r automap.Result, full bool) any {
	if r == nil {
		return nil
	}
	out := make([]any, 0, len(r))
	for _, m := range r {
		if full {
			out = append(out, m.Map())
		} else {
			out = append(out, m.Field)
		}
	}
	return out
}

// readHeader returns the field names of a spreadsheet without reading its
// rows, along with the name of the reader used.
func readHeader(path, readerName string, opts *reader.Options) (_ []string, _ string, err error) {
	in, closeFn, err := openInput(path)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = fmt.Errorf("closing input file: %w", cerr)
		}
	}()

	rd, err := selectReader(readerName, path, in)
	if err != nil {
		return nil, "", err
	}
	src, err := rd.Open(in, opts)
	if err != nil {
		return nil, "", fmt.Errorf("reading header: %w", err)
	}
	return src.Fields(), rd.Name(), nil
}

// selectReader returns the named reader, or detects one from the file name
// and the start of the input.
func selectReader(name, path string, in *bufio.Reader) (reader.Reader, error) {
	if name != "" {
		return reader.Get(name)
	}
	rd, err := reader.Detect(path, peek(in))
	if err != nil {
		return nil, fmt.Errorf("%w; pass the reader name explicitly (%v)", err, reader.List())
	}
	return rd, nil
}
