package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jqliu/bondflow/internal/cli"
	"github.com/jqliu/bondflow/internal/pattern"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract fields from financial text",
		Long: `Extract structured fields from financial text using named regex patterns.

Each --field is either a built-in pattern name (e.g. 股票代码, 发行日期) or
key=regex for a caller-supplied expression. Text is read from the file
argument, or stdin when no file is given.

Examples:
  bondflow extract --field 标的证券 --field 换股期限 prospectus.txt
  cat notice.txt | bondflow extract --field 'isin=ISIN[：:]\s*([A-Z0-9]{12})' --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExtract,
	}

	cmd.Flags().StringArrayP("field", "f", nil, "field to extract: a built-in name or key=regex (repeatable)")
	cmd.Flags().Bool("json", false, "emit results as JSON")
	cmd.Flags().Bool("list-patterns", false, "list built-in pattern names and exit")

	_ = viper.BindPFlag("extract.json", cmd.Flags().Lookup("json"))

	return cmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	listPatterns, _ := cmd.Flags().GetBool("list-patterns")
	if listPatterns {
		for _, key := range pattern.BuiltinKeys() {
			fmt.Fprintln(os.Stdout, key)
		}
		return nil
	}

	specs, err := cmd.Flags().GetStringArray("field")
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		return fmt.Errorf("at least one --field is required")
	}

	matcher := pattern.NewMatcher(parseFieldSpecs(specs))

	text, err := readInput(args)
	if err != nil {
		return err
	}

	results := matcher.Extract(text)

	if viper.GetBool("extract.json") {
		return writeJSONResults(os.Stdout, results)
	}

	matched := 0
	for _, m := range results {
		if m.Err != nil {
			fmt.Fprintln(os.Stdout, cli.FormatError(m.Key+": "+m.Err.Error()))
			continue
		}
		if len(m.Values) == 0 {
			fmt.Fprintln(os.Stdout, cli.SubtleStyle.Render(m.Key+": (no match)"))
			continue
		}
		matched++
		fmt.Fprintf(os.Stdout, "%s: %s\n", m.Key, strings.Join(m.Values, ", "))
	}
	slog.Debug("Extraction complete", "fields", len(results), "matched", matched)

	return nil
}

// parseFieldSpecs splits each spec on the first '='; a bare key selects the
// built-in pattern for that key.
func parseFieldSpecs(specs []string) []pattern.Field {
	fields := make([]pattern.Field, 0, len(specs))
	for _, spec := range specs {
		key, expr, found := strings.Cut(spec, "=")
		if !found {
			fields = append(fields, pattern.Field{Key: spec})
			continue
		}
		fields = append(fields, pattern.Field{Key: key, Pattern: expr})
	}
	return fields
}

// writeJSONResults encodes matches as a single JSON object. Fields with one
// value collapse to a string, mirroring how callers consume the output.
func writeJSONResults(w io.Writer, results []pattern.Match) error {
	out := make(map[string]any, len(results))
	for _, m := range results {
		switch len(m.Values) {
		case 0:
			out[m.Key] = ""
		case 1:
			out[m.Key] = m.Values[0]
		default:
			out[m.Key] = m.Values
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func readInput(args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}
