package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/spinkonweb-dotcom/booxclash-pro/internal/curriculum"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/lookup"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/resolver"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/scheme"
)

// NewSchemeCmd creates the scheme command.
func NewSchemeCmd() *cobra.Command {
	var modulePath, inPath, outPath string
	var week int

	cmd := &cobra.Command{
		Use:   "scheme",
		Short: "Resolve every week of a scheme of work workbook",
		Long: `Read a scheme of work (.xlsx), match each row against a curriculum
module and write the annotated workbook.

With --week only that week is resolved and printed.

Examples:
  booxctl scheme --module zambia_grade8_mathematics.json --in term1.xlsx --out term1_matched.xlsx
  booxctl scheme --module zambia_grade8_mathematics.json --in term1.xlsx --week 3
  booxctl scheme --module zambia_grade8_mathematics.json --in term1.xlsx --week 3 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if week <= 0 && outPath == "" {
				return fmt.Errorf("--out is required unless --week is set")
			}

			module, err := curriculum.LoadFile(modulePath)
			if err != nil {
				return fmt.Errorf("loading module: %w", err)
			}

			in, err := os.Open(inPath)
			if err != nil {
				return fmt.Errorf("opening scheme: %w", err)
			}
			defer in.Close()

			rows, err := scheme.ReadWorkbook(in)
			if err != nil {
				return fmt.Errorf("%s: %w", inPath, err)
			}
			if len(rows) == 0 {
				return fmt.Errorf("%s: no scheme rows below the header", inPath)
			}

			if week > 0 {
				row, ok := scheme.FindWeek(rows, week)
				if !ok {
					return fmt.Errorf("week %d not found in %s", week, inPath)
				}
				m := resolver.ResolveFirst(module, row.Queries()...)
				result := lookup.Result{
					MatchResult: m,
					Module:      curriculum.FileSlug(modulePath),
					Reference:   lookup.Reference(m, row.Reference),
				}
				if outputFormat(cmd) == "json" {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(result)
				}
				printMatch(cmd.OutOrStdout(), result)
				return nil
			}

			resolved := scheme.ResolveRows(module, rows)

			out, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating output: %w", err)
			}
			if err := scheme.WriteWorkbook(out, resolved); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("closing output: %w", err)
			}

			matched := 0
			for _, r := range resolved {
				if r.Match.Found {
					matched++
				}
			}
			slog.Debug("scheme resolved", "rows", len(resolved), "matched", matched)
			fmt.Fprintf(cmd.OutOrStdout(), "Matched %d of %d rows, wrote %s\n", matched, len(resolved), outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&modulePath, "module", "m", "", "Module file (.json, .yaml)")
	cmd.Flags().StringVar(&inPath, "in", "", "Scheme of work workbook (.xlsx)")
	cmd.Flags().StringVar(&outPath, "out", "", "Annotated workbook to write")
	cmd.Flags().IntVar(&week, "week", 0, "Resolve a single week and print it")
	_ = cmd.MarkFlagRequired("module")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}
