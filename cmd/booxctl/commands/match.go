package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spinkonweb-dotcom/booxclash-pro/internal/curriculum"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/lookup"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/resolver"
)

// NewMatchCmd creates the match command.
func NewMatchCmd() *cobra.Command {
	var modulePath, schemeRef string
	var showContext bool

	cmd := &cobra.Command{
		Use:   "match QUERY...",
		Short: "Match a topic against a module file",
		Long: `Match one or more queries against a curriculum module file.

Queries are tried in order, typically a subtopic and then its theme; the
first one that matches wins.

Examples:
  booxctl match --module zambia_grade10_chemistry.json "4.1.2 Branches"
  booxctl match --module zambia_grade10_chemistry.yaml "Lab safety" "Introduction to Chemistry"
  booxctl match --module zambia_grade10_chemistry.json --format json --context "4.1"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := curriculum.LoadFile(modulePath)
			if err != nil {
				return fmt.Errorf("loading module: %w", err)
			}

			m := resolver.ResolveFirst(module, args...)
			result := lookup.Result{
				MatchResult: m,
				Module:      curriculum.FileSlug(modulePath),
				Reference:   lookup.Reference(m, schemeRef),
			}
			if !showContext {
				result.ContextText = ""
			}

			if outputFormat(cmd) == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			printMatch(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&modulePath, "module", "m", "", "Module file (.json, .yaml)")
	cmd.Flags().StringVar(&schemeRef, "scheme-ref", "", "Reference to cite when nothing matches")
	cmd.Flags().BoolVar(&showContext, "context", false, "Include instructional content")
	_ = cmd.MarkFlagRequired("module")

	return cmd
}

func printMatch(w io.Writer, r lookup.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	if !r.Found {
		fmt.Fprintf(tw, "Query:\t%s\n", r.Query)
		fmt.Fprintf(tw, "Found:\tno\n")
		fmt.Fprintf(tw, "Reference:\t%s\n", r.Reference)
		return
	}
	fmt.Fprintf(tw, "Query:\t%s\n", r.Query)
	fmt.Fprintf(tw, "Found:\tyes (score %.3f)\n", r.MatchScore)
	fmt.Fprintf(tw, "Topic:\t%s %s\n", r.TopicID, r.TopicTitle)
	fmt.Fprintf(tw, "Subtopic:\t%s %s\n", r.SubtopicID, r.SubtopicTitle)
	fmt.Fprintf(tw, "Pages:\t%s\n", r.Pages)
	if len(r.Competences) > 0 {
		fmt.Fprintf(tw, "Competences:\t%s\n", strings.Join(r.Competences, "; "))
	}
	fmt.Fprintf(tw, "Reference:\t%s\n", r.Reference)
	if r.ContextText != "" {
		tw.Flush()
		fmt.Fprintf(w, "\n%s\n", r.ContextText)
	}
}
