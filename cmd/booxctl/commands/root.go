package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the booxctl command tree.
func NewRootCmd() *cobra.Command {
	var verbose bool
	var format string

	cmd := &cobra.Command{
		Use:   "booxctl",
		Short: "Resolve scheme-of-work topics against curriculum modules",
		Long: `booxctl matches free-text topics from a scheme of work to the
subtopics of a curriculum module and reports the unit, pages and
instructional content to cite.

Examples:
  booxctl match --module zambia_grade8_mathematics.json "2.1 Describing sets"
  booxctl scheme --module zambia_grade8_mathematics.json --in term1.xlsx --out term1_matched.xlsx
  booxctl import --dsn postgres://localhost/boox modules/*.json
  booxctl hash-key my-api-key`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Missing .env is fine; values already in the environment win.
			_ = godotenv.Load()

			if format != "text" && format != "json" {
				return fmt.Errorf("--format must be text or json, got %q", format)
			}

			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	cmd.PersistentFlags().StringVar(&format, "format", "text", "Output format: text or json")

	cmd.AddCommand(
		NewMatchCmd(),
		NewSchemeCmd(),
		NewImportCmd(),
		NewEventsCmd(),
		NewHashKeyCmd(),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func outputFormat(cmd *cobra.Command) string {
	f, err := cmd.Flags().GetString("format")
	if err != nil {
		return "text"
	}
	return f
}
