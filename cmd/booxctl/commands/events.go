package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/spinkonweb-dotcom/booxclash-pro/internal/audit"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/curriculum"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/platform/config"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/platform/database"
)

// NewEventsCmd creates the events command.
func NewEventsCmd() *cobra.Command {
	var dsn, module string
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent lookups for a module",
		Long: `List the most recent match events recorded by the server for one module.

Examples:
  booxctl events --dsn postgres://localhost/boox --module zambia_grade8_mathematics
  booxctl events --module zambia_grade10_chemistry --limit 10 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				dsn = os.Getenv("BOOX_DATABASE_URL")
			}
			if dsn == "" {
				return fmt.Errorf("--dsn or BOOX_DATABASE_URL is required")
			}
			key, err := curriculum.ParseSlug(module)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := database.New(ctx, config.DatabaseConfig{URL: dsn, MaxConns: 2, MinConns: 1})
			if err != nil {
				return err
			}
			defer db.Close()

			events, err := audit.NewPostgresLogger(db.Pool).Recent(ctx, key.Slug(), limit)
			if err != nil {
				return err
			}

			if outputFormat(cmd) == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(events)
			}
			printEvents(cmd, events)
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "PostgreSQL URL (default $BOOX_DATABASE_URL)")
	cmd.Flags().StringVar(&module, "module", "", "Module name, e.g. zambia_grade8_mathematics")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of events to show")
	_ = cmd.MarkFlagRequired("module")

	return cmd
}

func printEvents(cmd *cobra.Command, events []audit.Event) {
	if len(events) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No events.")
		return
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "TIME\tFOUND\tSCORE\tSUBTOPIC\tQUERY")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%t\t%.3f\t%s\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime), e.Found, e.Score, e.SubtopicID, e.Query)
	}
}
