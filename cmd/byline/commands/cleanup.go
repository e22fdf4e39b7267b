package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bylinehq/byline/internal/printer"
	"github.com/bylinehq/byline/internal/reconcile"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Demote completed articles with missing stages",
	Long: `Sweep every completed article and verify its revision history.
Articles marked completed without a revision for all four stages are
demoted to the error status, with a diagnostic naming the missing
stages, so they stop appearing on the site and can be resumed.

The sweep is idempotent: a second run finds nothing left to demote.

Examples:
  byline cleanup`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	printer.Step("Sweeping completed articles\n")

	demoted, err := reconcile.NewSweeper(st).Sweep(ctx)
	if err != nil {
		return err
	}

	if demoted == 0 {
		printer.Success("All completed articles are consistent\n")
		return nil
	}

	noun := "article"
	if demoted != 1 {
		noun = "articles"
	}
	printer.Warning("Demoted %d inconsistent %s to the error status\n", demoted, noun)
	printer.Info("Resume them with: byline resume <article-id>\n")
	return nil
}
