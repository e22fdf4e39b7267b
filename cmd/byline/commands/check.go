package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bylinehq/byline/internal/printer"
	"github.com/bylinehq/byline/internal/report"
	"github.com/bylinehq/byline/internal/store"
)

var checkOutputFormat string

var checkCmd = &cobra.Command{
	Use:   "check <article-id>",
	Short: "Inspect an article's state and revision history",
	Long: `Inspect one article: its metadata, which stages have completed,
the full revision history, and any consistency problems such as
missing stages or out-of-order completion.

Output Formats:
  default - Human-readable report
  json    - Pretty-printed JSON for programmatic processing

Examples:
  byline check 4d0f6d0e-8a3c-4a4c-9d6e-0c1b2a3d4e5f
  byline check --output=json 4d0f6d0e-8a3c-4a4c-9d6e-0c1b2a3d4e5f | jq .verification`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkOutputFormat, "output", "o", "default", "Output format (default or json)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	articleID := args[0]

	if checkOutputFormat != "default" && checkOutputFormat != "json" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", checkOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	a, err := st.GetArticle(ctx, articleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return printer.Error(
				"article not found",
				fmt.Sprintf("No article with ID %s exists.", articleID),
				[]string{"List known articles:\n  byline list"},
			)
		}
		return err
	}

	revisions, err := st.ListRevisions(ctx, articleID)
	if err != nil {
		return err
	}

	if checkOutputFormat == "json" {
		return report.WriteJSON(os.Stdout, a, revisions)
	}

	report.WriteReport(os.Stdout, a, revisions)
	return nil
}
