package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bylinehq/byline/internal/printer"
	"github.com/bylinehq/byline/internal/timespec"
	"github.com/bylinehq/byline/pkg/article"
)

var (
	listStatus string
	listSince  string
	listUntil  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List articles and their pipeline status",
	Long: `List all known articles, newest first, with their current status
and the agent working on them.

Examples:
  # Everything
  byline list

  # Only stuck articles
  byline list --status error

  # Touched in the last two hours
  byline list --since 2h`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "Only show articles with this status")
	listCmd.Flags().StringVar(&listSince, "since", "", "Only show articles updated after this time (duration like '2h' or RFC3339)")
	listCmd.Flags().StringVar(&listUntil, "until", "", "Only show articles updated before this time (duration like '2h' or RFC3339)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	since, until, err := timespec.ParseRange(listSince, listUntil)
	if err != nil {
		return printer.Error(
			"invalid time range",
			err.Error(),
			[]string{"Use a duration like '2h' or an RFC3339 timestamp"},
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

	var articles []article.Article
	if listStatus != "" {
		status := article.Status(listStatus)
		if err := status.Validate(); err != nil {
			return printer.Error(
				"invalid --status",
				err.Error(),
				[]string{"Valid statuses: pending, researching, writing, editing, completed, paused, error"},
			)
		}
		articles, err = st.ListByStatus(ctx, status)
	} else {
		articles, err = st.ListArticles(ctx)
	}
	if err != nil {
		return err
	}

	if !since.IsZero() || !until.IsZero() {
		filtered := articles[:0]
		for _, a := range articles {
			if timespec.InRange(a.UpdatedAt, since, until) {
				filtered = append(filtered, a)
			}
		}
		articles = filtered
	}

	if len(articles) == 0 {
		printer.Info("No articles found\n")
		return nil
	}

	printer.Printf("%-10s %-12s %-12s %-8s %s\n", "ID", "STATUS", "AGENT", "AGE", "TITLE")
	printer.Printf("%-10s %-12s %-12s %-8s %s\n", "----------", "------------", "------------", "--------", "----------------------------------------")

	for _, a := range articles {
		agent := "-"
		if a.CurrentAgent != "" {
			agent = string(a.CurrentAgent)
		}
		printer.Printf("%-10s %-12s %-12s %-8s %s\n",
			shortID(a.ID),
			a.Status,
			agent,
			formatAge(a.UpdatedAt),
			truncate(a.Title, 60),
		)
	}

	noun := "article"
	if len(articles) != 1 {
		noun = "articles"
	}
	printer.Printf("\n%d %s found\n", len(articles), noun)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func formatAge(t time.Time) string {
	age := time.Since(t)
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd", int(age.Hours()/24))
	}
}
