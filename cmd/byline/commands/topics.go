package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bylinehq/byline/internal/printer"
	"github.com/bylinehq/byline/internal/research"
)

var topicsLimit int

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Discover trending topics worth writing about",
	Long: `Pull trending subjects from Hacker News and GitHub trending,
merge and score them, and print the most promising article material.

Use a topic title as a prompt for 'byline create'.

Examples:
  byline topics
  byline topics --limit 5`,
	RunE: runTopics,
}

func init() {
	topicsCmd.Flags().IntVar(&topicsLimit, "limit", 10, "Maximum topics to show")
	rootCmd.AddCommand(topicsCmd)
}

func runTopics(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	printer.Step("Researching trending topics\n\n")

	topics, err := research.NewTrending(nil).Topics(ctx)
	if err != nil {
		return printer.Error(
			"topic research failed",
			err.Error(),
			[]string{"Check your network connection and try again"},
		)
	}

	if topicsLimit > 0 && len(topics) > topicsLimit {
		topics = topics[:topicsLimit]
	}

	printer.Printf("%-6s %-12s %s\n", "SCORE", "SOURCE", "TOPIC")
	printer.Printf("%-6s %-12s %s\n", "------", "------------", "----------------------------------------")
	for _, topic := range topics {
		printer.Printf("%-6.0f %-12s %s\n", topic.InterestScore, topic.Source, truncate(topic.Title, 70))
	}

	printer.Printf("\nStart one with: byline create --prompt \"<topic>\"\n")
	return nil
}
