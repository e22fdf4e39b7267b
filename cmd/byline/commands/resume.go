package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bylinehq/byline/internal/printer"
	"github.com/bylinehq/byline/internal/store"
	"github.com/bylinehq/byline/pkg/article"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <article-id>",
	Short: "Continue a stalled or failed article",
	Long: `Continue an article from its last completed stage.

The revision history decides where to pick up: the latest valid
revision per stage marks progress, and the pipeline continues with
the next stage, feeding it that revision's content. An article with
no completed stages is restarted from planning.

Examples:
  byline resume 4d0f6d0e-8a3c-4a4c-9d6e-0c1b2a3d4e5f`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	articleID := args[0]

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

	if a.Status == article.StatusCompleted {
		printer.Info("Article %s is already completed; nothing to resume.\n", articleID)
		return nil
	}

	revisions, err := st.ListRevisions(ctx, articleID)
	if err != nil {
		return err
	}

	pub := newPublisher(cfg)
	defer pub.Close()

	engine, err := buildEngine(cfg, st, pub)
	if err != nil {
		return err
	}

	stage, agentRole, content, ok := article.LastCompleted(revisions)
	if !ok {
		printer.Step("No completed stages found; restarting %s from planning\n", articleID)
		err = engine.Restart(ctx, articleID)
	} else {
		printer.Step("Resuming %s after %s by %s\n", articleID, stage, agentRole)
		err = engine.ResumeFrom(ctx, articleID, stage, content)
	}
	if err != nil {
		return printer.Error(
			"resume failed",
			fmt.Sprintf("The pipeline did not finish: %v", err),
			[]string{fmt.Sprintf("Inspect the article:\n  byline check %s", articleID)},
		)
	}

	printer.Success("Article %s completed\n", articleID)
	return nil
}
