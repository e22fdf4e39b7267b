package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bylinehq/byline/internal/pipeline"
	"github.com/bylinehq/byline/internal/printer"
	"github.com/bylinehq/byline/pkg/article"
)

var (
	createPrompt string
	createLength string
	createScope  string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Write a new article from a prompt",
	Long: `Write a new article by running a prompt through all four stages:
planning by the manager, research by the researcher, drafting by the
writer, and a final pass by the editor.

The command blocks until the article is finished or fails. Every
stage's output is stored as it completes, so an interrupted run can
be continued later with 'byline resume'.

Examples:
  # Medium article with basic research
  byline create --prompt "The history of container orchestration"

  # Long article with comprehensive research
  byline create --prompt "Why CRDTs matter" --length long --scope comprehensive`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&createPrompt, "prompt", "p", "", "What the article should be about (required)")
	createCmd.Flags().StringVarP(&createLength, "length", "l", string(article.LengthMedium), "Target length (short, medium, long)")
	createCmd.Flags().StringVarP(&createScope, "scope", "s", string(article.ScopeBasic), "Research scope (basic, thorough, comprehensive)")
	createCmd.MarkFlagRequired("prompt")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	length := article.Length(createLength)
	if err := length.Validate(); err != nil {
		return printer.Error(
			"invalid --length",
			err.Error(),
			[]string{"Valid lengths: short, medium, long"},
		)
	}

	scope := article.Scope(createScope)
	if err := scope.Validate(); err != nil {
		return printer.Error(
			"invalid --scope",
			err.Error(),
			[]string{"Valid scopes: basic, thorough, comprehensive"},
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

	pub := newPublisher(cfg)
	defer pub.Close()

	engine, err := buildEngine(cfg, st, pub)
	if err != nil {
		return err
	}

	printer.Step("Writing article for prompt: %s\n", createPrompt)

	outcome, err := engine.Run(ctx, pipeline.Request{
		Prompt:        createPrompt,
		TargetLength:  length,
		ResearchScope: scope,
	})
	if err != nil {
		return printer.Error(
			"article failed",
			fmt.Sprintf("The pipeline did not finish: %v", err),
			[]string{"Inspect the failure:\n  byline check <article-id>", "Continue from the last completed stage:\n  byline resume <article-id>"},
		)
	}

	printer.Success("Article %s completed\n", outcome.ArticleID)
	printer.Info("Read it with: byline check %s, or on the site via 'byline serve'\n", outcome.ArticleID)
	return nil
}
