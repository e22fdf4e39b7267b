package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// configPath is shared by every subcommand via the --config flag.
var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "byline",
	Short: "Byline - Multi-agent article writing pipeline",
	Long: `Byline drives a team of specialized writing agents - a manager,
a researcher, a writer, and an editor - through a four-stage pipeline
that turns a one-line prompt into a finished article.

Every stage's output is persisted as a revision, so interrupted runs
can be resumed from the last completed stage, and finished articles
are verified against the full stage history before publication.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "byline.yml", "Path to configuration file")
}
