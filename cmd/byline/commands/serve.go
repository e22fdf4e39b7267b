package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bylinehq/byline/internal/printer"
	"github.com/bylinehq/byline/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the article site",
	Long: `Serve the reader-facing site: an index of finished articles and a
page per article with the editor's final pass rendered from markdown.

Only articles that pass stage verification are shown. The server also
exposes /healthz for probes and /api/articles for scripting.

Examples:
  byline serve
  byline serve --config /etc/byline/byline.yml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
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

	server := web.NewServer(cfg.Web.Addr, st, pub)
	if err := server.Start(); err != nil {
		return err
	}

	printer.Success("Serving articles on %s\n", cfg.Web.Addr)
	printer.Info("Press Ctrl+C to stop\n")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
