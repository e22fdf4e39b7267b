package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bylinehq/byline/internal/events"
	"github.com/bylinehq/byline/internal/printer"
	"github.com/bylinehq/byline/pkg/article"
)

var watchOutputFormat string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Monitor pipeline activity in real time",
	Long: `Stream stage completions and status changes as they happen,
from every byline process publishing to the configured Redis.

Requires events.redis_addr in byline.yml.

Output Formats:
  default - Human-readable output with timestamps
  json    - Line-delimited JSON for programmatic processing

Examples:
  # Watch all activity
  byline watch

  # Export events as JSON
  byline watch --output=json > events.jsonl`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchOutputFormat != "default" && watchOutputFormat != "json" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pub := newPublisher(cfg)
	if pub == nil {
		return printer.Error(
			"events not configured",
			"Watching requires a Redis connection for live events.",
			[]string{"Add it to byline.yml:\n  events:\n    redis_addr: \"localhost:6379\""},
		)
	}
	defer pub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pub.Ping(ctx); err != nil {
		return printer.Error(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s: %v", cfg.Events.RedisAddr, err),
			[]string{"Check that Redis is running and the address is correct"},
		)
	}

	sub, err := pub.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	if watchOutputFormat == "default" {
		printer.Step("Watching pipeline activity (Ctrl+C to stop)\n\n")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-sub.Errors():
			if ok {
				printer.Warning("Event stream: %v\n", err)
			}
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			printEvent(ev)
		}
	}
}

func printEvent(ev events.StageEvent) {
	if watchOutputFormat == "json" {
		data, err := json.Marshal(ev)
		if err != nil {
			return
		}
		fmt.Println(string(data))
		return
	}

	at := time.UnixMilli(ev.AtMs).Format("15:04:05")
	switch {
	case ev.Status == article.StatusCompleted:
		printer.Success("%s  %s completed\n", at, shortID(ev.ArticleID))
	case ev.Status == article.StatusError:
		printer.Warning("%s  %s failed\n", at, shortID(ev.ArticleID))
	case ev.Stage != "":
		printer.Printf("%s  %s  %s stage done (%s)\n", at, shortID(ev.ArticleID), ev.Stage, ev.Agent)
	default:
		printer.Printf("%s  %s  status: %s\n", at, shortID(ev.ArticleID), ev.Status)
	}
}
