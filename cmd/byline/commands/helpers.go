package commands

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bylinehq/byline/internal/agent"
	"github.com/bylinehq/byline/internal/config"
	"github.com/bylinehq/byline/internal/events"
	"github.com/bylinehq/byline/internal/pipeline"
	"github.com/bylinehq/byline/internal/printer"
	"github.com/bylinehq/byline/internal/research"
	"github.com/bylinehq/byline/internal/store"
	"github.com/bylinehq/byline/pkg/article"
)

// loadConfig reads byline.yml, falling back to defaults when it is absent.
func loadConfig() (*config.BylineConfig, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, printer.Error(
			"configuration error",
			fmt.Sprintf("Could not load %s: %v", configPath, err),
			[]string{"Fix the file, or remove it to run with defaults"},
		)
	}
	return cfg, nil
}

// openStore opens the SQLite database named by the configuration.
func openStore(cfg *config.BylineConfig) (*store.Store, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, printer.Error(
			"could not open article store",
			fmt.Sprintf("Database %s: %v", cfg.Store.Path, err),
			[]string{"Check that the directory exists and is writable"},
		)
	}
	return st, nil
}

// newPublisher returns a Redis-backed event publisher, or nil when events
// are not configured. A nil publisher is safe everywhere.
func newPublisher(cfg *config.BylineConfig) *events.Publisher {
	if cfg.Events.RedisAddr == "" {
		return nil
	}
	return events.NewPublisher(&redis.Options{Addr: cfg.Events.RedisAddr})
}

// buildEngine assembles the full pipeline from configuration: one Gemini
// generator per role, the retry executor, and the optional search and
// events capabilities.
func buildEngine(cfg *config.BylineConfig, st *store.Store, pub *events.Publisher) (*pipeline.Engine, error) {
	key, err := cfg.APIKey()
	if err != nil {
		return nil, printer.Error(
			"missing API key",
			err.Error(),
			[]string{fmt.Sprintf("Export the key first:\n  export %s=<your key>", cfg.Gemini.APIKeyEnv)},
		)
	}

	generators := make(map[article.Role]agent.Generator)
	for _, def := range article.Stages() {
		generators[def.Agent] = agent.NewGemini(agent.GeminiConfig{
			Endpoint: cfg.Gemini.Endpoint,
			Model:    cfg.Gemini.Model,
			APIKey:   key,
		}, def.Agent)
	}

	var search pipeline.Searcher
	if cfg.Research.Enabled {
		search = research.NewDuckDuckGo(nil)
	}

	return pipeline.New(pipeline.Deps{
		Store:      st,
		Generators: generators,
		Executor: pipeline.NewExecutor(
			cfg.Pipeline.MaxAttempts,
			time.Duration(cfg.Pipeline.BaseDelaySeconds)*time.Second,
		),
		Events:    pub,
		Search:    search,
		SearchMax: cfg.Research.MaxResults,
	})
}
