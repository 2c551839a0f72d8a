package main

import (
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"

	"github.com/loomhq/loom/internal/api"
	"github.com/loomhq/loom/internal/config"
	"github.com/loomhq/loom/internal/graph"
	"github.com/loomhq/loom/internal/orchestrator"
	"github.com/loomhq/loom/internal/store"
	"github.com/loomhq/loom/pkg/models"
)

// loadConfig resolves the effective configuration, honoring --config.
func loadConfig() (*config.Config, error) {
	if rootConfigPath != "" {
		return config.LoadFromPath(rootConfigPath)
	}
	return config.Load()
}

// openStore creates the store backend named by the configuration.
func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		return store.NewMemStore(), nil
	case "mongo":
		db := cfg.Store.MongoDatabase
		if db == "" {
			db = "loom"
		}
		return store.NewMongoStore(cfg.Store.MongoURI, db)
	case "sqlite", "":
		path := cfg.Store.SQLitePath
		if path == "" {
			path = config.DefaultSQLitePath()
		}
		return store.NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// newExecutor builds the API client and the design executor on top of it.
func newExecutor(cfg *config.Config) (*api.Client, *graph.Executor, error) {
	client, err := api.NewClient(api.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
		CallTimeout:   cfg.Anthropic.CallTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create API client: %w", err)
	}

	orch := orchestrator.New(client)
	return client, graph.NewExecutor(graph.NewRunner(orch)), nil
}

// printTokenUsage prints the client's token and cost totals, if any calls
// were made.
func printTokenUsage(client *api.Client) {
	tracker := client.Tracker()
	if tracker.Calls() == 0 {
		return
	}
	in, out := tracker.Total()
	faint := color.New(color.Faint)
	faint.Printf("\n%d call(s), %d in / %d out tokens, ~$%.4f\n", tracker.Calls(), in, out, tracker.Cost())
}

// printStatus prints a status line with color
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}

// statusColor maps an execution status to its display color.
func statusColor(status models.ExecutionStatus) *color.Color {
	switch status {
	case models.ExecutionSucceeded:
		return color.New(color.FgGreen)
	case models.ExecutionFailed:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}

// formatDuration renders a millisecond duration for table output.
func formatDuration(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return time.Duration(ms * int64(time.Millisecond)).Round(time.Millisecond).String()
}
