package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hargabyte/px/internal/config"
	"github.com/hargabyte/px/internal/sparql"
	"github.com/hargabyte/px/internal/stats"
)

// Shared helpers for command implementations

// loadConfig loads the px configuration, honoring the global --config flag,
// and returns the config together with the .px directory it came from.
func loadConfig() (*config.Config, string, error) {
	if configPath != "" {
		cfg, err := config.LoadFromPath(configPath)
		if err != nil {
			return nil, "", err
		}
		cfg.ApplyEnv()
		return cfg, filepath.Dir(configPath), nil
	}

	pxDir, err := config.FindConfigDir(".")
	if err != nil {
		return nil, "", fmt.Errorf("px not initialized: run 'px init' first")
	}

	cfg, err := config.Load(".")
	if err != nil {
		return nil, "", err
	}
	cfg.ApplyEnv()
	return cfg, pxDir, nil
}

// newEndpoint builds the SPARQL client for the configured endpoint, picking
// up optional digest credentials from the environment.
func newEndpoint(cfg *config.Config) (*sparql.Endpoint, error) {
	opts := []sparql.EndpointOption{}
	if user := os.Getenv("PX_SPARQL_USER"); user != "" {
		opts = append(opts, sparql.WithDigestAuth(user, os.Getenv("PX_SPARQL_PASS")))
	}

	endpoint, err := sparql.NewEndpoint(cfg.Endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Endpoint, err)
	}
	return endpoint, nil
}

// statsConfig converts the file configuration into an engine configuration.
func statsConfig(cfg *config.Config, client sparql.Client, labels sparql.LabelResolver) stats.Config {
	properties := make([]stats.PropertyConfig, 0, len(cfg.Properties))
	for _, prop := range cfg.Properties {
		properties = append(properties, stats.PropertyConfig{
			Property:  prop.Property,
			Qualifier: prop.Qualifier,
			Value:     prop.Value,
			Title:     prop.Title,
		})
	}

	return stats.Config{
		Client:             client,
		Labels:             labels,
		Properties:         properties,
		Selector:           cfg.Selector,
		GroupingProperty:   cfg.Grouping.Property,
		HigherGrouping:     cfg.Grouping.HigherGrouping,
		HigherGroupingType: cfg.Grouping.HigherGroupingType,
		GroupingLink:       cfg.Grouping.Link,
		GroupingThreshold:  cfg.Grouping.Threshold,
		PropertyThreshold:  cfg.PropertyThreshold,
		NoGroupRow:         !cfg.OmitNoGroupRow,
	}
}

// cacheTTL returns the configured result cache TTL.
func cacheTTL(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Cache.TTLHours) * time.Hour
}

// noopClient satisfies sparql.Client for commands that only build queries.
type noopClient struct{}

func (noopClient) Select(ctx context.Context, query string) ([]sparql.Row, error) {
	return nil, nil
}

// verbosef writes progress output to stderr when --verbose is set.
func verbosef(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
