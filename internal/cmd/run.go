package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hargabyte/px/internal/cache"
	"github.com/hargabyte/px/internal/sparql"
	"github.com/hargabyte/px/internal/stats"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate the completeness report",
	Long: `Generate the full property completeness report as wikitext.

The report discovers groupings above the configured threshold, counts tracked
properties per grouping, and renders one table row per grouping plus a totals
footer. Query results are cached in .px/cache.db between runs unless caching
is disabled.

Examples:
  px run                 # Report to stdout
  px run -o report.wiki  # Report to a file
  px run --no-cache      # Bypass the query cache
  px run -v              # Progress output on stderr`,
	RunE: runRun,
}

var (
	runOutput  string // -o/--output file path
	runNoCache bool   // --no-cache flag
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Write the report to a file instead of stdout")
	runCmd.Flags().BoolVar(&runNoCache, "no-cache", false, "Bypass the query-result cache")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, pxDir, err := loadConfig()
	if err != nil {
		return err
	}

	endpoint, err := newEndpoint(cfg)
	if err != nil {
		return err
	}

	var client sparql.Client = endpoint
	var (
		resultCache  *cache.Cache
		cachedClient *cache.Client
		runID        string
	)
	if !runNoCache && !cfg.Cache.Disabled {
		resultCache, err = cache.Open(pxDir)
		if err != nil {
			return err
		}
		defer resultCache.Close()

		runID, err = resultCache.StartRun()
		if err != nil {
			return err
		}
		cachedClient = cache.NewClient(endpoint, resultCache, cacheTTL(cfg))
		client = cachedClient
	}

	engine, err := stats.New(statsConfig(cfg, client, endpoint))
	if err != nil {
		return err
	}

	started := time.Now()
	verbosef("px run: querying %s\n", cfg.Endpoint)

	report, err := engine.Generate(context.Background())
	if err != nil {
		return err
	}

	if cachedClient != nil {
		queries, hits := cachedClient.Counters()
		if err := resultCache.FinishRun(runID, queries, hits); err != nil {
			return err
		}
		verbosef("px run %s: %d queries (%d cache hits) in %s\n",
			runID, queries, hits, time.Since(started).Round(time.Millisecond))
	} else {
		verbosef("px run: done in %s\n", time.Since(started).Round(time.Millisecond))
	}

	if runOutput != "" {
		if err := os.WriteFile(runOutput, []byte(report), 0644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Printf("Report written to %s\n", runOutput)
		return nil
	}

	fmt.Print(report)
	return nil
}
