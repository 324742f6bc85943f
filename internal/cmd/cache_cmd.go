package cmd

import (
	"fmt"

	"github.com/hargabyte/px/internal/cache"
	"github.com/spf13/cobra"
)

// cacheCmd is the parent command for cache administration
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Administer the query-result cache",
	Long: `Inspect or clear the query-result cache in .px/cache.db.

Examples:
  px cache stats   # Show cached query and run counts
  px cache clear   # Drop all cached query results`,
}

// cacheStatsCmd shows cache statistics
var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE:  runCacheStats,
}

// cacheClearCmd clears cached query results
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all cached query results",
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

// openCache opens the cache next to the configuration.
func openCache() (*cache.Cache, error) {
	_, pxDir, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return cache.Open(pxDir)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	resultCache, err := openCache()
	if err != nil {
		return err
	}
	defer resultCache.Close()

	stats, err := resultCache.GetStats()
	if err != nil {
		return err
	}

	fmt.Printf("Cache: %s\n", resultCache.Path())
	fmt.Printf("Cached queries: %d\n", stats.QueryCount)
	fmt.Printf("Recorded runs:  %d\n", stats.RunCount)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	resultCache, err := openCache()
	if err != nil {
		return err
	}
	defer resultCache.Close()

	if err := resultCache.Clear(); err != nil {
		return err
	}

	fmt.Println("Cache cleared")
	return nil
}
