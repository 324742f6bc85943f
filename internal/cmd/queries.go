package cmd

import (
	"fmt"

	"github.com/hargabyte/px/internal/stats"
	"github.com/spf13/cobra"
)

// queriesCmd represents the queries command
var queriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "Print the SPARQL queries a report run would issue",
	Long: `Print every SPARQL query the configured report would issue, in order.

Useful for debugging a configuration or for pasting a single query into the
query service UI.

Examples:
  px queries`,
	RunE: runQueries,
}

func init() {
	rootCmd.AddCommand(queriesCmd)
}

func runQueries(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	// The engine never runs anything here, so no client is needed beyond a
	// placeholder satisfying the constructor.
	engine, err := stats.New(statsConfig(cfg, noopClient{}, nil))
	if err != nil {
		return err
	}

	for _, query := range engine.Queries() {
		fmt.Printf("# %s\n%s\n", query.Name, query.Text)
	}
	return nil
}
