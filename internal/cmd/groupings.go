package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/hargabyte/px/internal/stats"
	"github.com/spf13/cobra"
)

// groupingsCmd represents the groupings command
var groupingsCmd = &cobra.Command{
	Use:   "groupings",
	Short: "Discover groupings and their item counts",
	Long: `Run only the grouping-discovery query and list the groupings that would
get a row in the report, with their item counts and higher-grouping values.

Examples:
  px groupings
  px groupings --threshold 5   # Override the configured threshold`,
	RunE: runGroupings,
}

var groupingsThreshold int

func init() {
	rootCmd.AddCommand(groupingsCmd)
	groupingsCmd.Flags().IntVar(&groupingsThreshold, "threshold", 0, "Override the grouping threshold")
}

func runGroupings(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if groupingsThreshold > 0 {
		cfg.Grouping.Threshold = groupingsThreshold
	}

	endpoint, err := newEndpoint(cfg)
	if err != nil {
		return err
	}

	engine, err := stats.New(statsConfig(cfg, endpoint, endpoint))
	if err != nil {
		return err
	}

	info, err := engine.GroupingInformation(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GROUPING\tCOUNT\tHIGHER")
	for pair := info.Counts.Oldest(); pair != nil; pair = pair.Next() {
		higher, _ := info.Higher.Get(pair.Key)
		fmt.Fprintf(w, "%s\t%d\t%s\n", pair.Key, pair.Value, higher)
	}
	return w.Flush()
}
