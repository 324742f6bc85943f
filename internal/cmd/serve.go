package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/hargabyte/px/internal/mcp"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing the statistics engine",
	Long: `Start an MCP (Model Context Protocol) server over stdio.

AI agents can generate completeness reports, discover groupings and inspect
the configured queries through MCP tools instead of CLI commands.

Available tools:
  px_report     Generate the full completeness report
  px_groupings  Discover groupings and their item counts
  px_queries    Print the queries a report run would issue

Examples:
  px serve                         # All tools, no timeout
  px serve --tools px_report       # Only the report tool
  px serve --timeout 10m           # Exit after 10 minutes of inactivity`,
	RunE: runServe,
}

var (
	serveTools   []string
	serveTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringSliceVar(&serveTools, "tools", nil,
		fmt.Sprintf("Tools to expose (default: all of %s)", strings.Join(mcp.AllTools, ", ")))
	serveCmd.Flags().DurationVar(&serveTimeout, "timeout", 0, "Exit after this much inactivity (0 = never)")
}

func runServe(cmd *cobra.Command, args []string) error {
	server, err := mcp.New(mcp.Config{
		Tools:   serveTools,
		Timeout: serveTimeout,
	})
	if err != nil {
		return err
	}

	verbosef("px serve: exposing tools %s\n", strings.Join(server.ListTools(), ", "))
	return server.ServeStdio()
}
