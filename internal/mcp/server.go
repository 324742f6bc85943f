// Package mcp provides an MCP (Model Context Protocol) server for px.
// This allows AI agents to generate completeness reports through MCP tools
// instead of CLI commands.
package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hargabyte/px/internal/cache"
	"github.com/hargabyte/px/internal/config"
	"github.com/hargabyte/px/internal/sparql"
	"github.com/hargabyte/px/internal/stats"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps the MCP server with px-specific functionality
type Server struct {
	mcpServer    *server.MCPServer
	cfg          *config.Config
	pxDir        string
	tools        map[string]bool
	lastActivity time.Time
	timeout      time.Duration
	mu           sync.RWMutex
}

// Config holds server configuration
type Config struct {
	ConfigDir string        // .px directory (empty = discover from cwd)
	Tools     []string      // Which tools to expose (empty = all)
	Timeout   time.Duration // Inactivity timeout (0 = no timeout)
}

// AllTools lists all available tools
var AllTools = []string{"px_report", "px_groupings", "px_queries"}

// New creates a new MCP server for px
func New(cfg Config) (*Server, error) {
	pxDir := cfg.ConfigDir
	if pxDir == "" {
		var err error
		pxDir, err = config.FindConfigDir(".")
		if err != nil {
			return nil, fmt.Errorf("px not initialized: run 'px init' first")
		}
	}

	fileCfg, err := config.LoadFromPath(filepath.Join(pxDir, config.ConfigFileName))
	if err != nil {
		return nil, err
	}
	fileCfg.ApplyEnv()

	mcpServer := server.NewMCPServer(
		"px",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcpServer:    mcpServer,
		cfg:          fileCfg,
		pxDir:        pxDir,
		tools:        make(map[string]bool),
		lastActivity: time.Now(),
		timeout:      cfg.Timeout,
	}

	toolsToRegister := cfg.Tools
	if len(toolsToRegister) == 0 {
		toolsToRegister = AllTools
	}

	for _, toolName := range toolsToRegister {
		if err := s.registerTool(toolName); err != nil {
			return nil, fmt.Errorf("failed to register tool %s: %w", toolName, err)
		}
		s.tools[toolName] = true
	}

	return s, nil
}

// registerTool registers a single tool with the MCP server
func (s *Server) registerTool(name string) error {
	switch name {
	case "px_report":
		return s.registerReportTool()
	case "px_groupings":
		return s.registerGroupingsTool()
	case "px_queries":
		return s.registerQueriesTool()
	default:
		return fmt.Errorf("unknown tool: %s", name)
	}
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	if s.timeout > 0 {
		go s.timeoutChecker()
	}

	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker monitors for inactivity and exits if timeout exceeded
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			fmt.Fprintf(os.Stderr, "px serve: timeout after %v of inactivity\n", s.timeout)
			os.Exit(0)
		}
	}
}

// updateActivity updates the last activity timestamp
func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// ListTools returns the list of registered tools
func (s *Server) ListTools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]string, 0, len(s.tools))
	for t := range s.tools {
		tools = append(tools, t)
	}
	return tools
}

// newEngine builds a fresh statistics engine; per-column results accumulate
// for one report, so every tool call gets its own engine. A positive
// groupingThreshold overrides the configured threshold for this engine only;
// the server config is never mutated after construction.
func (s *Server) newEngine(useCache bool, groupingThreshold int) (*stats.Statistics, func(), error) {
	endpoint, err := sparql.NewEndpoint(s.cfg.Endpoint)
	if err != nil {
		return nil, nil, err
	}

	var client sparql.Client = endpoint
	cleanup := func() {}
	if useCache && !s.cfg.Cache.Disabled {
		resultCache, err := cache.Open(s.pxDir)
		if err != nil {
			return nil, nil, err
		}
		client = cache.NewClient(endpoint, resultCache, time.Duration(s.cfg.Cache.TTLHours)*time.Hour)
		cleanup = func() { resultCache.Close() }
	}

	properties := make([]stats.PropertyConfig, 0, len(s.cfg.Properties))
	for _, prop := range s.cfg.Properties {
		properties = append(properties, stats.PropertyConfig{
			Property:  prop.Property,
			Qualifier: prop.Qualifier,
			Value:     prop.Value,
			Title:     prop.Title,
		})
	}

	threshold := s.cfg.Grouping.Threshold
	if groupingThreshold > 0 {
		threshold = groupingThreshold
	}

	engine, err := stats.New(stats.Config{
		Client:             client,
		Labels:             endpoint,
		Properties:         properties,
		Selector:           s.cfg.Selector,
		GroupingProperty:   s.cfg.Grouping.Property,
		HigherGrouping:     s.cfg.Grouping.HigherGrouping,
		HigherGroupingType: s.cfg.Grouping.HigherGroupingType,
		GroupingLink:       s.cfg.Grouping.Link,
		GroupingThreshold:  threshold,
		PropertyThreshold:  s.cfg.PropertyThreshold,
		NoGroupRow:         !s.cfg.OmitNoGroupRow,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return engine, cleanup, nil
}

// Tool registration

// registerReportTool registers the px_report tool
func (s *Server) registerReportTool() error {
	tool := mcp.NewTool("px_report",
		mcp.WithDescription("Generate the full property completeness report as wikitext."),
		mcp.WithBoolean("no_cache",
			mcp.Description("Bypass the query-result cache"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleReport)
	return nil
}

// registerGroupingsTool registers the px_groupings tool
func (s *Server) registerGroupingsTool() error {
	tool := mcp.NewTool("px_groupings",
		mcp.WithDescription("Discover groupings and their item counts."),
		mcp.WithNumber("threshold",
			mcp.Description("Override the configured grouping threshold"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleGroupings)
	return nil
}

// registerQueriesTool registers the px_queries tool
func (s *Server) registerQueriesTool() error {
	tool := mcp.NewTool("px_queries",
		mcp.WithDescription("Print the SPARQL queries a report run would issue."),
	)

	s.mcpServer.AddTool(tool, s.handleQueries)
	return nil
}

// Tool handlers

func (s *Server) handleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	noCache, _ := args["no_cache"].(bool)

	engine, cleanup, err := s.newEngine(!noCache, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer cleanup()

	report, err := engine.Generate(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(report), nil
}

func (s *Server) handleGroupings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	threshold := 0
	if t, ok := req.GetArguments()["threshold"].(float64); ok && t > 0 {
		threshold = int(t)
	}

	engine, cleanup, err := s.newEngine(true, threshold)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer cleanup()

	info, err := engine.GroupingInformation(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	for pair := info.Counts.Oldest(); pair != nil; pair = pair.Next() {
		higher, _ := info.Higher.Get(pair.Key)
		if higher != "" {
			fmt.Fprintf(&b, "%s\t%d\t%s\n", pair.Key, pair.Value, higher)
		} else {
			fmt.Fprintf(&b, "%s\t%d\n", pair.Key, pair.Value)
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleQueries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	engine, cleanup, err := s.newEngine(false, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer cleanup()

	var b strings.Builder
	for _, query := range engine.Queries() {
		fmt.Fprintf(&b, "# %s\n%s\n", query.Name, query.Text)
	}

	return mcp.NewToolResultText(b.String()), nil
}
