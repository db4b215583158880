package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bugrelay/internal/logging"
	mcpserver "bugrelay/internal/mcp"
	"bugrelay/internal/report"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var serveFlags struct {
	configPath string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing report_outcome,
find_open_record, and locate_evidence tools, so an agent-driven runner can
dispatch outcomes directly.

The server monitors for parent process death and self-terminates when the
spawning runner disconnects, to prevent zombie processes.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.configPath, "config", "c", "bugrelay.yaml", "Config file path")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(serveFlags.configPath)
	if err != nil {
		return err
	}

	logger := logging.New("mcp")
	adapters, err := buildAdapters(cfg, logger)
	if err != nil {
		return err
	}
	if len(adapters) == 0 {
		return fmt.Errorf("no usable backend: enable and configure kanban and/or workflow in %s", serveFlags.configPath)
	}

	locator := buildLocator(cfg)
	orch := report.NewOrchestrator(adapters, locator, logger)
	srv := mcpserver.NewServer(orch, adapters, locator)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcpserver.WatchParent(ctx, cancel)

	logger.Info("starting bugrelay MCP server over stdio (parent watchdog active)",
		"backends", len(adapters))
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
