package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/stepgrid/internal/cli"
	"github.com/aretw0/stepgrid/pkg/adapters/mcp"
	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/aretw0/stepgrid/pkg/ports"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts stepgrid as an MCP Server.
This allows AI agents (like Claude Desktop) to create grids and step searches as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger, debug := setup(cmd)
		slog.SetDefault(logger)

		transport, _ := cmd.Flags().GetString("transport")

		backend, err := cli.OpenBackend(cmd.Context(), cfg.Store)
		if err != nil {
			log.Fatalf("Error opening store: %v", err)
		}
		defer backend.Close()

		library, err := cli.OpenLibrary(cfg.Library.Dir)
		if err != nil {
			log.Fatalf("Error opening template library: %v", err)
		}

		manager := cli.NewManager(cfg, backend, logger, domain.LifecycleHooks{}, debug)
		srv := mcp.NewServer(manager, ports.NewCatalog(backend.Store, library), logger)

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("Starting stepgrid MCP Server (Stdio)...")
			if err := srv.ServeStdio(); err != nil {
				logger.Error("MCP Server execution failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			logger.Info("Starting stepgrid MCP Server (SSE)", "port", cfg.HTTP.Port)

			// Create a context that cancels on interrupt signal
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, cfg.HTTP.Port); err != nil && err != http.ErrServerClosed {
				logger.Error("MCP Server execution failed", "err", err)
				os.Exit(1)
			}
			logger.Info("MCP Server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 0, "Port to listen on (only for SSE)")
	mcpCmd.Flags().String("store", "", "Session store: memory, file or redis")
}
