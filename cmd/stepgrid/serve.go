package main

import (
	"fmt"
	"os"

	"github.com/aretw0/stepgrid/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Hosts many search sessions behind a JSON API, streams per-step diffs over
server-sent events and exposes Prometheus metrics on /metrics.

Sessions are checkpointed into the configured store. With the redis store,
replicas share sessions and serialize access through a Redis lock.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger, debug := setup(cmd)

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		if err := cli.Serve(sigCtx, cfg, logger, debug); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on")
	serveCmd.Flags().String("store", "", "Session store: memory, file or redis")
	serveCmd.Flags().String("redis-addr", "", "Redis address for the redis store")
	serveCmd.Flags().StringP("algorithm", "a", "", "Default algorithm for blank sessions")
	serveCmd.Flags().Int("columns", 0, "Blank session columns")
	serveCmd.Flags().Int("rows", 0, "Blank session rows")
	serveCmd.Flags().Uint64("seed", 0, "Random seed for randomize commands (0 picks one)")
}
