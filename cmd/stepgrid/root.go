package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/stepgrid/internal/cli"
	"github.com/aretw0/stepgrid/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stepgrid",
	Short: "stepgrid steps BFS, DFS, Dijkstra and A* across a grid one expansion at a time",
	Long: `stepgrid runs interruptible grid searches. Every step expands one cell,
so a pass can be watched in the terminal, driven over HTTP, or handed to an AI agent over MCP.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Config file (YAML or JSON); missing means defaults")
	rootCmd.PersistentFlags().Bool("debug", false, "Log every step and status change")
	rootCmd.PersistentFlags().String("log-level", "", "Override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("library", "", "Override library.dir (template library directory)")
}

// setup loads the config, applies flag overrides and builds the logger.
// Any failure exits the process.
func setup(cmd *cobra.Command) (config.Config, *slog.Logger, bool) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	exitOnError("Error loading config", err)

	overrideString(cmd, "log-level", &cfg.Log.Level)
	overrideString(cmd, "library", &cfg.Library.Dir)
	overrideString(cmd, "algorithm", &cfg.Grid.Algorithm)
	overrideInt(cmd, "columns", &cfg.Grid.Columns)
	overrideInt(cmd, "rows", &cfg.Grid.Rows)
	overrideInt(cmd, "max-steps", &cfg.Grid.MaxSteps)
	overrideFloat(cmd, "density", &cfg.Grid.Density)
	overrideDuration(cmd, "delay", &cfg.Grid.Delay)
	overrideString(cmd, "store", &cfg.Store.Backend)
	overrideString(cmd, "redis-addr", &cfg.Store.Address)
	overrideInt(cmd, "port", &cfg.HTTP.Port)
	if cmd.Flags().Changed("seed") {
		cfg.Grid.Seed, _ = cmd.Flags().GetUint64("seed")
	}
	exitOnError("Invalid configuration", cfg.Validate())

	debug, _ := cmd.Flags().GetBool("debug")
	logger, err := cli.NewLogger(cfg.Log, debug)
	exitOnError("Invalid log settings", err)
	return cfg, logger, debug
}

func overrideString(cmd *cobra.Command, name string, dst *string) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dst = f.Value.String()
	}
}

func overrideInt(cmd *cobra.Command, name string, dst *int) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dst, _ = cmd.Flags().GetInt(name)
	}
}

func overrideFloat(cmd *cobra.Command, name string, dst *float64) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dst, _ = cmd.Flags().GetFloat64(name)
	}
}

func overrideDuration(cmd *cobra.Command, name string, dst *time.Duration) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dst, _ = cmd.Flags().GetDuration(name)
	}
}

func exitOnError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
		os.Exit(1)
	}
}
