package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/stepgrid/internal/cli"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [layout-file]",
	Short: "Run a search in the terminal",
	Long: `Steps a search to completion, drawing the grid after every step.

The grid comes from a layout file, a library template (--template), or a blank
grid of the configured size (--random scatters barriers on it).
Colors and the closing summary are used only when stdout is a terminal.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger, debug := setup(cmd)

		opts := cli.RunOptions{
			Config:      cfg,
			Interactive: term.IsTerminal(int(os.Stdout.Fd())),
			Debug:       debug,
			Output:      os.Stdout,
			Logger:      logger,
		}
		if len(args) > 0 {
			opts.TemplatePath = args[0]
		}
		opts.TemplateID, _ = cmd.Flags().GetString("template")
		opts.Random, _ = cmd.Flags().GetBool("random")
		opts.Headless, _ = cmd.Flags().GetBool("headless")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		if cmd.Flags().Changed("algorithm") {
			opts.Algorithm, _ = cmd.Flags().GetString("algorithm")
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		status, err := cli.Run(sigCtx, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if sig := sigCtx.Signal(); sig != nil && !opts.JSON {
			fmt.Printf("\n>>> Interrupted (%v) with status %s.\n", sig, status)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("template", "t", "", "Library template id")
	runCmd.Flags().StringP("algorithm", "a", "", "bfs, dfs, dijkstra or astar (overrides template and config)")
	runCmd.Flags().Bool("random", false, "Randomize the blank grid before searching")
	runCmd.Flags().Bool("headless", false, "Print only the summary")
	runCmd.Flags().Bool("json", false, "Print one JSON snapshot per step")
	runCmd.Flags().Int("columns", 0, "Blank grid columns")
	runCmd.Flags().Int("rows", 0, "Blank grid rows")
	runCmd.Flags().Uint64("seed", 0, "Random seed (0 picks one)")
	runCmd.Flags().Float64("density", 0, "Barrier density for --random")
	runCmd.Flags().Duration("delay", 0, "Pause between steps")
	runCmd.Flags().Int("max-steps", 0, "Stop after this many steps")
}
