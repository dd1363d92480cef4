package main

import (
	"fmt"
	"os"

	"github.com/aretw0/stepgrid/internal/cli"
	"github.com/spf13/cobra"
)

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Generate a random layout",
	Long: `Prints a randomized layout of the configured size, ready for 'stepgrid run'.
With --save the layout is also written to the template store.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, _, _ := setup(cmd)
		weights, _ := cmd.Flags().GetBool("weights")
		cfg.Grid.Weights = cfg.Grid.Weights || weights

		id, _ := cmd.Flags().GetString("save")
		name := id
		if name == "" {
			name = "random"
		}
		tmpl, err := cli.RandomTemplate(cfg, name)
		exitOnError("Error generating layout", err)

		if id != "" {
			_, backend := openTemplates(cmd.Context(), cfg)
			defer backend.Close()
			exitOnError("Error saving template", cli.SaveTemplate(cmd.Context(), backend.Store, tmpl))
			fmt.Fprintf(os.Stderr, "Template '%s' saved to the %s store.\n", id, cfg.Store.Backend)
		}
		fmt.Print(tmpl.Layout)
	},
}

func init() {
	rootCmd.AddCommand(randomCmd)

	randomCmd.Flags().Int("columns", 0, "Grid columns")
	randomCmd.Flags().Int("rows", 0, "Grid rows")
	randomCmd.Flags().Uint64("seed", 0, "Random seed (0 picks one)")
	randomCmd.Flags().Float64("density", 0, "Barrier density")
	randomCmd.Flags().Bool("weights", false, "Draw random cell weights")
	randomCmd.Flags().StringP("algorithm", "a", "", "Algorithm recorded with the template")
	randomCmd.Flags().String("save", "", "Also save the layout under this id")
	randomCmd.Flags().String("store", "", "Template store: memory, file or redis")
	randomCmd.Flags().String("redis-addr", "", "Redis address for the redis store")
}
