package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepgrid"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of stepgrid",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stepgrid version %s\n", strings.TrimSpace(stepgrid.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
