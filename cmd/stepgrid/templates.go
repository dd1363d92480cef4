package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/aretw0/stepgrid/internal/cli"
	"github.com/aretw0/stepgrid/internal/config"
	"github.com/aretw0/stepgrid/pkg/ports"
	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"tpl"},
	Short:   "Manage grid templates",
	Long: `List and inspect the read-only template library (library.dir) and
the writable template store (store.backend) where sessions are checkpointed.`,
}

var templatesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List library and stored templates",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, _, _ := setup(cmd)
		library, backend := openTemplates(cmd.Context(), cfg)
		defer backend.Close()

		entries, err := cli.ListTemplates(cmd.Context(), library, backend.Store)
		exitOnError("Error listing templates", err)
		if len(entries) == 0 {
			fmt.Println("No templates found.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSOURCE")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\n", e.ID, e.Source)
		}
		_ = w.Flush()
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a template layout",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, _, _ := setup(cmd)
		library, backend := openTemplates(cmd.Context(), cfg)
		defer backend.Close()

		tmpl, err := cli.FindTemplate(cmd.Context(), args[0], library, backend.Store)
		exitOnError(fmt.Sprintf("Error loading template '%s'", args[0]), err)

		if tmpl.Title != "" {
			fmt.Printf("# %s\n", tmpl.Title)
		}
		if tmpl.Algorithm != "" {
			fmt.Printf("# algorithm: %s\n", tmpl.Algorithm)
		}
		fmt.Print(tmpl.Layout)
	},
}

var templatesImportCmd = &cobra.Command{
	Use:   "import <id> <layout-file>",
	Short: "Save a layout file into the template store",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, _, _ := setup(cmd)
		_, backend := openTemplates(cmd.Context(), cfg)
		defer backend.Close()

		algorithm, _ := cmd.Flags().GetString("algorithm")
		tmpl, err := cli.ImportTemplate(cmd.Context(), backend.Store, args[0], args[1], algorithm)
		exitOnError("Error importing template", err)
		fmt.Printf("Template '%s' saved to the %s store.\n", tmpl.ID, cfg.Store.Backend)
	},
}

var templatesRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a stored template",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, _, _ := setup(cmd)
		_, backend := openTemplates(cmd.Context(), cfg)
		defer backend.Close()

		exitOnError("Error deleting template", backend.Store.Delete(cmd.Context(), args[0]))
		fmt.Printf("Template '%s' deleted.\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.AddCommand(templatesLsCmd)
	templatesCmd.AddCommand(templatesShowCmd)
	templatesCmd.AddCommand(templatesImportCmd)
	templatesCmd.AddCommand(templatesRmCmd)

	templatesCmd.PersistentFlags().String("store", "", "Template store: memory, file or redis")
	templatesCmd.PersistentFlags().String("redis-addr", "", "Redis address for the redis store")
	templatesImportCmd.Flags().StringP("algorithm", "a", "", "Algorithm recorded with the template")
}

func openTemplates(ctx context.Context, cfg config.Config) (ports.TemplateLoader, *cli.Backend) {
	backend, err := cli.OpenBackend(ctx, cfg.Store)
	exitOnError("Error opening store", err)
	library, err := cli.OpenLibrary(cfg.Library.Dir)
	exitOnError("Error opening template library", err)
	return library, backend
}
