package cli

import (
	"os"
	"strings"

	"annotate-cli/internal/catalog"

	"github.com/spf13/cobra"
)

func newCatalogCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "catalog",
		Aliases: []string{"types"},
		Short:   "Annotation type catalog (taxonomy) commands",
	}
	cmd.AddCommand(newCatalogShowCmd(app))
	cmd.AddCommand(newCatalogSearchCmd(app))
	cmd.AddCommand(newCatalogImportCmd(app))
	return cmd
}

// taxonomyArg falls back to the configured taxonomy.
func taxonomyArg(app *App, args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0])
	}
	return strings.TrimSpace(app.config().Taxonomy)
}

func newCatalogShowCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "show [type-id]",
		Short: "Show the selectable categories of a catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typeID := taxonomyArg(app, args)
			if typeID == "" {
				return writeErr(cmd, errMissingTaxonomy)
			}
			b, err := openBackend(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := b.FetchCatalog(cmd.Context(), typeID)
			if err != nil {
				return writeErr(cmd, err)
			}
			if all {
				return writeOut(cmd, app, c)
			}
			return writeOut(cmd, app, categoryRows(c, c.Leaves()))
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Print the whole hierarchy instead of the selectable leaves")
	return cmd
}

func newCatalogSearchCmd(app *App) *cobra.Command {
	var typeID string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search categories by name, description, mnemonic or example",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(typeID)
			if id == "" {
				id = taxonomyArg(app, nil)
			}
			if id == "" {
				return writeErr(cmd, errMissingTaxonomy)
			}
			b, err := openBackend(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := b.FetchCatalog(cmd.Context(), id)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, categoryRows(c, c.Search(args[0])))
		},
	}

	cmd.Flags().StringVar(&typeID, "type-id", "", "Catalog type id (default: config taxonomy)")
	return cmd
}

func newCatalogImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <type-id> <file>",
		Short: "Store a catalog JSON document in the offline workspace",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireOffline(app, "catalog import"); err != nil {
				return writeErr(cmd, err)
			}
			f, err := os.Open(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer f.Close()
			c, err := catalog.Parse(f)
			if err != nil {
				return writeErr(cmd, err)
			}
			w, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := w.SaveCatalog(cmd.Context(), args[0], c); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"type_id":    args[0],
				"title":      c.Title,
				"categories": c.Len(),
				"selectable": len(c.Leaves()),
			})
		},
	}
	return cmd
}
