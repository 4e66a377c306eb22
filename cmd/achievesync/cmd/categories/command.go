// Package categories provides the categories command implementation.
package categories

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/achievesync/internal/appcontext"
	"github.com/agentstation/achievesync/internal/cmd/output"
	"github.com/agentstation/achievesync/internal/imports"
)

// NewCommand creates the categories command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cats"},
		GroupID: "management",
		Short:   "List the categories of the catalog",
		Long: `Categories lists the category catalogs found in the categories directory.
Only these categories can be initialized, imported and synced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ExecuteCategories(app, cmd.OutOrStdout())
		},
	}
}

// ExecuteCategories renders the catalog categories.
func ExecuteCategories(app appcontext.Interface, w io.Writer) error {
	names, err := imports.NewCatalog(app.Settings().CategoriesDir).Categories()
	if err != nil {
		return err
	}
	if names == nil {
		names = []string{}
	}

	format := output.Format(app.OutputFormat())
	return output.Write(w, format, output.ListToTableData("Category", names), names)
}
