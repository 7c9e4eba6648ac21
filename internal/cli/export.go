package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export records as JSON",
		Long:  "Export every record of the selected categories, grouped by category. The output can be restored with import.",
		Args:  cobra.NoArgs,
		Run:   runExport,
	}

	cmd.Flags().StringSliceP("category", "c", nil, "Category to export (repeatable; default all)")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	categories, _ := cmd.Flags().GetStringSlice("category")

	m, err := openManager(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer m.Close()

	output(m.Export(categories), nil)
}
