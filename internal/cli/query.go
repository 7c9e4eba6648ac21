package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memstore/internal/model"
	"github.com/rcliao/memstore/internal/module"
)

func init() {
	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Search records by substring",
		Long: "Case-insensitive substring search. With one --category the matches come back " +
			"in insertion order; otherwise matches across categories are merged newest first.",
		Args: cobra.MinimumNArgs(1),
		Run:  runQuery,
	}

	cmd.Flags().StringSliceP("category", "c", nil, "Category to search (repeatable; default all)")
	cmd.Flags().IntP("limit", "l", module.DefaultLimit, "Max results")

	RootCmd.AddCommand(cmd)
}

func runQuery(cmd *cobra.Command, args []string) {
	categories, _ := cmd.Flags().GetStringSlice("category")
	limit, _ := cmd.Flags().GetInt("limit")
	text := strings.Join(args, " ")

	m, err := openManager(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer m.Close()

	var results []model.Record
	if len(categories) == 1 {
		results = m.Query(categories[0], text, limit)
	} else {
		results = m.FindRelevant(text, categories, limit)
	}
	output(results, func() string { return renderRecords(results) })
}
