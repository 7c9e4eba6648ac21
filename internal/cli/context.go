package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memstore/internal/memory"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context [description]",
		Short: "Assemble recent matching records for a task",
		Long:  "Find matching records, newest first, and greedily pack them into a token budget.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runContext,
	}

	cmd.Flags().StringSliceP("category", "c", nil, "Category to draw from (repeatable; default all)")
	cmd.Flags().IntP("budget", "b", 0, "Max tokens in output (default: context.budget)")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	categories, _ := cmd.Flags().GetStringSlice("category")
	budget, _ := cmd.Flags().GetInt("budget")
	query := strings.Join(args, " ")

	m, err := openManager(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer m.Close()

	result := m.Context(memory.ContextParams{
		Query:      query,
		Categories: categories,
		Budget:     budget,
	})

	output(result, func() string {
		blocks := make([]string, 0, len(result.Records)+1)
		for _, r := range result.Records {
			blocks = append(blocks, headerStyle.Render(r.Category)+" "+dimStyle.Render(r.ID)+"\n"+r.Content)
		}
		blocks = append(blocks, dimStyle.Render(fmt.Sprintf("%d/%d tokens", result.Used, result.Budget)))
		return strings.Join(blocks, "\n\n")
	})
}
