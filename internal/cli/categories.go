package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memstore/internal/memory"
	"github.com/rcliao/memstore/internal/model"
)

type categoryRow struct {
	Name     string     `json:"name"`
	Kind     model.Kind `json:"kind"`
	Keywords []string   `json:"keywords"`
	Count    int        `json:"count"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories with their kinds and record counts",
		Args:  cobra.NoArgs,
		Run:   runCategories,
	}

	RootCmd.AddCommand(cmd)
}

func runCategories(cmd *cobra.Command, args []string) {
	m, err := openManager(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer m.Close()

	warnings, err := unregisteredWarnings(cmd.Context(), m)
	if err != nil {
		exitErr("categories", err)
	}
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, warnStyle.Render("warning: "+w))
	}

	rows := []categoryRow{}
	for _, c := range m.Categories() {
		mod, _ := m.Module(c.Name)
		keywords := c.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		rows = append(rows, categoryRow{Name: c.Name, Kind: c.Kind, Keywords: keywords, Count: mod.Len()})
	}

	output(rows, func() string {
		lines := make([]string, len(rows))
		for i, r := range rows {
			lines[i] = fmt.Sprintf("%s %s %s",
				headerStyle.Render(fmt.Sprintf("%-16s", r.Name)),
				dimStyle.Render(fmt.Sprintf("%-13s", r.Kind)),
				countStyle.Render(fmt.Sprint(r.Count)))
		}
		return strings.Join(lines, "\n")
	})
}

// unregisteredWarnings describes stored categories whose records no command
// can reach until they are registered.
func unregisteredWarnings(ctx context.Context, m *memory.Manager) ([]string, error) {
	names, err := m.Unregistered(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = fmt.Sprintf("category %q has stored records but is not registered; add it to categories in the config", name)
	}
	return out, nil
}
