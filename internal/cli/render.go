package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rcliao/memstore/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	countStyle  = lipgloss.NewStyle().Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

func renderRecords(records []model.Record) string {
	if len(records) == 0 {
		return dimStyle.Render("(no records)")
	}
	blocks := make([]string, 0, len(records))
	for _, r := range records {
		header := headerStyle.Render(r.Type) + " " +
			dimStyle.Render(r.ID+"  "+r.Time().Format(time.DateTime))
		if meta := renderMetadata(r.Metadata); meta != "" {
			header += " " + dimStyle.Render(meta)
		}
		blocks = append(blocks, header+"\n"+r.Content)
	}
	return strings.Join(blocks, "\n\n")
}

func renderMetadata(metadata map[string]any) string {
	if len(metadata) == 0 {
		return ""
	}
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, metadata[k])
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// renderCounts lists non-zero counts in the given category order.
func renderCounts(order []model.Category, counts map[string]int) string {
	var lines []string
	total := 0
	for _, c := range order {
		if n := counts[c.Name]; n > 0 {
			lines = append(lines, fmt.Sprintf("%-16s %s", c.Name, countStyle.Render(fmt.Sprint(n))))
			total += n
		}
	}
	if total == 0 {
		return dimStyle.Render("nothing stored")
	}
	return strings.Join(lines, "\n")
}
