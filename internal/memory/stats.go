package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/rcliao/memstore/internal/model"
)

// Stats holds record counts.
type Stats struct {
	TotalRecords int             `json:"total_records"`
	Categories   []CategoryStats `json:"categories"`
}

// CategoryStats holds per-category counts.
type CategoryStats struct {
	Category string     `json:"category"`
	Kind     model.Kind `json:"kind"`
	Count    int        `json:"count"`
}

// Stats returns record counts per category in registration order.
func (m *Manager) Stats() *Stats {
	st := &Stats{Categories: make([]CategoryStats, 0, len(m.categories))}
	for _, c := range m.categories {
		n := m.modules[c.Name].Len()
		st.Categories = append(st.Categories, CategoryStats{Category: c.Name, Kind: c.Kind, Count: n})
		st.TotalRecords += n
	}
	return st
}

// Export returns every record of the selected categories (all when empty),
// grouped by category in registration order. Unknown names are ignored.
func (m *Manager) Export(categories []string) []model.Record {
	out := []model.Record{}
	for _, c := range m.categories {
		if len(categories) > 0 && !slices.Contains(categories, c.Name) {
			continue
		}
		out = append(out, m.modules[c.Name].All()...)
	}
	return out
}

// Import restores exported records into their categories, keeping IDs and
// timestamps. Records of unknown categories go to generic and records whose
// ID is already stored are skipped. The counts cover imported records only.
func (m *Manager) Import(ctx context.Context, records []model.Record) (map[string]int, error) {
	counts := m.emptyCounts()
	for _, r := range records {
		mod := m.route(r.Type)
		added, err := mod.Import(ctx, r)
		if err != nil {
			return counts, fmt.Errorf("import into %s: %w", mod.Name(), err)
		}
		if added {
			counts[mod.Name()]++
		}
	}
	return counts, nil
}
