package memory

import (
	"sort"

	"github.com/rcliao/memstore/internal/model"
	"github.com/rcliao/memstore/internal/module"
)

// Query searches a single category. An unknown category yields an empty
// result. A negative limit selects module.DefaultLimit.
func (m *Manager) Query(category, text string, limit int) []model.Record {
	mod, ok := m.modules[category]
	if !ok {
		return []model.Record{}
	}
	return mod.Query(text, limit)
}

// FindRelevant searches the given categories (all registered ones when
// empty) and returns up to limit matches, newest first. Each category
// contributes at most limit matches in its own insertion order before the
// merge, so an old match can crowd out a newer one within a category. A
// negative limit selects module.DefaultLimit; zero returns nothing.
func (m *Manager) FindRelevant(text string, categories []string, limit int) []model.Record {
	if limit < 0 {
		limit = module.DefaultLimit
	}
	if limit == 0 {
		return []model.Record{}
	}
	if len(categories) == 0 {
		categories = m.categoryNames()
	}

	results := []model.Record{}
	for _, name := range categories {
		mod, ok := m.modules[name]
		if !ok {
			continue
		}
		results = append(results, mod.Query(text, limit)...)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt > results[j].CreatedAt
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (m *Manager) categoryNames() []string {
	names := make([]string, len(m.categories))
	for i, c := range m.categories {
		names[i] = c.Name
	}
	return names
}
