// Package module holds one category's records in memory, mirrored to a store.
package module

import (
	"context"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/rcliao/memstore/internal/model"
	"github.com/rcliao/memstore/internal/store"
)

// DefaultLimit is used when a query passes a negative limit.
const DefaultLimit = 10

// Module is a named, append-only collection of records. The in-memory list
// always equals what was last persisted: a record is only added to it after
// the store accepted the full list.
type Module struct {
	name  string
	kind  model.Kind
	store store.Store
	newID model.IDGenerator

	mu    sync.RWMutex
	items []model.Record
}

// New loads every record persisted for name. A nil newID selects ULIDs.
func New(ctx context.Context, name string, kind model.Kind, s store.Store, newID model.IDGenerator) (*Module, error) {
	items, err := s.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		kind = model.KindGeneric
	}
	if newID == nil {
		newID, _ = model.NewIDGenerator(model.IDSchemeULID)
	}
	return &Module{name: name, kind: kind, store: s, newID: newID, items: items}, nil
}

// Name returns the category name.
func (m *Module) Name() string { return m.name }

// Kind returns how ingested fragments are shaped for this category.
func (m *Module) Kind() model.Kind { return m.kind }

// Add stores content with a copy of metadata and returns the new record.
func (m *Module) Add(ctx context.Context, content string, metadata map[string]any) (model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := model.NewRecord(m.newID(), m.name, content, maps.Clone(metadata))

	next := make([]model.Record, len(m.items), len(m.items)+1)
	copy(next, m.items)
	next = append(next, r)
	if err := m.store.Save(ctx, m.name, next); err != nil {
		return model.Record{}, err
	}
	m.items = next
	return r, nil
}

// Import appends an existing record, keeping its ID, timestamp and metadata
// but filing it under this module's name. A record whose ID is already
// stored is skipped and reported as false.
func (m *Module) Import(ctx context.Context, r model.Record) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = m.newID()
	}
	for _, existing := range m.items {
		if existing.ID == r.ID {
			return false, nil
		}
	}
	r.Type = m.name
	r.Metadata = maps.Clone(r.Metadata)
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = model.Timestamp(time.Now())
	}

	if err := m.store.Append(ctx, m.name, r); err != nil {
		return false, err
	}
	m.items = append(m.items, r)
	return true, nil
}

// AddTurn stores one conversation turn. Conversation modules record the
// speaker under metadata["speaker"], replacing any caller value; other kinds
// store the text as a plain record.
func (m *Module) AddTurn(ctx context.Context, speaker, text string, metadata map[string]any) (model.Record, error) {
	if m.kind != model.KindConversation {
		return m.Add(ctx, text, metadata)
	}
	return m.Add(ctx, text, withKey(metadata, "speaker", speaker))
}

// AddDocument stores a document body. Document modules record the title
// under metadata["title"], replacing any caller value; other kinds store the
// text as a plain record.
func (m *Module) AddDocument(ctx context.Context, title, text string, metadata map[string]any) (model.Record, error) {
	if m.kind != model.KindDocument {
		return m.Add(ctx, text, metadata)
	}
	return m.Add(ctx, text, withKey(metadata, "title", title))
}

// Query returns up to limit records whose content contains q, compared
// case-insensitively. Matches come back in insertion order, so the first
// limit matches win regardless of age.
func (m *Module) Query(q string, limit int) []model.Record {
	if limit < 0 {
		limit = DefaultLimit
	}
	ql := strings.ToLower(q)

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := []model.Record{}
	for _, r := range m.items {
		if len(results) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(r.Content), ql) {
			results = append(results, r)
		}
	}
	return results
}

// All returns a copy of every record in insertion order.
func (m *Module) All() []model.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Record, len(m.items))
	copy(out, m.items)
	return out
}

// Len returns the number of stored records.
func (m *Module) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func withKey(metadata map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(metadata)+1)
	maps.Copy(out, metadata)
	out[key] = value
	return out
}
