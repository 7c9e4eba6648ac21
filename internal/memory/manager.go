// Package memory routes text into category modules and answers queries
// across them.
package memory

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rcliao/memstore/internal/chunker"
	"github.com/rcliao/memstore/internal/classify"
	"github.com/rcliao/memstore/internal/llm"
	"github.com/rcliao/memstore/internal/model"
	"github.com/rcliao/memstore/internal/module"
	"github.com/rcliao/memstore/internal/store"
	"github.com/rcliao/memstore/internal/tokenizer"
)

var (
	// ErrInvalidFormat is returned when structured input is not JSON or is
	// not an object of the expected shape.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrUnconfiguredAdapter is returned by model-assisted operations when no
	// generator or model name has been configured.
	ErrUnconfiguredAdapter = errors.New("llm adapter or model name not configured")

	// ErrUnknownCategory is returned by Records for a name that is not
	// registered.
	ErrUnknownCategory = errors.New("unknown category")
)

// Manager owns one module per registered category.
type Manager struct {
	store      store.Store
	classifier classify.Classifier
	categories []model.Category
	modules    map[string]*module.Module

	extra       []model.Category
	logger      *zap.Logger
	generator   llm.Generator
	chatModel   string
	memoryModel string
	quarantine  bool
	counter     tokenizer.Counter
	budget      int
	newID       model.IDGenerator
	chunkOpts   chunker.Options

	warnings []string
}

// Option configures a Manager.
type Option func(*Manager)

// WithClassifier replaces the keyword classifier built from the category
// table.
func WithClassifier(c classify.Classifier) Option {
	return func(m *Manager) { m.classifier = c }
}

// WithCategories registers categories beyond the built-in ones. A name that
// already exists updates its kind and gains the keywords.
func WithCategories(cats []model.Category) Option {
	return func(m *Manager) { m.extra = cats }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithGenerator enables model-assisted operations. chatModel serves
// ChatGenerate and memoryModel serves IngestWithModel; either may be empty,
// which leaves the matching operation unconfigured.
func WithGenerator(g llm.Generator, chatModel, memoryModel string) Option {
	return func(m *Manager) {
		m.generator = g
		m.chatModel = chatModel
		m.memoryModel = memoryModel
	}
}

// WithQuarantine makes NewManager move corrupt category data aside and start
// the category empty instead of failing. It only applies to stores that
// implement store.Quarantiner.
func WithQuarantine(enabled bool) Option {
	return func(m *Manager) { m.quarantine = enabled }
}

func WithTokenizer(c tokenizer.Counter) Option {
	return func(m *Manager) {
		if c != nil {
			m.counter = c
		}
	}
}

// WithContextBudget sets the token budget Context uses when its params carry
// none.
func WithContextBudget(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.budget = n
		}
	}
}

func WithIDGenerator(g model.IDGenerator) Option {
	return func(m *Manager) { m.newID = g }
}

func WithChunkOptions(o chunker.Options) Option {
	return func(m *Manager) { m.chunkOpts = o }
}

// NewManager loads every registered category from s.
func NewManager(ctx context.Context, s store.Store, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:     s,
		modules:   make(map[string]*module.Module),
		logger:    zap.NewNop(),
		counter:   tokenizer.Approx{},
		budget:    DefaultBudget,
		chunkOpts: chunker.DefaultOptions(),
	}
	for _, o := range opts {
		o(m)
	}

	cats, err := model.MergeCategories(model.DefaultCategories(), m.extra)
	if err != nil {
		return nil, fmt.Errorf("register categories: %w", err)
	}
	m.categories = cats
	if m.classifier == nil {
		m.classifier = classify.NewKeywordClassifier(cats)
	}

	for _, cat := range cats {
		mod, err := m.loadModule(ctx, cat)
		if err != nil {
			return nil, err
		}
		m.modules[cat.Name] = mod
	}
	return m, nil
}

func (m *Manager) loadModule(ctx context.Context, cat model.Category) (*module.Module, error) {
	mod, err := module.New(ctx, cat.Name, cat.Kind, m.store, m.newID)
	if err == nil {
		return mod, nil
	}
	q, ok := m.store.(store.Quarantiner)
	if !m.quarantine || !ok || !errors.Is(err, store.ErrCorruptStore) {
		return nil, fmt.Errorf("load category %s: %w", cat.Name, err)
	}

	dest, qerr := q.Quarantine(ctx, cat.Name)
	if qerr != nil {
		return nil, fmt.Errorf("quarantine category %s: %w", cat.Name, errors.Join(err, qerr))
	}
	m.logger.Warn("corrupt category moved aside",
		zap.String("category", cat.Name), zap.String("path", dest), zap.Error(err))
	m.warnings = append(m.warnings, fmt.Sprintf("category %s was corrupt and moved to %s", cat.Name, dest))

	mod, err = module.New(ctx, cat.Name, cat.Kind, m.store, m.newID)
	if err != nil {
		return nil, fmt.Errorf("load category %s: %w", cat.Name, err)
	}
	return mod, nil
}

// Warnings reports problems recovered from while loading, such as
// quarantined categories.
func (m *Manager) Warnings() []string {
	return append([]string(nil), m.warnings...)
}

// Categories returns the registered categories in registration order.
func (m *Manager) Categories() []model.Category {
	out := make([]model.Category, len(m.categories))
	for i, c := range m.categories {
		out[i] = model.Category{Name: c.Name, Kind: c.Kind, Keywords: append([]string(nil), c.Keywords...)}
	}
	return out
}

// Module returns the module for a registered category.
func (m *Manager) Module(name string) (*module.Module, bool) {
	mod, ok := m.modules[name]
	return mod, ok
}

// All returns every record of category in insertion order. An unknown
// category yields an empty slice.
func (m *Manager) All(category string) []model.Record {
	mod, ok := m.modules[category]
	if !ok {
		return []model.Record{}
	}
	return mod.All()
}

// Records is All for callers that need to tell an unregistered category
// from an empty one.
func (m *Manager) Records(category string) ([]model.Record, error) {
	mod, ok := m.modules[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return mod.All(), nil
}

// Unregistered lists categories that have stored data but are not
// registered, so their records are unreachable. Stores that cannot list
// their categories report none.
func (m *Manager) Unregistered(ctx context.Context) ([]string, error) {
	lister, ok := m.store.(store.Lister)
	if !ok {
		return []string{}, nil
	}
	stored, err := lister.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored categories: %w", err)
	}
	out := []string{}
	for _, name := range stored {
		if _, ok := m.modules[name]; !ok {
			out = append(out, name)
		}
	}
	return out, nil
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}

// route returns the module for a category tag, falling back to generic.
func (m *Manager) route(tag string) *module.Module {
	if mod, ok := m.modules[tag]; ok {
		return mod
	}
	return m.modules[model.Generic]
}

func (m *Manager) emptyCounts() map[string]int {
	counts := make(map[string]int, len(m.categories))
	for _, c := range m.categories {
		counts[c.Name] = 0
	}
	return counts
}
