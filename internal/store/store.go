// Package store persists category record collections.
package store

import (
	"context"
	"errors"

	"github.com/rcliao/memstore/internal/model"
)

// ErrCorruptStore is returned when persisted data for a category exists but
// cannot be decoded as a list of records.
var ErrCorruptStore = errors.New("corrupt store")

// Store loads and saves whole category collections.
type Store interface {
	// Load returns every record persisted for category, in insertion order.
	// A category with nothing persisted yields an empty slice.
	Load(ctx context.Context, category string) ([]model.Record, error)

	// Save replaces the category's persisted records. Readers never observe
	// a partially written collection.
	Save(ctx context.Context, category string, records []model.Record) error

	// Append adds one record to the end of the category's collection.
	Append(ctx context.Context, category string, r model.Record) error

	// Close releases any resources held by the store.
	Close() error
}

// Quarantiner is implemented by stores that can move a corrupt category aside
// so that it can be started empty.
type Quarantiner interface {
	// Quarantine moves the category's data out of the way and returns where
	// it went.
	Quarantine(ctx context.Context, category string) (string, error)
}

// Lister is implemented by stores that can enumerate the categories they
// hold data for.
type Lister interface {
	Categories(ctx context.Context) ([]string, error)
}

// Backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)
