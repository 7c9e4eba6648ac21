package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/rcliao/memstore/internal/model"
)

// SQLiteStore implements Store with every category in a single SQLite
// database. Rows keep their insertion order through a per-category seq.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &SQLiteStore{db: db, path: dbPath, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		category   TEXT NOT NULL,
		seq        INTEGER NOT NULL,
		id         TEXT NOT NULL,
		type       TEXT NOT NULL,
		content    TEXT NOT NULL,
		metadata   TEXT NOT NULL DEFAULT '{}',
		created_at REAL NOT NULL,
		PRIMARY KEY (category, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_records_id ON records(category, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Load(ctx context.Context, category string) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, content, metadata, created_at FROM records
		 WHERE category = ? ORDER BY seq`, category)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", category, err)
	}
	defer rows.Close()

	records := []model.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptStore, category, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *SQLiteStore) Save(ctx context.Context, category string, records []model.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE category = ?`, category); err != nil {
		return fmt.Errorf("clear %s: %w", category, err)
	}
	for i, r := range records {
		if err := insertRecord(ctx, tx, category, i, r); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Debug("saved category", zap.String("category", category), zap.Int("count", len(records)), zap.String("path", s.path))
	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, category string, r model.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), -1) + 1 FROM records WHERE category = ?`, category).Scan(&next)
	if err != nil {
		return fmt.Errorf("next seq: %w", err)
	}
	if err := insertRecord(ctx, tx, category, next, r); err != nil {
		return err
	}
	return tx.Commit()
}

// Categories lists the category names that have at least one stored record.
func (s *SQLiteStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM records ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func insertRecord(ctx context.Context, tx *sql.Tx, category string, seq int, r model.Record) error {
	meta := r.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata for %s: %w", r.ID, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO records (category, seq, id, type, content, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		category, seq, r.ID, r.Type, r.Content, string(b), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (model.Record, error) {
	var r model.Record
	var meta string
	if err := row.Scan(&r.ID, &r.Type, &r.Content, &meta, &r.CreatedAt); err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(meta), &r.Metadata); err != nil {
		return r, fmt.Errorf("decode metadata for %s: %w", r.ID, err)
	}
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	return r, nil
}
