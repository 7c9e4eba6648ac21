package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/memstore/internal/model"
)

// FileStore keeps one JSON file per category, <dir>/<category>.json, holding
// a JSON array of records. Every save rewrites the whole file through a
// temporary file and a rename.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Path returns the backing file for category.
func (s *FileStore) Path(category string) string {
	return filepath.Join(s.dir, category+".json")
}

func (s *FileStore) Load(_ context.Context, category string) ([]model.Record, error) {
	path := s.Path(category)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []model.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptStore, path, err)
	}
	// A literal null decodes without error but is not an array.
	if raw == nil && !bytes.Equal(bytes.TrimSpace(data), []byte("[]")) {
		return nil, fmt.Errorf("%w: %s: not a JSON array", ErrCorruptStore, path)
	}

	records := make([]model.Record, 0, len(raw))
	for i, elem := range raw {
		var r model.Record
		if bytes.Equal(bytes.TrimSpace(elem), []byte("null")) {
			return nil, fmt.Errorf("%w: %s: record %d is null", ErrCorruptStore, path, i)
		}
		if err := json.Unmarshal(elem, &r); err != nil {
			return nil, fmt.Errorf("%w: %s: record %d: %v", ErrCorruptStore, path, i, err)
		}
		if r.ID == "" {
			return nil, fmt.Errorf("%w: %s: record %d has no id", ErrCorruptStore, path, i)
		}
		if r.Metadata == nil {
			r.Metadata = map[string]any{}
		}
		records = append(records, r)
	}
	return records, nil
}

func (s *FileStore) Save(_ context.Context, category string, records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode %s: %w", category, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	path := s.Path(category)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}

	s.logger.Debug("saved category", zap.String("category", category), zap.Int("count", len(records)), zap.String("path", path))
	return nil
}

func (s *FileStore) Append(ctx context.Context, category string, r model.Record) error {
	records, err := s.Load(ctx, category)
	if err != nil {
		return err
	}
	return s.Save(ctx, category, append(records, r))
}

// Quarantine renames the category file to <category>.json.corrupt-<unix>.
func (s *FileStore) Quarantine(_ context.Context, category string) (string, error) {
	path := s.Path(category)
	dest := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
	if err := os.Rename(path, dest); err != nil {
		return "", fmt.Errorf("quarantine %s: %w", path, err)
	}
	s.logger.Warn("quarantined corrupt category file", zap.String("category", category), zap.String("path", dest))
	return dest, nil
}

// Categories lists the categories that have a file in the store directory.
func (s *FileStore) Categories(_ context.Context) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(m), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) Close() error { return nil }
