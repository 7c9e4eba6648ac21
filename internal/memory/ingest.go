package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/rcliao/memstore/internal/chunker"
	"github.com/rcliao/memstore/internal/model"
	"github.com/rcliao/memstore/internal/module"
)

const (
	defaultSpeaker = "user"
	defaultTitle   = "ingested"
)

// IngestLines classifies every non-blank line of text and stores it once per
// matched category. The returned counts have an entry for every registered
// category.
func (m *Manager) IngestLines(ctx context.Context, text string) (map[string]int, error) {
	counts := m.emptyCounts()
	for _, line := range splitLines(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, tag := range m.classifier.Categorize(line) {
			mod := m.route(tag)
			if err := addLine(ctx, mod, line); err != nil {
				return counts, fmt.Errorf("ingest into %s: %w", mod.Name(), err)
			}
			counts[mod.Name()]++
		}
	}
	m.logger.Debug("ingested lines", zap.Any("count", counts))
	return counts, nil
}

func addLine(ctx context.Context, mod *module.Module, line string) error {
	var err error
	switch mod.Kind() {
	case model.KindConversation:
		speaker, utterance := splitSpeaker(line)
		_, err = mod.AddTurn(ctx, speaker, utterance, nil)
	case model.KindDocument:
		_, err = mod.AddDocument(ctx, defaultTitle, line, nil)
	default:
		_, err = mod.Add(ctx, line, nil)
	}
	return err
}

// splitLines splits text on every line boundary: \n, \r, \r\n, vertical
// tab, form feed, the file/group/record separators, NEL and the Unicode line
// and paragraph separators. Empty lines are dropped.
func splitLines(text string) []string {
	return strings.FieldsFunc(text, isLineBreak)
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// splitSpeaker splits "Alice: hello" on the first colon. A line without a
// colon is attributed to the user.
func splitSpeaker(line string) (string, string) {
	speaker, utterance, ok := strings.Cut(line, ":")
	if !ok {
		return defaultSpeaker, line
	}
	return strings.TrimSpace(speaker), strings.TrimSpace(utterance)
}

// structuredSchema accepts any object; the item lists and their fields are
// optional and may be null.
const structuredSchema = `{
  "type": "object",
  "definitions": {
    "item": {
      "type": "object",
      "properties": {
        "type":     {"type": ["string", "null"]},
        "mem_type": {"type": ["string", "null"]},
        "content":  {"type": ["string", "null"]},
        "summary":  {"type": ["string", "null"]},
        "metadata": {"type": ["object", "null"]}
      }
    },
    "items": {
      "type": ["array", "null"],
      "items": {"$ref": "#/definitions/item"}
    }
  },
  "properties": {
    "items":   {"$ref": "#/definitions/items"},
    "results": {"$ref": "#/definitions/items"}
  }
}`

var structuredValidator = mustSchema(structuredSchema)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("compile structured schema: %v", err))
	}
	return schema
}

type structuredChunk struct {
	Items   []structuredItem `json:"items"`
	Results []structuredItem `json:"results"`
}

type structuredItem struct {
	Type     string         `json:"type"`
	MemType  string         `json:"mem_type"`
	Content  string         `json:"content"`
	Summary  string         `json:"summary"`
	Metadata map[string]any `json:"metadata"`
}

func validateStructured(jsonText string) error {
	if !json.Valid([]byte(jsonText)) {
		return fmt.Errorf("%w: not valid JSON", ErrInvalidFormat)
	}
	result, err := structuredValidator.Validate(gojsonschema.NewStringLoader(jsonText))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidFormat, strings.Join(errs, "; "))
	}
	return nil
}

// IngestStructured stores the entries of a JSON object carrying an "items"
// or "results" list, as produced by a memory model. Entries name their
// category in "type" (or "mem_type"); unknown categories go to generic.
func (m *Manager) IngestStructured(ctx context.Context, jsonText string) (map[string]int, error) {
	if err := validateStructured(jsonText); err != nil {
		return nil, err
	}
	var chunk structuredChunk
	if err := json.Unmarshal([]byte(jsonText), &chunk); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	items := chunk.Items
	if len(items) == 0 {
		items = chunk.Results
	}

	counts := m.emptyCounts()
	for _, it := range items {
		typ := firstNonEmpty(it.Type, it.MemType, model.Generic)
		content := firstNonEmpty(it.Content, it.Summary)
		metadata := it.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}

		mod := m.route(typ)
		var err error
		switch mod.Kind() {
		case model.KindConversation:
			_, err = mod.AddTurn(ctx, stringField(metadata, "speaker", defaultSpeaker), content, metadata)
		case model.KindDocument:
			_, err = mod.AddDocument(ctx, stringField(metadata, "title", defaultTitle), content, metadata)
		default:
			_, err = mod.Add(ctx, content, metadata)
		}
		if err != nil {
			return counts, fmt.Errorf("ingest into %s: %w", mod.Name(), err)
		}
		counts[mod.Name()]++
	}
	m.logger.Debug("ingested structured items", zap.Int("count", len(items)))
	return counts, nil
}

// IngestDocument splits text into chunks and stores each one in the
// documents category under title, recording the chunk index and line span.
func (m *Manager) IngestDocument(ctx context.Context, title, text string) ([]model.Record, error) {
	mod := m.route(model.Documents)
	if title == "" {
		title = defaultTitle
	}
	chunks := chunker.Split(text, m.chunkOpts)
	records := make([]model.Record, 0, len(chunks))
	for i, c := range chunks {
		r, err := mod.AddDocument(ctx, title, c.Text, map[string]any{
			"chunk":      i,
			"start_line": c.StartLine,
			"end_line":   c.EndLine,
		})
		if err != nil {
			return records, fmt.Errorf("ingest document %q: %w", title, err)
		}
		records = append(records, r)
	}
	m.logger.Debug("ingested document",
		zap.String("category", mod.Name()), zap.String("title", title), zap.Int("count", len(records)))
	return records, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// stringField returns metadata[key] as a string, or def when the key is
// absent or null.
func stringField(metadata map[string]any, key, def string) string {
	v, ok := metadata[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
