package model

import (
	"errors"
	"fmt"
	"strings"
)

// Built-in categories.
const (
	Conversations = "conversations"
	Documents     = "documents"
	CrashReport   = "crashreport"
	Reminders     = "reminders"
	Generic       = "generic"
)

// Kind decides how an ingested fragment is shaped before it is stored.
type Kind string

const (
	KindGeneric      Kind = "generic"
	KindConversation Kind = "conversation"
	KindDocument     Kind = "document"
)

// ValidKinds are the allowed category kinds.
var ValidKinds = map[Kind]bool{
	KindGeneric:      true,
	KindConversation: true,
	KindDocument:     true,
}

// ErrInvalidCategory is returned for category names that cannot back a store.
var ErrInvalidCategory = errors.New("invalid category")

// Category is one entry of the category registration table.
type Category struct {
	Name     string   `json:"name" yaml:"name" mapstructure:"name"`
	Kind     Kind     `json:"kind" yaml:"kind" mapstructure:"kind"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty" mapstructure:"keywords"`
}

// Validate checks the name and kind.
func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidCategory)
	}
	if strings.ContainsAny(c.Name, `/\`) || c.Name == "." || c.Name == ".." {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidCategory, c.Name)
	}
	if c.Kind != "" && !ValidKinds[c.Kind] {
		return fmt.Errorf("%w: %q has unknown kind %q (valid: generic, conversation, document)", ErrInvalidCategory, c.Name, c.Kind)
	}
	return nil
}

// DefaultCategories returns the built-in registration table. The keyword
// lists drive the default classifier and are matched in this order.
func DefaultCategories() []Category {
	return []Category{
		{Name: Conversations, Kind: KindConversation, Keywords: []string{"said", "asked", "reply", "conversation", "chat"}},
		{Name: Documents, Kind: KindDocument, Keywords: []string{"document", "report", "article", "paper", "notes"}},
		{Name: CrashReport, Kind: KindGeneric, Keywords: []string{"error", "traceback", "crash", "exception"}},
		{Name: Reminders, Kind: KindGeneric, Keywords: []string{"remind", "reminder", "remember to"}},
		{Name: Generic, Kind: KindGeneric},
	}
}

// MergeCategories appends extra to base. An extra entry whose name already
// exists replaces that entry's kind (when set) and adds its keywords, keeping
// the original position.
func MergeCategories(base, extra []Category) ([]Category, error) {
	out := make([]Category, 0, len(base)+len(extra))
	index := map[string]int{}
	for _, c := range base {
		if c.Kind == "" {
			c.Kind = KindGeneric
		}
		index[c.Name] = len(out)
		out = append(out, c)
	}
	for _, c := range extra {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if i, ok := index[c.Name]; ok {
			if c.Kind != "" {
				out[i].Kind = c.Kind
			}
			out[i].Keywords = append(append([]string(nil), out[i].Keywords...), c.Keywords...)
			continue
		}
		if c.Kind == "" {
			c.Kind = KindGeneric
		}
		index[c.Name] = len(out)
		out = append(out, c)
	}
	return out, nil
}
