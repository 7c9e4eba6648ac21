// Package classify maps free text to category names.
package classify

import (
	"strings"

	"github.com/rcliao/memstore/internal/model"
)

// Classifier tags text with zero or more category names. Implementations
// must be pure: the same text always yields the same ordered names.
type Classifier interface {
	Categorize(text string) []string
}

// Rule tags text with Category when any keyword occurs in it.
type Rule struct {
	Category string
	Keywords []string
}

// KeywordClassifier applies rules in registration order. Keywords are
// matched as lower-case substrings of the lower-cased text.
type KeywordClassifier struct {
	rules    []Rule
	fallback string
}

// NewKeywordClassifier builds a classifier from the categories that carry
// keywords, in table order. Text matching no rule is tagged generic.
func NewKeywordClassifier(categories []model.Category) *KeywordClassifier {
	c := &KeywordClassifier{fallback: model.Generic}
	for _, cat := range categories {
		if len(cat.Keywords) > 0 {
			c.Register(cat.Name, cat.Keywords...)
		}
	}
	return c
}

// Register adds keywords for category. A category that already has a rule
// keeps its position and gains the new keywords.
func (c *KeywordClassifier) Register(category string, keywords ...string) {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(kw); kw != "" {
			lowered = append(lowered, kw)
		}
	}
	if len(lowered) == 0 {
		return
	}
	for i := range c.rules {
		if c.rules[i].Category == category {
			c.rules[i].Keywords = append(c.rules[i].Keywords, lowered...)
			return
		}
	}
	c.rules = append(c.rules, Rule{Category: category, Keywords: lowered})
}

// Rules returns a copy of the rule table.
func (c *KeywordClassifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = Rule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// Categorize returns the matching categories in rule order, or exactly
// ["generic"] when nothing matches.
func (c *KeywordClassifier) Categorize(text string) []string {
	lower := strings.ToLower(text)
	var tags []string
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				tags = append(tags, r.Category)
				break
			}
		}
	}
	if len(tags) == 0 {
		return []string{c.fallback}
	}
	return tags
}
