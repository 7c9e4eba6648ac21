package memory

import (
	"github.com/rcliao/memstore/internal/model"
)

// DefaultBudget is the token budget used when neither ContextParams nor
// WithContextBudget set one.
const DefaultBudget = 2000

const (
	contextCandidates = 50
	minExcerptTokens  = 25
)

// ContextParams holds parameters for context assembly.
type ContextParams struct {
	Query      string
	Categories []string
	Budget     int // tokens; <= 0 uses the manager's budget
}

// ContextRecord is a record selected for context output.
type ContextRecord struct {
	Category string  `json:"category"`
	ID       string  `json:"id"`
	Content  string  `json:"content"`
	Tokens   int     `json:"tokens"`
	Created  float64 `json:"created_at"`
	Excerpt  bool    `json:"excerpt,omitempty"`
}

// ContextResult is the assembled context response.
type ContextResult struct {
	Budget  int             `json:"budget"`
	Used    int             `json:"used"`
	Records []ContextRecord `json:"records"`
}

// Context assembles the newest records matching p.Query into p.Budget
// tokens. Records are packed whole while they fit; the first record that
// does not fit is cut to the remaining budget if at least a few tokens are
// left, and packing stops there.
func (m *Manager) Context(p ContextParams) *ContextResult {
	budget := p.Budget
	if budget <= 0 {
		budget = m.budget
	}
	result := &ContextResult{Budget: budget, Records: []ContextRecord{}}

	used := 0
	for _, r := range m.FindRelevant(p.Query, p.Categories, contextCandidates) {
		n := m.counter.Count(r.Content)
		if used+n <= budget {
			result.Records = append(result.Records, contextRecord(r, r.Content, n, false))
			used += n
			continue
		}
		if remaining := budget - used; remaining >= minExcerptTokens {
			excerpt := m.truncate(r.Content, remaining)
			n = m.counter.Count(excerpt)
			result.Records = append(result.Records, contextRecord(r, excerpt, n, true))
			used += n
		}
		break
	}
	result.Used = used
	return result
}

func contextRecord(r model.Record, content string, tokens int, excerpt bool) ContextRecord {
	return ContextRecord{
		Category: r.Type,
		ID:       r.ID,
		Content:  content,
		Tokens:   tokens,
		Created:  r.CreatedAt,
		Excerpt:  excerpt,
	}
}

// truncate returns the longest prefix of s, cut on a rune boundary and
// suffixed with "...", that counts at most max tokens.
func (m *Manager) truncate(s string, max int) string {
	runes := []rune(s)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if m.counter.Count(string(runes[:mid])+"...") <= max {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return string(runes[:lo]) + "..."
}
