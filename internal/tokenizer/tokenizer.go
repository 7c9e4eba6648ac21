// Package tokenizer counts tokens for context budgeting.
package tokenizer

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// DefaultEncoding is the tiktoken encoding used when none is configured.
const DefaultEncoding = "cl100k_base"

// Counter counts the tokens in a piece of text.
type Counter interface {
	Count(text string) int
}

// Approx estimates one token per four bytes, rounding up.
type Approx struct{}

func (Approx) Count(text string) int {
	return (len(text) + 3) / 4
}

// Tiktoken counts with a BPE encoding. The encoding is loaded on first use
// (it may need to be downloaded); if that fails every count falls back to
// Approx.
type Tiktoken struct {
	encoding string
	logger   *zap.Logger

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewTiktoken returns a lazily initialized counter for encoding.
func NewTiktoken(encoding string, logger *zap.Logger) *Tiktoken {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tiktoken{encoding: encoding, logger: logger}
}

func (t *Tiktoken) init() {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.logger.Warn("tiktoken unavailable, using approximate token counts",
				zap.String("encoding", t.encoding), zap.Error(err))
			return
		}
		t.enc = enc
	})
}

func (t *Tiktoken) Count(text string) int {
	t.init()
	if t.enc == nil {
		return Approx{}.Count(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}
