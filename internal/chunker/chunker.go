// Package chunker splits long documents into paragraph-aligned pieces.
package chunker

import (
	"strings"
)

// DefaultMaxSize is the default upper bound, in bytes, of a chunk.
const DefaultMaxSize = 1200

// Options configures chunking.
type Options struct {
	// MaxSize bounds a chunk's length. A single line longer than MaxSize
	// becomes its own chunk rather than being cut mid-line.
	MaxSize int
}

// DefaultOptions returns default chunking options.
func DefaultOptions() Options {
	return Options{MaxSize: DefaultMaxSize}
}

// Chunk is a piece of a document with its 1-based line span.
type Chunk struct {
	Text      string
	StartLine int
	EndLine   int
}

type paragraph struct {
	lines []string
	start int
}

func (p paragraph) text() string { return strings.Join(p.lines, "\n") }
func (p paragraph) end() int     { return p.start + len(p.lines) - 1 }

// Split breaks text into chunks. Paragraphs are separated by blank lines and
// markdown headings start a new paragraph. Consecutive paragraphs are packed
// together while they fit in MaxSize; an oversized paragraph is split on line
// boundaries. Blank text yields no chunks.
func Split(text string, opts Options) []Chunk {
	if opts.MaxSize <= 0 {
		opts = DefaultOptions()
	}
	paras := paragraphs(text)

	var chunks []Chunk
	var cur []paragraph
	size := 0
	flush := func() {
		if len(cur) == 0 {
			return
		}
		texts := make([]string, len(cur))
		for i, p := range cur {
			texts[i] = p.text()
		}
		chunks = append(chunks, Chunk{
			Text:      strings.Join(texts, "\n\n"),
			StartLine: cur[0].start,
			EndLine:   cur[len(cur)-1].end(),
		})
		cur, size = nil, 0
	}

	for _, p := range paras {
		n := len(p.text())
		if n > opts.MaxSize {
			flush()
			chunks = append(chunks, splitLines(p, opts.MaxSize)...)
			continue
		}
		sep := 0
		if len(cur) > 0 {
			sep = 2
		}
		if size+sep+n > opts.MaxSize {
			flush()
			sep = 0
		}
		cur = append(cur, p)
		size += sep + n
	}
	flush()
	return chunks
}

func paragraphs(text string) []paragraph {
	var out []paragraph
	var cur paragraph
	push := func() {
		if len(cur.lines) > 0 {
			out = append(out, cur)
		}
		cur = paragraph{}
	}

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			push()
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			push()
		}
		if len(cur.lines) == 0 {
			cur.start = i + 1
		}
		cur.lines = append(cur.lines, line)
	}
	push()
	return out
}

func splitLines(p paragraph, max int) []Chunk {
	var chunks []Chunk
	var buf []string
	start, size := p.start, 0
	for i, line := range p.lines {
		sep := 0
		if len(buf) > 0 {
			sep = 1
		}
		if len(buf) > 0 && size+sep+len(line) > max {
			chunks = append(chunks, Chunk{Text: strings.Join(buf, "\n"), StartLine: start, EndLine: p.start + i - 1})
			buf, size, sep = nil, 0, 0
			start = p.start + i
		}
		buf = append(buf, line)
		size += sep + len(line)
	}
	if len(buf) > 0 {
		chunks = append(chunks, Chunk{Text: strings.Join(buf, "\n"), StartLine: start, EndLine: p.end()})
	}
	return chunks
}
