package chunker

import (
	"strings"
	"testing"
)

func TestSplit_Empty(t *testing.T) {
	if got := Split("", DefaultOptions()); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	if got := Split("  \n\n \t\n", DefaultOptions()); got != nil {
		t.Errorf("expected nil for blank text, got %v", got)
	}
}

func TestSplit_ShortDocument(t *testing.T) {
	text := "Quarterly report\n\nRevenue is up."
	got := Split(text, DefaultOptions())
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0].Text != text {
		t.Errorf("expected %q, got %q", text, got[0].Text)
	}
	if got[0].StartLine != 1 || got[0].EndLine != 3 {
		t.Errorf("expected lines 1-3, got %d-%d", got[0].StartLine, got[0].EndLine)
	}
}

func TestSplit_PacksParagraphs(t *testing.T) {
	para := strings.Repeat("x", 40)
	text := strings.Join([]string{para, para, para, para}, "\n\n")

	got := Split(text, Options{MaxSize: 90})
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %+v", len(got), got)
	}
	if got[0].Text != para+"\n\n"+para {
		t.Errorf("unexpected first chunk %q", got[0].Text)
	}
	if got[1].StartLine != 5 || got[1].EndLine != 7 {
		t.Errorf("expected second chunk lines 5-7, got %d-%d", got[1].StartLine, got[1].EndLine)
	}
	for _, c := range got {
		if len(c.Text) > 90 {
			t.Errorf("chunk exceeds max size: %d", len(c.Text))
		}
	}
}

func TestSplit_HeadingsStartParagraphs(t *testing.T) {
	text := "# One\nalpha\n# Two\nbeta"
	got := Split(text, Options{MaxSize: 12})
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %+v", len(got), got)
	}
	if !strings.HasPrefix(got[1].Text, "# Two") {
		t.Errorf("second chunk should start at heading, got %q", got[1].Text)
	}
	if got[1].StartLine != 3 {
		t.Errorf("expected heading on line 3, got %d", got[1].StartLine)
	}
}

func TestSplit_OversizedParagraph(t *testing.T) {
	line := strings.Repeat("y", 30)
	text := strings.Join([]string{line, line, line, line, line}, "\n")

	got := Split(text, Options{MaxSize: 70})
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %+v", len(got), got)
	}
	if got[0].StartLine != 1 || got[0].EndLine != 2 {
		t.Errorf("expected first chunk lines 1-2, got %d-%d", got[0].StartLine, got[0].EndLine)
	}
	if got[2].StartLine != 5 || got[2].EndLine != 5 {
		t.Errorf("expected last chunk line 5, got %d-%d", got[2].StartLine, got[2].EndLine)
	}
}

func TestSplit_PreservesAllText(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("Paragraph with some notes about the project.\nSecond line.\n\n")
	}
	got := Split(b.String(), Options{MaxSize: 200})

	total := 0
	for _, c := range got {
		total += strings.Count(c.Text, "Paragraph")
	}
	if total != 30 {
		t.Errorf("expected 30 paragraphs across chunks, got %d", total)
	}
}
