package chunking

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitterRespectsChunkSize(t *testing.T) {
	text := strings.Repeat("word ", 700)
	s := NewSplitter(100, 10)

	chunks := s.Split(text)
	if len(chunks) < 30 {
		t.Fatalf("expected many chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if n := utf8.RuneCountInString(chunk); n > 100 {
			t.Fatalf("chunk %d has %d runes", i, n)
		}
		if strings.HasSuffix(chunk, "wor") {
			t.Fatalf("chunk %d split inside a word: %q", i, chunk)
		}
	}
}

func TestSplitterPrefersParagraphs(t *testing.T) {
	first := strings.Repeat("a", 70)
	second := strings.Repeat("b", 70)
	chunks := NewSplitter(100, 0).Split(first + "\n\n" + second)

	if len(chunks) != 2 || chunks[0] != first || chunks[1] != second {
		t.Fatalf("unexpected chunks %#v", chunks)
	}
}

func TestSplitterDefaults(t *testing.T) {
	s := NewSplitter(0, -1)
	if s.ChunkSize != DefaultChunkSize || s.Overlap != 0 {
		t.Fatalf("unexpected defaults %+v", s)
	}
	if got := s.Split(""); got != nil {
		t.Fatalf("expected nil for empty text, got %#v", got)
	}
	if got := s.Split("short"); len(got) != 1 || got[0] != "short" {
		t.Fatalf("unexpected split %#v", got)
	}
}

func TestSplitterOverlap(t *testing.T) {
	runes := []rune(strings.Repeat("x", 250))
	chunks := NewSplitter(100, 20).Split(string(runes))
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
}
