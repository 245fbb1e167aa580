package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// runesPerToken approximates BPE tokenizers on English prose.
const runesPerToken = 4

// Counter estimates model tokens per whitespace-separated word. Estimates are
// additive, so counting parts never undercounts the whole.
type Counter struct{}

func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) Count(text string) int {
	total := 0
	for _, word := range strings.Fields(text) {
		total += wordTokens(word)
	}
	return total
}

// Truncate keeps the leading words that fit in maxTokens and the original
// whitespace between them.
func (c *Counter) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	used, cut := 0, 0
	rest := text
	for {
		trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
		if trimmed == "" {
			break
		}
		offset := len(text) - len(trimmed)
		end := strings.IndexFunc(trimmed, unicode.IsSpace)
		if end < 0 {
			end = len(trimmed)
		}
		cost := wordTokens(trimmed[:end])
		if used+cost > maxTokens {
			break
		}
		used += cost
		cut = offset + end
		rest = trimmed[end:]
	}
	return text[:cut]
}

func wordTokens(word string) int {
	n := utf8.RuneCountInString(word)
	return (n + runesPerToken - 1) / runesPerToken
}
