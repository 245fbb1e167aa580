package usecase

import (
	"strings"
	"unicode"
)

const queryPrefix = "query:"

// parseListedQueries reads a free-form list of search queries out of a
// completion. A line counts when it is a bullet, starts with a number, or
// carries a "label: value" pair; only the text after the last colon is kept.
func parseListedQueries(text string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 4)
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || !looksLikeListEntry(line) {
			continue
		}
		if idx := strings.LastIndex(line, ":"); idx >= 0 {
			line = line[idx+1:]
		}
		line = stripListMarker(strings.TrimSpace(line))
		out = appendUnique(out, seen, line)
	}
	return out
}

// parsePrefixedQueries keeps only lines of the form "Query: <text>".
func parsePrefixedQueries(text string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 4)
	for _, raw := range strings.Split(text, "\n") {
		line := stripListMarker(strings.TrimSpace(raw))
		if len(line) < len(queryPrefix) || !strings.EqualFold(line[:len(queryPrefix)], queryPrefix) {
			continue
		}
		out = appendUnique(out, seen, strings.TrimSpace(line[len(queryPrefix):]))
	}
	return out
}

func looksLikeListEntry(line string) bool {
	if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
		return true
	}
	if strings.Contains(line, ":") {
		return true
	}
	seen := 0
	for _, r := range line {
		if seen == 2 {
			break
		}
		if r >= '1' && r <= '9' {
			return true
		}
		seen++
	}
	return false
}

// stripListMarker removes bullets ("-", "*") and ordinals ("1.", "2)") from the front.
func stripListMarker(s string) string {
	s = strings.TrimLeft(s, "-*• \t")
	trimmed := strings.TrimLeftFunc(s, unicode.IsDigit)
	if trimmed != s && (strings.HasPrefix(trimmed, ".") || strings.HasPrefix(trimmed, ")")) {
		s = trimmed[1:]
	}
	return strings.Trim(strings.TrimSpace(s), `"'`)
}

func appendUnique(out []string, seen map[string]struct{}, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return out
	}
	if _, ok := seen[value]; ok {
		return out
	}
	seen[value] = struct{}{}
	return append(out, value)
}
