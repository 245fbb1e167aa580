package htmltext

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open html document: %w", err)
	}
	defer f.Close()
	return StripTags(f), nil
}

// StripTags returns the visible text of an HTML stream. script and style
// content is skipped; block elements become line breaks.
func StripTags(r io.Reader) string {
	var b strings.Builder
	z := html.NewTokenizer(r)
	skipDepth := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return normalize(b.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			if skipTag(name) {
				skipDepth++
			}
			if blockTag(name) {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if skipTag(name) && skipDepth > 0 {
				skipDepth--
			}
			if blockTag(name) {
				b.WriteByte('\n')
			}
		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "br" {
				b.WriteByte('\n')
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func skipTag(name []byte) bool {
	switch string(name) {
	case "script", "style", "noscript", "template":
		return true
	}
	return false
}

func blockTag(name []byte) bool {
	switch string(name) {
	case "p", "div", "br", "li", "tr", "section", "article", "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

// normalize collapses runs of spaces inside lines and drops blank lines.
func normalize(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
