package extractor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/kirillkom/rationale-rag/internal/core/ports"
	"github.com/kirillkom/rationale-rag/internal/infrastructure/extractor/htmltext"
	"github.com/kirillkom/rationale-rag/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/rationale-rag/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/rationale-rag/internal/infrastructure/extractor/spreadsheet"
)

// Router picks an extractor by file extension, falling back to plain text.
type Router struct {
	byExt    map[string]ports.TextExtractor
	fallback ports.TextExtractor
}

func NewRouter() *Router {
	htmlExtractor := htmltext.NewExtractor()
	return &Router{
		byExt: map[string]ports.TextExtractor{
			".pdf":  pdf.NewExtractor(),
			".xlsx": spreadsheet.NewExtractor(),
			".html": htmlExtractor,
			".htm":  htmlExtractor,
		},
		fallback: plaintext.NewExtractor(),
	}
}

func (r *Router) Extract(ctx context.Context, path string) (string, error) {
	if ex, ok := r.byExt[strings.ToLower(filepath.Ext(path))]; ok {
		return ex.Extract(ctx, path)
	}
	return r.fallback.Extract(ctx, path)
}
