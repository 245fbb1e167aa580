package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
	"github.com/kirillkom/rationale-rag/internal/core/ports"
)

// DocumentProcessor turns files into fragments: extract, split, save artifacts.
type DocumentProcessor struct {
	extractor ports.TextExtractor
	chunker   ports.Chunker
	artifacts ports.ChunkArtifactStore
	logger    *slog.Logger
}

func NewDocumentProcessor(
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	artifacts ports.ChunkArtifactStore,
	logger *slog.Logger,
) *DocumentProcessor {
	return &DocumentProcessor{
		extractor: extractor,
		chunker:   chunker,
		artifacts: artifacts,
		logger:    loggerOrDiscard(logger),
	}
}

// ProcessDirectory ingests every visible regular file in dir in name order.
// Files that fail are skipped with a warning; a missing dir yields no fragments.
func (p *DocumentProcessor) ProcessDirectory(ctx context.Context, dir string) ([]domain.Fragment, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			p.logger.Warn("documents_dir_missing", "dir", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("read documents dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	all := make([]domain.Fragment, 0, len(names)*8)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fragments, err := p.processPath(ctx, filepath.Join(dir, name))
		if err != nil {
			p.logger.Warn("document_skipped", "file", name, "error", err)
			continue
		}
		all = append(all, fragments...)
	}

	if err := p.saveChunks(ctx, all); err != nil {
		return nil, err
	}
	p.logger.Info("documents_processed", "files", len(names), "fragments", len(all))
	return all, nil
}

// ProcessFile ingests a single file; unlike ProcessDirectory its errors are returned.
func (p *DocumentProcessor) ProcessFile(ctx context.Context, dir, name string) ([]domain.Fragment, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "process file", errors.New("file name is empty"))
	}
	path := filepath.Join(dir, filepath.Base(name))
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrInvalidInput, "process file", fmt.Errorf("%s not found", path))
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	fragments, err := p.processPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := p.saveChunks(ctx, fragments); err != nil {
		return nil, err
	}
	p.logger.Info("documents_processed", "files", 1, "fragments", len(fragments))
	return fragments, nil
}

func (p *DocumentProcessor) processPath(ctx context.Context, path string) ([]domain.Fragment, error) {
	text, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}

	if isConverted(path) {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".md"
		if err := p.artifacts.SaveConverted(ctx, name, text); err != nil {
			p.logger.Warn("converted_artifact_failed", "file", path, "error", err)
		}
	}

	chunks := p.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}
	fragments := make([]domain.Fragment, len(chunks))
	for i, chunk := range chunks {
		fragments[i] = domain.Fragment{Text: chunk, Source: path, Sequence: i}
	}
	return fragments, nil
}

func (p *DocumentProcessor) saveChunks(ctx context.Context, fragments []domain.Fragment) error {
	if len(fragments) == 0 {
		return nil
	}
	if err := p.artifacts.SaveChunks(ctx, fragments); err != nil {
		return fmt.Errorf("save chunk artifacts: %w", err)
	}
	return nil
}

// isConverted reports whether extraction rewrote the file into a new textual form.
func isConverted(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".xlsx", ".html", ".htm":
		return true
	default:
		return false
	}
}
