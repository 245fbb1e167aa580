package localfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
)

// Storage writes chunk and conversion artifacts under a scratch directory.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./temp_chunks"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) BasePath() string {
	return s.basePath
}

// SaveChunks writes chunk_{i}.txt for every fragment in order.
func (s *Storage) SaveChunks(ctx context.Context, chunks []domain.Fragment) error {
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.write(fmt.Sprintf("chunk_%d.txt", i), chunk.Text); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) SaveConverted(_ context.Context, name, content string) error {
	return s.write(filepath.Base(name), content)
}

func (s *Storage) write(name, content string) error {
	path := filepath.Join(s.basePath, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
