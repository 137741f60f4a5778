package ports

import (
	"context"

	"go.trai.ch/pico/internal/core/domain"
)

// Document is the content of one source file together with its digest.
type Document struct {
	// Path is the absolute path of the file.
	Path    string
	Content string
	Digest  uint64
}

// SourceReader reads source documents from disk.
//
//go:generate mockgen -source=source_reader.go -destination=mocks/mock_source_reader.go -package=mocks
type SourceReader interface {
	// Scan returns every document under the config root matching its include
	// patterns, sorted by path.
	Scan(ctx context.Context, cfg *domain.Config) ([]Document, error)
	// Read returns the document at path.
	Read(path string) (Document, error)
}
