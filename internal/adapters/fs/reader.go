package fs

import (
	"context"
	"os"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/pico/internal/core/domain"
	"go.trai.ch/pico/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SourceReader = (*Reader)(nil)

// Reader implements ports.SourceReader on the local file system.
type Reader struct {
	walker *Walker
}

// NewReader creates a new Reader.
func NewReader(walker *Walker) *Reader {
	return &Reader{walker: walker}
}

// Scan reads every file under the config root that matches an include pattern.
func (r *Reader) Scan(ctx context.Context, cfg *domain.Config) ([]ports.Document, error) {
	var docs []ports.Document
	for path, err := range r.walker.WalkFiles(cfg.Root) {
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrSourceWalkFailed.Error()), "root", cfg.Root)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !cfg.Matches(path) {
			continue
		}
		doc, err := r.Read(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	slices.SortFunc(docs, func(a, b ports.Document) int {
		return strings.Compare(a.Path, b.Path)
	})
	return docs, nil
}

// Read returns the content of path with its XXHash digest.
func (r *Reader) Read(path string) (ports.Document, error) {
	content, err := os.ReadFile(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return ports.Document{}, zerr.With(zerr.Wrap(err, domain.ErrSourceReadFailed.Error()), "path", path)
	}
	return ports.Document{
		Path:    path,
		Content: string(content),
		Digest:  xxhash.Sum64(content),
	}, nil
}
