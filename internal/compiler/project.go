package compiler

import (
	"context"
	"maps"
	"runtime"
	"sync"

	"go.trai.ch/pico/internal/engine/memo"
	"golang.org/x/sync/errgroup"
)

const filesField = "compiler.files"

// Project is the set of documents compiled together on one database. Its
// methods are safe for concurrent use. Upsert and Delete wait for running
// reports, so a report always sees one consistent set of files.
type Project struct {
	// mu is held for writing by mutations and for reading by Report and Retain.
	mu          sync.RWMutex
	db          *memo.Database
	files       *memo.Field[fileMap]
	parallelism int
}

// ProjectOption configures a Project.
type ProjectOption func(*Project)

// WithParallelism bounds the number of files validated at once.
func WithParallelism(n int) ProjectOption {
	return func(p *Project) {
		if n > 0 {
			p.parallelism = n
		}
	}
}

// NewProject creates an empty project on db. A database holds at most one
// project.
func NewProject(db *memo.Database, opts ...ProjectOption) *Project {
	p := &Project{
		db:          db,
		files:       memo.NewField(db, filesField, fileMap{}),
		parallelism: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(p)
	}
	memo.SetSingleton(db, fileSet{files: p.files})
	return p
}

// Database returns the database the project compiles on.
func (p *Project) Database() *memo.Database {
	return p.db
}

// Upsert adds the file at path or replaces its content. Only adding a new path
// touches the file list.
func (p *Project) Upsert(path, content string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := memo.Set(p.db, SourceFile{Path: path, Content: content})
	if _, known := p.files.Untracked()[path]; known {
		return
	}
	p.files.TrackedMut(func(files *fileMap) {
		next := maps.Clone(*files)
		next[path] = id
		*files = next
	})
}

// Delete drops the file at path. It reports whether the file was known.
func (p *Project) Delete(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, ok := p.files.Untracked()[path]
	if !ok {
		return false
	}
	// The map is replaced, not edited, so callers of Paths keep their copy.
	p.files.TrackedMut(func(files *fileMap) {
		next := maps.Clone(*files)
		delete(next, path)
		*files = next
	})
	memo.Remove(p.db, id)
	return true
}

// Paths returns the known files in sorted order.
func (p *Project) Paths() []string {
	return sortedPaths(p.files.Untracked())
}

// Report validates every file in parallel and returns the combined report.
func (p *Project) Report(ctx context.Context) (Report, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	files := p.files.Untracked()
	ids := make([]memo.SourceID[SourceFile], 0, len(files))
	for _, path := range sortedPaths(files) {
		ids = append(ids, files[path])
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)
	for _, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			validateFile.Call(p.db.NewSession(), id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	return projectReport.Get(p.db.NewSession()), nil
}

// Retain pins the project report against garbage collection.
func (p *Project) Retain() *memo.RetainedQuery {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.db.Retain(projectReport.Call(p.db.NewSession()))
}
