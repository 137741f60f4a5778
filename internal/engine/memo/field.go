package memo

import (
	"sync"

	"go.trai.ch/zerr"
)

// fieldRevision is the hidden source a Field bumps on every tracked mutation.
type fieldRevision struct {
	Name string
	Rev  uint64
}

func (r fieldRevision) SourceKey() string {
	return r.Name
}

// Field exposes a plain value as if it were a tracked source. Tracked reads
// depend on a revision counter that every tracked mutation bumps. Untracked
// access skips the counter, which is only correct when the caller tracks the
// parts it touches some other way.
type Field[T any] struct {
	db    *Database
	rev   SourceID[fieldRevision]
	mu    sync.RWMutex
	value T
}

// NewField creates a tracked field named name on db. Names are unique per
// database.
func NewField[T any](db *Database, name string, initial T) *Field[T] {
	id := KeyOf[fieldRevision](name)
	db.mutate(func(epoch Epoch) {
		if db.sources.has(id.Key) {
			panic(zerr.With(ErrDuplicateField, "field", name))
		}
		db.setLocked(id.Key, newBox(fieldRevision{Name: name}), epoch)
	})
	return &Field[T]{db: db, rev: id, value: initial}
}

// Tracked returns the value and records a dependency on the field.
func (f *Field[T]) Tracked(s *Session) T {
	release := s.acquire()
	defer release()

	Get(s, f.rev)
	return f.Untracked()
}

// Untracked returns the value without recording anything.
func (f *Field[T]) Untracked() T {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.value
}

// TrackedMut applies mutate and invalidates every tracked reader. It is a
// mutation like Set and must not be called from a memoized body.
func (f *Field[T]) TrackedMut(mutate func(*T)) {
	f.db.mutate(func(epoch Epoch) {
		f.apply(mutate)
		node, _ := f.db.sources.load(f.rev.Key)
		rev := unbox[fieldRevision](node.value)
		rev.Rev++
		f.db.setLocked(f.rev.Key, newBox(rev), epoch)
	})
}

// UntrackedMut applies mutate without invalidating anyone.
func (f *Field[T]) UntrackedMut(mutate func(*T)) {
	f.apply(mutate)
}

func (f *Field[T]) apply(mutate func(*T)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mutate(&f.value)
}
