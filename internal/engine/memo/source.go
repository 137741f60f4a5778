package memo

import (
	"fmt"
	"reflect"

	"go.trai.ch/zerr"
)

// Source is an externally supplied input. SourceKey names the value among others
// of the same type, so setting a value with an existing key replaces it.
type Source interface {
	SourceKey() string
}

// SourceID identifies a stored source of type T.
type SourceID[T Source] struct {
	Key  Key
	Name string
}

// String renders the id for logs.
func (id SourceID[T]) String() string {
	return fmt.Sprintf("%s(%s)", reflect.TypeFor[T]().Name(), id.Name)
}

// KeyOf returns the id a source of type T with the given key has once set.
func KeyOf[T Source](name string) SourceID[T] {
	return SourceID[T]{
		Key:  Key(hashParts(typeIdentity(reflect.TypeFor[T]()), name)),
		Name: name,
	}
}

// Set inserts or replaces v. The epoch always advances. The source's change
// epoch only moves when v differs from the stored value. Set waits for every
// in-flight read, so calling it from a memoized body deadlocks.
func Set[T Source](db *Database, v T) SourceID[T] {
	id := KeyOf[T](v.SourceKey())
	db.mutate(func(epoch Epoch) {
		db.setLocked(id.Key, newBox(v), epoch)
	})
	return id
}

func (db *Database) setLocked(k Key, b box, epoch Epoch) {
	db.sources.update(k, func(old sourceNode, ok bool) sourceNode {
		if ok && old.value.equal(b) {
			return sourceNode{value: b, timeChanged: old.timeChanged}
		}
		return sourceNode{value: b, timeChanged: epoch}
	})
}

// Get returns the source stored under id and records the read. Reading a
// source that was removed or never set panics with ErrSourceNotFound.
func Get[T Source](s *Session, id SourceID[T]) T {
	release := s.acquire()
	defer release()

	node, ok := s.db.sources.load(id.Key)
	if !ok {
		panic(zerr.With(ErrSourceNotFound, "source", id.String()))
	}
	s.recordIfOpen(sourceTarget(id.Key), node.timeChanged)
	return unbox[T](node.value)
}

// Remove deletes the source stored under id and advances the epoch. Like Set,
// it must not be called from a memoized body.
func Remove[T Source](db *Database, id SourceID[T]) {
	db.mutate(func(Epoch) {
		db.sources.delete(id.Key)
	})
}

func singletonKey[T any]() Key {
	return Key(hashParts("singleton", typeIdentity(reflect.TypeFor[T]())))
}

// SetSingleton stores the single value of type T. Like Set, it must not be
// called from a memoized body.
func SetSingleton[T any](db *Database, v T) {
	db.mutate(func(epoch Epoch) {
		db.setLocked(singletonKey[T](), newBox(v), epoch)
	})
}

// GetSingleton returns the value of type T, if set. The read is recorded either
// way, so a later SetSingleton invalidates callers that saw it unset.
func GetSingleton[T any](s *Session) (T, bool) {
	release := s.acquire()
	defer release()

	k := singletonKey[T]()
	node, ok := s.db.sources.load(k)
	if !ok {
		s.recordIfOpen(singletonTarget(k), 0)
		var zero T
		return zero, false
	}
	s.recordIfOpen(singletonTarget(k), node.timeChanged)
	return unbox[T](node.value), true
}
