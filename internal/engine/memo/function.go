package memo

import (
	"reflect"
	"sync"

	"go.trai.ch/zerr"
)

var registry = struct {
	mu    sync.Mutex
	names map[string]struct{}
}{names: make(map[string]struct{})}

// register assigns a stable identity to a memoized body. Names are global to the
// program, like the functions they name.
func register(name string, signature reflect.Type, run func(*Session, ParamID) box) *function {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, exists := registry.names[name]; exists {
		panic(zerr.With(ErrDuplicateFunction, "name", name))
	}
	registry.names[name] = struct{}{}

	return &function{
		id:   FunctionID(hashParts(name, signature.String())),
		name: name,
		run:  run,
	}
}

type unit struct{}

type tuple2[A, B any] struct {
	First  A
	Second B
}

type tuple3[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// invoke interns args and resolves the call.
func invoke[T, P any](s *Session, fn *function, args P) MemoRef[T] {
	release := s.acquire()
	defer release()

	id := DerivedNodeID{Fn: fn.id, Param: Intern(s.db, args)}
	s.call(id, fn)
	return MemoRef[T]{ID: id, db: s.db}
}

// resolve is invoke followed by a tracked read of the value.
func resolve[T, P any](s *Session, fn *function, args P) T {
	release := s.acquire()
	defer release()
	return invoke[T](s, fn, args).Value(s)
}

// Fn0 is a memoized function without arguments.
type Fn0[T any] struct {
	fn *function
}

// Memo0 registers body under name.
func Memo0[T any](name string, body func(*Session) T) *Fn0[T] {
	return &Fn0[T]{fn: register(name, reflect.TypeOf(body), func(s *Session, _ ParamID) box {
		return newBox(body(s))
	})}
}

// Call returns a handle to the memoized result.
func (f *Fn0[T]) Call(s *Session) MemoRef[T] {
	return invoke[T](s, f.fn, unit{})
}

// Get returns the memoized result.
func (f *Fn0[T]) Get(s *Session) T {
	return resolve[T](s, f.fn, unit{})
}

// Fn1 is a memoized function of one argument.
type Fn1[A, T any] struct {
	fn *function
}

// Memo1 registers body under name. The argument must be hashable by value.
func Memo1[A, T any](name string, body func(*Session, A) T) *Fn1[A, T] {
	return &Fn1[A, T]{fn: register(name, reflect.TypeOf(body), func(s *Session, p ParamID) box {
		return newBox(body(s, mustParam[A](s.db, p)))
	})}
}

// Call returns a handle to the memoized result for a.
func (f *Fn1[A, T]) Call(s *Session, a A) MemoRef[T] {
	return invoke[T](s, f.fn, a)
}

// Get returns the memoized result for a.
func (f *Fn1[A, T]) Get(s *Session, a A) T {
	return resolve[T](s, f.fn, a)
}

// Fn2 is a memoized function of two arguments.
type Fn2[A, B, T any] struct {
	fn *function
}

// Memo2 registers body under name.
func Memo2[A, B, T any](name string, body func(*Session, A, B) T) *Fn2[A, B, T] {
	return &Fn2[A, B, T]{fn: register(name, reflect.TypeOf(body), func(s *Session, p ParamID) box {
		args := mustParam[tuple2[A, B]](s.db, p)
		return newBox(body(s, args.First, args.Second))
	})}
}

// Call returns a handle to the memoized result for (a, b).
func (f *Fn2[A, B, T]) Call(s *Session, a A, b B) MemoRef[T] {
	return invoke[T](s, f.fn, tuple2[A, B]{First: a, Second: b})
}

// Get returns the memoized result for (a, b).
func (f *Fn2[A, B, T]) Get(s *Session, a A, b B) T {
	return resolve[T](s, f.fn, tuple2[A, B]{First: a, Second: b})
}

// Fn3 is a memoized function of three arguments.
type Fn3[A, B, C, T any] struct {
	fn *function
}

// Memo3 registers body under name.
func Memo3[A, B, C, T any](name string, body func(*Session, A, B, C) T) *Fn3[A, B, C, T] {
	return &Fn3[A, B, C, T]{fn: register(name, reflect.TypeOf(body), func(s *Session, p ParamID) box {
		args := mustParam[tuple3[A, B, C]](s.db, p)
		return newBox(body(s, args.First, args.Second, args.Third))
	})}
}

// Call returns a handle to the memoized result for (a, b, c).
func (f *Fn3[A, B, C, T]) Call(s *Session, a A, b B, c C) MemoRef[T] {
	return invoke[T](s, f.fn, tuple3[A, B, C]{First: a, Second: b, Third: c})
}

// Get returns the memoized result for (a, b, c).
func (f *Fn3[A, B, C, T]) Get(s *Session, a A, b B, c C) T {
	return resolve[T](s, f.fn, tuple3[A, B, C]{First: a, Second: b, Third: c})
}
