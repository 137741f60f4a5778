package memo

import (
	"reflect"

	"github.com/google/go-cmp/cmp"
)

// box holds a value of any type behind the two capabilities storage needs.
// Stored values are never mutated after boxing, so reads share them without
// copying.
type box interface {
	equal(other box) bool
	get() any
}

type typedBox[T any] struct {
	v T
}

func newBox[T any](v T) box {
	return typedBox[T]{v: v}
}

func (b typedBox[T]) equal(other box) bool {
	o, ok := other.(typedBox[T])
	return ok && equalValues(b.v, o.v)
}

func (b typedBox[T]) get() any {
	return b.v
}

// unbox returns the payload of b as a T.
func unbox[T any](b box) T {
	return b.(typedBox[T]).v
}

var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

// equalValues reports whether a and b are deeply equal. Types with an Equal
// method decide for themselves.
func equalValues[T any](a, b T) bool {
	return cmp.Equal(a, b, exportAll)
}
