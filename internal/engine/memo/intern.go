package memo

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/mitchellh/hashstructure/v2"
	"go.trai.ch/zerr"
)

// maxProbes bounds how far Intern looks past an occupied id.
const maxProbes = 8

// opaqueTypes caches whether hashstructure sees less of a type than equality does.
var opaqueTypes sync.Map

// paramID content-addresses v together with its type. hashstructure skips
// unexported fields, so types that carry them, or interfaces that may, are
// digested from their Go-syntax rendering instead.
func paramID[T any](v T) ParamID {
	t := reflect.TypeFor[T]()
	name := typeIdentity(t)
	if isOpaque(t) {
		if containsFunc(t, map[reflect.Type]bool{}) {
			panic(zerr.With(ErrUnhashableParam, "type", name))
		}
		h := xxhash.New()
		_, _ = fmt.Fprintf(h, "%#v", v)
		return ParamID(hashWithSeed(name, h.Sum64()))
	}

	h, err := hashstructure.Hash(v, hashstructure.FormatV2, &hashstructure.HashOptions{
		Hasher: xxhash.New(),
	})
	if err != nil {
		panic(zerr.With(zerr.With(ErrUnhashableParam, "type", name), "cause", err.Error()))
	}
	return ParamID(hashWithSeed(name, h))
}

func isOpaque(t reflect.Type) bool {
	if cached, ok := opaqueTypes.Load(t); ok {
		return cached.(bool)
	}
	opaque := hidesContent(t, map[reflect.Type]bool{})
	opaqueTypes.Store(t, opaque)
	return opaque
}

// hidesContent reports whether a value of type t can hold data hashstructure
// does not visit.
func hidesContent(t reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return false
	}
	seen[t] = true

	switch t.Kind() {
	case reflect.Interface:
		return true
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return hidesContent(t.Elem(), seen)
	case reflect.Map:
		return hidesContent(t.Key(), seen) || hidesContent(t.Elem(), seen)
	case reflect.Struct:
		for i := range t.NumField() {
			f := t.Field(i)
			if tag := f.Tag.Get("hash"); tag == "ignore" || tag == "-" {
				continue
			}
			if !f.IsExported() || hidesContent(f.Type, seen) {
				return true
			}
		}
	}
	return false
}

func containsFunc(t reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return false
	}
	seen[t] = true

	switch t.Kind() {
	case reflect.Func:
		return true
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return containsFunc(t.Elem(), seen)
	case reflect.Map:
		return containsFunc(t.Key(), seen) || containsFunc(t.Elem(), seen)
	case reflect.Struct:
		for i := range t.NumField() {
			if containsFunc(t.Field(i).Type, seen) {
				return true
			}
		}
	}
	return false
}

// Intern stores v under its content address and returns the id. Interning an
// equal value again returns the same id and keeps the first payload. Unequal
// values that land on the same id move on to the next free one.
func Intern[T any](db *Database, v T) ParamID {
	return db.intern(paramID(v), newBox(v))
}

// InternRef is Intern for a value the caller keeps.
func InternRef[T any](db *Database, v *T) ParamID {
	return db.intern(paramID(*v), newBox(*v))
}

func (db *Database) intern(id ParamID, b box) ParamID {
	first := id
	for range maxProbes {
		stored, loaded := db.params.loadOrStore(id, b)
		if !loaded || stored.equal(b) {
			return id
		}
		id = ParamID(hashWithSeed("probe", uint64(id)))
	}
	panic(zerr.With(ErrParamCollision, "param", uint64(first)))
}

// LookupParam returns the payload interned under id.
func LookupParam[T any](db *Database, id ParamID) (T, bool) {
	var zero T
	b, ok := db.params.load(id)
	if !ok {
		return zero, false
	}
	tb, ok := b.(typedBox[T])
	if !ok {
		return zero, false
	}
	return tb.v, true
}

func mustParam[T any](db *Database, id ParamID) T {
	v, ok := LookupParam[T](db, id)
	if !ok {
		panic(zerr.With(ErrParamNotFound, "param", uint64(id)))
	}
	return v
}
