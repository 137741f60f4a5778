package memo

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// Epoch is the logical clock of a Database. It starts at 1 and advances once per
// mutation.
type Epoch uint64

// Key identifies a source.
type Key uint64

// ParamID identifies an interned value.
type ParamID uint64

// FunctionID identifies a registered memoized function.
type FunctionID uint64

// DerivedNodeID identifies one memoized call.
type DerivedNodeID struct {
	Fn    FunctionID
	Param ParamID
}

// String renders the id for logs and panic metadata.
func (id DerivedNodeID) String() string {
	return fmt.Sprintf("%016x/%016x", uint64(id.Fn), uint64(id.Param))
}

// typeIdentity names a type uniquely within the program.
func typeIdentity(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// hashParts digests each part followed by a zero separator.
func hashParts(parts ...string) uint64 {
	h := xxhash.New()
	for _, part := range parts {
		_, _ = h.WriteString(part)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// hashWithSeed digests a string prefix followed by a 64-bit value.
func hashWithSeed(prefix string, v uint64) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(prefix)
	_, _ = h.Write([]byte{0})

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
	return h.Sum64()
}
