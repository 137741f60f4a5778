package memo

import "go.trai.ch/zerr"

// The engine raises these as panic values. They signal a broken invalidation
// discipline in the caller, never bad input.
var (
	// ErrSourceNotFound is raised when reading a source that was removed or never set.
	ErrSourceNotFound = zerr.New("source not found")

	// ErrDerivedNotFound is raised when a MemoRef points at a node that was collected.
	ErrDerivedNotFound = zerr.New("derived value not found")

	// ErrCycleDetected is raised when a memoized call re-enters itself.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrRetainLeaked is raised by Close when retained queries were never released.
	ErrRetainLeaked = zerr.New("retained query was never released")

	// ErrParamCollision is raised when no free param id is found for a value.
	ErrParamCollision = zerr.New("param id collision")

	// ErrParamNotFound is raised when a memoized body runs for a param that is not interned.
	ErrParamNotFound = zerr.New("param not found")

	// ErrUnhashableParam is raised when a value cannot be content-addressed.
	ErrUnhashableParam = zerr.New("value cannot be hashed")

	// ErrDuplicateFunction is raised when two memoized functions share a name.
	ErrDuplicateFunction = zerr.New("memoized function already registered")

	// ErrDuplicateField is raised when two tracked fields share a name on one database.
	ErrDuplicateField = zerr.New("tracked field already exists")

	// ErrDatabaseClosed is raised when a closed database is used.
	ErrDatabaseClosed = zerr.New("database is closed")
)
