// Package memo implements an incremental computation engine.
//
// A Database stores two kinds of values. Sources are keyed inputs supplied by the
// host through Set and Remove. Derived values are the cached results of memoized
// functions registered with Memo0 through Memo3. Every read made while a memoized
// body runs is recorded as a dependency, so later calls can prove a cached result
// is still fresh without running the body again.
//
// Time is an Epoch that advances once per mutation. A derived node remembers when
// its value last changed and when it was last verified. Verification walks the
// recorded dependencies bottom-up. When a recomputed value equals the previous one
// the node keeps its old change epoch and its dependents are not re-run.
//
// Reads go through a Session, which owns the dependency stack of one goroutine:
//
//	db := memo.NewDatabase()
//	id := memo.Set(db, Input{Name: "k", Value: "asdf"})
//	s := db.NewSession()
//	letter := firstLetter.Get(s, id)
//
// Mutations require that no session read is in flight on the calling goroutine.
// The database serializes them against concurrent readers, so a mutation made
// from inside a memoized body waits for its own read lock and never returns.
// Sessions hold no lock between top-level reads, so a host may read, mutate and
// read again on one session.
package memo
