package memo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pico/internal/engine/memo"
)

func TestGC_KeepsRecentTopLevelCalls(t *testing.T) {
	db := newDB(t, memo.WithCapacity(1))
	k1 := memo.Set(db, Input{Name: "k1", Value: "asdf"})
	k2 := memo.Set(db, Input{Name: "k2", Value: "bison"})
	s := db.NewSession()

	require.Equal(t, "A", shout.Get(s, k1))
	require.Equal(t, "b", firstLetter.Get(s, k2))
	require.Equal(t, 3, db.Stats().Derived)

	stats := db.RunGarbageCollection()
	assert.Equal(t, 1, stats.RetainedDerived)
	assert.Equal(t, 2, stats.CollectedDerived)
	assert.Equal(t, 1, db.Stats().Derived)

	require.Equal(t, "b", firstLetter.Get(s, k2))
	assert.Equal(t, 2, counts.get("firstLetter"), "survivor is reused")

	require.Equal(t, "A", shout.Get(s, k1))
	assert.Equal(t, 2, counts.get("shout"), "collected root recomputes")
	assert.Equal(t, 3, counts.get("firstLetter"), "collected dependency recomputes")
}

func TestGC_KeepsDependenciesOfRoots(t *testing.T) {
	db := newDB(t, memo.WithCapacity(1))
	k := memo.Set(db, Input{Name: "k", Value: "asdf"})
	s := db.NewSession()

	require.Equal(t, "A", shout.Get(s, k))
	stats := db.RunGarbageCollection()
	assert.Equal(t, 2, stats.RetainedDerived)
	assert.Equal(t, 0, stats.CollectedDerived)
	assert.Equal(t, 1, stats.RetainedParams, "both nodes take the same argument")

	memo.Set(db, Input{Name: "k", Value: "apple"})
	require.Equal(t, "A", shout.Get(s, k))
	assert.Equal(t, 1, counts.get("shout"))
	assert.Equal(t, 2, counts.get("firstLetter"))
}

func TestRetain_PinsUntilCleared(t *testing.T) {
	db := newDB(t, memo.WithCapacity(1))
	k1 := memo.Set(db, Input{Name: "k1", Value: "asdf"})
	k2 := memo.Set(db, Input{Name: "k2", Value: "bison"})
	s := db.NewSession()

	q := db.Retain(shout.Call(s, k1))
	firstLetter.Get(s, k2)

	db.RunGarbageCollection()
	require.Equal(t, "A", shout.Get(s, k1))
	assert.Equal(t, 1, counts.get("shout"), "retained node survives")

	firstLetter.Get(s, k2)
	db.ClearRetain(q)
	db.ClearRetain(q)
	db.RunGarbageCollection()

	require.Equal(t, "A", shout.Get(s, k1))
	assert.Equal(t, 2, counts.get("shout"), "released node was collected")
}

func TestRetain_Counted(t *testing.T) {
	db := newDB(t, memo.WithCapacity(1))
	k1 := memo.Set(db, Input{Name: "k1", Value: "asdf"})
	k2 := memo.Set(db, Input{Name: "k2", Value: "bison"})
	s := db.NewSession()

	ref := shout.Call(s, k1)
	q1 := db.Retain(ref)
	q2 := db.Retain(ref)
	firstLetter.Get(s, k2)

	db.ClearRetain(q1)
	db.RunGarbageCollection()
	shout.Get(s, k1)
	assert.Equal(t, 1, counts.get("shout"), "second retain still pins")

	firstLetter.Get(s, k2)
	db.ClearRetain(q2)
	assert.Equal(t, 0, db.Stats().Retained)
}

func TestRetain_Persist(t *testing.T) {
	db := newDB(t, memo.WithCapacity(1))
	k1 := memo.Set(db, Input{Name: "k1", Value: "asdf"})
	k2 := memo.Set(db, Input{Name: "k2", Value: "bison"})
	s := db.NewSession()

	db.Retain(shout.Call(s, k1)).Persist()

	for range 3 {
		firstLetter.Get(s, k2)
		db.RunGarbageCollection()
	}
	shout.Get(s, k1)
	assert.Equal(t, 1, counts.get("shout"))
	assert.Equal(t, 1, db.Stats().Retained)
}

func TestMemoRef_ValueAfterCollection(t *testing.T) {
	db := newDB(t, memo.WithCapacity(1))
	k1 := memo.Set(db, Input{Name: "k1", Value: "asdf"})
	k2 := memo.Set(db, Input{Name: "k2", Value: "bison"})
	s := db.NewSession()

	ref := shout.Call(s, k1)
	firstLetter.Get(s, k2)
	db.RunGarbageCollection()

	err := recoverError(t, func() { ref.Value(s) })
	require.ErrorContains(t, err, memo.ErrDerivedNotFound.Error())
}

func TestMemoRef_PeekAfterCollection(t *testing.T) {
	db := newDB(t, memo.WithCapacity(1))
	k1 := memo.Set(db, Input{Name: "k1", Value: "asdf"})
	k2 := memo.Set(db, Input{Name: "k2", Value: "bison"})
	s := db.NewSession()

	ref := shout.Call(s, k1)
	firstLetter.Get(s, k2)
	db.RunGarbageCollection()

	err := recoverError(t, func() { ref.Peek() })
	require.ErrorContains(t, err, memo.ErrDerivedNotFound.Error())
}
