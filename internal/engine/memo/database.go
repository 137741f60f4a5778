package memo

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/zerr"
)

type sourceNode struct {
	value       box
	timeChanged Epoch
}

// Database owns every source, derived node and interned param. Multiple
// independent databases may coexist.
type Database struct {
	// exclusive is held for writing by mutations and garbage collection and for
	// reading by the outermost read of every session.
	exclusive sync.RWMutex
	epoch     atomic.Uint64

	sources *shardedMap[Key, sourceNode]
	derived *shardedMap[DerivedNodeID, *derivedNode]
	params  *shardedMap[ParamID, box]
	recent  *lru.Cache[DerivedNodeID, struct{}]

	retainMu  sync.Mutex
	retained  map[DerivedNodeID]int
	permanent map[DerivedNodeID]struct{}
	live      int

	executions atomic.Uint64
	reuses     atomic.Uint64
	closed     atomic.Bool
}

// NewDatabase creates an empty database at epoch 1.
func NewDatabase(opts ...Option) *Database {
	cfg := options{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}

	recent, err := lru.New[DerivedNodeID, struct{}](cfg.capacity)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}

	db := &Database{
		sources:   newShardedMap[Key, sourceNode](spreadKey),
		derived:   newShardedMap[DerivedNodeID, *derivedNode](spreadNode),
		params:    newShardedMap[ParamID, box](spreadParam),
		recent:    recent,
		retained:  make(map[DerivedNodeID]int),
		permanent: make(map[DerivedNodeID]struct{}),
	}
	db.epoch.Store(1)
	return db
}

// Epoch returns the current epoch.
func (db *Database) Epoch() Epoch {
	return Epoch(db.epoch.Load())
}

// NewSession returns a read view for the calling goroutine.
func (db *Database) NewSession() *Session {
	db.checkOpen()
	return &Session{db: db}
}

// mutate advances the epoch once and runs fn with exclusive access.
func (db *Database) mutate(fn func(epoch Epoch)) {
	db.checkOpen()
	db.exclusive.Lock()
	defer db.exclusive.Unlock()
	fn(Epoch(db.epoch.Add(1)))
}

// Close tears the database down. It panics if retained queries are still held.
func (db *Database) Close() {
	db.retainMu.Lock()
	live := db.live
	db.retainMu.Unlock()

	if live > 0 {
		panic(zerr.With(ErrRetainLeaked, "count", live))
	}

	db.exclusive.Lock()
	defer db.exclusive.Unlock()
	db.closed.Store(true)
	db.recent.Purge()
}

func (db *Database) checkOpen() {
	if db.closed.Load() {
		panic(ErrDatabaseClosed)
	}
}
