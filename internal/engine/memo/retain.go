package memo

// Handle is anything that points at a derived node, such as a MemoRef.
type Handle interface {
	NodeID() DerivedNodeID
}

type retainState uint8

const (
	retainHeld retainState = iota
	retainReleased
	retainPersisted
)

// RetainedQuery pins a derived node, and everything it depends on, against
// garbage collection. Release it with ClearRetain or make it permanent with
// Persist. Closing a database with held queries panics.
type RetainedQuery struct {
	db    *Database
	id    DerivedNodeID
	state retainState
}

// NodeID returns the pinned node.
func (q *RetainedQuery) NodeID() DerivedNodeID {
	return q.id
}

// Retain pins the node behind h.
func (db *Database) Retain(h Handle) *RetainedQuery {
	db.retainMu.Lock()
	defer db.retainMu.Unlock()

	id := h.NodeID()
	db.retained[id]++
	db.live++
	return &RetainedQuery{db: db, id: id}
}

// ClearRetain releases q. Releasing a query twice has no effect.
func (db *Database) ClearRetain(q *RetainedQuery) {
	db.retainMu.Lock()
	defer db.retainMu.Unlock()

	if q.state != retainHeld {
		return
	}
	db.unpinLocked(q.id)
	q.state = retainReleased
}

// Persist turns q into a permanent retain. The node then survives every garbage
// collection and q no longer needs releasing.
func (q *RetainedQuery) Persist() {
	db := q.db
	db.retainMu.Lock()
	defer db.retainMu.Unlock()

	if q.state != retainHeld {
		return
	}
	db.unpinLocked(q.id)
	db.permanent[q.id] = struct{}{}
	q.state = retainPersisted
}

func (db *Database) unpinLocked(id DerivedNodeID) {
	db.live--
	db.retained[id]--
	if db.retained[id] <= 0 {
		delete(db.retained, id)
	}
}

// pinned lists every node held by a retain, permanent or counted.
func (db *Database) pinned() []DerivedNodeID {
	db.retainMu.Lock()
	defer db.retainMu.Unlock()

	ids := make([]DerivedNodeID, 0, len(db.retained)+len(db.permanent))
	for id := range db.retained {
		ids = append(ids, id)
	}
	for id := range db.permanent {
		ids = append(ids, id)
	}
	return ids
}
