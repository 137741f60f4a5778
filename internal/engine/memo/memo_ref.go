package memo

// MemoRef is a handle to the value of one memoized call. It owns nothing, so
// it can be copied freely, stored in other values and passed as an argument to
// further memoized calls.
type MemoRef[T any] struct {
	ID DerivedNodeID
	db *Database `hash:"ignore"`
}

// NodeID returns the node the handle points at.
func (r MemoRef[T]) NodeID() DerivedNodeID {
	return r.ID
}

// Equal compares handles by identity.
func (r MemoRef[T]) Equal(other MemoRef[T]) bool {
	return r.ID == other.ID
}

// Value returns the current value and records the read in the session's open
// frame. A node that is stale for the current epoch is brought up to date
// first. It panics with ErrDerivedNotFound if the node was collected.
func (r MemoRef[T]) Value(s *Session) T {
	release := s.acquire()
	defer release()

	node := s.db.mustDerived(r.ID)
	if node.timeVerified != s.db.Epoch() {
		node = s.execute(r.ID, node.fn)
	}
	s.recordIfOpen(derivedTarget(r.ID), node.timeChanged)
	return unbox[T](node.value)
}

// Peek returns the stored value without tracking or re-verification. It takes
// no lock, so it is safe inside memoized bodies, but it panics with
// ErrDerivedNotFound once the node is collected, including by a collection
// that runs concurrently. Retain the node to read it across collections.
func (r MemoRef[T]) Peek() T {
	return unbox[T](r.db.mustDerived(r.ID).value)
}
