package memo

import "go.trai.ch/zerr"

// function is the type-erased form of a registered memoized body.
type function struct {
	id   FunctionID
	name string
	run  func(s *Session, p ParamID) box
}

// derivedNode is the cached state of one memoized call. Nodes are replaced, never
// mutated, so readers may hold one without locking.
type derivedNode struct {
	value        box
	deps         []dependency
	timeChanged  Epoch
	timeVerified Epoch
	fn           *function
}

func (db *Database) mustDerived(id DerivedNodeID) *derivedNode {
	node, ok := db.derived.load(id)
	if !ok {
		panic(zerr.With(ErrDerivedNotFound, "node", id.String()))
	}
	return node
}

// commit stores a freshly computed value. An equal value keeps the previous
// timeChanged so dependents of this node are not invalidated.
func (db *Database) commit(id DerivedNodeID, fn *function, value box, deps []dependency, maxChanged Epoch) *derivedNode {
	now := db.Epoch()
	return db.derived.update(id, func(old *derivedNode, ok bool) *derivedNode {
		next := &derivedNode{
			value:        value,
			deps:         deps,
			timeChanged:  now,
			timeVerified: now,
			fn:           fn,
		}
		switch {
		case !ok:
			next.timeChanged = maxChanged
		case old.value.equal(value):
			next.value = old.value
			next.timeChanged = old.timeChanged
		}
		return next
	})
}

// markVerified records that node is still valid at now.
func (db *Database) markVerified(id DerivedNodeID, node *derivedNode, now Epoch) *derivedNode {
	return db.derived.update(id, func(old *derivedNode, ok bool) *derivedNode {
		if !ok {
			old = node
		}
		if old.timeVerified >= now {
			return old
		}
		next := *old
		next.timeVerified = now
		return &next
	})
}
