package memo

import "go.trai.ch/zerr"

// call resolves a memoized call and records it in the caller's frame. Calls made
// outside any frame are remembered as recent top-level calls.
func (s *Session) call(id DerivedNodeID, fn *function) *derivedNode {
	release := s.acquire()
	defer release()

	if s.topLevel() {
		s.db.recent.Add(id, struct{}{})
	}
	node := s.execute(id, fn)
	s.recordIfOpen(derivedTarget(id), node.timeChanged)
	return node
}

// execute returns a node that is valid at the current epoch, re-verifying or
// recomputing it as needed. It does not record anything in the caller's frame.
func (s *Session) execute(id DerivedNodeID, fn *function) *derivedNode {
	s.checkCycle(id, fn.name)
	now := s.db.Epoch()

	node, ok := s.db.derived.load(id)
	switch {
	case !ok:
		return s.compute(id, fn)
	case node.timeVerified == now:
		s.db.reuses.Add(1)
		return node
	case s.depsChanged(node, now):
		return s.compute(id, fn)
	default:
		s.db.reuses.Add(1)
		return s.db.markVerified(id, node, now)
	}
}

// depsChanged walks the recorded dependencies of node. Derived dependencies are
// brought up to date first so the comparison sees their current timeChanged.
func (s *Session) depsChanged(node *derivedNode, now Epoch) bool {
	for _, dep := range node.deps {
		if dep.recordedAt == now {
			continue
		}
		if s.targetChanged(dep) {
			return true
		}
	}
	return false
}

func (s *Session) targetChanged(dep dependency) bool {
	switch dep.target.kind {
	case targetDerived:
		child, ok := s.db.derived.load(dep.target.node)
		if !ok {
			// Collected since it was read. Recomputing the dependent calls it again.
			return true
		}
		child = s.execute(dep.target.node, child.fn)
		return child.timeChanged > dep.recordedAt
	case targetSingleton:
		src, ok := s.db.sources.load(dep.target.key)
		if !ok {
			// Singletons are never removed, so it is still unset.
			return false
		}
		return src.timeChanged > dep.recordedAt
	default:
		src, ok := s.db.sources.load(dep.target.key)
		if !ok {
			panic(zerr.With(ErrSourceNotFound, "key", uint64(dep.target.key)))
		}
		return src.timeChanged > dep.recordedAt
	}
}

// compute runs the body of fn under a fresh frame and commits the result.
func (s *Session) compute(id DerivedNodeID, fn *function) *derivedNode {
	f := s.enter(id, fn.name)
	defer s.leave(f)

	value := fn.run(s, id.Param)
	deps, maxChanged := s.leave(f)
	s.db.executions.Add(1)
	return s.db.commit(id, fn, value, deps, maxChanged)
}
