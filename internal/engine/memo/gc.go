package memo

// GCStats describes one garbage collection run.
type GCStats struct {
	Epoch            Epoch
	Roots            int
	RetainedDerived  int
	CollectedDerived int
	RetainedParams   int
	CollectedParams  int
}

// RunGarbageCollection drops every derived node that is not reachable from a
// retained query or a recent top-level call, along with the params only those
// nodes used. Sources are never collected. The database is locked for the whole
// sweep.
func (db *Database) RunGarbageCollection() GCStats {
	db.checkOpen()
	db.exclusive.Lock()
	defer db.exclusive.Unlock()

	roots := append(db.pinned(), db.recent.Keys()...)
	marked := make(map[DerivedNodeID]struct{}, len(roots))
	params := make(map[ParamID]struct{}, len(roots))

	queue := roots
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, seen := marked[id]; seen {
			continue
		}
		node, ok := db.derived.load(id)
		if !ok {
			continue
		}
		marked[id] = struct{}{}
		params[id.Param] = struct{}{}
		for _, dep := range node.deps {
			if dep.target.kind == targetDerived {
				queue = append(queue, dep.target.node)
			}
		}
	}

	collected := db.derived.retainOnly(func(id DerivedNodeID) bool {
		_, ok := marked[id]
		return ok
	})
	collectedParams := db.params.retainOnly(func(p ParamID) bool {
		_, ok := params[p]
		return ok
	})

	// Top-level calls that never committed a node (their body panicked) are
	// forgotten.
	for _, id := range db.recent.Keys() {
		if _, ok := marked[id]; !ok {
			db.recent.Remove(id)
		}
	}

	return GCStats{
		Epoch:            db.Epoch(),
		Roots:            len(roots),
		RetainedDerived:  len(marked),
		CollectedDerived: collected,
		RetainedParams:   len(params),
		CollectedParams:  collectedParams,
	}
}
