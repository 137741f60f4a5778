package memo

// Stats is a point-in-time summary of a database.
type Stats struct {
	Epoch      Epoch
	Sources    int
	Derived    int
	Params     int
	Recent     int
	Retained   int
	Executions uint64
	Reuses     uint64
}

// Stats reports sizes and counters. Executions counts memoized bodies run,
// Reuses counts calls answered without running one.
func (db *Database) Stats() Stats {
	db.retainMu.Lock()
	retained := len(db.retained) + len(db.permanent)
	db.retainMu.Unlock()

	return Stats{
		Epoch:      db.Epoch(),
		Sources:    db.sources.len(),
		Derived:    db.derived.len(),
		Params:     db.params.len(),
		Recent:     db.recent.Len(),
		Retained:   retained,
		Executions: db.executions.Load(),
		Reuses:     db.reuses.Load(),
	}
}
