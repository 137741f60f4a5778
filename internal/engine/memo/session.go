package memo

import (
	"strings"

	"go.trai.ch/zerr"
)

// Session is a read view of a Database carrying the dependency stack of one
// goroutine. Memoized bodies receive the session they run on and must make every
// nested read through it. A Session must not be shared between goroutines, and a
// body must not open further sessions.
type Session struct {
	db    *Database
	stack []*frame
	held  int
}

// Database returns the database the session reads from.
func (s *Session) Database() *Database {
	return s.db
}

// acquire takes the database read lock for the outermost read of the session and
// returns its release.
func (s *Session) acquire() func() {
	if s.held == 0 {
		s.db.checkOpen()
		s.db.exclusive.RLock()
	}
	s.held++
	return s.release
}

func (s *Session) release() {
	s.held--
	if s.held == 0 {
		s.db.exclusive.RUnlock()
	}
}

// topLevel reports whether no memoized call is in flight.
func (s *Session) topLevel() bool {
	return len(s.stack) == 0
}

// enter pushes an empty frame for node.
func (s *Session) enter(node DerivedNodeID, name string) *frame {
	f := &frame{node: node, name: name}
	s.stack = append(s.stack, f)
	return f
}

// leave pops f. It runs deferred so the stack stays balanced when a body panics.
func (s *Session) leave(f *frame) ([]dependency, Epoch) {
	if n := len(s.stack); n > 0 && s.stack[n-1] == f {
		s.stack[n-1] = nil
		s.stack = s.stack[:n-1]
	}
	return f.deps, f.maxChanged
}

// recordIfOpen appends a read to the innermost frame. Reads at the outermost call
// site are not tracked.
func (s *Session) recordIfOpen(t target, timeChanged Epoch) {
	if s.topLevel() {
		return
	}
	s.stack[len(s.stack)-1].record(t, timeChanged, s.db.Epoch())
}

// checkCycle panics if node is already being computed on this session.
func (s *Session) checkCycle(node DerivedNodeID, name string) {
	for i, f := range s.stack {
		if f.node != node {
			continue
		}
		path := make([]string, 0, len(s.stack)-i+1)
		for _, g := range s.stack[i:] {
			path = append(path, g.name)
		}
		path = append(path, name)
		panic(zerr.With(ErrCycleDetected, "cycle", strings.Join(path, " -> ")))
	}
}
