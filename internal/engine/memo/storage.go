package memo

import "sync"

const shardCount = 32

// shard is one lock domain of a shardedMap.
type shard[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
}

// shardedMap spreads entries over independently locked maps so unrelated keys
// never contend on one mutex.
type shardedMap[K comparable, V any] struct {
	shards [shardCount]shard[K, V]
	spread func(K) uint64
}

func newShardedMap[K comparable, V any](spread func(K) uint64) *shardedMap[K, V] {
	m := &shardedMap[K, V]{spread: spread}
	for i := range m.shards {
		m.shards[i].entries = make(map[K]V)
	}
	return m
}

func (m *shardedMap[K, V]) shardFor(k K) *shard[K, V] {
	return &m.shards[m.spread(k)%shardCount]
}

func (m *shardedMap[K, V]) load(k K) (V, bool) {
	s := m.shardFor(k)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[k]
	return v, ok
}

func (m *shardedMap[K, V]) has(k K) bool {
	_, ok := m.load(k)
	return ok
}

func (m *shardedMap[K, V]) store(k K, v V) {
	s := m.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[k] = v
}

// loadOrStore keeps the existing entry if there is one.
func (m *shardedMap[K, V]) loadOrStore(k K, v V) (V, bool) {
	s := m.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.entries[k]; ok {
		return old, true
	}
	s.entries[k] = v
	return v, false
}

// update replaces the entry for k with the result of fn, atomically with respect
// to other writers of the same shard.
func (m *shardedMap[K, V]) update(k K, fn func(old V, ok bool) V) V {
	s := m.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.entries[k]
	v := fn(old, ok)
	s.entries[k] = v
	return v
}

func (m *shardedMap[K, V]) delete(k K) {
	s := m.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, k)
}

func (m *shardedMap[K, V]) len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// retainOnly rebuilds every shard with the entries keep accepts and returns how
// many were dropped.
func (m *shardedMap[K, V]) retainOnly(keep func(K) bool) int {
	dropped := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		next := make(map[K]V, len(s.entries))
		for k, v := range s.entries {
			if keep(k) {
				next[k] = v
				continue
			}
			dropped++
		}
		s.entries = next
		s.mu.Unlock()
	}
	return dropped
}

func spreadKey(k Key) uint64 { return uint64(k) }
func spreadParam(p ParamID) uint64 { return uint64(p) }
func spreadNode(id DerivedNodeID) uint64 { return uint64(id.Fn) ^ uint64(id.Param) }
