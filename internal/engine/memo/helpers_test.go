package memo_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/pico/internal/engine/memo"
	"go.trai.ch/zerr"
)

type Input struct {
	Name  string
	Value string
}

func (i Input) SourceKey() string {
	return i.Name
}

// counter tracks how often each memoized body ran.
type counter struct {
	mu sync.Mutex
	n  map[string]int
}

var counts = &counter{n: make(map[string]int)}

func (c *counter) hit(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n[name]++
}

func (c *counter) get(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[name]
}

func (c *counter) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = make(map[string]int)
}

var (
	firstLetter = memo.Memo1("test.firstLetter", func(s *memo.Session, id memo.SourceID[Input]) string {
		counts.hit("firstLetter")
		v := memo.Get(s, id).Value
		if v == "" {
			return ""
		}
		return v[:1]
	})

	shout = memo.Memo1("test.shout", func(s *memo.Session, id memo.SourceID[Input]) string {
		counts.hit("shout")
		return strings.ToUpper(firstLetter.Get(s, id))
	})

	twice = memo.Memo1("test.twice", func(s *memo.Session, id memo.SourceID[Input]) string {
		counts.hit("twice")
		l := firstLetter.Get(s, id)
		return l + l
	})

	joined = memo.Memo2("test.joined", func(s *memo.Session, a, b memo.SourceID[Input]) string {
		counts.hit("joined")
		return shout.Get(s, a) + "-" + shout.Get(s, b)
	})
)

func newDB(t *testing.T, opts ...memo.Option) *memo.Database {
	t.Helper()
	counts.reset()
	db := memo.NewDatabase(opts...)
	t.Cleanup(db.Close)
	return db
}

// recoverError runs fn and returns the error it panicked with.
func recoverError(t *testing.T, fn func()) (err error) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		var ok bool
		err, ok = r.(error)
		require.True(t, ok, "expected an error panic, got %T", r)
	}()
	fn()
	return nil
}

func metadata(t *testing.T, err error) map[string]any {
	t.Helper()
	zErr, ok := err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", err)
	return zErr.Metadata()
}
