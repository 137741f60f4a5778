package memo

// DefaultCapacity is the number of recent top-level calls kept alive across
// garbage collections.
const DefaultCapacity = 10000

type options struct {
	capacity int
}

// Option configures a Database.
type Option func(*options)

// WithCapacity bounds the LRU of recent top-level calls. Non-positive values keep
// the default.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}
