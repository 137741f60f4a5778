package memo

import "errors"

// Result is a memoizable value that may carry a business error. Results are
// memoized like any other value, errors included.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Err wraps a failure.
func Err[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Get unpacks the result.
func (r Result[T]) Get() (T, error) {
	return r.Value, r.Err
}

// Equal reports whether two results hold equal values and equivalent errors.
func (r Result[T]) Equal(other Result[T]) bool {
	if !sameError(r.Err, other.Err) {
		return false
	}
	return equalValues(r.Value, other.Value)
}

func sameError(a, b error) bool {
	switch {
	case a == nil || b == nil:
		return a == nil && b == nil
	case errors.Is(a, b) || errors.Is(b, a):
		return true
	default:
		return a.Error() == b.Error()
	}
}

// TryValue reads a handle to a Result and unpacks it.
func TryValue[T any](s *Session, r MemoRef[Result[T]]) (T, error) {
	return r.Value(s).Get()
}
