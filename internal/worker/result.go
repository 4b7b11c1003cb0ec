package worker

// Result is the outcome of a background call: a value or the reason it failed.
type Result[T any] struct {
	Value T
	Err   error
}

func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Unpack returns the result as a Go value/error pair.
func (r Result[T]) Unpack() (T, error) {
	return r.Value, r.Err
}

func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}
