package client

// Status is the lifecycle stage of an asynchronous operation.
type Status int

const (
	Pending Status = iota
	Success
	Failure
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "pending"
	}
}

// Result is the outcome of one API call. The zero value is Pending.
type Result[T any] struct {
	Status Status
	Value  T
	Err    error
}

func succeed[T any](v T) Result[T] { return Result[T]{Status: Success, Value: v} }

func failed[T any](err error) Result[T] { return Result[T]{Status: Failure, Err: err} }

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool { return r.Status == Success }

// Unwrap returns the value and error in the usual Go shape.
func (r Result[T]) Unwrap() (T, error) { return r.Value, r.Err }
