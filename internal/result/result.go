// Package result provides a two-state outcome type used where several fallible
// reads are collected before any derived value is computed.
package result

import (
	"fmt"

	domainerrors "github.com/bucketlistapp/bucketlist-server/internal/errors"
)

// Result holds either a value or a tagged error, never both.
type Result[T any] struct {
	value   T
	err     *domainerrors.Error
	success bool
}

// Success creates a successful result.
func Success[T any](value T) Result[T] {
	return Result[T]{value: value, success: true}
}

// Failure creates a failed result. A nil error is recorded as an application error.
func Failure[T any](err *domainerrors.Error) Result[T] {
	if err == nil {
		err = domainerrors.Internal("failure without error")
	}
	return Result[T]{err: err}
}

// IsSuccess returns true if the result is successful.
func (r Result[T]) IsSuccess() bool {
	return r.success
}

// IsFailure returns true if the result is a failure.
func (r Result[T]) IsFailure() bool {
	return !r.success
}

// Value returns the success value.
// Should only be called after checking IsSuccess().
func (r Result[T]) Value() T {
	return r.value
}

// Err returns the error if the result is a failure, nil otherwise.
func (r Result[T]) Err() *domainerrors.Error {
	return r.err
}

// Unpack converts the result back into Go's (value, error) convention.
func (r Result[T]) Unpack() (T, error) {
	if r.success {
		return r.value, nil
	}
	var zero T
	return zero, r.err
}

// OrElse returns the success value or the provided default if failure.
func (r Result[T]) OrElse(defaultValue T) T {
	if r.success {
		return r.value
	}
	return defaultValue
}

// Of builds a result from a (value, error) pair, tagging foreign errors.
func Of[T any](value T, err error) Result[T] {
	if err != nil {
		return Failure[T](domainerrors.From(err))
	}
	return Success(value)
}

// Wrap runs fn and captures its outcome. Any error, including a recovered
// panic, is passed through mapErr; a nil mapErr tags errors with
// domainerrors.From.
func Wrap[T any](fn func() (T, error), mapErr func(error) *domainerrors.Error) (res Result[T]) {
	if mapErr == nil {
		mapErr = domainerrors.From
	}
	defer func() {
		if p := recover(); p != nil {
			err, ok := p.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", p)
			}
			res = Failure[T](mapErr(err))
		}
	}()

	value, err := fn()
	if err != nil {
		return Failure[T](mapErr(err))
	}
	return Success(value)
}

// Map transforms a successful result's value using the provided function.
// If the result is a failure, it returns the failure unchanged.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.IsFailure() {
		return Failure[U](r.err)
	}
	return Success(fn(r.value))
}

// FlatMap chains result-returning operations.
func FlatMap[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if r.IsFailure() {
		return Failure[U](r.err)
	}
	return fn(r.value)
}

// Match applies one of two functions depending on success/failure state.
func Match[T, U any](r Result[T], onSuccess func(T) U, onFailure func(*domainerrors.Error) U) U {
	if r.IsSuccess() {
		return onSuccess(r.value)
	}
	return onFailure(r.err)
}

// Combine collects homogeneous results. The first failure in argument order
// wins; an empty input yields an empty success.
func Combine[T any](results ...Result[T]) Result[[]T] {
	values := make([]T, 0, len(results))
	for _, r := range results {
		if r.IsFailure() {
			return Failure[[]T](r.err)
		}
		values = append(values, r.value)
	}
	return Success(values)
}

// Pair holds two heterogeneous values.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Triple holds three heterogeneous values.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// Join combines two results with the same first-failure rule as Combine.
func Join[A, B any](a Result[A], b Result[B]) Result[Pair[A, B]] {
	if a.IsFailure() {
		return Failure[Pair[A, B]](a.err)
	}
	if b.IsFailure() {
		return Failure[Pair[A, B]](b.err)
	}
	return Success(Pair[A, B]{First: a.value, Second: b.value})
}

// Join3 combines three results with the same first-failure rule as Combine.
func Join3[A, B, C any](a Result[A], b Result[B], c Result[C]) Result[Triple[A, B, C]] {
	if a.IsFailure() {
		return Failure[Triple[A, B, C]](a.err)
	}
	if b.IsFailure() {
		return Failure[Triple[A, B, C]](b.err)
	}
	if c.IsFailure() {
		return Failure[Triple[A, B, C]](c.err)
	}
	return Success(Triple[A, B, C]{First: a.value, Second: b.value, Third: c.value})
}
