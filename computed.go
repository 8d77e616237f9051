package signals

import (
	"github.com/AnatoleLucet/signals/internal/computed"
)

type Computed[T any] struct {
	computed *computed.Computed
}

// NewComputed creates a signal whose value is derived from other signals. fn runs
// lazily, on the first read and then only when something it read changed.
func NewComputed[T any](fn func() T) *Computed[T] {
	return NewComputedErr(func() (T, error) {
		return fn(), nil
	})
}

// NewComputedErr is NewComputed for computations that can fail. The error is cached
// like a value.
func NewComputedErr[T any](fn func() (T, error)) *Computed[T] {
	return &Computed[T]{
		computed.New(func() (any, error) {
			return fn()
		}, nil),
	}
}

// NewComputedEqual is NewComputed with a custom equality. Dependents are only told
// about changes equal reports.
func NewComputedEqual[T any](fn func() T, equal func(a, b T) bool) *Computed[T] {
	return &Computed[T]{
		computed.New(func() (any, error) {
			return fn(), nil
		}, func(a, b any) bool {
			return equal(as[T](a), as[T](b))
		}),
	}
}

// Value returns the current value, tracking it as a dependency of the current
// computation. It panics with the error of a failed computation.
func (c *Computed[T]) Value() T {
	v, err := c.Result()
	if err != nil {
		panic(err)
	}
	return v
}

// Result returns the current value, or the error of a failed computation.
func (c *Computed[T]) Result() (T, error) {
	checkRead()

	v, err := c.computed.Read()
	return as[T](v), err
}

// Peek panics with ErrUnsupported.
func (c *Computed[T]) Peek() T {
	panic(ErrUnsupported)
}

// Listen calls fn every time the value changes until fn returns false or stop is
// called.
func (c *Computed[T]) Listen(fn func() bool) (stop func()) {
	return c.computed.Listen(fn)
}

// Usage returns the usage of the current value without tracking it.
func (c *Computed[T]) Usage() Usage {
	return c.computed.Usage()
}
