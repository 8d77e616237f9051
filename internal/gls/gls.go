// Package gls keeps per-goroutine values.
//
// Reactive reads don't carry a context parameter, so the registrar a read should report
// to and the transaction it should read through are looked up from the calling goroutine.
package gls

import "sync"

// Slot holds one value per goroutine.
type Slot[T any] struct {
	values sync.Map // goroutine id -> T
}

// Get returns the value stored for the calling goroutine.
func (s *Slot[T]) Get() (T, bool) {
	if v, ok := s.values.Load(ID()); ok {
		return v.(T), true
	}

	var zero T
	return zero, false
}

// Enter stores v for the calling goroutine and returns a func restoring the previous
// state. The restore func must run on the same goroutine, usually through defer.
func (s *Slot[T]) Enter(v T) (restore func()) {
	gid := ID()

	prev, hadPrev := s.values.Load(gid)
	s.values.Store(gid, v)

	return func() {
		if hadPrev {
			s.values.Store(gid, prev)
		} else {
			// drop the entry so finished goroutines don't leak slots
			s.values.Delete(gid)
		}
	}
}
