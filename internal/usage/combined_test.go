package usage

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCombined(t *testing.T) {
	t.Run("changed when any usage changed", func(t *testing.T) {
		a, b := newTestUsage(), newTestUsage()
		u := NewCombined([]Usage{a, b})

		assert.False(t, u.HasChanges())

		a.changes = true
		assert.True(t, u.HasChanges())

		b.changes = true
		a.changes = false
		assert.True(t, u.HasChanges())

		b.changes = false
		assert.False(t, u.HasChanges())
	})

	t.Run("registers with all usages", func(t *testing.T) {
		a, b := newTestUsage(), newTestUsage()
		u := NewCombined([]Usage{a, b})

		cleanup := u.OnNextChange(func(bool) bool { return false })
		assert.Equal(t, 1, a.count())
		assert.Equal(t, 1, b.count())

		cleanup()
		assert.Equal(t, 0, a.count())
		assert.Equal(t, 0, b.count())

		// cleaning up twice is harmless
		cleanup()
	})

	t.Run("non repeating listener is removed after first change", func(t *testing.T) {
		a, b := newTestUsage(), newTestUsage()
		u := NewCombined([]Usage{a, b})

		count := 0
		u.OnNextChange(func(bool) bool {
			count++
			return false
		})

		keep := a.first()(false)

		assert.False(t, keep)
		assert.Equal(t, 1, count)
		assert.Equal(t, 0, a.count())
		assert.Equal(t, 0, b.count())
	})

	t.Run("repeating listener remains registered", func(t *testing.T) {
		a, b := newTestUsage(), newTestUsage()
		u := NewCombined([]Usage{a, b})

		count := 0
		u.OnNextChange(func(bool) bool {
			count++
			return true
		})

		keep := a.first()(false)

		assert.True(t, keep)
		assert.Equal(t, 1, count)
		assert.Equal(t, 1, a.count())
		assert.Equal(t, 1, b.count())
	})

	t.Run("immediate change stops registration", func(t *testing.T) {
		a, b := newTestUsage(), newTestUsage()
		a.immediate = true
		u := NewCombined([]Usage{a, b})

		var log []bool
		u.OnNextChange(func(immediate bool) bool {
			log = append(log, immediate)
			return false
		})

		assert.Equal(t, []bool{true}, log)
		assert.Equal(t, 0, a.count())
		assert.Equal(t, 0, b.count(), "b should never have been registered")
	})

	t.Run("immediate change with repeating listener keeps registering", func(t *testing.T) {
		a, b := newTestUsage(), newTestUsage()
		a.immediate = true
		u := NewCombined([]Usage{a, b})

		count := 0
		u.OnNextChange(func(bool) bool {
			count++
			return true
		})

		assert.Equal(t, 1, count)
		assert.Equal(t, 1, a.count())
		assert.Equal(t, 1, b.count())
	})

	t.Run("cleanup from inside the listener", func(t *testing.T) {
		a, b := newTestUsage(), newTestUsage()
		u := NewCombined([]Usage{a, b})

		var cleanup CleanupFunc
		cleanup = u.OnNextChange(func(bool) bool {
			cleanup()
			return true
		})

		keep := b.first()(false)

		assert.False(t, keep)
		assert.Equal(t, 0, a.count())
		assert.Equal(t, 0, b.count())
	})

	t.Run("first change wins", func(t *testing.T) {
		a, b, c := newTestUsage(), newTestUsage(), newTestUsage()
		u := NewCombined([]Usage{a, b, c})

		var count atomic.Int32
		release := make(chan struct{})
		u.OnNextChange(func(bool) bool {
			count.Add(1)
			<-release
			return false
		})

		la, lb := a.first(), b.first()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			la(false)
		}()
		go func() {
			defer wg.Done()
			lb(false)
		}()

		// one of them is blocked in the listener, the other one is folded into it
		assert.Eventually(t, func() bool { return count.Load() == 1 }, time.Second, time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), count.Load())
		assert.Equal(t, 0, a.count())
		assert.Equal(t, 0, b.count())
		assert.Equal(t, 0, c.count())

		// late changes don't reach the listener
		c.fire()
		assert.Equal(t, int32(1), count.Load())
	})

	t.Run("change during a repeating listener runs it again", func(t *testing.T) {
		a, b := newTestUsage(), newTestUsage()
		u := NewCombined([]Usage{a, b})

		var count atomic.Int32
		release := make(chan struct{})
		u.OnNextChange(func(bool) bool {
			if count.Add(1) == 1 {
				<-release
			}
			return true
		})

		la, lb := a.first(), b.first()

		done := make(chan bool)
		go func() {
			done <- la(false)
		}()
		assert.Eventually(t, func() bool { return count.Load() == 1 }, time.Second, time.Millisecond)

		// folded into the call blocked above
		assert.True(t, lb(false))
		assert.Equal(t, int32(1), count.Load())

		close(release)
		assert.True(t, <-done)

		assert.Equal(t, int32(2), count.Load())
		assert.Equal(t, 1, a.count())
		assert.Equal(t, 1, b.count())
	})

	t.Run("own changes of any usage", func(t *testing.T) {
		a, b := newTestUsage(), newTestUsage()
		u := NewCombined([]Usage{a, b})

		assert.False(t, u.OwnChanges())

		b.own = true
		assert.True(t, u.OwnChanges())
	})
}
