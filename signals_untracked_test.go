package signals

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUntracked(t *testing.T) {
	t.Run("does not track reads", func(t *testing.T) {
		log := []string{}

		count := NewValueSignal(0)

		stop := Effect(func() {
			c := Untracked(count.Value)
			log = append(log, fmt.Sprintf("effect %d", c))
		})
		defer stop()

		count.Set(10)

		assert.Equal(t, []string{
			"effect 0",
		}, log)
	})

	t.Run("nested untracked blocks", func(t *testing.T) {
		a := NewValueSignal(1)
		b := NewValueSignal(2)

		deps := Track(func() {
			Untracked(func() int {
				return Untracked(a.Value) + b.Value()
			})
		})
		assert.Equal(t, None, deps)
	})

	t.Run("tracking resumes after the block", func(t *testing.T) {
		a := NewValueSignal(1)
		b := NewValueSignal(2)

		deps := Track(func() {
			Untracked(a.Value)
			b.Value()
		})

		a.Set(5)
		assert.False(t, deps.HasChanges())

		b.Set(5)
		assert.True(t, deps.HasChanges())
	})

	t.Run("reads are allowed but not tracked", func(t *testing.T) {
		assert.False(t, IsGetAllowed())

		Untracked(func() bool {
			assert.True(t, IsGetAllowed())
			assert.False(t, IsActive())
			return true
		})

		Track(func() {
			assert.True(t, IsGetAllowed())
			assert.True(t, IsActive())
		})
	})
}

func TestDetectors(t *testing.T) {
	t.Run("necessary detector requires a read", func(t *testing.T) {
		d := NecessaryDetector("The callback must read a signal.")
		d.Run(func() {})

		_, err := d.Dependencies()
		assert.ErrorIs(t, err, ErrMissingUsage)
		assert.ErrorContains(t, err, "Expected at least one signal value read")
	})

	t.Run("collecting detector accepts no read", func(t *testing.T) {
		d := CollectingDetector()
		d.Run(func() {})

		deps, err := d.Dependencies()
		require.NoError(t, err)
		assert.False(t, deps.HasChanges())
	})

	t.Run("denied detector refuses reads", func(t *testing.T) {
		count := NewValueSignal(0)

		d := DeniedDetector("Not while rendering.")

		assert.Panics(t, func() {
			d.Run(func() {
				count.Value()
			})
		})
	})

	t.Run("write after read is circular", func(t *testing.T) {
		count := NewValueSignal(0)

		d := CollectingDetector()
		d.Run(func() {
			count.Set(count.Value() + 1)
		})

		_, err := d.Dependencies()
		assert.ErrorIs(t, err, ErrCircularUsage)
	})

	t.Run("write before read is fine", func(t *testing.T) {
		count := NewValueSignal(0)

		d := CollectingDetector()
		d.Run(func() {
			count.Set(1)
			count.Value()
		})

		_, err := d.Dependencies()
		require.NoError(t, err)
	})
}
