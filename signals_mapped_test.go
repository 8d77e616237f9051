package signals

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	Name string
	Age  int
}

func TestMappedModify(t *testing.T) {
	newAge := func(p *ValueSignal[person]) *MappedModify[person, int] {
		return NewMappedModify[person, int](p,
			func(p person) int { return p.Age },
			func(p *person, age int) { p.Age = age },
		)
	}

	t.Run("reads through the parent", func(t *testing.T) {
		p := NewValueSignal(person{"ada", 36})
		age := newAge(p)

		assert.Equal(t, 36, age.Value())
		assert.Equal(t, 36, age.Peek())

		p.Set(person{"ada", 37})
		assert.Equal(t, 37, age.Peek())
	})

	t.Run("writes modify the parent", func(t *testing.T) {
		p := NewValueSignal(person{"ada", 36})
		age := newAge(p)

		prev := age.Set(40)
		assert.Equal(t, 36, prev)
		assert.Equal(t, 40, age.Value())
		assert.Equal(t, person{"ada", 40}, p.Peek())

		prev = age.Update(func(v int) int { return v + 1 })
		assert.Equal(t, 40, prev)
		assert.Equal(t, person{"ada", 41}, p.Peek())
	})

	t.Run("compare and set", func(t *testing.T) {
		p := NewValueSignal(person{"ada", 36})
		age := newAge(p)

		err := age.CompareAndSet(20, 21)
		assert.ErrorIs(t, err, ErrUnexpectedValue)
		assert.Equal(t, person{"ada", 36}, p.Peek())

		require.NoError(t, age.CompareAndSet(36, 37))
		assert.Equal(t, person{"ada", 37}, p.Peek())
	})

	t.Run("custom equality", func(t *testing.T) {
		p := NewValueSignal(person{"Ada", 36})
		name := NewMappedModify[person, string](p,
			func(p person) string { return p.Name },
			func(p *person, name string) { p.Name = name },
		).WithEqual(strings.EqualFold)

		require.NoError(t, name.CompareAndSet("ADA", "grace"))
		assert.Equal(t, "grace", p.Peek().Name)
	})

	t.Run("stacks", func(t *testing.T) {
		type team struct{ Lead person }

		tm := NewValueSignal(team{person{"ada", 36}})
		lead := NewMappedModify[team, person](tm,
			func(t team) person { return t.Lead },
			func(t *team, p person) { t.Lead = p },
		)
		age := NewMappedModify[person, int](lead,
			func(p person) int { return p.Age },
			func(p *person, age int) { p.Age = age },
		)

		age.Set(50)
		assert.Equal(t, 50, tm.Peek().Lead.Age)
		assert.Equal(t, "ada", tm.Peek().Lead.Name)
	})

	t.Run("reads track the parent", func(t *testing.T) {
		p := NewValueSignal(person{"ada", 36})
		age := newAge(p)

		deps := Track(func() {
			age.Value()
		})

		age.Set(37)
		assert.True(t, deps.HasChanges())
	})
}
