package tree

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/AnatoleLucet/signals/internal/gls"
)

// Transaction is the context reads and writes go through.
type Transaction interface {
	Read(t *Tree, id Id) (Data, bool)
	Apply(t *Tree, id Id, cmd Command) (Data, error)
}

var current gls.Slot[Transaction]

// Current returns the transaction of the calling goroutine. Outside of any transaction
// reads and writes go straight to the trees.
func Current() Transaction {
	if tx, ok := current.Get(); ok {
		return tx
	}
	return direct{}
}

// RunInTransaction runs fn in a staged transaction: writes are only visible inside fn
// until it returns, then they're committed tree by tree. An error or a panic from fn
// discards them. Nested calls join the outer transaction.
func RunInTransaction(fn func() error) error {
	if _, ok := Current().(*staged); ok {
		return fn()
	}

	tx := newStaged()

	err := func() error {
		restore := current.Enter(tx)
		defer restore()

		return fn()
	}()
	if err != nil {
		return err
	}

	return tx.commit()
}

// RunWithoutTransaction runs fn reading and writing the trees directly, even from
// inside a staged transaction.
func RunWithoutTransaction(fn func()) {
	restore := current.Enter(direct{})
	defer restore()

	fn()
}

type direct struct{}

func (direct) Read(t *Tree, id Id) (Data, bool) {
	return t.Read(id)
}

func (direct) Apply(t *Tree, id Id, cmd Command) (Data, error) {
	return t.Apply(id, cmd)
}

type stage struct {
	data  map[Id]Data
	dirty mapset.Set[Id]
	steps []Step
}

type staged struct {
	trees  map[*Tree]*stage
	order  []*Tree
	writer int64
}

func newStaged() *staged {
	return &staged{
		trees:  make(map[*Tree]*stage),
		writer: gls.ID(),
	}
}

func (s *staged) Read(t *Tree, id Id) (Data, bool) {
	if st, ok := s.trees[t]; ok && st.dirty.Contains(id) {
		return st.data[id], true
	}
	return t.Read(id)
}

func (s *staged) Apply(t *Tree, id Id, cmd Command) (Data, error) {
	if t.Kind() == KindComputed {
		return t.Apply(id, cmd)
	}

	current, exists := s.Read(t, id)

	value, err := cmd(current, exists)
	if err != nil {
		return current, err
	}

	st, ok := s.trees[t]
	if !ok {
		st = &stage{
			data:  make(map[Id]Data),
			dirty: mapset.NewThreadUnsafeSet[Id](),
		}
		s.trees[t] = st
		s.order = append(s.order, t)
	}

	st.data[id] = Data{Value: value, Version: nextVersion(), Writer: s.writer}
	st.dirty.Add(id)
	st.steps = append(st.steps, Step{Id: id, Command: cmd})

	return current, nil
}

func (s *staged) commit() error {
	for _, t := range s.order {
		if err := t.ApplyAll(s.trees[t].steps); err != nil {
			return err
		}
	}
	return nil
}
