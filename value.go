package signals

import (
	"errors"
	"reflect"

	"github.com/AnatoleLucet/signals/internal/tree"
	"github.com/AnatoleLucet/signals/internal/usage"
)

// Modifiable is a signal whose value can be read and atomically updated.
type Modifiable[T any] interface {
	Value() T
	Peek() T

	// UpdateErr replaces the value with the result of fn and returns the previous
	// value. Nothing is written when fn fails. fn may run more than once when the value
	// is changed concurrently.
	UpdateErr(fn func(T) (T, error)) (T, error)
}

// all the standalone signals share one tree so a transaction commits them together
var values = tree.New(tree.KindSync)

type ValueSignal[T any] struct {
	tree *tree.Tree
	id   tree.Id
}

// NewValueSignal creates a read/write signal holding initial.
func NewValueSignal[T any](initial T) *ValueSignal[T] {
	s := &ValueSignal[T]{tree: values, id: tree.NewId()}

	// created outside of any transaction, the node must exist for every reader
	s.tree.Apply(s.id, func(tree.Data, bool) (any, error) {
		return initial, nil
	})

	return s
}

// Value returns the current value, tracking it as a dependency of the current
// computation.
func (s *ValueSignal[T]) Value() T {
	checkRead()

	tx := tree.Current()
	if usage.IsActive() {
		// registered before reading so a write in between shows up as a change
		usage.Register(s.tree.Usage(tx, s.id, tree.Version, sameVersion))
	}

	d, _ := tx.Read(s.tree, s.id)
	return as[T](d.Value)
}

// Peek returns the current value without tracking it.
func (s *ValueSignal[T]) Peek() T {
	d, _ := tree.Current().Read(s.tree, s.id)
	return as[T](d.Value)
}

// Set replaces the value and returns the previous one.
func (s *ValueSignal[T]) Set(v T) T {
	prev, _ := s.UpdateErr(func(T) (T, error) {
		return v, nil
	})
	return prev
}

// CompareAndSet replaces the value with v if it currently equals expected. It returns
// ErrUnexpectedValue otherwise.
func (s *ValueSignal[T]) CompareAndSet(expected, v T) error {
	_, err := s.UpdateErr(func(current T) (T, error) {
		if !reflect.DeepEqual(current, expected) {
			return current, ErrUnexpectedValue
		}
		return v, nil
	})
	return err
}

// Update replaces the value with fn applied to it and returns the previous value.
func (s *ValueSignal[T]) Update(fn func(T) T) T {
	prev, _ := s.UpdateErr(func(current T) (T, error) {
		return fn(current), nil
	})
	return prev
}

func (s *ValueSignal[T]) UpdateErr(fn func(T) (T, error)) (T, error) {
	prev, err := tree.Current().Apply(s.tree, s.id, func(current tree.Data, _ bool) (any, error) {
		return fn(as[T](current.Value))
	})
	return as[T](prev.Value), err
}

// Modify changes the value in place. fn works on a copy and may run more than once, it
// must not change data shared with the previous value.
func (s *ValueSignal[T]) Modify(fn func(*T)) {
	s.Update(func(v T) T {
		fn(&v)
		return v
	})
}

// Usage returns the usage of the current value without reading it.
func (s *ValueSignal[T]) Usage() Usage {
	return s.tree.Usage(tree.Current(), s.id, tree.Version, sameVersion)
}

func sameVersion(a, b any) bool {
	return a == b
}

// Map returns a computed signal applying fn to the value of s.
func Map[T, C any](s interface{ Value() T }, fn func(T) C) *Computed[C] {
	return NewComputed(func() C {
		return fn(s.Value())
	})
}

// Store holds named signals. Looking up a name twice gives signals sharing one value.
type Store struct {
	tree *tree.Tree
}

func NewStore() *Store {
	return &Store{tree: tree.New(tree.KindSync)}
}

var errExists = errors.New("exists")

// StoreValue returns the signal stored under name, creating it with initial when the
// store doesn't have it yet. It fails with a *StoreTypeError when name already holds a
// value of another type.
func StoreValue[T any](store *Store, name string, initial T) (*ValueSignal[T], error) {
	s := &ValueSignal[T]{tree: store.tree, id: tree.NamedId(name)}

	// only the first lookup writes
	_, err := s.tree.Apply(s.id, func(current tree.Data, exists bool) (any, error) {
		if !exists {
			return initial, nil
		}
		if _, ok := current.Value.(T); !ok && current.Value != nil {
			return nil, &StoreTypeError{
				Name: name,
				Want: reflect.TypeOf((*T)(nil)).Elem(),
				Got:  reflect.TypeOf(current.Value),
			}
		}
		return nil, errExists
	})
	if err != nil && !errors.Is(err, errExists) {
		return nil, err
	}

	return s, nil
}
