package signals

import "reflect"

// MappedModify is a read/write view on a part of another signal's value. Reads apply
// get to the parent value, writes modify the parent value in place.
type MappedModify[P, C any] struct {
	parent Modifiable[P]
	get    func(P) C
	modify func(*P, C)
	equal  func(a, b C) bool
}

// NewMappedModify creates a view on parent. modify gets a copy of the parent value to
// change, it must not change data shared with the previous value.
func NewMappedModify[P, C any](parent Modifiable[P], get func(P) C, modify func(*P, C)) *MappedModify[P, C] {
	return &MappedModify[P, C]{
		parent: parent,
		get:    get,
		modify: modify,
		equal: func(a, b C) bool {
			return reflect.DeepEqual(a, b)
		},
	}
}

// WithEqual sets the equality CompareAndSet uses.
func (m *MappedModify[P, C]) WithEqual(equal func(a, b C) bool) *MappedModify[P, C] {
	m.equal = equal
	return m
}

// Value returns the mapped value of the parent, tracking the parent.
func (m *MappedModify[P, C]) Value() C {
	return m.get(m.parent.Value())
}

// Peek returns the mapped value of the parent without tracking it.
func (m *MappedModify[P, C]) Peek() C {
	return m.get(m.parent.Peek())
}

// Set writes v into the parent and returns the previous mapped value.
func (m *MappedModify[P, C]) Set(v C) C {
	prev, _ := m.UpdateErr(func(C) (C, error) {
		return v, nil
	})
	return prev
}

// CompareAndSet writes v into the parent if the mapped value currently equals
// expected. It returns ErrUnexpectedValue and leaves the parent untouched otherwise.
func (m *MappedModify[P, C]) CompareAndSet(expected, v C) error {
	_, err := m.UpdateErr(func(current C) (C, error) {
		if !m.equal(current, expected) {
			return current, ErrUnexpectedValue
		}
		return v, nil
	})
	return err
}

// Update writes fn applied to the mapped value into the parent and returns the
// previous mapped value.
func (m *MappedModify[P, C]) Update(fn func(C) C) C {
	prev, _ := m.UpdateErr(func(current C) (C, error) {
		return fn(current), nil
	})
	return prev
}

func (m *MappedModify[P, C]) UpdateErr(fn func(C) (C, error)) (C, error) {
	prev, err := m.parent.UpdateErr(func(p P) (P, error) {
		v, err := fn(m.get(p))
		if err != nil {
			return p, err
		}

		m.modify(&p, v)
		return p, nil
	})
	return m.get(prev), err
}
