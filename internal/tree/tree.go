// Package tree is an in-memory versioned value store.
//
// Each node holds an opaque value and the version of its last write. Writes are
// optimistic: commands run without any lock held and are retried when the node changed
// in the meantime. Observers are notified once per write, after the tree lock is
// released.
package tree

import (
	"sync"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/AnatoleLucet/signals/internal/gls"
	"github.com/AnatoleLucet/signals/internal/usage"
)

type Kind int

const (
	// KindSync trees take part in staged transactions.
	KindSync Kind = iota

	// KindComputed trees hold derived state. They're always written directly, even
	// inside a staged transaction.
	KindComputed
)

// Data is the state of one node.
type Data struct {
	Value   any
	Version uint64

	// goroutine id of the last writer
	Writer int64
}

// Command derives the new value of a node from its current data.
// exists is false for a node that was never written.
type Command func(current Data, exists bool) (any, error)

// Step is one command of a batch.
type Step struct {
	Id      Id
	Command Command
}

var lastVersion atomic.Uint64

func nextVersion() uint64 {
	return lastVersion.Add(1)
}

type observer struct {
	id Id
	fn func() bool
}

type Tree struct {
	kind Kind

	mu        sync.Mutex
	nodes     map[Id]Data
	observers map[Id]mapset.Set[*observer]
}

func New(kind Kind) *Tree {
	return &Tree{
		kind:      kind,
		nodes:     make(map[Id]Data),
		observers: make(map[Id]mapset.Set[*observer]),
	}
}

func (t *Tree) Kind() Kind {
	return t.kind
}

// Read returns the committed data of a node.
func (t *Tree) Read(id Id) (Data, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	d, ok := t.nodes[id]
	return d, ok
}

// Apply runs cmd against the committed data of a node and stores the result.
// It returns the data the command was applied to.
func (t *Tree) Apply(id Id, cmd Command) (Data, error) {
	for {
		current, exists := t.Read(id)

		value, err := cmd(current, exists)
		if err != nil {
			return current, err
		}

		if t.commit(map[Id]Data{id: current}, map[Id]any{id: value}) {
			return current, nil
		}
		// someone else wrote the node meanwhile, run the command again on fresh data
	}
}

// ApplyAll runs a batch of commands and stores all the results at once, or none of
// them when a command fails.
func (t *Tree) ApplyAll(steps []Step) error {
	for {
		read := make(map[Id]Data)
		values := make(map[Id]any)

		for _, step := range steps {
			current, exists := t.Read(step.Id)
			if _, seen := read[step.Id]; !seen {
				read[step.Id] = current
			}
			if v, written := values[step.Id]; written {
				current = Data{Value: v, Version: current.Version}
				exists = true
			}

			value, err := step.Command(current, exists)
			if err != nil {
				return err
			}
			values[step.Id] = value
		}

		if t.commit(read, values) {
			return nil
		}
	}
}

// commit stores values if none of the read nodes changed since they were read.
func (t *Tree) commit(read map[Id]Data, values map[Id]any) bool {
	writer := gls.ID()

	t.mu.Lock()
	for id, d := range read {
		if t.nodes[id].Version != d.Version {
			t.mu.Unlock()
			return false
		}
	}

	var notify []*observer
	for id, v := range values {
		t.nodes[id] = Data{Value: v, Version: nextVersion(), Writer: writer}

		if observers, ok := t.observers[id]; ok {
			notify = append(notify, observers.ToSlice()...)
		}
	}
	t.mu.Unlock()

	if len(notify) > 0 {
		// observers judge changes against committed data, never a transaction in progress
		restore := current.Enter(direct{})
		defer restore()
	}

	for _, o := range notify {
		if !o.fn() {
			t.removeObserver(o)
		}
	}

	return true
}

// ObserveNextChange calls fn after every write to the node until fn returns false or
// the returned cleanup is called.
func (t *Tree) ObserveNextChange(id Id, fn func() bool) usage.CleanupFunc {
	o := &observer{id: id, fn: fn}

	t.mu.Lock()
	observers, ok := t.observers[id]
	if !ok {
		observers = mapset.NewThreadUnsafeSet[*observer]()
		t.observers[id] = observers
	}
	observers.Add(o)
	t.mu.Unlock()

	return func() { t.removeObserver(o) }
}

// ObserverCount returns how many observers watch the node.
func (t *Tree) ObserverCount(id Id) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if observers, ok := t.observers[id]; ok {
		return observers.Cardinality()
	}
	return 0
}

func (t *Tree) removeObserver(o *observer) {
	t.mu.Lock()
	defer t.mu.Unlock()

	observers, ok := t.observers[o.id]
	if !ok {
		return
	}

	observers.Remove(o)
	if observers.Cardinality() == 0 {
		delete(t.observers, o.id)
	}
}
