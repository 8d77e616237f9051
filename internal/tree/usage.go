package tree

import (
	"github.com/AnatoleLucet/signals/internal/gls"
	"github.com/AnatoleLucet/signals/internal/usage"
)

// ChangeValue extracts the part of a node a usage compares to detect changes.
type ChangeValue func(d Data) any

// Version is the ChangeValue of usages reacting to every write.
func Version(d Data) any {
	return d.Version
}

type nodeUsage struct {
	tree   *Tree
	id     Id
	change ChangeValue
	equal  func(a, b any) bool

	original any
}

// Usage returns the usage of the node as read through tx. Changes are detected by
// comparing change values with equal.
func (t *Tree) Usage(tx Transaction, id Id, change ChangeValue, equal func(a, b any) bool) usage.Usage {
	d, ok := tx.Read(t, id)
	if !ok {
		// nothing to track until the node is written
		return usage.None
	}

	return &nodeUsage{
		tree:     t,
		id:       id,
		change:   change,
		equal:    equal,
		original: change(d),
	}
}

func (u *nodeUsage) HasChanges() bool {
	d, ok := Current().Read(u.tree, u.id)
	return ok && !u.equal(u.original, u.change(d))
}

func (u *nodeUsage) OwnChanges() bool {
	d, ok := Current().Read(u.tree, u.id)
	return ok && d.Writer == gls.ID() && !u.equal(u.original, u.change(d))
}

func (u *nodeUsage) Rebase() usage.Usage {
	return u.tree.Usage(Current(), u.id, u.change, u.equal)
}

func (u *nodeUsage) OnNextChange(listener usage.TransientListener) usage.CleanupFunc {
	g := usage.NewGuard(listener)

	cleanup := u.tree.ObserveNextChange(u.id, func() bool {
		if u.HasChanges() {
			return g.Fire(false)
		}
		// a write that didn't change anything we care about
		return !g.Closed()
	})
	g.Add(cleanup)

	// observe first then check, a write in between is caught by one or the other
	if u.HasChanges() {
		g.Fire(true)
	}

	return g.Close
}
