package usage

// Combined aggregates several usages into one.
type Combined struct {
	usages []Usage
}

func NewCombined(usages []Usage) *Combined {
	return &Combined{usages: usages}
}

// Usages returns the combined usages.
func (c *Combined) Usages() []Usage {
	return c.usages
}

// HasChanges reports whether any of the combined usages has changes.
func (c *Combined) HasChanges() bool {
	for _, u := range c.usages {
		if u.HasChanges() {
			return true
		}
	}
	return false
}

// OnNextChange registers the listener with every combined usage. A listener that
// returns false is invoked at most once: the first change to reach it closes the
// registration, detaching it from every usage and skipping the ones not registered yet.
func (c *Combined) OnNextChange(listener TransientListener) CleanupFunc {
	g := NewGuard(listener)

	for _, u := range c.usages {
		if g.Closed() {
			break
		}

		// a child may fire synchronously in here, the guard lock isn't held
		cleanup := u.OnNextChange(g.Fire)
		if !g.Add(cleanup) {
			break
		}
	}

	return g.Close
}

// OwnChanges reports whether any combined usage was changed by the calling goroutine.
func (c *Combined) OwnChanges() bool {
	for _, u := range c.usages {
		if HasOwnChanges(u) {
			return true
		}
	}
	return false
}

// Rebase rebases every combined usage.
func (c *Combined) Rebase() Usage {
	usages := make([]Usage, len(c.usages))
	for i, u := range c.usages {
		usages[i] = Rebase(u)
	}
	return NewCombined(usages)
}
