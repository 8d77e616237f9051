package usage

import "sync"

// testUsage is a hand-driven usage: tests flip changes and fire listeners directly.
type testUsage struct {
	mu        sync.Mutex
	changes   bool
	own       bool
	nextID    int
	listeners map[int]TransientListener

	// fire the listener while it's being registered
	immediate bool
}

func newTestUsage() *testUsage {
	return &testUsage{listeners: map[int]TransientListener{}}
}

func (u *testUsage) HasChanges() bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.changes
}

func (u *testUsage) OwnChanges() bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.own
}

func (u *testUsage) OnNextChange(listener TransientListener) CleanupFunc {
	u.mu.Lock()
	id := u.nextID
	u.nextID++
	u.listeners[id] = listener
	immediate := u.immediate
	u.mu.Unlock()

	cleanup := func() {
		u.mu.Lock()
		defer u.mu.Unlock()

		delete(u.listeners, id)
	}

	if immediate && !listener(true) {
		cleanup()
	}

	return cleanup
}

func (u *testUsage) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()

	return len(u.listeners)
}

// fire invokes every registered listener, dropping the ones returning false.
func (u *testUsage) fire() {
	u.mu.Lock()
	listeners := make(map[int]TransientListener, len(u.listeners))
	for id, l := range u.listeners {
		listeners[id] = l
	}
	u.mu.Unlock()

	for id, l := range listeners {
		if !l(false) {
			u.mu.Lock()
			delete(u.listeners, id)
			u.mu.Unlock()
		}
	}
}

// first returns one registered listener.
func (u *testUsage) first() TransientListener {
	u.mu.Lock()
	defer u.mu.Unlock()

	for _, l := range u.listeners {
		return l
	}
	return nil
}
