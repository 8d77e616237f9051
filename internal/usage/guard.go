package usage

import "sync"

// Guard wraps a listener that can be reached from several sources: the children of a
// combined usage, or an immediate check racing with a store observer.
//
// The listener never runs concurrently with itself. A fire arriving while another one
// is in flight is folded into it: the listener runs once more if the in-flight call
// returned true. Nothing reaches the listener once it returned false or the guard was
// closed.
type Guard struct {
	mu       sync.Mutex
	listener TransientListener
	closed   bool
	firing   bool
	pending  bool
	cleanups []CleanupFunc
}

func NewGuard(listener TransientListener) *Guard {
	return &Guard{listener: listener}
}

// Fire forwards a change and reports whether the source should keep its registration.
// It has the TransientListener signature so it can be handed to sources directly.
func (g *Guard) Fire(immediate bool) bool {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return false
	}
	if g.firing {
		// the running call goes one more round once the listener is done
		g.pending = true
		g.mu.Unlock()
		return true
	}
	g.firing = true
	g.mu.Unlock()

	for {
		keep := g.listener(immediate)

		g.mu.Lock()
		if !keep {
			g.firing = false
			g.pending = false
			g.mu.Unlock()

			g.Close()
			return false
		}
		if !g.pending || g.closed {
			g.firing = false
			g.pending = false
			closed := g.closed
			g.mu.Unlock()

			return !closed
		}
		g.pending = false
		g.mu.Unlock()

		immediate = false
	}
}

// Add records the cleanup of one source registration. It returns false when the guard
// is already closed, in which case the cleanup has been run right away.
func (g *Guard) Add(cleanup CleanupFunc) bool {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		cleanup()
		return false
	}
	g.cleanups = append(g.cleanups, cleanup)
	g.mu.Unlock()

	return true
}

func (g *Guard) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.closed
}

// Close runs every recorded cleanup once. Cleanups run without the lock held so they
// may be triggered from inside the listener.
func (g *Guard) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	cleanups := g.cleanups
	g.cleanups = nil
	g.mu.Unlock()

	for _, cleanup := range cleanups {
		cleanup()
	}
}
