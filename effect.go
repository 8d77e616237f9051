package signals

import (
	"sync"

	"github.com/AnatoleLucet/signals/internal/computed"
	"github.com/AnatoleLucet/signals/internal/metrics"
	"github.com/AnatoleLucet/signals/internal/usage"
)

type effect struct {
	fn func()

	mu      sync.Mutex
	stopped bool
	running bool
	pending bool
	cleanup usage.CleanupFunc
}

// Effect runs fn right away and again every time a signal value it read changes, until
// stop is called. A panic inside fn is reported to the error handler and the effect
// keeps running. An effect writing a value it read is stopped.
func Effect(fn func()) (stop func()) {
	e := &effect{fn: fn}
	e.trigger()
	return e.stop
}

// trigger runs the effect. A trigger arriving while the effect is running makes the
// running call go one more round.
func (e *effect) trigger() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	if e.running {
		e.pending = true
		e.mu.Unlock()
		return
	}
	e.running = true

	for {
		e.pending = false
		prev := e.cleanup
		e.cleanup = nil
		e.mu.Unlock()

		if prev != nil {
			prev()
		}

		next, ok := e.run()

		e.mu.Lock()
		if !ok {
			e.stopped = true
		}
		if e.stopped {
			e.mu.Unlock()
			if next != nil {
				next()
			}
			e.mu.Lock()
			break
		}

		e.cleanup = next
		if !e.pending {
			break
		}
	}

	e.running = false
	e.mu.Unlock()
}

func (e *effect) run() (usage.CleanupFunc, bool) {
	metrics.EffectRuns.Inc()

	d := usage.NewCollecting()
	d.Run(func() {
		defer func() {
			if r := recover(); r != nil {
				current().handleError(recovered(r))
			}
		}()

		e.fn()
	})

	deps, err := d.Dependencies()
	if err != nil {
		current().handleError(err)
		return nil, false
	}

	return deps.OnNextChange(func(bool) bool {
		e.trigger()
		return false
	}), true
}

func (e *effect) stop() {
	e.mu.Lock()
	e.stopped = true
	cleanup := e.cleanup
	e.cleanup = nil
	e.mu.Unlock()

	if cleanup != nil {
		cleanup()
	}
}

func recovered(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &computed.PanicError{Value: r}
}
