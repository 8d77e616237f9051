// Package computed implements lazily recomputed derived values.
//
// A Computed caches the result of its computation together with the usage of the
// values it read. The result is reused until one of those values changes. While at
// least one listener is attached from outside, the Computed keeps listening to its own
// dependencies and recomputes eagerly so listeners are told about changes of its value,
// not only changes of what it read.
package computed

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/AnatoleLucet/signals/internal/gls"
	"github.com/AnatoleLucet/signals/internal/metrics"
	"github.com/AnatoleLucet/signals/internal/tree"
	"github.com/AnatoleLucet/signals/internal/usage"
)

// Func computes a value.
type Func func() (any, error)

// EqualFunc tells whether two computed values are the same.
type EqualFunc func(a, b any) bool

type state struct {
	value any
	err   error
	deps  usage.Usage
}

type Computed struct {
	compute Func
	equal   EqualFunc

	// a single node holds the current state
	tree *tree.Tree

	computeMu sync.Mutex
	owner     atomic.Int64
	latest    *state // guarded by computeMu

	mu           sync.Mutex
	activations  int
	revalidating bool
	pending      bool
	depsCleanup  usage.CleanupFunc
}

// New returns a Computed running fn. Values are compared with equal, or
// reflect.DeepEqual when equal is nil.
func New(fn Func, equal EqualFunc) *Computed {
	if equal == nil {
		equal = reflect.DeepEqual
	}

	return &Computed{
		compute: fn,
		equal:   equal,
		tree:    tree.New(tree.KindComputed),
	}
}

// Extract returns the current value, recomputing it first when a dependency changed.
// It doesn't register any usage.
func (c *Computed) Extract() (any, error) {
	s := c.validState()
	return s.value, s.err
}

// Read returns the current value and registers the Computed as a usage of the current
// tracking context.
func (c *Computed) Read() (any, error) {
	if c.owner.Load() == gls.ID() {
		return nil, c.selfRead()
	}

	s := c.validState()

	if usage.IsActive() {
		usage.Register(c.Usage())
	}

	return s.value, s.err
}

// Usage returns a usage reporting changes of the computed value.
func (c *Computed) Usage() usage.Usage {
	c.validState()

	inner := c.tree.Usage(tree.Current(), tree.ZeroId, c.changeValue, c.sameResult)
	return &computedUsage{c: c, inner: inner}
}

// Listen calls fn after every change of the value until fn returns false or the
// returned cleanup is called. Each change is compared with the value seen by the
// previous call.
func (c *Computed) Listen(fn func() bool) usage.CleanupFunc {
	l := &listening{}

	var listen func()
	listen = func() {
		gen := l.issue()
		cleanup := c.Usage().OnNextChange(func(bool) bool {
			if fn() {
				listen()
			} else {
				l.stop()
			}
			return false
		})
		l.set(gen, cleanup)
	}
	listen()

	return l.stop
}

type listening struct {
	mu      sync.Mutex
	issued  int
	gen     int
	cleanup usage.CleanupFunc
	stopped bool
}

func (l *listening) issue() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.issued++
	return l.issued
}

func (l *listening) set(gen int, cleanup usage.CleanupFunc) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		cleanup()
		return
	}
	if gen < l.gen {
		// fired right away and already replaced by a newer registration
		l.mu.Unlock()
		return
	}
	l.gen = gen
	l.cleanup = cleanup
	l.mu.Unlock()
}

func (l *listening) stop() {
	l.mu.Lock()
	l.stopped = true
	cleanup := l.cleanup
	l.cleanup = nil
	l.mu.Unlock()

	if cleanup != nil {
		cleanup()
	}
}

// Activations returns the number of listeners attached from outside.
func (c *Computed) Activations() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.activations
}

func (c *Computed) readState() *state {
	d, ok := c.tree.Read(tree.ZeroId)
	if !ok {
		return nil
	}
	return d.Value.(*state)
}

func (c *Computed) validState() *state {
	if s := c.readState(); s != nil && !s.deps.HasChanges() {
		return s
	}

	gid := gls.ID()
	if c.owner.Load() == gid {
		return &state{err: c.selfRead(), deps: usage.None}
	}

	c.computeMu.Lock()
	c.owner.Store(gid)

	s := c.latest
	fresh := s == nil || s.deps.HasChanges()
	if fresh {
		s = c.run()
		c.latest = s
	}

	c.owner.Store(0)
	c.computeMu.Unlock()

	if fresh {
		// observers run here, no lock of ours may be held
		c.tree.Apply(tree.ZeroId, func(tree.Data, bool) (any, error) {
			return s, nil
		})
	}

	return s
}

// selfRead is the error of a computation reading its own value.
func (c *Computed) selfRead() error {
	metrics.UsageErrors.WithLabelValues(metrics.KindCircular).Inc()
	return &usage.CircularUsageError{Message: "A computed signal depends on its own value."}
}

func (c *Computed) run() *state {
	s := &state{}

	d := usage.NewCollecting()
	d.Run(func() {
		defer func() {
			if r := recover(); r != nil {
				s.value = nil
				s.err = asError(r)
			}
		}()

		s.value, s.err = c.compute()
	})

	deps, err := d.Dependencies()
	if err != nil {
		// computing again right away would loop, wait for a change made by someone else
		s.value, s.err = nil, err
		deps = usage.Rebase(deps)
	}
	s.deps = deps

	metrics.Recomputations.Inc()
	return s
}

type result struct {
	value any
	err   error
}

func (c *Computed) changeValue(d tree.Data) any {
	s := d.Value.(*state)
	if s.deps.HasChanges() {
		s = c.validState()
	}
	return result{value: s.value, err: s.err}
}

func (c *Computed) sameResult(a, b any) bool {
	ra, rb := a.(result), b.(result)
	if ra.err != nil || rb.err != nil {
		return ra.err == rb.err
	}
	return c.equal(ra.value, rb.value)
}

func (c *Computed) activate() {
	c.mu.Lock()
	c.activations++
	first := c.activations == 1
	c.mu.Unlock()

	metrics.ActiveListeners.Inc()

	if first {
		c.revalidateAndListen()
	}
}

func (c *Computed) deactivate() {
	c.mu.Lock()
	c.activations--

	var cleanup usage.CleanupFunc
	if c.activations == 0 && !c.revalidating {
		cleanup = c.depsCleanup
		c.depsCleanup = nil
	}
	c.mu.Unlock()

	metrics.ActiveListeners.Dec()

	if cleanup != nil {
		cleanup()
	}
}

// revalidateAndListen recomputes the value if needed and listens to the dependencies of
// the result. A call made while another one is running is folded into it: the running
// call does one more round instead.
func (c *Computed) revalidateAndListen() {
	c.mu.Lock()
	if c.revalidating {
		c.pending = true
		c.mu.Unlock()
		return
	}
	c.revalidating = true

	for {
		c.pending = false
		prev := c.depsCleanup
		c.depsCleanup = nil
		active := c.activations > 0
		c.mu.Unlock()

		if prev != nil {
			prev()
		}

		var next usage.CleanupFunc
		if active {
			s := c.validState()
			next = s.deps.OnNextChange(func(bool) bool {
				c.revalidateAndListen()
				return false
			})
		}

		c.mu.Lock()
		c.depsCleanup = next

		if c.pending {
			continue
		}
		if c.activations == 0 && next != nil {
			// the last listener left while we were listening
			continue
		}
		break
	}

	c.revalidating = false
	c.mu.Unlock()
}

type computedUsage struct {
	c     *Computed
	inner usage.Usage
}

func (u *computedUsage) HasChanges() bool {
	return u.inner.HasChanges()
}

// OwnChanges reports whether the calling goroutine changed a dependency of the cached
// value.
func (u *computedUsage) OwnChanges() bool {
	s := u.c.readState()
	return s != nil && usage.HasOwnChanges(s.deps)
}

func (u *computedUsage) Rebase() usage.Usage {
	return u.c.Usage()
}

func (u *computedUsage) OnNextChange(listener usage.TransientListener) usage.CleanupFunc {
	var released atomic.Bool
	release := func() {
		if released.CompareAndSwap(false, true) {
			u.c.deactivate()
		}
	}

	u.c.activate()

	cleanup := u.inner.OnNextChange(func(immediate bool) bool {
		keep := listener(immediate)
		if !keep {
			release()
		}
		return keep
	})

	return func() {
		cleanup()
		release()
	}
}

// PanicError wraps a value a computation panicked with.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("signals: computation panicked: %v", e.Value)
}

// asError turns a recovered panic value into an error. Errors are kept as they are so
// they can be raised again unchanged.
func asError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &PanicError{Value: r}
}
