package usage

import "github.com/AnatoleLucet/signals/internal/gls"

// Registrar receives the usages registered during a tracking session.
type Registrar interface {
	Register(u Usage)
}

type RegistrarFunc func(u Usage)

func (f RegistrarFunc) Register(u Usage) { f(u) }

// untrackedRegistrar marks code that deliberately reads values without tracking them.
// It's kept apart from "no registrar at all": reads are allowed under it, but nothing is
// registered.
type untrackedRegistrar struct{}

func (untrackedRegistrar) Register(Usage) {}

var current gls.Slot[Registrar]

// Track runs task with r receiving every usage registered by the calling goroutine.
// The previous registrar is restored when task returns or panics.
func Track(task func(), r Registrar) {
	restore := current.Enter(r)
	defer restore()

	task()
}

// Collect runs task and returns the usage of everything it read.
func Collect(task func()) Usage {
	var usages []Usage
	Track(task, RegistrarFunc(func(u Usage) {
		usages = append(usages, u)
	}))

	return Fold(usages)
}

// Untracked runs fn without tracking the values it reads, even inside an active
// tracking session.
func Untracked(fn func()) {
	Track(fn, untrackedRegistrar{})
}

// Register reports a usage to the current registrar.
func Register(u Usage) {
	r, ok := current.Get()
	if !ok {
		panic(ErrNoTrackingContext)
	}

	r.Register(u)
}

// IsActive reports whether reads are currently tracked.
func IsActive() bool {
	r, ok := current.Get()
	if !ok {
		return false
	}

	_, untracked := r.(untrackedRegistrar)
	return !untracked
}

// IsGetAllowed reports whether reading a value is allowed: either reads are tracked or
// they happen in a deliberately untracked block.
func IsGetAllowed() bool {
	_, ok := current.Get()
	return ok
}
