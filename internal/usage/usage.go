package usage

// TransientListener is notified when a tracked value changes.
// immediate is true when the listener is invoked while it's being registered against a
// usage that has already changed. Returning false detaches the listener.
type TransientListener func(immediate bool) bool

// CleanupFunc detaches a listener. Calling it more than once is harmless.
type CleanupFunc func()

// Usage describes the values read during one computation.
type Usage interface {
	// HasChanges reports whether any of the read values changed since they were read.
	HasChanges() bool

	// OnNextChange registers a listener for the next change. If there already are
	// changes, the listener is invoked right away with immediate set to true.
	OnNextChange(listener TransientListener) CleanupFunc
}

// OwnChanges is implemented by usages that can tell whether the calling goroutine
// itself made the change they report.
type OwnChanges interface {
	OwnChanges() bool
}

// None is the usage of a computation that read nothing. It never changes.
var None Usage = noUsage{}

type noUsage struct{}

func (noUsage) HasChanges() bool { return false }

func (noUsage) OnNextChange(TransientListener) CleanupFunc { return func() {} }

// Fold turns the usages collected during one tracking session into a single usage.
func Fold(usages []Usage) Usage {
	switch len(usages) {
	case 0:
		return None
	case 1:
		return usages[0]
	default:
		return NewCombined(usages)
	}
}

// HasOwnChanges reports whether u changed through a write of the calling goroutine.
// Usages that can't tell report false.
func HasOwnChanges(u Usage) bool {
	if own, ok := u.(OwnChanges); ok {
		return own.OwnChanges()
	}
	return false
}

// Rebaser is implemented by usages that can restart from the values as they are now.
type Rebaser interface {
	Rebase() Usage
}

// Rebase returns a usage of the same values that only reports changes made from now on.
// Usages that can't restart are returned as they are.
func Rebase(u Usage) Usage {
	if r, ok := u.(Rebaser); ok {
		return r.Rebase()
	}
	return u
}
