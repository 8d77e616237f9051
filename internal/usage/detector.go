package usage

import (
	"sync"

	"github.com/AnatoleLucet/signals/internal/metrics"
)

type detectorKind int

const (
	detectorCollecting detectorKind = iota
	detectorNecessary
	detectorDenied
)

// Detector collects the usages of one computation and checks them once the computation
// is done. It's a Registrar, run it with Track or Detector.Run.
type Detector struct {
	kind    detectorKind
	message string

	mu     sync.Mutex
	closed bool
	usages []registered

	deps Usage
	err  error
}

type registered struct {
	usage Usage

	// a value read after the computation already changed it
	changedOnRegister bool
}

// NewCollecting returns a detector accepting any number of usages.
func NewCollecting() *Detector {
	return &Detector{kind: detectorCollecting}
}

// NewNecessary returns a detector failing when no usage was registered.
// reason is added to the error to tell which callback read nothing.
func NewNecessary(reason string) *Detector {
	return &Detector{kind: detectorNecessary, message: reason}
}

// NewDenied returns a detector refusing every usage.
func NewDenied(message string) *Detector {
	return &Detector{kind: detectorDenied, message: message}
}

// Run tracks task with this detector.
func (d *Detector) Run(task func()) {
	Track(task, d)
}

// Register records a usage. It panics under a denied detector and once the detector
// was closed by Dependencies.
func (d *Detector) Register(u Usage) {
	if d.kind == detectorDenied {
		metrics.UsageErrors.WithLabelValues(metrics.KindDenied).Inc()
		panic(&DeniedUsageError{Message: d.message})
	}

	// a concurrent write by another goroutine isn't a loop
	changed := u.HasChanges()
	if own, ok := u.(OwnChanges); ok && changed {
		changed = own.OwnChanges()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		panic(ErrDetectorClosed)
	}

	d.usages = append(d.usages, registered{usage: u, changedOnRegister: changed})
}

// Dependencies closes the detector and returns the collected usage. Only the first call
// does the work, later calls get the same result.
func (d *Detector) Dependencies() (Usage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.closed {
		d.closed = true
		d.deps, d.err = d.finish()
		d.usages = nil
	}

	return d.deps, d.err
}

func (d *Detector) finish() (Usage, error) {
	if d.kind == detectorDenied {
		return None, nil
	}

	if d.kind == detectorNecessary && len(d.usages) == 0 {
		metrics.UsageErrors.WithLabelValues(metrics.KindMissing).Inc()
		return None, &MissingUsageError{Reason: d.message}
	}

	var err error
	usages := make([]Usage, len(d.usages))
	for i, r := range d.usages {
		if err == nil && (r.changedOnRegister || HasOwnChanges(r.usage)) {
			err = &CircularUsageError{}
		}
		usages[i] = r.usage
	}
	if err != nil {
		metrics.UsageErrors.WithLabelValues(metrics.KindCircular).Inc()
	}

	// the usage comes along with a loop error so callers can wait for a later change
	return Fold(usages), err
}
