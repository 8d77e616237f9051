// Package signals is a reactive state library.
//
// Reads of signal values inside a tracked computation are recorded as usages. Computed
// signals use them to recompute lazily, only when something they read changed, and
// effects use them to run again after a change.
package signals

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AnatoleLucet/signals/internal/metrics"
	"github.com/AnatoleLucet/signals/internal/tree"
	"github.com/AnatoleLucet/signals/internal/usage"
)

// Usage describes the values read during one computation.
type Usage = usage.Usage

// TransientListener is notified when a tracked value changes. Returning false detaches it.
type TransientListener = usage.TransientListener

// Detector collects the usages of a computation and validates them.
type Detector = usage.Detector

// None is the usage of a computation that read nothing.
var None = usage.None

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}

	return v.(T)
}

// Track runs fn and returns the usage of every signal value it read.
func Track(fn func()) Usage {
	return usage.Collect(fn)
}

// Untracked runs fn without tracking the signal values it reads.
func Untracked[T any](fn func() T) T {
	var result T
	usage.Untracked(func() { result = fn() })
	return result
}

// IsGetAllowed reports whether reading a signal value is allowed here: inside a
// tracked computation or an untracked block.
func IsGetAllowed() bool {
	return usage.IsGetAllowed()
}

// IsActive reports whether reads are currently tracked.
func IsActive() bool {
	return usage.IsActive()
}

// CollectingDetector returns a detector accepting any number of reads.
func CollectingDetector() *Detector {
	return usage.NewCollecting()
}

// NecessaryDetector returns a detector that fails when nothing was read.
func NecessaryDetector(reason string) *Detector {
	return usage.NewNecessary(reason)
}

// DeniedDetector returns a detector refusing any read.
func DeniedDetector(message string) *Detector {
	return usage.NewDenied(message)
}

// RunInTransaction runs fn with every signal write staged until fn returns. The writes
// are committed together when fn returns nil and discarded otherwise. Nested calls join
// the outer transaction.
func RunInTransaction(fn func() error) error {
	return tree.RunInTransaction(fn)
}

// RunWithoutTransaction runs fn with writes applied right away, even inside a
// transaction.
func RunWithoutTransaction(fn func()) {
	tree.RunWithoutTransaction(fn)
}

// RegisterMetrics registers the library's Prometheus collectors with reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	return metrics.Register(reg)
}

func checkRead() {
	if current().strictReads && !usage.IsGetAllowed() {
		panic(ErrReadNotAllowed)
	}
}
