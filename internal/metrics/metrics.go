// Package metrics holds the Prometheus collectors of the reactive engine.
//
// The collectors are always updated; they only become visible once registered.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "signals"

var (
	Recomputations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "computed",
		Name:      "recomputations_total",
		Help:      "Total number of computed signal recomputations",
	})

	ActiveListeners = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "computed",
		Name:      "active_listeners",
		Help:      "Number of external listeners currently attached to computed signals",
	})

	EffectRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "effect",
		Name:      "runs_total",
		Help:      "Total number of effect runs",
	})

	UsageErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "usage",
		Name:      "errors_total",
		Help:      "Total number of dependency tracking errors by kind",
	}, []string{"kind"})
)

// Error kinds of UsageErrors.
const (
	KindMissing  = "missing"
	KindDenied   = "denied"
	KindCircular = "circular"
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{Recomputations, ActiveListeners, EffectRuns, UsageErrors}
}

// Register registers every collector with reg. Collectors that are already registered
// are skipped.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}
