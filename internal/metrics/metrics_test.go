package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	t.Run("registers every collector once", func(t *testing.T) {
		reg := prometheus.NewRegistry()

		require.NoError(t, Register(reg))
		require.NoError(t, Register(reg))

		UsageErrors.WithLabelValues(KindCircular).Inc()

		families, err := reg.Gather()
		require.NoError(t, err)

		var names []string
		for _, f := range families {
			names = append(names, f.GetName())
		}
		assert.Contains(t, names, "signals_usage_errors_total")
	})

	t.Run("counts", func(t *testing.T) {
		value := func() float64 {
			var m dto.Metric
			require.NoError(t, EffectRuns.Write(&m))
			return m.GetCounter().GetValue()
		}

		before := value()
		EffectRuns.Inc()
		assert.Equal(t, before+1, value())
	})
}
