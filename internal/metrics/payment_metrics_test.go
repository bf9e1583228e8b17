package metrics

import (
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyegomez/mcs-platform-sub001/pkg/logger"
)

func newTestLogger() *logger.Logger {
	log := logger.New(logger.ERROR)
	log.SetOutput(io.Discard)
	return log
}

// counterValue достает значение счетчика из реестра по имени и меткам
func counterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := registry.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	metric:
		for _, m := range family.GetMetric() {
			for _, pair := range m.GetLabel() {
				if labels[pair.GetName()] != pair.GetValue() {
					continue metric
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestPaymentMetrics_Counters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewPaymentMetrics(registry, newTestLogger())

	m.IncVerification("success")
	m.IncVerification("success")
	m.IncVerification("amount_mismatch")
	m.IncPriceFeedFallback()
	m.IncSubscriptionUpdated("premium")

	assert.Equal(t, 2.0, counterValue(t, registry, "payment_verifications_total", map[string]string{"outcome": "success"}))
	assert.Equal(t, 1.0, counterValue(t, registry, "payment_verifications_total", map[string]string{"outcome": "amount_mismatch"}))
	assert.Equal(t, 1.0, counterValue(t, registry, "price_feed_fallbacks_total", nil))
	assert.Equal(t, 1.0, counterValue(t, registry, "subscription_updates_total", map[string]string{"tier": "premium"}))
}

func TestPaymentMetrics_Histogram(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewPaymentMetrics(registry, newTestLogger())

	m.ObservePaidAmountSOL(0.08)
	m.ObservePaidAmountSOL(1.0)

	families, err := registry.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != "payment_paid_amount_sol" {
			continue
		}
		require.Len(t, family.GetMetric(), 1)
		h := family.GetMetric()[0].GetHistogram()
		assert.Equal(t, uint64(2), h.GetSampleCount())
		assert.InDelta(t, 1.08, h.GetSampleSum(), 0.001)
		return
	}
	t.Fatal("payment_paid_amount_sol not registered")
}
