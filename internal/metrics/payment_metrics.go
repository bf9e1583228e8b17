package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kyegomez/mcs-platform-sub001/pkg/logger"
)

// PaymentMetrics интерфейс для метрик проверки платежей
type PaymentMetrics interface {
	IncVerification(outcome string)
	ObservePaidAmountSOL(amount float64)
	IncPriceFeedFallback()
	IncSubscriptionUpdated(tier string)
}

type paymentMetrics struct {
	log                 *logger.Logger
	verifications       *prometheus.CounterVec
	paidAmounts         prometheus.Histogram
	priceFeedFallbacks  prometheus.Counter
	subscriptionUpdates *prometheus.CounterVec
}

// NewPaymentMetrics создает новые метрики проверки платежей
func NewPaymentMetrics(registry *prometheus.Registry, log *logger.Logger) PaymentMetrics {
	verifications := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verifications_total",
			Help: "The total number of payment verifications by outcome",
		},
		[]string{"outcome"},
	)

	paidAmounts := promauto.With(registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "payment_paid_amount_sol",
			Help:    "Paid amounts distribution in SOL",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8), // 0.01 .. ~163
		},
	)

	priceFeedFallbacks := promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "price_feed_fallbacks_total",
			Help: "The total number of price feed failures recovered with the fallback rate",
		},
	)

	subscriptionUpdates := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_updates_total",
			Help: "The total number of subscription updates by tier",
		},
		[]string{"tier"},
	)

	return &paymentMetrics{
		log:                 log,
		verifications:       verifications,
		paidAmounts:         paidAmounts,
		priceFeedFallbacks:  priceFeedFallbacks,
		subscriptionUpdates: subscriptionUpdates,
	}
}

// IncVerification увеличивает счетчик проверок платежей по исходу
func (m *paymentMetrics) IncVerification(outcome string) {
	m.verifications.WithLabelValues(outcome).Inc()
}

// ObservePaidAmountSOL записывает оплаченную сумму
func (m *paymentMetrics) ObservePaidAmountSOL(amount float64) {
	m.paidAmounts.Observe(amount)
}

// IncPriceFeedFallback увеличивает счетчик срабатываний резервного курса
func (m *paymentMetrics) IncPriceFeedFallback() {
	m.priceFeedFallbacks.Inc()
}

// IncSubscriptionUpdated увеличивает счетчик обновлений подписки
func (m *paymentMetrics) IncSubscriptionUpdated(tier string) {
	m.subscriptionUpdates.WithLabelValues(tier).Inc()
}
