package domain

// PaymentVerificationRequest представляет запрос на проверку платежа
type PaymentVerificationRequest struct {
	Signature        string       `json:"signature" binding:"required"`
	SubscriptionTier TierID       `json:"subscriptionTier" binding:"required,oneof=premium family"`
	BillingCycle     BillingCycle `json:"billingCycle" binding:"required,oneof=monthly annual"`
}

// PaymentVerificationResult представляет результат проверки платежа
type PaymentVerificationResult struct {
	Success      bool             `json:"success"`
	Message      string           `json:"message"`
	Subscription UserSubscription `json:"subscription"`

	// Диагностика для логов и метрик, наружу не отдается
	ExpectedSOL float64 `json:"-"`
	PaidSOL     float64 `json:"-"`
	RateUSD     float64 `json:"-"`
}
