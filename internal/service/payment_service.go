package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kyegomez/mcs-platform-sub001/internal/domain"
	"github.com/kyegomez/mcs-platform-sub001/internal/ledger"
	"github.com/kyegomez/mcs-platform-sub001/internal/metrics"
	"github.com/kyegomez/mcs-platform-sub001/internal/solana"
	"github.com/kyegomez/mcs-platform-sub001/pkg/logger"
)

// AmountTolerance допустимое отклонение оплаченной суммы от ожидаемой.
// 10% поглощают волатильность курса между котировкой на клиенте и
// проверкой на сервере.
const AmountTolerance = 0.10

// Исходы проверки для метрик
const (
	OutcomeSuccess        = "success"
	OutcomeInvalidRequest = "invalid_request"
	OutcomeNotFound       = "transaction_not_found"
	OutcomeFailed         = "transaction_failed"
	OutcomeInvalidType    = "invalid_transaction_type"
	OutcomeAmountMismatch = "amount_mismatch"
	OutcomeInternal       = "internal_error"
)

// TransactionLookup интерфейс доступа к внешнему блокчейну
type TransactionLookup interface {
	GetTransaction(ctx context.Context, signature string) (*solana.Transaction, error)
}

// RateSource интерфейс источника курса SOL/USD
type RateSource interface {
	USDRate(ctx context.Context) (rate float64, live bool)
}

// PaymentEventPublisher публикует событие о подтвержденном платеже
type PaymentEventPublisher interface {
	PublishPaymentVerified(ctx context.Context, sub domain.UserSubscription, signature string) error
}

// PaymentService проверяет заявленные платежи и активирует подписки.
// Каждая проверка самодостаточна: ожидаемая стоимость пересчитывается из
// каталога, сумма от клиента не принимается на веру.
type PaymentService struct {
	ledger    *ledger.Service
	catalog   *domain.TierCatalog
	chain     TransactionLookup
	rates     RateSource
	recipient string
	events    PaymentEventPublisher
	metrics   metrics.PaymentMetrics
	log       *logger.Logger
}

// NewPaymentService создает новый сервис проверки платежей.
// events опционален: без продюсера события платежей не публикуются.
func NewPaymentService(
	ledgerSvc *ledger.Service,
	catalog *domain.TierCatalog,
	chain TransactionLookup,
	rates RateSource,
	recipientWallet string,
	events PaymentEventPublisher,
	m metrics.PaymentMetrics,
	log *logger.Logger,
) *PaymentService {
	return &PaymentService{
		ledger:    ledgerSvc,
		catalog:   catalog,
		chain:     chain,
		rates:     rates,
		recipient: recipientWallet,
		events:    events,
		metrics:   m,
		log:       log,
	}
}

// VerifyPayment проверяет, что заявленная транзакция покрывает стоимость
// запрошенной подписки, и при успехе активирует ее.
func (s *PaymentService) VerifyPayment(ctx context.Context, userID string, req domain.PaymentVerificationRequest) (*domain.PaymentVerificationResult, error) {
	// 1. Валидация входных данных
	if req.Signature == "" || req.SubscriptionTier == "" || req.BillingCycle == "" {
		s.metrics.IncVerification(OutcomeInvalidRequest)
		return nil, domain.NewVerificationError("INVALID_REQUEST", "missing required parameters", req.Signature, domain.ErrInvalidInput)
	}

	tier, ok := s.catalog.Get(req.SubscriptionTier)
	if !ok || req.SubscriptionTier == domain.TierFree {
		s.log.Warnw("Verification requested for unknown or non-purchasable tier", "tier", req.SubscriptionTier, "userID", userID)
		s.metrics.IncVerification(OutcomeInvalidRequest)
		return nil, domain.NewVerificationError("INVALID_REQUEST", "unknown subscription tier", req.Signature, domain.ErrInvalidInput)
	}

	// 2. Поиск транзакции в блокчейне (commitment: confirmed)
	tx, err := s.chain.GetTransaction(ctx, req.Signature)
	if err != nil {
		s.log.Errorw("Transaction lookup failed", "error", err, "signature", req.Signature)
		s.metrics.IncVerification(OutcomeInternal)
		return nil, domain.NewVerificationError("LOOKUP_FAILED", "transaction lookup failed", req.Signature, domain.ErrInternal)
	}
	if tx == nil {
		s.metrics.IncVerification(OutcomeNotFound)
		return nil, domain.NewVerificationError("NOT_FOUND", "transaction not found on ledger", req.Signature, domain.ErrTransactionNotFound)
	}
	if tx.Meta != nil && tx.Meta.Failed() {
		s.metrics.IncVerification(OutcomeFailed)
		return nil, domain.NewVerificationError("TX_FAILED", "transaction failed on ledger", req.Signature, domain.ErrTransactionFailed)
	}

	// 3. Транзакция должна содержать нативный перевод на кошелек платформы
	if _, ok := tx.TransferTo(s.recipient); !ok {
		s.metrics.IncVerification(OutcomeInvalidType)
		return nil, domain.NewVerificationError("INVALID_TYPE", "no transfer instruction to platform wallet", req.Signature, domain.ErrInvalidTransactionType)
	}

	// 4. Ожидаемая стоимость из каталога
	totalUSD, err := s.catalog.PriceUSD(req.SubscriptionTier, req.BillingCycle)
	if err != nil {
		s.metrics.IncVerification(OutcomeInvalidRequest)
		return nil, domain.NewVerificationError("INVALID_REQUEST", "failed to price tier", req.Signature, domain.ErrInvalidInput)
	}

	// 5-6. Живой курс и пересчет в SOL
	rate, live := s.rates.USDRate(ctx)
	expectedSOL := totalUSD / rate

	// 7. Фактически оплаченная сумма по дельте балансов плательщика
	paidSOL := tx.PayerBalanceDeltaSOL()
	s.metrics.ObservePaidAmountSOL(paidSOL)

	// 8. Проверка допуска
	if math.Abs(paidSOL-expectedSOL) > expectedSOL*AmountTolerance {
		s.log.Warnw("Paid amount outside tolerance",
			"signature", req.Signature, "expectedSOL", expectedSOL, "paidSOL", paidSOL, "rateUSD", rate, "liveRate", live)
		s.metrics.IncVerification(OutcomeAmountMismatch)
		return nil, domain.NewVerificationError("AMOUNT_MISMATCH", "paid amount outside tolerance", req.Signature, domain.ErrAmountMismatch)
	}

	// 9. Активация подписки. Текущая запись читается без деградации:
	// перезаписывать существующую подписку сфабрикованным значением нельзя
	sub, err := s.ledger.LoadUserSubscription(ctx, userID)
	if err != nil {
		s.log.Errorw("Failed to load subscription for activation", "error", err, "userID", userID)
		s.metrics.IncVerification(OutcomeInternal)
		return nil, domain.NewVerificationError("PERSIST_FAILED", "failed to load subscription", req.Signature, domain.ErrInternal)
	}
	renewal := time.Now().Add(domain.RenewalPeriod(req.BillingCycle))
	sub.Tier = tier.ID
	sub.BillingCycle = req.BillingCycle
	sub.IsActive = true
	sub.ConversationsLimit = tier.ConversationLimit
	sub.RenewalDate = &renewal

	if err := s.ledger.UpdateUserSubscription(ctx, sub); err != nil {
		s.metrics.IncVerification(OutcomeInternal)
		return nil, domain.NewVerificationError("PERSIST_FAILED", "failed to persist subscription", req.Signature, domain.ErrInternal)
	}

	// Публикация события опциональна и не влияет на исход проверки
	if s.events != nil {
		if err := s.events.PublishPaymentVerified(ctx, sub, req.Signature); err != nil {
			s.log.Warnw("Failed to publish payment event", "error", err, "signature", req.Signature, "userID", userID)
		}
	}

	s.metrics.IncVerification(OutcomeSuccess)
	s.metrics.IncSubscriptionUpdated(string(sub.Tier))
	s.log.Infow("Payment verified, subscription activated",
		"userID", userID, "tier", sub.Tier, "billingCycle", sub.BillingCycle,
		"signature", req.Signature, "paidSOL", paidSOL, "expectedSOL", expectedSOL, "liveRate", live)

	return &domain.PaymentVerificationResult{
		Success:      true,
		Message:      fmt.Sprintf("Payment verified, %s subscription activated", sub.Tier),
		Subscription: sub,
		ExpectedSOL:  expectedSOL,
		PaidSOL:      paidSOL,
		RateUSD:      rate,
	}, nil
}
