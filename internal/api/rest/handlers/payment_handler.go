package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kyegomez/mcs-platform-sub001/internal/api/rest/middleware"
	"github.com/kyegomez/mcs-platform-sub001/internal/domain"
	"github.com/kyegomez/mcs-platform-sub001/internal/service"
	"github.com/kyegomez/mcs-platform-sub001/pkg/logger"
)

// PaymentHandler обработчик для проверки платежей
type PaymentHandler struct {
	paymentSvc *service.PaymentService
	log        *logger.Logger
}

// NewPaymentHandler создает новый обработчик платежей
func NewPaymentHandler(paymentSvc *service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentSvc: paymentSvc,
		log:        log,
	}
}

// VerifyPayment проверяет заявленный платеж и активирует подписку
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	userID := middleware.UserID(c)

	var req domain.PaymentVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid verification request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
		return
	}

	result, err := h.paymentSvc.VerifyPayment(c.Request.Context(), userID, req)
	if err != nil {
		h.respondVerificationError(c, err)
		return
	}

	sub := result.Subscription
	renewalDate := ""
	if sub.RenewalDate != nil {
		renewalDate = sub.RenewalDate.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": result.Message,
		"subscription": gin.H{
			"tier":         sub.Tier,
			"billingCycle": sub.BillingCycle,
			"renewalDate":  renewalDate,
			"isActive":     sub.IsActive,
		},
	})
}

// respondVerificationError переводит ошибку проверки в HTTP-ответ.
// Наружу уходит только сообщение из таксономии, детали остаются в логах.
func (h *PaymentHandler) respondVerificationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		h.log.Warn("Payment verification rejected: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
	case errors.Is(err, domain.ErrTransactionNotFound):
		h.log.Warn("Payment verification rejected: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
	case errors.Is(err, domain.ErrTransactionFailed):
		h.log.Warn("Payment verification rejected: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Transaction failed"})
	case errors.Is(err, domain.ErrInvalidTransactionType):
		h.log.Warn("Payment verification rejected: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction type"})
	case errors.Is(err, domain.ErrAmountMismatch):
		h.log.Warn("Payment verification rejected: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment amount mismatch"})
	default:
		h.log.Error("Payment verification failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
