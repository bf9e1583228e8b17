package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kyegomez/mcs-platform-sub001/internal/api/rest/middleware"
	"github.com/kyegomez/mcs-platform-sub001/internal/domain"
	"github.com/kyegomez/mcs-platform-sub001/internal/ledger"
	"github.com/kyegomez/mcs-platform-sub001/pkg/logger"
)

// SubscriptionHandler обработчик для чтения подписки и учета использования
type SubscriptionHandler struct {
	ledgerSvc *ledger.Service
	catalog   *domain.TierCatalog
	log       *logger.Logger
}

// NewSubscriptionHandler создает новый обработчик подписок
func NewSubscriptionHandler(ledgerSvc *ledger.Service, catalog *domain.TierCatalog, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		ledgerSvc: ledgerSvc,
		catalog:   catalog,
		log:       log,
	}
}

// GetSubscription возвращает текущую запись о подписке пользователя
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	userID := middleware.UserID(c)

	sub := h.ledgerSvc.GetUserSubscription(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{
		"subscription":         sub,
		"renewal_date_display": domain.FormatRenewalDate(sub.RenewalDate),
	})
}

// GetUsage возвращает состояние лимита диалогов для UI
func (h *SubscriptionHandler) GetUsage(c *gin.Context) {
	userID := middleware.UserID(c)

	sub := h.ledgerSvc.GetUserSubscription(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{
		"conversations_used":     sub.ConversationsUsed,
		"conversations_limit":    sub.ConversationsLimit,
		"remaining":              sub.RemainingConversations(),
		"usage_percentage":       sub.UsagePercentage(),
		"can_start_conversation": sub.CanStartConversation(),
	})
}

// IncrementUsage учитывает начало нового диалога
func (h *SubscriptionHandler) IncrementUsage(c *gin.Context) {
	userID := middleware.UserID(c)

	sub, err := h.ledgerSvc.IncrementConversationUsage(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("Failed to increment conversation usage: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update usage"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversations_used":     sub.ConversationsUsed,
		"conversations_limit":    sub.ConversationsLimit,
		"remaining":              sub.RemainingConversations(),
		"can_start_conversation": sub.CanStartConversation(),
	})
}

// ListTiers возвращает статический каталог уровней подписки
func (h *SubscriptionHandler) ListTiers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tiers": h.catalog.All()})
}
