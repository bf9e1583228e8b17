package domain

import (
	"time"
)

// TierID идентификатор уровня подписки
type TierID string

const (
	TierFree    TierID = "free"
	TierPremium TierID = "premium"
	TierFamily  TierID = "family"
)

// BillingCycle период оплаты подписки
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleAnnual  BillingCycle = "annual"
)

// UnlimitedConversations сентинел "без лимита" для лимита диалогов
const UnlimitedConversations = -1

// SubscriptionTier описывает уровень подписки из статического каталога
type SubscriptionTier struct {
	ID                TierID   `json:"id"`
	Name              string   `json:"name"`
	MonthlyPriceUSD   float64  `json:"monthly_price_usd"`
	AnnualPriceUSD    float64  `json:"annual_price_usd"`
	ConversationLimit int      `json:"conversation_limit"` // -1 = без лимита
	MaxFamilyMembers  int      `json:"max_family_members,omitempty"`
	Features          []string `json:"features"`
}

// UserSubscription представляет собой запись о подписке пользователя.
// Запись принадлежит серверу и привязана к идентификатору пользователя;
// клиент получает ее только на чтение.
type UserSubscription struct {
	UserID             string       `json:"user_id" db:"user_id"`
	Tier               TierID       `json:"tier" db:"tier"`
	IsActive           bool         `json:"is_active" db:"is_active"`
	ConversationsUsed  int          `json:"conversations_used" db:"conversations_used"`
	ConversationsLimit int          `json:"conversations_limit" db:"conversations_limit"`
	BillingCycle       BillingCycle `json:"billing_cycle,omitempty" db:"billing_cycle"`
	RenewalDate        *time.Time   `json:"renewal_date,omitempty" db:"renewal_date"`
	FamilyMembers      int          `json:"family_members,omitempty" db:"family_members"`
	CreatedAt          time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at" db:"updated_at"`
}

// CanStartConversation проверяет, может ли пользователь начать новый диалог
func (s *UserSubscription) CanStartConversation() bool {
	if s.ConversationsLimit == UnlimitedConversations {
		return true
	}
	return s.ConversationsUsed < s.ConversationsLimit
}

// UsagePercentage возвращает использование лимита в процентах [0, 100]
func (s *UserSubscription) UsagePercentage() float64 {
	if s.ConversationsLimit == UnlimitedConversations || s.ConversationsLimit <= 0 {
		return 0
	}

	pct := float64(s.ConversationsUsed) / float64(s.ConversationsLimit) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// RemainingConversations возвращает остаток лимита диалогов (-1 = без лимита)
func (s *UserSubscription) RemainingConversations() int {
	if s.ConversationsLimit == UnlimitedConversations {
		return UnlimitedConversations
	}

	remaining := s.ConversationsLimit - s.ConversationsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FormatRenewalDate форматирует дату продления для отображения пользователю.
// Никогда не возвращает ошибку: отсутствующая дата дает "Not set",
// невалидная - "Invalid date".
func FormatRenewalDate(t *time.Time) string {
	if t == nil {
		return "Not set"
	}
	if t.IsZero() {
		return "Invalid date"
	}
	return t.Format("January 2, 2006")
}

// ParseRenewalDate разбирает сохраненную дату продления.
// Невалидное значение отбрасывается (nil), а не превращается в ошибку:
// хранилище может содержать частично записанные данные.
func ParseRenewalDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
