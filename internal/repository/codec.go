package repository

import (
	"encoding/json"
	"time"

	"github.com/kyegomez/mcs-platform-sub001/internal/domain"
)

// storedSubscription формат записи о подписке в key-value хранилищах.
// Дата продления сериализуется в каноническую строку RFC 3339, поэтому
// декодирование идет через промежуточную структуру: невалидная дата
// отбрасывается, остальная запись сохраняется.
type storedSubscription struct {
	UserID             string `json:"user_id"`
	Tier               string `json:"tier"`
	IsActive           bool   `json:"is_active"`
	ConversationsUsed  int    `json:"conversations_used"`
	ConversationsLimit int    `json:"conversations_limit"`
	BillingCycle       string `json:"billing_cycle,omitempty"`
	RenewalDate        string `json:"renewal_date,omitempty"`
	FamilyMembers      int    `json:"family_members,omitempty"`
	CreatedAt          string `json:"created_at,omitempty"`
	UpdatedAt          string `json:"updated_at,omitempty"`
}

// encodeSubscription сериализует запись о подписке в JSON
func encodeSubscription(sub *domain.UserSubscription) ([]byte, error) {
	stored := storedSubscription{
		UserID:             sub.UserID,
		Tier:               string(sub.Tier),
		IsActive:           sub.IsActive,
		ConversationsUsed:  sub.ConversationsUsed,
		ConversationsLimit: sub.ConversationsLimit,
		BillingCycle:       string(sub.BillingCycle),
		FamilyMembers:      sub.FamilyMembers,
	}

	if sub.RenewalDate != nil {
		stored.RenewalDate = sub.RenewalDate.Format(time.RFC3339)
	}
	if !sub.CreatedAt.IsZero() {
		stored.CreatedAt = sub.CreatedAt.Format(time.RFC3339)
	}
	if !sub.UpdatedAt.IsZero() {
		stored.UpdatedAt = sub.UpdatedAt.Format(time.RFC3339)
	}

	return json.Marshal(stored)
}

// decodeSubscription восстанавливает запись о подписке из JSON.
// Возвращает ErrCorruptedRecord, если данные не разбираются.
func decodeSubscription(data []byte) (*domain.UserSubscription, error) {
	var stored storedSubscription
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, ErrCorruptedRecord
	}

	sub := &domain.UserSubscription{
		UserID:             stored.UserID,
		Tier:               domain.TierID(stored.Tier),
		IsActive:           stored.IsActive,
		ConversationsUsed:  stored.ConversationsUsed,
		ConversationsLimit: stored.ConversationsLimit,
		BillingCycle:       domain.BillingCycle(stored.BillingCycle),
		FamilyMembers:      stored.FamilyMembers,
	}

	// Невалидные даты отбрасываются, запись остается рабочей
	sub.RenewalDate = domain.ParseRenewalDate(stored.RenewalDate)
	if t := domain.ParseRenewalDate(stored.CreatedAt); t != nil {
		sub.CreatedAt = *t
	}
	if t := domain.ParseRenewalDate(stored.UpdatedAt); t != nil {
		sub.UpdatedAt = *t
	}

	return sub, nil
}
