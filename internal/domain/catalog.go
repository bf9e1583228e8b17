package domain

import (
	"fmt"
	"time"
)

// FreeConversationLimit лимит диалогов для бесплатного уровня
const FreeConversationLimit = 15

// TierCatalog неизменяемый каталог уровней подписки.
// Создается один раз при старте приложения и внедряется в компоненты,
// вместо обращения к глобальному состоянию.
type TierCatalog struct {
	tiers map[TierID]SubscriptionTier
	order []TierID
}

// NewTierCatalog создает каталог из переданных уровней
func NewTierCatalog(tiers ...SubscriptionTier) *TierCatalog {
	c := &TierCatalog{
		tiers: make(map[TierID]SubscriptionTier, len(tiers)),
		order: make([]TierID, 0, len(tiers)),
	}
	for _, t := range tiers {
		if _, exists := c.tiers[t.ID]; exists {
			continue
		}
		c.tiers[t.ID] = t
		c.order = append(c.order, t.ID)
	}
	return c
}

// DefaultTierCatalog возвращает каталог уровней платформы
func DefaultTierCatalog() *TierCatalog {
	return NewTierCatalog(
		SubscriptionTier{
			ID:                TierFree,
			Name:              "Free",
			MonthlyPriceUSD:   0,
			AnnualPriceUSD:    0,
			ConversationLimit: FreeConversationLimit,
			Features: []string{
				"15 specialist conversations per month",
				"Basic medical profile",
				"Personal health notes",
			},
		},
		SubscriptionTier{
			ID:                TierPremium,
			Name:              "Premium",
			MonthlyPriceUSD:   7.99,
			AnnualPriceUSD:    7.99 * 12,
			ConversationLimit: UnlimitedConversations,
			Features: []string{
				"Unlimited specialist conversations",
				"Full specialist roster",
				"Priority responses",
				"Conversation history export",
			},
		},
		SubscriptionTier{
			ID:                TierFamily,
			Name:              "Family",
			MonthlyPriceUSD:   12.99,
			AnnualPriceUSD:    12.99 * 12,
			ConversationLimit: UnlimitedConversations,
			MaxFamilyMembers:  6,
			Features: []string{
				"Everything in Premium",
				"Up to 6 family member profiles",
				"Shared family health notes",
			},
		},
	)
}

// Get возвращает уровень подписки по идентификатору
func (c *TierCatalog) Get(id TierID) (SubscriptionTier, bool) {
	t, ok := c.tiers[id]
	return t, ok
}

// All возвращает уровни подписки в порядке отображения
func (c *TierCatalog) All() []SubscriptionTier {
	out := make([]SubscriptionTier, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.tiers[id])
	}
	return out
}

// PriceUSD возвращает полную стоимость уровня за выбранный период.
// Стоимость всегда пересчитывается из каталога, сумма от клиента не
// принимается на веру.
func (c *TierCatalog) PriceUSD(id TierID, cycle BillingCycle) (float64, error) {
	tier, ok := c.tiers[id]
	if !ok {
		return 0, fmt.Errorf("%w: unknown tier %q", ErrInvalidInput, id)
	}

	if cycle == BillingCycleAnnual {
		return tier.MonthlyPriceUSD * 12, nil
	}
	return tier.MonthlyPriceUSD, nil
}

// RenewalPeriod возвращает длительность периода подписки
func RenewalPeriod(cycle BillingCycle) time.Duration {
	if cycle == BillingCycleAnnual {
		return 365 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}

// DefaultSubscription возвращает запись бесплатного уровня.
// Используется, когда записи нет или сохраненные данные повреждены.
func (c *TierCatalog) DefaultSubscription(userID string) UserSubscription {
	limit := FreeConversationLimit
	if tier, ok := c.tiers[TierFree]; ok {
		limit = tier.ConversationLimit
	}

	now := time.Now()
	return UserSubscription{
		UserID:             userID,
		Tier:               TierFree,
		IsActive:           true,
		ConversationsUsed:  0,
		ConversationsLimit: limit,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
