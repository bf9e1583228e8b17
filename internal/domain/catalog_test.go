package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTierCatalog(t *testing.T) {
	catalog := DefaultTierCatalog()

	free, ok := catalog.Get(TierFree)
	require.True(t, ok)
	assert.Equal(t, FreeConversationLimit, free.ConversationLimit)
	assert.Equal(t, 0.0, free.MonthlyPriceUSD)

	premium, ok := catalog.Get(TierPremium)
	require.True(t, ok)
	assert.Equal(t, 7.99, premium.MonthlyPriceUSD)
	assert.Equal(t, UnlimitedConversations, premium.ConversationLimit)

	family, ok := catalog.Get(TierFamily)
	require.True(t, ok)
	assert.Equal(t, 12.99, family.MonthlyPriceUSD)
	assert.Equal(t, 6, family.MaxFamilyMembers)

	_, ok = catalog.Get("platinum")
	assert.False(t, ok)

	all := catalog.All()
	require.Len(t, all, 3)
	assert.Equal(t, TierFree, all[0].ID)
}

func TestPriceUSD(t *testing.T) {
	catalog := DefaultTierCatalog()

	monthly, err := catalog.PriceUSD(TierPremium, BillingCycleMonthly)
	require.NoError(t, err)
	assert.InDelta(t, 7.99, monthly, 0.001)

	// Годовая цена: 7.99 * 12 = 95.88
	annual, err := catalog.PriceUSD(TierPremium, BillingCycleAnnual)
	require.NoError(t, err)
	assert.InDelta(t, 95.88, annual, 0.001)

	familyAnnual, err := catalog.PriceUSD(TierFamily, BillingCycleAnnual)
	require.NoError(t, err)
	assert.InDelta(t, 155.88, familyAnnual, 0.001)

	_, err = catalog.PriceUSD("platinum", BillingCycleMonthly)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRenewalPeriod(t *testing.T) {
	assert.Equal(t, 30*24*time.Hour, RenewalPeriod(BillingCycleMonthly))
	assert.Equal(t, 365*24*time.Hour, RenewalPeriod(BillingCycleAnnual))
}

func TestDefaultSubscription(t *testing.T) {
	catalog := DefaultTierCatalog()
	sub := catalog.DefaultSubscription("user-1")

	assert.Equal(t, "user-1", sub.UserID)
	assert.Equal(t, TierFree, sub.Tier)
	assert.True(t, sub.IsActive)
	assert.Equal(t, 0, sub.ConversationsUsed)
	assert.Equal(t, FreeConversationLimit, sub.ConversationsLimit)
	assert.Nil(t, sub.RenewalDate)
}
