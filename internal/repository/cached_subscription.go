package repository

import (
	"context"

	"github.com/kyegomez/mcs-platform-sub001/internal/domain"
	"github.com/kyegomez/mcs-platform-sub001/pkg/logger"
)

// CachedSubscriptionStore реализует SubscriptionStore с кешированием
type CachedSubscriptionStore struct {
	store SubscriptionStore
	cache *RedisCacheRepository
	log   *logger.Logger
}

// NewCachedSubscriptionStore создает новое хранилище с кешированием
func NewCachedSubscriptionStore(
	store SubscriptionStore,
	cache *RedisCacheRepository,
	log *logger.Logger,
) SubscriptionStore {
	return &CachedSubscriptionStore{
		store: store,
		cache: cache,
		log:   log,
	}
}

// Get получает запись о подписке (сначала из кеша, потом из хранилища)
func (r *CachedSubscriptionStore) Get(ctx context.Context, userID string) (*domain.UserSubscription, error) {
	cached, err := r.cache.GetCachedSubscription(ctx, userID)
	if err != nil {
		r.log.Warnw("Error getting subscription from cache", "error", err, "userID", userID)
		// Продолжаем выполнение при ошибке кеша
	}

	if cached != nil {
		return cached, nil
	}

	sub, err := r.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.CacheSubscription(ctx, sub); err != nil {
		r.log.Warnw("Failed to cache subscription after fetching", "error", err, "userID", userID)
	}

	return sub, nil
}

// Save сохраняет запись в хранилище и обновляет кеш
func (r *CachedSubscriptionStore) Save(ctx context.Context, sub *domain.UserSubscription) error {
	if err := r.store.Save(ctx, sub); err != nil {
		return err
	}

	if err := r.cache.CacheSubscription(ctx, sub); err != nil {
		r.log.Warnw("Failed to cache subscription after saving", "error", err, "userID", sub.UserID)
		// Продолжаем выполнение, несмотря на ошибку кеширования
	}

	return nil
}
