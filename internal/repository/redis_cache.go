package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kyegomez/mcs-platform-sub001/internal/domain"
	"github.com/kyegomez/mcs-platform-sub001/pkg/logger"
)

// defaultCacheTTL TTL для кэша подписок
const defaultCacheTTL = 15 * time.Minute

// RedisCacheRepository реализует кеширование записей о подписках в Redis
type RedisCacheRepository struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisCacheRepository создает новый экземпляр Redis репозитория
func NewRedisCacheRepository(redisAddr, redisPassword string, redisDB int, log *logger.Logger) (*RedisCacheRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	// Проверяем соединение с Redis
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Errorw("Failed to connect to Redis", "error", err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("Connected to Redis successfully", "addr", redisAddr)
	return &RedisCacheRepository{
		client: client,
		log:    log,
	}, nil
}

// Close закрывает соединение с Redis
func (r *RedisCacheRepository) Close() error {
	return r.client.Close()
}

// CacheSubscription кеширует запись о подписке в Redis
func (r *RedisCacheRepository) CacheSubscription(ctx context.Context, sub *domain.UserSubscription) error {
	key := localKeyPrefix + sub.UserID

	data, err := encodeSubscription(sub)
	if err != nil {
		r.log.Errorw("Failed to marshal subscription for caching", "error", err, "userID", sub.UserID)
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}

	if err := r.client.Set(ctx, key, data, defaultCacheTTL).Err(); err != nil {
		r.log.Errorw("Failed to cache subscription in Redis", "error", err, "userID", sub.UserID)
		return fmt.Errorf("failed to cache subscription: %w", err)
	}

	r.log.Debugw("Subscription cached successfully", "userID", sub.UserID)
	return nil
}

// GetCachedSubscription получает запись о подписке из кеша.
// Промах кеша и поврежденная запись возвращают nil без ошибки.
func (r *RedisCacheRepository) GetCachedSubscription(ctx context.Context, userID string) (*domain.UserSubscription, error) {
	key := localKeyPrefix + userID

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.log.Debugw("Subscription not found in cache", "userID", userID)
			return nil, nil
		}
		r.log.Errorw("Error getting subscription from Redis", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to get subscription from cache: %w", err)
	}

	sub, err := decodeSubscription(data)
	if err != nil {
		// Поврежденный кеш эквивалентен промаху
		r.log.Warnw("Cached subscription is corrupted, treating as miss", "userID", userID)
		return nil, nil
	}

	r.log.Debugw("Subscription retrieved from cache", "userID", userID)
	return sub, nil
}

// DeleteCachedSubscription удаляет запись о подписке из кеша
func (r *RedisCacheRepository) DeleteCachedSubscription(ctx context.Context, userID string) error {
	key := localKeyPrefix + userID

	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.log.Errorw("Failed to delete subscription from cache", "error", err, "userID", userID)
		return fmt.Errorf("failed to delete subscription from cache: %w", err)
	}

	r.log.Debugw("Subscription deleted from cache", "userID", userID)
	return nil
}
