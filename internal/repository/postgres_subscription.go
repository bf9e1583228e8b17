package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kyegomez/mcs-platform-sub001/internal/domain"
	"github.com/kyegomez/mcs-platform-sub001/pkg/logger"
)

// postgresSubscriptionStore реализует SubscriptionStore для PostgreSQL.
type postgresSubscriptionStore struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewPostgresSubscriptionStore создает новый экземпляр хранилища для PostgreSQL.
func NewPostgresSubscriptionStore(db *sqlx.DB, log *logger.Logger) SubscriptionStore {
	return &postgresSubscriptionStore{
		db:  db,
		log: log,
	}
}

// Get возвращает запись о подписке пользователя.
func (r *postgresSubscriptionStore) Get(ctx context.Context, userID string) (*domain.UserSubscription, error) {
	var sub domain.UserSubscription
	query := `
        SELECT user_id, tier, is_active, conversations_used, conversations_limit,
               billing_cycle, renewal_date, family_members, created_at, updated_at
        FROM user_subscriptions
        WHERE user_id = $1`

	err := r.db.GetContext(ctx, &sub, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Debugw("Subscription not found in DB", "userID", userID)
			return nil, ErrNotFound
		}
		r.log.Errorw("Failed to get subscription from DB", "error", err, "userID", userID)
		return nil, fmt.Errorf("repository: failed to get subscription: %w", err)
	}

	return &sub, nil
}

// Save сохраняет запись о подписке (upsert по user_id).
func (r *postgresSubscriptionStore) Save(ctx context.Context, sub *domain.UserSubscription) error {
	now := time.Now()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	query := `
        INSERT INTO user_subscriptions (
            user_id, tier, is_active, conversations_used, conversations_limit,
            billing_cycle, renewal_date, family_members, created_at, updated_at
        ) VALUES (
            :user_id, :tier, :is_active, :conversations_used, :conversations_limit,
            :billing_cycle, :renewal_date, :family_members, :created_at, :updated_at
        )
        ON CONFLICT (user_id) DO UPDATE SET
            tier = EXCLUDED.tier,
            is_active = EXCLUDED.is_active,
            conversations_used = EXCLUDED.conversations_used,
            conversations_limit = EXCLUDED.conversations_limit,
            billing_cycle = EXCLUDED.billing_cycle,
            renewal_date = EXCLUDED.renewal_date,
            family_members = EXCLUDED.family_members,
            updated_at = EXCLUDED.updated_at`

	_, err := r.db.NamedExecContext(ctx, query, sub)
	if err != nil {
		r.log.Errorw("Failed to save subscription in DB", "error", err, "userID", sub.UserID)
		return fmt.Errorf("repository: failed to save subscription: %w", err)
	}

	r.log.Debugw("Subscription saved in DB", "userID", sub.UserID, "tier", sub.Tier)
	return nil
}
