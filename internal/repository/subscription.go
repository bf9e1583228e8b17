package repository

import (
	"context"
	"errors"

	"github.com/kyegomez/mcs-platform-sub001/internal/domain"
)

// ErrNotFound стандартная ошибка для случаев, когда запись не найдена.
var ErrNotFound = errors.New("record not found")

// ErrCorruptedRecord сохраненная запись не декодируется.
// Вызывающая сторона деградирует к записи по умолчанию, а не падает.
var ErrCorruptedRecord = errors.New("corrupted subscription record")

// SubscriptionStore интерфейс хранилища записей о подписках.
// Запись привязана к идентификатору пользователя.
type SubscriptionStore interface {
	Get(ctx context.Context, userID string) (*domain.UserSubscription, error)
	Save(ctx context.Context, sub *domain.UserSubscription) error
}
