package repository

import (
	"context"
	"sync"

	"github.com/kyegomez/mcs-platform-sub001/internal/domain"
	"github.com/kyegomez/mcs-platform-sub001/pkg/logger"
)

// localKeyPrefix префикс ключей записей о подписках.
// Совпадает с ключом клиентского хранилища исходного приложения.
const localKeyPrefix = "mcs-subscription:"

// LocalSubscriptionStore хранит записи о подписках как JSON-блобы в памяти.
// Используется, когда база данных не сконфигурирована (dev-окружение и тесты).
// Блобы хранятся в сыром виде намеренно: путь декодирования тот же, что и для
// внешних хранилищ, включая деградацию на поврежденных данных.
type LocalSubscriptionStore struct {
	mu    sync.RWMutex
	blobs map[string]string
	log   *logger.Logger
}

// NewLocalSubscriptionStore создает новое локальное хранилище подписок
func NewLocalSubscriptionStore(log *logger.Logger) *LocalSubscriptionStore {
	return &LocalSubscriptionStore{
		blobs: make(map[string]string),
		log:   log,
	}
}

// Get возвращает запись о подписке пользователя
func (s *LocalSubscriptionStore) Get(ctx context.Context, userID string) (*domain.UserSubscription, error) {
	s.mu.RLock()
	blob, ok := s.blobs[localKeyPrefix+userID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	sub, err := decodeSubscription([]byte(blob))
	if err != nil {
		s.log.Warnw("Stored subscription blob is corrupted", "userID", userID)
		return nil, err
	}

	return sub, nil
}

// Save сохраняет запись о подписке пользователя
func (s *LocalSubscriptionStore) Save(ctx context.Context, sub *domain.UserSubscription) error {
	data, err := encodeSubscription(sub)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.blobs[localKeyPrefix+sub.UserID] = string(data)
	s.mu.Unlock()

	s.log.Debugw("Subscription saved to local store", "userID", sub.UserID, "tier", sub.Tier)
	return nil
}

// SeedRaw записывает сырой блоб без валидации.
// Нужен тестам пути деградации на поврежденных данных.
func (s *LocalSubscriptionStore) SeedRaw(userID, blob string) {
	s.mu.Lock()
	s.blobs[localKeyPrefix+userID] = blob
	s.mu.Unlock()
}
