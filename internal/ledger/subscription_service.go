package ledger

import (
	"context"
	"errors"

	"github.com/kyegomez/mcs-platform-sub001/internal/domain"
	"github.com/kyegomez/mcs-platform-sub001/internal/repository"
	"github.com/kyegomez/mcs-platform-sub001/pkg/logger"
)

// Service единственный источник истины о текущей подписке пользователя.
// Все пути чтения защищены: отсутствующая или поврежденная запись
// деградирует к бесплатному уровню, а не превращается в ошибку для UI.
type Service struct {
	store    repository.SubscriptionStore
	catalog  *domain.TierCatalog
	notifier *Notifier
	log      *logger.Logger
}

// NewService создает новый сервис подписок
func NewService(store repository.SubscriptionStore, catalog *domain.TierCatalog, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		catalog:  catalog,
		notifier: NewNotifier(),
		log:      log,
	}
}

// Subscribe регистрирует подписчика на событие subscriptionUpdated
func (s *Service) Subscribe(l Listener) {
	s.notifier.Subscribe(l)
}

// LoadUserSubscription возвращает текущую запись о подписке пользователя.
// Отсутствующая или испорченная запись деградирует к бесплатному уровню;
// любая другая ошибка хранилища (таймаут, обрыв соединения) возвращается
// как есть: такая запись может существовать, и подменять ее нельзя.
func (s *Service) LoadUserSubscription(ctx context.Context, userID string) (domain.UserSubscription, error) {
	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.log.Debugw("No subscription record, using free tier default", "userID", userID)
		case errors.Is(err, repository.ErrCorruptedRecord):
			s.log.Warnw("Subscription record is corrupted, using free tier default", "userID", userID)
		default:
			return domain.UserSubscription{}, err
		}
		return s.catalog.DefaultSubscription(userID), nil
	}

	return *sub, nil
}

// GetUserSubscription возвращает текущую запись о подписке пользователя
// для путей чтения. Никогда не возвращает ошибку: при недоступности
// хранилища UI видит бесплатный уровень, запись при этом не меняется.
func (s *Service) GetUserSubscription(ctx context.Context, userID string) domain.UserSubscription {
	sub, err := s.LoadUserSubscription(ctx, userID)
	if err != nil {
		s.log.Warnw("Failed to load subscription, showing free tier default", "error", err, "userID", userID)
		return s.catalog.DefaultSubscription(userID)
	}

	return sub
}

// UpdateUserSubscription сохраняет запись и рассылает событие изменения
func (s *Service) UpdateUserSubscription(ctx context.Context, sub domain.UserSubscription) error {
	if err := s.store.Save(ctx, &sub); err != nil {
		s.log.Errorw("Failed to save subscription", "error", err, "userID", sub.UserID)
		return err
	}

	s.notifier.Notify(sub)
	s.log.Infow("Subscription updated", "userID", sub.UserID, "tier", sub.Tier, "event", EventSubscriptionUpdated)
	return nil
}

// IncrementConversationUsage учитывает начало нового диалога.
// Счетчик молча останавливается на лимите: никогда не превышает его и
// никогда не возвращает ошибку лимита. Для безлимитного уровня - no-op.
// Ошибка чтения хранилища прерывает инкремент: запись о платной подписке
// нельзя перезаписывать значением по умолчанию.
// Чтение-изменение-запись не защищено от конкурентных вызовов в рамках
// одной сессии; последняя запись выигрывает (известное ограничение).
func (s *Service) IncrementConversationUsage(ctx context.Context, userID string) (domain.UserSubscription, error) {
	sub, err := s.LoadUserSubscription(ctx, userID)
	if err != nil {
		s.log.Errorw("Failed to load subscription, usage not incremented", "error", err, "userID", userID)
		return domain.UserSubscription{}, err
	}

	if sub.ConversationsLimit == domain.UnlimitedConversations {
		return sub, nil
	}
	if sub.ConversationsUsed >= sub.ConversationsLimit {
		s.log.Debugw("Conversation limit reached, usage not incremented", "userID", userID, "limit", sub.ConversationsLimit)
		return sub, nil
	}

	sub.ConversationsUsed++
	if err := s.UpdateUserSubscription(ctx, sub); err != nil {
		return sub, err
	}

	return sub, nil
}

// CanStartConversation проверяет, может ли пользователь начать диалог
func (s *Service) CanStartConversation(ctx context.Context, userID string) bool {
	sub := s.GetUserSubscription(ctx, userID)
	return sub.CanStartConversation()
}

// UsagePercentage возвращает использование лимита в процентах [0, 100]
func (s *Service) UsagePercentage(ctx context.Context, userID string) float64 {
	sub := s.GetUserSubscription(ctx, userID)
	return sub.UsagePercentage()
}

// RemainingConversations возвращает остаток лимита диалогов
func (s *Service) RemainingConversations(ctx context.Context, userID string) int {
	sub := s.GetUserSubscription(ctx, userID)
	return sub.RemainingConversations()
}
