package ledger

import (
	"sync"

	"github.com/kyegomez/mcs-platform-sub001/internal/domain"
)

// EventSubscriptionUpdated имя события изменения подписки
const EventSubscriptionUpdated = "subscriptionUpdated"

// Listener получает уведомления об изменении записи о подписке.
// Рассылка идет только внутри процесса: подписчики регистрируются явно,
// глобальной шины событий нет.
type Listener interface {
	SubscriptionUpdated(sub domain.UserSubscription)
}

// ListenerFunc адаптер функции к интерфейсу Listener
type ListenerFunc func(sub domain.UserSubscription)

// SubscriptionUpdated реализует интерфейс Listener
func (f ListenerFunc) SubscriptionUpdated(sub domain.UserSubscription) {
	f(sub)
}

// Notifier рассылает события изменения подписки зарегистрированным подписчикам
type Notifier struct {
	mu        sync.RWMutex
	listeners []Listener
}

// NewNotifier создает новый Notifier
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe регистрирует подписчика
func (n *Notifier) Subscribe(l Listener) {
	n.mu.Lock()
	n.listeners = append(n.listeners, l)
	n.mu.Unlock()
}

// Notify рассылает событие всем подписчикам.
// Подписчики вызываются синхронно в порядке регистрации.
func (n *Notifier) Notify(sub domain.UserSubscription) {
	n.mu.RLock()
	listeners := make([]Listener, len(n.listeners))
	copy(listeners, n.listeners)
	n.mu.RUnlock()

	for _, l := range listeners {
		l.SubscriptionUpdated(sub)
	}
}
