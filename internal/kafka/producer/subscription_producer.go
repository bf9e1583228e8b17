package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/kyegomez/mcs-platform-sub001/internal/domain"
	"github.com/kyegomez/mcs-platform-sub001/pkg/logger"
)

const (
	TopicSubscriptionUpdated = "subscription.updated"
	TopicPaymentVerified     = "payment.verified"
)

// SubscriptionEvent представляет событие подписки для Kafka
type SubscriptionEvent struct {
	ID           string              `json:"id"`
	UserID       string              `json:"user_id"`
	Tier         domain.TierID       `json:"tier"`
	BillingCycle domain.BillingCycle `json:"billing_cycle,omitempty"`
	IsActive     bool                `json:"is_active"`
	RenewalDate  *time.Time          `json:"renewal_date,omitempty"`
	Signature    string              `json:"signature,omitempty"`
	Timestamp    time.Time           `json:"timestamp"`
}

// SubscriptionProducer интерфейс для отправки событий подписок
type SubscriptionProducer interface {
	PublishSubscriptionUpdated(ctx context.Context, sub domain.UserSubscription) error
	PublishPaymentVerified(ctx context.Context, sub domain.UserSubscription, signature string) error
	Close() error
}

type kafkaSubscriptionProducer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
}

// NewSyncProducer создает sarama SyncProducer с настройками сервиса
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(brokers, cfg)
}

// NewKafkaSubscriptionProducer создает новый продюсер событий подписок
func NewKafkaSubscriptionProducer(producer sarama.SyncProducer, log *logger.Logger) SubscriptionProducer {
	return &kafkaSubscriptionProducer{
		producer: producer,
		log:      log,
	}
}

// PublishSubscriptionUpdated публикует событие об изменении подписки
func (p *kafkaSubscriptionProducer) PublishSubscriptionUpdated(ctx context.Context, sub domain.UserSubscription) error {
	return p.publishEvent(TopicSubscriptionUpdated, sub, "")
}

// PublishPaymentVerified публикует событие о подтвержденном платеже
func (p *kafkaSubscriptionProducer) PublishPaymentVerified(ctx context.Context, sub domain.UserSubscription, signature string) error {
	return p.publishEvent(TopicPaymentVerified, sub, signature)
}

// publishEvent публикует событие подписки в Kafka
func (p *kafkaSubscriptionProducer) publishEvent(topic string, sub domain.UserSubscription, signature string) error {
	event := SubscriptionEvent{
		ID:           uuid.New().String(),
		UserID:       sub.UserID,
		Tier:         sub.Tier,
		BillingCycle: sub.BillingCycle,
		IsActive:     sub.IsActive,
		RenewalDate:  sub.RenewalDate,
		Signature:    signature,
		Timestamp:    time.Now(),
	}

	messageValue, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription event: %w", err)
	}

	// UserID как ключ сообщения: события одного пользователя попадают в
	// одну партицию и сохраняют порядок
	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(sub.UserID),
		Value: sarama.ByteEncoder(messageValue),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("event_type"),
				Value: []byte(topic),
			},
		},
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		p.log.Errorw("Failed to publish subscription event", "error", err, "topic", topic, "userID", sub.UserID)
		return fmt.Errorf("kafka: failed to publish event: %w", err)
	}

	p.log.Debugw("Subscription event published", "topic", topic, "userID", sub.UserID, "partition", partition, "offset", offset)
	return nil
}

// Close закрывает продюсер Kafka
func (p *kafkaSubscriptionProducer) Close() error {
	p.log.Infow("Closing Kafka producer...")
	return p.producer.Close()
}
