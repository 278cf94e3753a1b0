package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"pool-site-service/internal/domain"
	"pool-site-service/internal/platform/obs"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes notifications as events keyed by project ID.
// Consumers are responsible for hiding them after expires_at.
type KafkaNotifier struct {
	writer messageWriter
	ttl    time.Duration
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaNotifier(w messageWriter, ttl time.Duration) (*KafkaNotifier, error) {
	if w == nil {
		return nil, errors.New("kafka notifier: writer is nil")
	}
	return &KafkaNotifier{writer: w, ttl: ttl}, nil
}

func (k *KafkaNotifier) Notify(ctx context.Context, n domain.Notification) (err error) {
	defer obs.Time(ctx, "notify.kafka.Notify")(&err)

	payload, err := json.Marshal(toMessage(n, k.ttl))
	if err != nil {
		return fmt.Errorf("kafka notify: marshal: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(n.ProjectID),
		Value: payload,
		Time:  n.CreatedAt,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka notify project_id=%s: %w", n.ProjectID, err)
	}

	return nil
}

func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
