package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"pool-site-service/internal/domain"
	"pool-site-service/internal/platform/obs"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier stores each notification under its own key with a TTL, so
// it disappears on its own, and publishes it for live subscribers.
type RedisNotifier struct {
	rdb     redis.UniversalClient
	channel string
	ttl     time.Duration
}

func NewRedisNotifier(rdb redis.UniversalClient, channel string, ttl time.Duration) (*RedisNotifier, error) {
	if rdb == nil {
		return nil, errors.New("redis notifier: client is nil")
	}
	if channel == "" {
		return nil, errors.New("redis notifier: channel must not be empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("redis notifier: ttl must be positive, got %s", ttl)
	}
	return &RedisNotifier{rdb: rdb, channel: channel, ttl: ttl}, nil
}

func notificationKey(projectID, id string) string {
	return fmt.Sprintf("notification:%s:%s", projectID, id)
}

func (r *RedisNotifier) Notify(ctx context.Context, n domain.Notification) (err error) {
	defer obs.Time(ctx, "notify.redis.Notify")(&err)

	payload, err := json.Marshal(toMessage(n, r.ttl))
	if err != nil {
		return fmt.Errorf("redis notify: marshal: %w", err)
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, notificationKey(n.ProjectID, n.ID.String()), payload, r.ttl)
	pipe.Publish(ctx, r.channel, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis notify project_id=%s: %w", n.ProjectID, err)
	}

	return nil
}

// Active returns the notifications of a project that have not expired yet.
func (r *RedisNotifier) Active(ctx context.Context, projectID string) ([]domain.Notification, error) {
	var keys []string
	iter := r.rdb.Scan(ctx, 0, notificationKey(projectID, "*"), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis active notifications: scan: %w", err)
	}
	if len(keys) == 0 {
		return []domain.Notification{}, nil
	}

	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis active notifications: mget: %w", err)
	}

	out := make([]domain.Notification, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			// Expired between SCAN and MGET.
			continue
		}
		n, err := fromMessage([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("redis active notifications: %w", err)
		}
		out = append(out, n)
	}

	return out, nil
}

// Subscribe follows the publish channel and forwards the notifications of
// one project. The subscription is confirmed before Subscribe returns.
func (r *RedisNotifier) Subscribe(ctx context.Context, projectID string) (<-chan domain.Notification, error) {
	sub := r.rdb.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe channel=%s: %w", r.channel, err)
	}

	out := make(chan domain.Notification)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				n, err := fromMessage([]byte(msg.Payload))
				if err != nil {
					log.Printf("redis subscribe: skip payload channel=%s err=%v", r.channel, err)
					continue
				}
				if n.ProjectID != projectID {
					continue
				}
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
