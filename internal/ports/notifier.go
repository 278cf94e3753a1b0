package ports

import (
	"context"
	"pool-site-service/internal/domain"
)

// Fire-and-forget delivery of transient notifications.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// Read side of a notifier that keeps notifications until they expire.
type NotificationFeed interface {
	Active(ctx context.Context, projectID string) ([]domain.Notification, error)
}

// Live notifications of one project. The channel is closed once ctx is done.
type NotificationStream interface {
	Subscribe(ctx context.Context, projectID string) (<-chan domain.Notification, error)
}
