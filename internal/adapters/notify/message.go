package notify

import (
	"encoding/json"
	"fmt"
	"pool-site-service/internal/domain"
	"time"

	"github.com/google/uuid"
)

// Wire form shared by all sinks.
type message struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func toMessage(n domain.Notification, ttl time.Duration) message {
	return message{
		ID:        n.ID.String(),
		ProjectID: n.ProjectID,
		Message:   n.Message,
		Severity:  string(n.Severity),
		CreatedAt: n.CreatedAt,
		ExpiresAt: n.CreatedAt.Add(ttl),
	}
}

func fromMessage(b []byte) (domain.Notification, error) {
	var m message
	if err := json.Unmarshal(b, &m); err != nil {
		return domain.Notification{}, fmt.Errorf("decode notification: %w", err)
	}
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("decode notification id %q: %w", m.ID, err)
	}
	return domain.Notification{
		ID:        id,
		ProjectID: m.ProjectID,
		Message:   m.Message,
		Severity:  domain.Severity(m.Severity),
		CreatedAt: m.CreatedAt,
	}, nil
}
