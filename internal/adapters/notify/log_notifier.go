package notify

import (
	"context"
	"log"
	"pool-site-service/internal/domain"
)

// LogNotifier writes notifications to the process log. Used when no
// broker is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n domain.Notification) error {
	log.Printf("notify project_id=%s severity=%s id=%s msg=%q", n.ProjectID, n.Severity, n.ID, n.Message)
	return nil
}
