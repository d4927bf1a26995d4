// Package notify creates persisted notifications and hands them to an
// external delivery channel.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scout/internal/store"

	"github.com/google/uuid"
)

// bodyLimit caps the denormalized findings summary carried in a
// notification body.
const bodyLimit = 280

// Deliverer pushes a notification to the user over an external channel.
// Delivery is best-effort: a failure never rolls back the persisted record.
type Deliverer interface {
	Deliver(ctx context.Context, n *store.Notification) error
}

// Emitter persists notifications and triggers delivery.
type Emitter struct {
	store     store.NotificationStore
	deliverer Deliverer
	logger    *slog.Logger
}

// New creates an emitter. deliverer may be nil to disable push delivery.
func New(s store.NotificationStore, d Deliverer, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{store: s, deliverer: d, logger: logger}
}

// Emit persists a completion notification for the assignment and hands it
// off for delivery. The persisted record is the durable fact; a delivery
// failure is logged and swallowed.
func (e *Emitter) Emit(ctx context.Context, userID uuid.UUID, a *store.Assignment, findings string) (*store.Notification, error) {
	n := &store.Notification{
		ID:           uuid.New(),
		UserID:       userID,
		AssignmentID: a.ID,
		Kind:         store.NotificationKindAssignmentComplete,
		Title:        fmt.Sprintf("Research complete: %s", a.Title),
		Body:         summarize(findings),
		CreatedAt:    time.Now().UTC(),
	}

	if err := e.store.CreateNotification(ctx, nil, n); err != nil {
		return nil, fmt.Errorf("failed to persist notification: %w", err)
	}

	if e.deliverer != nil {
		if err := e.deliverer.Deliver(ctx, n); err != nil {
			e.logger.Warn("notification delivery failed",
				"notification_id", n.ID,
				"assignment_id", a.ID,
				"error", err,
			)
		}
	}

	return n, nil
}

func summarize(findings string) string {
	runes := []rune(findings)
	if len(runes) > bodyLimit {
		return string(runes[:bodyLimit-3]) + "..."
	}
	return findings
}
