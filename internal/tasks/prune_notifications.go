package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarian/internal/notify"
)

const defaultNotificationRetention = 30 * 24 * time.Hour

// NotificationPruner removes old read notifications and delivered outbox entries.
type NotificationPruner interface {
	DeleteReadOlderThan(ctx context.Context, retention time.Duration) (notify.PruneResult, error)
}

// PruneNotificationsTask removes read notifications older than the retention period.
type PruneNotificationsTask struct {
	RetentionSeconds int64 `json:"retention_seconds"`
}

// NewPruneNotificationsTask keeps sub-hour retentions intact; a zero or
// negative retention selects the default.
func NewPruneNotificationsTask(retention time.Duration) PruneNotificationsTask {
	return PruneNotificationsTask{RetentionSeconds: int64(retention / time.Second)}
}

func (t PruneNotificationsTask) Retention() time.Duration {
	if t.RetentionSeconds <= 0 {
		return defaultNotificationRetention
	}
	return time.Duration(t.RetentionSeconds) * time.Second
}

// Config returns the queue configuration for notification pruning tasks.
func (t PruneNotificationsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prune_notifications",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PruneNotificationsProcessor creates a processor function for PruneNotificationsTask.
func PruneNotificationsProcessor(pruner NotificationPruner) backlite.QueueProcessor[PruneNotificationsTask] {
	return func(ctx context.Context, task PruneNotificationsTask) error {
		if pruner == nil {
			return fmt.Errorf("notification pruner not configured")
		}

		retention := task.Retention()
		result, err := pruner.DeleteReadOlderThan(ctx, retention)
		if err != nil {
			return fmt.Errorf("prune notifications: %w", err)
		}

		log.Printf("[TASK] Pruned %d notifications and %d outbox entries older than %s",
			result.Notifications, result.OutboxEntries, retention)
		return nil
	}
}

// NewPruneNotificationsQueue creates a backlite queue for notification pruning tasks.
func NewPruneNotificationsQueue(pruner NotificationPruner) backlite.Queue {
	return backlite.NewQueue(PruneNotificationsProcessor(pruner))
}
