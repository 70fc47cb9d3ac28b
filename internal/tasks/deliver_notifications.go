package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// NotificationDeliverer copies queued lifecycle notifications into the
// feedback store.
type NotificationDeliverer interface {
	Flush(ctx context.Context) (int, error)
}

// DeliverNotificationsTask drains the catalog notification outbox.
type DeliverNotificationsTask struct {
	Reason string `json:"reason,omitempty"`
}

// Config returns the queue configuration for outbox delivery tasks.
func (t DeliverNotificationsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "deliver_notifications",
		MaxAttempts: 5,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   6 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// DeliverNotificationsProcessor creates a processor function for DeliverNotificationsTask.
// A failed delivery returns an error so backlite retries it with backoff.
func DeliverNotificationsProcessor(deliverer NotificationDeliverer) backlite.QueueProcessor[DeliverNotificationsTask] {
	return func(ctx context.Context, task DeliverNotificationsTask) error {
		if deliverer == nil {
			return fmt.Errorf("notification deliverer not configured")
		}

		delivered, err := deliverer.Flush(ctx)
		if err != nil {
			return fmt.Errorf("deliver notifications: %w", err)
		}

		if delivered > 0 {
			log.Printf("[TASK] Delivered %d queued notifications (%s)", delivered, task.Reason)
		}
		return nil
	}
}

// NewDeliverNotificationsQueue creates a backlite queue for outbox delivery tasks.
func NewDeliverNotificationsQueue(deliverer NotificationDeliverer) backlite.Queue {
	return backlite.NewQueue(DeliverNotificationsProcessor(deliverer))
}
