// Package notify produces notification records for lifecycle and feedback
// events.
//
// Feedback events (ratings, contact messages) live in the feedback store, so
// their notifications are written in the same transaction with EmitTx.
// Lifecycle events live in the catalog store; they are queued in the catalog
// outbox with Enqueue inside the lifecycle transaction and copied into the
// feedback store by Flush. Flush runs after each lifecycle commit and from
// the background delivery task, so a committed event always yields a
// notification at least once.
package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database/notifications"
	"github.com/mrlokans/librarian/internal/database/outbox"
	"github.com/mrlokans/librarian/internal/entities"
)

const defaultBatchSize = 100

// PruneResult reports how many rows a retention pass removed.
type PruneResult struct {
	Notifications int64
	OutboxEntries int64
}

type Emitter struct {
	notifications *notifications.Repository
	outbox        *outbox.Repository
	batchSize     int

	// flushMu keeps a request-triggered flush and the background task from
	// delivering the same entries twice.
	flushMu sync.Mutex
}

// NewEmitter creates an emitter writing notifications to the feedback store
// and reading queued entries from the catalog store.
func NewEmitter(catalog, feedback *gorm.DB) *Emitter {
	return &Emitter{
		notifications: notifications.NewRepository(feedback),
		outbox:        outbox.NewRepository(catalog),
		batchSize:     defaultBatchSize,
	}
}

// Emit appends an unread notification.
func (e *Emitter) Emit(ctx context.Context, typ entities.NotificationType, message string, relatedID *uint) (*entities.Notification, error) {
	n := &entities.Notification{Type: typ, Message: message, RelatedID: relatedID}
	if err := e.notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// EmitTx appends an unread notification inside a feedback-store transaction.
func (e *Emitter) EmitTx(tx *gorm.DB, typ entities.NotificationType, message string, relatedID *uint) (*entities.Notification, error) {
	n := &entities.Notification{Type: typ, Message: message, RelatedID: relatedID}
	if err := e.notifications.WithTx(tx).Create(tx.Statement.Context, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Enqueue queues a notification inside a catalog-store transaction. It is
// delivered by the next Flush.
func (e *Emitter) Enqueue(tx *gorm.DB, typ entities.NotificationType, message string, relatedID *uint) error {
	return e.outbox.Add(tx, &entities.OutboxEntry{Type: typ, Message: message, RelatedID: relatedID})
}

// Flush delivers queued entries to the feedback store and returns how many
// were delivered. It stops at the first failure; the remaining entries stay
// queued for the next call.
func (e *Emitter) Flush(ctx context.Context) (int, error) {
	e.flushMu.Lock()
	defer e.flushMu.Unlock()

	delivered := 0
	for {
		pending, err := e.outbox.Pending(ctx, e.batchSize)
		if err != nil {
			return delivered, err
		}
		if len(pending) == 0 {
			return delivered, nil
		}

		for _, entry := range pending {
			if err := e.deliver(ctx, entry); err != nil {
				if recErr := e.outbox.RecordAttempt(ctx, entry.ID); recErr != nil {
					log.Printf("[NOTIFY] Failed to record attempt for outbox entry %d: %v", entry.ID, recErr)
				}
				return delivered, err
			}
			delivered++
		}

		if len(pending) < e.batchSize {
			return delivered, nil
		}
	}
}

// deliver copies one entry. A crash between the insert and the mark leaves
// the entry queued, so it may be delivered again but is never lost.
func (e *Emitter) deliver(ctx context.Context, entry entities.OutboxEntry) error {
	if _, err := e.Emit(ctx, entry.Type, entry.Message, entry.RelatedID); err != nil {
		return err
	}
	return e.outbox.MarkDelivered(ctx, entry.ID, time.Now())
}

// Pending returns the number of queued entries not yet delivered.
func (e *Emitter) Pending(ctx context.Context) (int64, error) {
	return e.outbox.CountPending(ctx)
}

func (e *Emitter) List(ctx context.Context, unreadOnly bool) ([]entities.Notification, error) {
	return e.notifications.List(ctx, unreadOnly)
}

// MarkRead acknowledges a notification. Acknowledging it again is a no-op.
func (e *Emitter) MarkRead(ctx context.Context, id uint) error {
	return e.notifications.MarkRead(ctx, id)
}

func (e *Emitter) MarkAllRead(ctx context.Context) (int64, error) {
	return e.notifications.MarkAllRead(ctx)
}

func (e *Emitter) UnreadCount(ctx context.Context) (int64, error) {
	return e.notifications.CountUnread(ctx)
}

// DeleteReadOlderThan removes read notifications and delivered outbox
// entries older than retention. Unread notifications are kept.
func (e *Emitter) DeleteReadOlderThan(ctx context.Context, retention time.Duration) (PruneResult, error) {
	cutoff := time.Now().Add(-retention)

	var result PruneResult
	var err error
	result.Notifications, err = e.notifications.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return result, err
	}
	result.OutboxEntries, err = e.outbox.DeleteDeliveredBefore(ctx, cutoff)
	return result, err
}
