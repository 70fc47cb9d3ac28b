// Package outbox stores lifecycle notifications in the catalog store until
// they have been copied into the feedback store.
package outbox

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add writes an entry using tx, which should be the transaction of the
// change that produced it.
func (r *Repository) Add(tx *gorm.DB, entry *entities.OutboxEntry) error {
	return database.Wrap("add outbox entry", tx.Create(entry).Error)
}

// Pending returns undelivered entries, oldest first.
func (r *Repository) Pending(ctx context.Context, limit int) ([]entities.OutboxEntry, error) {
	var entries []entities.OutboxEntry
	query := r.db.WithContext(ctx).Where("delivered_at IS NULL").Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&entries).Error
	return entries, database.Wrap("list pending outbox", err)
}

// MarkDelivered stamps the entry as delivered.
func (r *Repository) MarkDelivered(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&entities.OutboxEntry{}).
		Where("id = ?", id).
		Update("delivered_at", at).Error
	return database.Wrap("mark outbox delivered", err)
}

// RecordAttempt increments the attempt counter after a failed delivery.
func (r *Repository) RecordAttempt(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&entities.OutboxEntry{}).
		Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1")).Error
	return database.Wrap("record outbox attempt", err)
}

// CountPending returns the number of undelivered entries.
func (r *Repository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.OutboxEntry{}).
		Where("delivered_at IS NULL").Count(&count).Error
	return count, database.Wrap("count pending outbox", err)
}

// DeleteDeliveredBefore prunes delivered entries older than cutoff.
func (r *Repository) DeleteDeliveredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("delivered_at IS NOT NULL AND delivered_at < ?", cutoff).
		Delete(&entities.OutboxEntry{})
	return result.RowsAffected, database.Wrap("prune outbox", result.Error)
}
