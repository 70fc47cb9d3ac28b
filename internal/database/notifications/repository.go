// Package notifications provides database operations for notifications in
// the feedback store.
package notifications

import (
	"context"
	"fmt"
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

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create appends a notification. IsRead is always stored as false.
func (r *Repository) Create(ctx context.Context, n *entities.Notification) error {
	n.IsRead = false
	return database.Wrap("create notification", r.db.WithContext(ctx).Create(n).Error)
}

func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Notification, error) {
	var n entities.Notification
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, database.Wrap(fmt.Sprintf("get notification %d", id), err)
	}
	return &n, nil
}

// List returns notifications newest first, optionally only unread ones.
func (r *Repository) List(ctx context.Context, unreadOnly bool) ([]entities.Notification, error) {
	query := r.db.WithContext(ctx).Order("timestamp DESC, id DESC")
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	var list []entities.Notification
	err := query.Find(&list).Error
	return list, database.Wrap("list notifications", err)
}

// MarkRead sets is_read. Marking an already read notification is a no-op.
func (r *Repository) MarkRead(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&entities.Notification{}).
		Where("id = ?", id).
		Update("is_read", true)
	if result.Error != nil {
		return database.Wrap(fmt.Sprintf("mark notification %d read", id), result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// Some drivers report zero changed rows when the value was already set.
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.Notification{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return database.Wrap("check notification", err)
	}
	if count == 0 {
		return fmt.Errorf("notification %d: %w", id, database.ErrNotFound)
	}
	return nil
}

// MarkAllRead marks every unread notification read and returns how many changed.
func (r *Repository) MarkAllRead(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entities.Notification{}).
		Where("is_read = ?", false).
		Update("is_read", true)
	return result.RowsAffected, database.Wrap("mark all notifications read", result.Error)
}

func (r *Repository) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Notification{}).Where("is_read = ?", false).Count(&count).Error
	return count, database.Wrap("count unread notifications", err)
}

// DeleteReadBefore prunes read notifications older than cutoff.
func (r *Repository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("is_read = ? AND timestamp < ?", true, cutoff).
		Delete(&entities.Notification{})
	return result.RowsAffected, database.Wrap("prune notifications", result.Error)
}
