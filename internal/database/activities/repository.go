// Package activities provides database operations for activity history.
//
// State changes (checkout, return, reservation) go through the lifecycle
// package; this repository only reads and inserts rows.
package activities

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

// Filter narrows activity listings. Zero values match everything.
type Filter struct {
	BookID uint
	UserID uint
	Kind   entities.ActivityKind
	Status entities.ActivityStatus
	Limit  int
	Offset int
}

// Repository handles activity database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new activities repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new activity row.
func (r *Repository) Create(ctx context.Context, activity *entities.Activity) error {
	return database.Wrap("create activity", r.db.WithContext(ctx).Create(activity).Error)
}

// GetByID retrieves an activity by ID.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Activity, error) {
	var activity entities.Activity
	err := r.db.WithContext(ctx).First(&activity, id).Error
	if err != nil {
		return nil, database.Wrap(fmt.Sprintf("get activity %d", id), err)
	}
	return &activity, nil
}

// List returns activities matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]entities.Activity, int64, error) {
	query := r.db.WithContext(ctx).Model(&entities.Activity{})
	if filter.BookID != 0 {
		query = query.Where("book_id = ?", filter.BookID)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, database.Wrap("count activities", err)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var list []entities.Activity
	if err := query.Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return nil, 0, database.Wrap("list activities", err)
	}
	return list, total, nil
}

// CountOpenCheckouts returns the number of open checkouts held by a user.
func (r *Repository) CountOpenCheckouts(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Activity{}).
		Where("user_id = ? AND kind = ? AND status = ?", userID, entities.ActivityKindCheckout, entities.ActivityStatusOpen).
		Count(&count).Error
	return count, database.Wrap("count open checkouts", err)
}
