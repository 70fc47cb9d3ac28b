// Package ratings provides database operations for user ratings in the
// feedback store.
package ratings

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

// Summary aggregates all ratings.
type Summary struct {
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
}

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

func (r *Repository) Create(ctx context.Context, rating *entities.Rating) error {
	return database.Wrap("create rating", r.db.WithContext(ctx).Create(rating).Error)
}

func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Rating, error) {
	var rating entities.Rating
	if err := r.db.WithContext(ctx).First(&rating, id).Error; err != nil {
		return nil, database.Wrap(fmt.Sprintf("get rating %d", id), err)
	}
	return &rating, nil
}

// List returns ratings newest first. A limit of zero returns all of them.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]entities.Rating, error) {
	query := r.db.WithContext(ctx).Order("timestamp DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var list []entities.Rating
	err := query.Find(&list).Error
	return list, database.Wrap("list ratings", err)
}

// SetReply stores the administrator's reply. Only the reply column changes.
func (r *Repository) SetReply(ctx context.Context, id uint, reply string) (*entities.Rating, error) {
	result := r.db.WithContext(ctx).Model(&entities.Rating{}).Where("id = ?", id).Update("reply", reply)
	if result.Error != nil {
		return nil, database.Wrap(fmt.Sprintf("reply to rating %d", id), result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("rating %d: %w", id, database.ErrNotFound)
	}
	return r.GetByID(ctx, id)
}

func (r *Repository) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	row := r.db.WithContext(ctx).Model(&entities.Rating{}).Select("COUNT(*), COALESCE(AVG(stars), 0)").Row()
	if err := row.Scan(&s.Count, &s.Average); err != nil {
		return Summary{}, database.Wrap("rating summary", err)
	}
	return s, nil
}
