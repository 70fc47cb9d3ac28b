// Package contacts stores contact form submissions. Rows are append-only.
package contacts

import (
	"context"

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

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, submission *entities.ContactSubmission) error {
	return database.Wrap("create contact submission", r.db.WithContext(ctx).Create(submission).Error)
}

// List returns submissions newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]entities.ContactSubmission, error) {
	query := r.db.WithContext(ctx).Order("timestamp DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var list []entities.ContactSubmission
	err := query.Find(&list).Error
	return list, database.Wrap("list contact submissions", err)
}
