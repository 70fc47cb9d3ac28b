// Package ledger derives book availability from the activity history.
//
// Available copies are never stored. They are computed by the
// book_availability view as total_copies minus the open checkouts of a book,
// so there is no counter that can drift from the activities it depends on.
//
// Writers that depend on availability call Reserve inside their own
// transaction. Catalog transactions begin with BEGIN IMMEDIATE, and Reserve
// bumps the book's version before reading, so two concurrent checkouts of the
// same last copy are serialized and the second one sees zero copies.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

var (
	ErrInsufficientCopies = errors.New("no copies available")
	ErrActivityNotOpen    = errors.New("activity is not open")
)

type Ledger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// AvailableCopies returns the number of copies of a book that are not
// checked out.
func (l *Ledger) AvailableCopies(ctx context.Context, bookID uint) (int, error) {
	return available(l.db.WithContext(ctx), bookID)
}

// Reserve claims one copy of a book for the caller's transaction. The caller
// must insert the open checkout activity in the same transaction.
func (l *Ledger) Reserve(tx *gorm.DB, bookID uint) error {
	result := tx.Model(&entities.Book{}).
		Where("id = ?", bookID).
		Update("version", gorm.Expr("version + 1"))
	if result.Error != nil {
		return database.Wrap(fmt.Sprintf("lock book %d", bookID), result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("book %d: %w", bookID, database.ErrNotFound)
	}

	copies, err := available(tx, bookID)
	if err != nil {
		return err
	}
	if copies <= 0 {
		return fmt.Errorf("book %d: %w", bookID, ErrInsufficientCopies)
	}
	return nil
}

// Release closes an open checkout, which returns its copy to the pool.
func (l *Ledger) Release(tx *gorm.DB, activityID uint, at time.Time) error {
	result := tx.Model(&entities.Activity{}).
		Where("id = ? AND kind = ? AND status = ?", activityID, entities.ActivityKindCheckout, entities.ActivityStatusOpen).
		Updates(map[string]any{
			"status":    entities.ActivityStatusClosed,
			"closed_at": at,
		})
	if result.Error != nil {
		return database.Wrap(fmt.Sprintf("close activity %d", activityID), result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("activity %d: %w", activityID, ErrActivityNotOpen)
	}
	return nil
}

// CanResize reports whether a book can be given total copies without
// dropping below the copies currently checked out.
func (l *Ledger) CanResize(tx *gorm.DB, bookID uint, total int) (bool, error) {
	var open int64
	err := tx.Model(&entities.Activity{}).
		Where("book_id = ? AND kind = ? AND status = ?", bookID, entities.ActivityKindCheckout, entities.ActivityStatusOpen).
		Count(&open).Error
	if err != nil {
		return false, database.Wrap("count open checkouts", err)
	}
	return int64(total) >= open, nil
}

func available(db *gorm.DB, bookID uint) (int, error) {
	var copies int
	row := db.Table("book_availability").
		Select("available_copies").
		Where("book_id = ?", bookID).
		Row()
	if err := row.Scan(&copies); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("book %d: %w", bookID, database.ErrNotFound)
		}
		return 0, database.Wrap(fmt.Sprintf("availability of book %d", bookID), err)
	}
	return copies, nil
}
