// Package books provides database operations for the book catalog.
//
// Available copies are derived from the book_availability view on every read;
// nothing in this package writes them.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBookByID(ctx, 42)
package books

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/ledger"
)

var (
	ErrBookInUse        = errors.New("book has open activities")
	ErrCopiesBelowLoans = errors.New("total copies cannot be lower than the number of open checkouts")
	ErrInvalidBook      = errors.New("title and author are required and total copies must not be negative")
)

// Update holds the mutable fields of a book. Nil fields are left untouched.
type Update struct {
	Title       *string
	Author      *string
	ISBN        *string
	TotalCopies *int
}

// Repository handles all book database operations.
type Repository struct {
	db     *gorm.DB
	ledger *ledger.Ledger
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, ledger: ledger.New(db)}
}

func (r *Repository) withAvailability(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&entities.Book{}).
		Select("books.*, ba.available_copies").
		Joins("LEFT JOIN book_availability ba ON ba.book_id = books.id")
}

// CreateBook inserts a new book. All copies start out available.
func (r *Repository) CreateBook(ctx context.Context, book *entities.Book) error {
	if err := validate(book.Title, book.Author, book.TotalCopies); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return database.Wrap("create book", err)
	}
	book.AvailableCopies = book.TotalCopies
	return nil
}

// GetBookByID retrieves a book with its current availability.
func (r *Repository) GetBookByID(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.withAvailability(ctx).Where("books.id = ?", id).First(&book).Error
	if err != nil {
		return nil, database.Wrap(fmt.Sprintf("get book %d", id), err)
	}
	return &book, nil
}

// GetAllBooks lists books ordered by title.
func (r *Repository) GetAllBooks(ctx context.Context) ([]entities.Book, error) {
	var books []entities.Book
	err := r.withAvailability(ctx).Order("books.title ASC, books.id ASC").Find(&books).Error
	if err != nil {
		return nil, database.Wrap("list books", err)
	}
	return books, nil
}

// SearchBooks matches the query against title, author and ISBN.
func (r *Repository) SearchBooks(ctx context.Context, query string) ([]entities.Book, error) {
	var books []entities.Book
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	err := r.withAvailability(ctx).
		Where("LOWER(books.title) LIKE ? OR LOWER(books.author) LIKE ? OR LOWER(books.isbn) LIKE ?", pattern, pattern, pattern).
		Order("books.title ASC, books.id ASC").
		Find(&books).Error
	if err != nil {
		return nil, database.Wrap("search books", err)
	}
	return books, nil
}

// UpdateBook applies the update and returns the refreshed book. Shrinking
// total copies below the open checkouts is refused.
func (r *Repository) UpdateBook(ctx context.Context, id uint, update Update) (*entities.Book, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, id).Error; err != nil {
			return database.Wrap(fmt.Sprintf("get book %d", id), err)
		}

		if update.Title != nil {
			book.Title = strings.TrimSpace(*update.Title)
		}
		if update.Author != nil {
			book.Author = strings.TrimSpace(*update.Author)
		}
		if update.ISBN != nil {
			book.ISBN = strings.TrimSpace(*update.ISBN)
		}
		if update.TotalCopies != nil {
			ok, err := r.ledger.CanResize(tx, id, *update.TotalCopies)
			if err != nil {
				return err
			}
			if !ok {
				return ErrCopiesBelowLoans
			}
			book.TotalCopies = *update.TotalCopies
		}
		if err := validate(book.Title, book.Author, book.TotalCopies); err != nil {
			return err
		}

		err := tx.Model(&book).Updates(map[string]any{
			"title":        book.Title,
			"author":       book.Author,
			"isbn":         book.ISBN,
			"total_copies": book.TotalCopies,
			"version":      gorm.Expr("version + 1"),
		}).Error
		return database.Wrap(fmt.Sprintf("update book %d", id), err)
	})
	if err != nil {
		return nil, err
	}
	return r.GetBookByID(ctx, id)
}

// DeleteBook removes a book together with its closed activity history.
// Books with open checkouts or reservations cannot be deleted.
func (r *Repository) DeleteBook(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, id).Error; err != nil {
			return database.Wrap(fmt.Sprintf("get book %d", id), err)
		}

		open, err := countOpen(tx, id)
		if err != nil {
			return err
		}
		if open > 0 {
			return ErrBookInUse
		}

		if err := tx.Where("book_id = ?", id).Delete(&entities.Activity{}).Error; err != nil {
			return database.Wrap("delete book history", err)
		}
		return database.Wrap(fmt.Sprintf("delete book %d", id), tx.Delete(&book).Error)
	})
}

// GetStats returns the number of titles and copies in the catalog.
func (r *Repository) GetStats(ctx context.Context) (titles int64, copies int64, err error) {
	row := r.db.WithContext(ctx).Model(&entities.Book{}).
		Select("COUNT(*), COALESCE(SUM(total_copies), 0)").Row()
	if err := row.Scan(&titles, &copies); err != nil {
		return 0, 0, database.Wrap("book stats", err)
	}
	return titles, copies, nil
}

func countOpen(tx *gorm.DB, bookID uint) (int64, error) {
	var count int64
	err := tx.Model(&entities.Activity{}).
		Where("book_id = ? AND status = ?", bookID, entities.ActivityStatusOpen).
		Count(&count).Error
	if err != nil {
		return 0, database.Wrap("count open activities", err)
	}
	return count, nil
}

func validate(title, author string, totalCopies int) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(author) == "" || totalCopies < 0 {
		return ErrInvalidBook
	}
	return nil
}
