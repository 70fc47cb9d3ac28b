package books

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "books.db"), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.EnsureSchema(db.DB, database.CatalogSchema))
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.DB), db.DB
}

func openCheckout(t *testing.T, db *gorm.DB, bookID uint) {
	t.Helper()
	user := &entities.User{Username: "reader" + t.Name(), Email: t.Name() + "@example.com"}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&entities.Activity{
		BookID: bookID,
		UserID: user.ID,
		Kind:   entities.ActivityKindCheckout,
		Status: entities.ActivityStatusOpen,
	}).Error)
}

func TestRepository_CreateBook(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	book := &entities.Book{Title: "Dune", Author: "Frank Herbert", TotalCopies: 3}
	require.NoError(t, repo.CreateBook(ctx, book))

	assert.NotZero(t, book.ID)
	assert.Equal(t, 3, book.AvailableCopies)

	got, err := repo.GetBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, 3, got.TotalCopies)
	assert.Equal(t, 3, got.AvailableCopies)
}

func TestRepository_CreateBook_Invalid(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	assert.ErrorIs(t, repo.CreateBook(ctx, &entities.Book{Author: "Nobody", TotalCopies: 1}), ErrInvalidBook)
	assert.ErrorIs(t, repo.CreateBook(ctx, &entities.Book{Title: "T", Author: "A", TotalCopies: -1}), ErrInvalidBook)
}

func TestRepository_GetBookByID_NotFound(t *testing.T) {
	repo, _ := setupTestDB(t)

	_, err := repo.GetBookByID(context.Background(), 999)

	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_AvailabilityIsDerived(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()

	book := &entities.Book{Title: "Emma", Author: "Jane Austen", TotalCopies: 2}
	require.NoError(t, repo.CreateBook(ctx, book))
	openCheckout(t, db, book.ID)

	got, err := repo.GetBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableCopies)

	all, err := repo.GetAllBooks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 1, all[0].AvailableCopies)
}

func TestRepository_SearchBooks(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateBook(ctx, &entities.Book{Title: "The Hobbit", Author: "J.R.R. Tolkien", TotalCopies: 1}))
	require.NoError(t, repo.CreateBook(ctx, &entities.Book{Title: "Persuasion", Author: "Jane Austen", TotalCopies: 1}))

	found, err := repo.SearchBooks(ctx, "tolkien")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "The Hobbit", found[0].Title)

	found, err = repo.SearchBooks(ctx, "PERSUA")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestRepository_UpdateBook(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	book := &entities.Book{Title: "Old", Author: "Author", TotalCopies: 1}
	require.NoError(t, repo.CreateBook(ctx, book))

	title := "New"
	copies := 4
	updated, err := repo.UpdateBook(ctx, book.ID, Update{Title: &title, TotalCopies: &copies})
	require.NoError(t, err)

	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, "Author", updated.Author)
	assert.Equal(t, 4, updated.TotalCopies)
	assert.Equal(t, 4, updated.AvailableCopies)
	assert.Equal(t, 1, updated.Version)
}

func TestRepository_UpdateBook_CannotShrinkBelowLoans(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()

	book := &entities.Book{Title: "Popular", Author: "Author", TotalCopies: 2}
	require.NoError(t, repo.CreateBook(ctx, book))
	openCheckout(t, db, book.ID)

	zero := 0
	_, err := repo.UpdateBook(ctx, book.ID, Update{TotalCopies: &zero})
	assert.ErrorIs(t, err, ErrCopiesBelowLoans)

	one := 1
	updated, err := repo.UpdateBook(ctx, book.ID, Update{TotalCopies: &one})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.AvailableCopies)
}

func TestRepository_DeleteBook(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	book := &entities.Book{Title: "Gone", Author: "Author", TotalCopies: 1}
	require.NoError(t, repo.CreateBook(ctx, book))

	require.NoError(t, repo.DeleteBook(ctx, book.ID))

	_, err := repo.GetBookByID(ctx, book.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteBook(ctx, book.ID), database.ErrNotFound)
}

func TestRepository_DeleteBook_InUse(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()

	book := &entities.Book{Title: "Busy", Author: "Author", TotalCopies: 1}
	require.NoError(t, repo.CreateBook(ctx, book))
	openCheckout(t, db, book.ID)

	assert.ErrorIs(t, repo.DeleteBook(ctx, book.ID), ErrBookInUse)

	_, err := repo.GetBookByID(ctx, book.ID)
	assert.NoError(t, err)
}

func TestRepository_GetStats(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateBook(ctx, &entities.Book{Title: "A", Author: "X", TotalCopies: 2}))
	require.NoError(t, repo.CreateBook(ctx, &entities.Book{Title: "B", Author: "Y", TotalCopies: 3}))

	titles, copies, err := repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), titles)
	assert.Equal(t, int64(5), copies)
}
