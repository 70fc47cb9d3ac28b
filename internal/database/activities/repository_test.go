package activities

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
	db, err := database.Open(filepath.Join(t.TempDir(), "library.db"), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.EnsureSchema(db.DB, database.CatalogSchema))
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.DB), db.DB
}

func seed(t *testing.T, db *gorm.DB) (*entities.Book, *entities.User) {
	t.Helper()
	book := &entities.Book{Title: "Dune", Author: "Frank Herbert", TotalCopies: 2}
	user := &entities.User{Username: "alice", Email: "alice@example.com", Role: entities.UserRoleMember}
	require.NoError(t, db.Create(book).Error)
	require.NoError(t, db.Create(user).Error)
	return book, user
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()
	book, user := seed(t, db)

	activity := &entities.Activity{BookID: book.ID, UserID: user.ID, Kind: entities.ActivityKindCheckout, Status: entities.ActivityStatusOpen}
	require.NoError(t, repo.Create(ctx, activity))

	got, err := repo.GetByID(ctx, activity.ID)
	require.NoError(t, err)
	assert.True(t, got.IsOpen())
	assert.Nil(t, got.ClosedAt)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_CreateRejectsUnknownBook(t *testing.T) {
	repo, db := setupTestDB(t)
	_, user := seed(t, db)

	err := repo.Create(context.Background(), &entities.Activity{BookID: 999, UserID: user.ID, Kind: entities.ActivityKindCheckout, Status: entities.ActivityStatusOpen})

	assert.True(t, database.IsStorageError(err))
}

func TestRepository_ListFilters(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()
	book, user := seed(t, db)

	require.NoError(t, repo.Create(ctx, &entities.Activity{BookID: book.ID, UserID: user.ID, Kind: entities.ActivityKindCheckout, Status: entities.ActivityStatusOpen}))
	require.NoError(t, repo.Create(ctx, &entities.Activity{BookID: book.ID, UserID: user.ID, Kind: entities.ActivityKindCheckout, Status: entities.ActivityStatusClosed}))
	require.NoError(t, repo.Create(ctx, &entities.Activity{BookID: book.ID, UserID: user.ID, Kind: entities.ActivityKindReservation, Status: entities.ActivityStatusOpen}))

	all, total, err := repo.List(ctx, Filter{BookID: book.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	open, total, err := repo.List(ctx, Filter{Kind: entities.ActivityKindCheckout, Status: entities.ActivityStatusOpen})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, open, 1)

	page, total, err := repo.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 1)

	count, err := repo.CountOpenCheckouts(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
