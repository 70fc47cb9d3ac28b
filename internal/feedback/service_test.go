package feedback

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
	"github.com/mrlokans/librarian/internal/notify"
)

func setupTestService(t *testing.T) (*Service, *notify.Emitter) {
	t.Helper()
	dir := t.TempDir()

	catalog, err := database.Open(filepath.Join(dir, "library.db"), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.EnsureSchema(catalog.DB, database.CatalogSchema))
	t.Cleanup(func() { catalog.Close() })

	feedback, err := database.Open(filepath.Join(dir, "submissions.db"), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.EnsureSchema(feedback.DB, database.FeedbackSchema))
	t.Cleanup(func() { feedback.Close() })

	emitter := notify.NewEmitter(catalog.DB, feedback.DB)
	return NewService(feedback.DB, emitter), emitter
}

func TestService_SubmitRatingAndReply(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	rating, err := svc.SubmitRating(ctx, 5, "Great!", "alice", "a@x.com")
	require.NoError(t, err)
	assert.Nil(t, rating.Reply)

	replied, err := svc.ReplyToRating(ctx, rating.ID, "Thanks!")
	require.NoError(t, err)
	require.NotNil(t, replied.Reply)
	assert.Equal(t, "Thanks!", *replied.Reply)
	assert.Equal(t, 5, replied.Stars)
	require.NotNil(t, replied.Message)
	assert.Equal(t, "Great!", *replied.Message)
	assert.Equal(t, "alice", replied.User)
	require.NotNil(t, replied.Email)
	assert.Equal(t, "a@x.com", *replied.Email)
}

func TestService_SubmitRatingEmitsNotification(t *testing.T) {
	svc, emitter := setupTestService(t)
	ctx := context.Background()

	rating, err := svc.SubmitRating(ctx, 4, "", "bob", "")
	require.NoError(t, err)
	assert.Nil(t, rating.Message)
	assert.Nil(t, rating.Email)

	list, err := emitter.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entities.NotificationNewRating, list[0].Type)
	require.NotNil(t, list[0].RelatedID)
	assert.Equal(t, rating.ID, *list[0].RelatedID)
}

func TestService_SubmitRatingValidation(t *testing.T) {
	svc, emitter := setupTestService(t)
	ctx := context.Background()

	for _, stars := range []int{0, 6, -1} {
		_, err := svc.SubmitRating(ctx, stars, "meh", "carol", "")
		assert.ErrorIs(t, err, ErrInvalidRating)
	}

	count, err := emitter.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestService_ReplyToRatingErrors(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.ReplyToRating(ctx, 999, "Thanks!")
	assert.ErrorIs(t, err, database.ErrNotFound)

	rating, err := svc.SubmitRating(ctx, 3, "ok", "dave", "")
	require.NoError(t, err)
	_, err = svc.ReplyToRating(ctx, rating.ID, "  ")
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestService_RatingSummary(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	for _, stars := range []int{1, 5} {
		_, err := svc.SubmitRating(ctx, stars, "", "u", "")
		require.NoError(t, err)
	}

	summary, err := svc.RatingSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Count)
	assert.InDelta(t, 3.0, summary.Average, 0.001)
}

func TestService_SubmitContact(t *testing.T) {
	svc, emitter := setupTestService(t)
	ctx := context.Background()

	submission, err := svc.SubmitContact(ctx, "Erin", "erin@example.com", "Do you have audiobooks?")
	require.NoError(t, err)
	assert.NotZero(t, submission.ID)

	list, err := svc.ListContacts(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Do you have audiobooks?", list[0].Message)

	notifications, err := emitter.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, entities.NotificationNewContact, notifications[0].Type)

	_, err = svc.SubmitContact(ctx, "Erin", "", "hi")
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestService_SubmissionRolledBackWhenNotificationFails(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	svc.emitter = failingEmitter{}

	_, err := svc.SubmitRating(ctx, 5, "", "frank", "")
	require.Error(t, err)

	list, err := svc.ListRatings(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

type failingEmitter struct{}

func (failingEmitter) EmitTx(*gorm.DB, entities.NotificationType, string, *uint) (*entities.Notification, error) {
	return nil, assert.AnError
}
