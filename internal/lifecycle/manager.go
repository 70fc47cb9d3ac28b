// Package lifecycle records checkouts, returns and reservations.
//
// Every activity moves from open to closed exactly once. Checkouts consume a
// copy through the ledger; reservations are advisory holds and consume
// nothing. Closing transitions queue a notification in the same transaction
// as the state change.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/activities"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/ledger"
)

var (
	ErrNoCopiesAvailable = errors.New("no copies available")
	ErrActivityNotOpen   = ledger.ErrActivityNotOpen
	ErrCheckoutLimit     = errors.New("checkout limit reached")
)

// Notifier queues notifications inside a catalog transaction and delivers
// them after commit.
type Notifier interface {
	Enqueue(tx *gorm.DB, typ entities.NotificationType, message string, relatedID *uint) error
	Flush(ctx context.Context) (int, error)
}

type Manager struct {
	db         *gorm.DB
	ledger     *ledger.Ledger
	activities *activities.Repository
	notifier   Notifier
	now        func() time.Time
}

func NewManager(db *gorm.DB, notifier Notifier) *Manager {
	return &Manager{
		db:         db,
		ledger:     ledger.New(db),
		activities: activities.NewRepository(db),
		notifier:   notifier,
		now:        time.Now,
	}
}

// AvailableCopies returns the number of copies of a book not checked out.
func (m *Manager) AvailableCopies(ctx context.Context, bookID uint) (int, error) {
	return m.ledger.AvailableCopies(ctx, bookID)
}

// Checkout lends one copy of a book to a user.
func (m *Manager) Checkout(ctx context.Context, bookID, userID uint) (*entities.Activity, error) {
	activity := &entities.Activity{
		BookID: bookID,
		UserID: userID,
		Kind:   entities.ActivityKindCheckout,
		Status: entities.ActivityStatusOpen,
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, userID); err != nil {
			return err
		}
		if err := m.checkLimit(ctx, tx, userID); err != nil {
			return err
		}
		if err := m.ledger.Reserve(tx, bookID); err != nil {
			if errors.Is(err, ledger.ErrInsufficientCopies) {
				return fmt.Errorf("book %d: %w", bookID, ErrNoCopiesAvailable)
			}
			return err
		}
		return m.activities.WithTx(tx).Create(ctx, activity)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[LIFECYCLE] User %d checked out book %d (activity %d)", userID, bookID, activity.ID)
	return activity, nil
}

// ReturnBook closes an open checkout. A closed return activity is recorded
// alongside it so the history shows when the copy came back.
func (m *Manager) ReturnBook(ctx context.Context, activityID uint) (*entities.Activity, error) {
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := m.activities.WithTx(tx)
		checkout, err := repo.GetByID(ctx, activityID)
		if err != nil {
			return err
		}
		if checkout.Kind != entities.ActivityKindCheckout || !checkout.IsOpen() {
			return fmt.Errorf("activity %d: %w", activityID, ErrActivityNotOpen)
		}

		now := m.now()
		if err := m.ledger.Release(tx, activityID, now); err != nil {
			return err
		}

		returned := &entities.Activity{
			BookID:   checkout.BookID,
			UserID:   checkout.UserID,
			Kind:     entities.ActivityKindReturn,
			Status:   entities.ActivityStatusClosed,
			ClosedAt: &now,
		}
		if err := repo.Create(ctx, returned); err != nil {
			return err
		}

		message, err := describe(tx, checkout, "returned")
		if err != nil {
			return err
		}
		return m.notifier.Enqueue(tx, entities.NotificationBookReturned, message, &checkout.ID)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[LIFECYCLE] Activity %d returned", activityID)
	m.flush(ctx)
	return m.activities.GetByID(ctx, activityID)
}

// Reserve places a hold on a book for a user. Holds do not consume copies,
// so a book with no available copies can still be reserved.
func (m *Manager) Reserve(ctx context.Context, bookID, userID uint) (*entities.Activity, error) {
	activity := &entities.Activity{
		BookID: bookID,
		UserID: userID,
		Kind:   entities.ActivityKindReservation,
		Status: entities.ActivityStatusOpen,
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, userID); err != nil {
			return err
		}
		var book entities.Book
		if err := tx.Select("id").First(&book, bookID).Error; err != nil {
			return database.Wrap(fmt.Sprintf("get book %d", bookID), err)
		}
		return m.activities.WithTx(tx).Create(ctx, activity)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[LIFECYCLE] User %d reserved book %d (activity %d)", userID, bookID, activity.ID)
	return activity, nil
}

// CloseReservation ends an open hold.
func (m *Manager) CloseReservation(ctx context.Context, activityID uint) (*entities.Activity, error) {
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reservation, err := m.activities.WithTx(tx).GetByID(ctx, activityID)
		if err != nil {
			return err
		}
		if reservation.Kind != entities.ActivityKindReservation || !reservation.IsOpen() {
			return fmt.Errorf("activity %d: %w", activityID, ErrActivityNotOpen)
		}

		result := tx.Model(&entities.Activity{}).
			Where("id = ? AND status = ?", activityID, entities.ActivityStatusOpen).
			Updates(map[string]any{
				"status":    entities.ActivityStatusClosed,
				"closed_at": m.now(),
			})
		if result.Error != nil {
			return database.Wrap(fmt.Sprintf("close reservation %d", activityID), result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("activity %d: %w", activityID, ErrActivityNotOpen)
		}

		message, err := describe(tx, reservation, "reservation closed")
		if err != nil {
			return err
		}
		return m.notifier.Enqueue(tx, entities.NotificationReservationClosed, message, &reservation.ID)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[LIFECYCLE] Reservation %d closed", activityID)
	m.flush(ctx)
	return m.activities.GetByID(ctx, activityID)
}

func (m *Manager) Get(ctx context.Context, id uint) (*entities.Activity, error) {
	return m.activities.GetByID(ctx, id)
}

func (m *Manager) List(ctx context.Context, filter activities.Filter) ([]entities.Activity, int64, error) {
	return m.activities.List(ctx, filter)
}

// flush delivers queued notifications. Failures are left for the background
// delivery task.
func (m *Manager) flush(ctx context.Context) {
	if _, err := m.notifier.Flush(ctx); err != nil {
		log.Printf("[LIFECYCLE] Notification delivery deferred: %v", err)
	}
}

// checkLimit enforces the max_checkouts_per_user setting when it is set to a
// positive number.
func (m *Manager) checkLimit(ctx context.Context, tx *gorm.DB, userID uint) error {
	var setting entities.Setting
	err := tx.Where("key = ?", entities.SettingKeyMaxCheckouts).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return database.Wrap("get checkout limit", err)
	}

	limit, err := strconv.Atoi(setting.Value)
	if err != nil || limit <= 0 {
		return nil
	}

	open, err := m.activities.WithTx(tx).CountOpenCheckouts(ctx, userID)
	if err != nil {
		return err
	}
	if open >= int64(limit) {
		return fmt.Errorf("user %d has %d open checkouts: %w", userID, open, ErrCheckoutLimit)
	}
	return nil
}

func requireUser(tx *gorm.DB, userID uint) error {
	var user entities.User
	if err := tx.Select("id").First(&user, userID).Error; err != nil {
		return database.Wrap(fmt.Sprintf("get user %d", userID), err)
	}
	return nil
}

func describe(tx *gorm.DB, activity *entities.Activity, event string) (string, error) {
	var book entities.Book
	if err := tx.Select("id", "title").First(&book, activity.BookID).Error; err != nil {
		return "", database.Wrap(fmt.Sprintf("get book %d", activity.BookID), err)
	}
	var user entities.User
	if err := tx.Select("id", "username").First(&user, activity.UserID).Error; err != nil {
		return "", database.Wrap(fmt.Sprintf("get user %d", activity.UserID), err)
	}
	return fmt.Sprintf("%q %s by %s", book.Title, event, user.Username), nil
}
