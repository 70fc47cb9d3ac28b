// Package feedback handles ratings and contact messages submitted by
// visitors. Each submission and its notification are written in one
// feedback-store transaction.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database/contacts"
	"github.com/mrlokans/librarian/internal/database/ratings"
	"github.com/mrlokans/librarian/internal/entities"
)

var (
	ErrInvalidRating = errors.New("stars must be between 1 and 5")
	ErrMissingField  = errors.New("required field is missing")
)

const (
	MinStars = 1
	MaxStars = 5
)

// Emitter writes a notification inside a feedback-store transaction.
type Emitter interface {
	EmitTx(tx *gorm.DB, typ entities.NotificationType, message string, relatedID *uint) (*entities.Notification, error)
}

type Service struct {
	db       *gorm.DB
	ratings  *ratings.Repository
	contacts *contacts.Repository
	emitter  Emitter
}

func NewService(db *gorm.DB, emitter Emitter) *Service {
	return &Service{
		db:       db,
		ratings:  ratings.NewRepository(db),
		contacts: contacts.NewRepository(db),
		emitter:  emitter,
	}
}

// SubmitRating stores a rating and notifies the administrators.
func (s *Service) SubmitRating(ctx context.Context, stars int, message, user, email string) (*entities.Rating, error) {
	if stars < MinStars || stars > MaxStars {
		return nil, fmt.Errorf("got %d: %w", stars, ErrInvalidRating)
	}
	user = strings.TrimSpace(user)
	if user == "" {
		user = "anonymous"
	}

	rating := &entities.Rating{
		Stars:   stars,
		Message: optional(message),
		User:    user,
		Email:   optional(email),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ratings.WithTx(tx).Create(ctx, rating); err != nil {
			return err
		}
		text := fmt.Sprintf("New %d-star rating from %s", stars, user)
		_, err := s.emitter.EmitTx(tx, entities.NotificationNewRating, text, &rating.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[FEEDBACK] Rating %d submitted by %s", rating.ID, user)
	return rating, nil
}

// ReplyToRating stores an administrator's reply. Stars and message are left
// untouched.
func (s *Service) ReplyToRating(ctx context.Context, id uint, reply string) (*entities.Rating, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, fmt.Errorf("reply: %w", ErrMissingField)
	}
	return s.ratings.SetReply(ctx, id, reply)
}

func (s *Service) GetRating(ctx context.Context, id uint) (*entities.Rating, error) {
	return s.ratings.GetByID(ctx, id)
}

func (s *Service) ListRatings(ctx context.Context, limit, offset int) ([]entities.Rating, error) {
	return s.ratings.List(ctx, limit, offset)
}

func (s *Service) RatingSummary(ctx context.Context) (ratings.Summary, error) {
	return s.ratings.Summary(ctx)
}

// SubmitContact stores a contact message. Name, email and message are all
// required.
func (s *Service) SubmitContact(ctx context.Context, name, email, message string) (*entities.ContactSubmission, error) {
	submission := &entities.ContactSubmission{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Message: strings.TrimSpace(message),
	}
	switch {
	case submission.Name == "":
		return nil, fmt.Errorf("name: %w", ErrMissingField)
	case submission.Email == "":
		return nil, fmt.Errorf("email: %w", ErrMissingField)
	case submission.Message == "":
		return nil, fmt.Errorf("message: %w", ErrMissingField)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.contacts.WithTx(tx).Create(ctx, submission); err != nil {
			return err
		}
		text := fmt.Sprintf("New contact message from %s <%s>", submission.Name, submission.Email)
		_, err := s.emitter.EmitTx(tx, entities.NotificationNewContact, text, &submission.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[FEEDBACK] Contact message %d received from %s", submission.ID, submission.Email)
	return submission, nil
}

func (s *Service) ListContacts(ctx context.Context, limit, offset int) ([]entities.ContactSubmission, error) {
	return s.contacts.List(ctx, limit, offset)
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
