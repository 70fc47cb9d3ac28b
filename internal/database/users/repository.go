// Package users provides database operations for user management.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByUsername(ctx, "alice")
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

var (
	ErrUserInUse   = errors.New("user has open activities")
	ErrUserExists  = errors.New("username or email already taken")
	ErrInvalidUser = errors.New("username and email are required")
)

// Update holds the mutable profile fields. Nil fields are left untouched.
type Update struct {
	Email *string
	Name  *string
	Role  *entities.UserRole
}

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts a user. Username and email must be unique.
func (r *Repository) CreateUser(ctx context.Context, user *entities.User) error {
	user.Username = strings.TrimSpace(user.Username)
	user.Email = strings.TrimSpace(user.Email)
	if user.Username == "" || user.Email == "" {
		return ErrInvalidUser
	}
	if user.Role == "" {
		user.Role = entities.UserRoleMember
	}

	taken, err := r.isTaken(ctx, user.Username, user.Email, 0)
	if err != nil {
		return err
	}
	if taken {
		return ErrUserExists
	}

	return database.Wrap("create user", r.db.WithContext(ctx).Create(user).Error)
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, database.Wrap(fmt.Sprintf("get user %d", id), err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username or email.
func (r *Repository) GetUserByUsername(ctx context.Context, login string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("username = ? OR email = ?", login, login).First(&user).Error
	if err != nil {
		return nil, database.Wrap("get user by username", err)
	}
	return &user, nil
}

// GetAllUsers lists users ordered by username.
func (r *Repository) GetAllUsers(ctx context.Context) ([]entities.User, error) {
	var users []entities.User
	err := r.db.WithContext(ctx).Order("username ASC").Find(&users).Error
	if err != nil {
		return nil, database.Wrap("list users", err)
	}
	return users, nil
}

// UpdateUser applies the update and returns the refreshed user.
func (r *Repository) UpdateUser(ctx context.Context, id uint, update Update) (*entities.User, error) {
	user, err := r.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		if email == "" {
			return nil, ErrInvalidUser
		}
		taken, err := r.isTaken(ctx, "", email, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrUserExists
		}
		changes["email"] = email
	}
	if update.Name != nil {
		changes["name"] = strings.TrimSpace(*update.Name)
	}
	if update.Role != nil {
		changes["role"] = *update.Role
	}
	if len(changes) == 0 {
		return user, nil
	}

	if err := r.db.WithContext(ctx).Model(user).Updates(changes).Error; err != nil {
		return nil, database.Wrap(fmt.Sprintf("update user %d", id), err)
	}
	return r.GetUserByID(ctx, id)
}

// SetPasswordHash replaces the stored password hash.
func (r *Repository) SetPasswordHash(ctx context.Context, id uint, hash string) error {
	result := r.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", id).Update("password_hash", hash)
	if result.Error != nil {
		return database.Wrap("set password", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", id, database.ErrNotFound)
	}
	return nil
}

// DeleteUser removes a user and their closed activity history. Users with
// open checkouts or reservations cannot be deleted.
func (r *Repository) DeleteUser(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user entities.User
		if err := tx.First(&user, id).Error; err != nil {
			return database.Wrap(fmt.Sprintf("get user %d", id), err)
		}

		var open int64
		err := tx.Model(&entities.Activity{}).
			Where("user_id = ? AND status = ?", id, entities.ActivityStatusOpen).
			Count(&open).Error
		if err != nil {
			return database.Wrap("count open activities", err)
		}
		if open > 0 {
			return ErrUserInUse
		}

		if err := tx.Where("user_id = ?", id).Delete(&entities.Activity{}).Error; err != nil {
			return database.Wrap("delete user history", err)
		}
		return database.Wrap(fmt.Sprintf("delete user %d", id), tx.Delete(&user).Error)
	})
}

// CountUsers returns the number of registered users.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).Count(&count).Error
	return count, database.Wrap("count users", err)
}

func (r *Repository) isTaken(ctx context.Context, username, email string, exceptID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).
		Where("(username = ? OR email = ?) AND id <> ?", username, email, exceptID).
		Count(&count).Error
	if err != nil {
		return false, database.Wrap("check existing user", err)
	}
	return count > 0, nil
}
