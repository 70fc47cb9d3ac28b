// Package settings provides database operations for application settings.
//
// # Usage
//
//	repo := settings.NewRepository(db)
//	setting, err := repo.GetSetting(ctx, entities.SettingKeyLibraryName)
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

var ErrEmptyKey = errors.New("setting key is required")

// Repository handles all settings database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetAllSettings lists every setting ordered by key.
func (r *Repository) GetAllSettings(ctx context.Context) ([]entities.Setting, error) {
	var all []entities.Setting
	err := r.db.WithContext(ctx).Order("key ASC").Find(&all).Error
	return all, database.Wrap("list settings", err)
}

// GetSetting retrieves a setting by key.
func (r *Repository) GetSetting(ctx context.Context, key string) (*entities.Setting, error) {
	var setting entities.Setting
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if err != nil {
		return nil, database.Wrap(fmt.Sprintf("get setting %q", key), err)
	}
	return &setting, nil
}

// SetSetting creates or updates a setting in a single upsert.
func (r *Repository) SetSetting(ctx context.Context, key, value string) (*entities.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrEmptyKey
	}

	setting := entities.Setting{Key: key, Value: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return nil, database.Wrap(fmt.Sprintf("set setting %q", key), err)
	}
	return r.GetSetting(ctx, key)
}

// DeleteSetting removes a setting by key.
func (r *Repository) DeleteSetting(ctx context.Context, key string) error {
	result := r.db.WithContext(ctx).Where("key = ?", key).Delete(&entities.Setting{})
	if result.Error != nil {
		return database.Wrap(fmt.Sprintf("delete setting %q", key), result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("setting %q: %w", key, database.ErrNotFound)
	}
	return nil
}
