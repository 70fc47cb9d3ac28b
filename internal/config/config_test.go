package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8188), cfg.HTTP.Port)
	assert.Equal(t, DefaultCatalogDatabasePath, cfg.Database.CatalogPath)
	assert.Equal(t, DefaultFeedbackDatabasePath, cfg.Database.FeedbackPath)
	assert.Equal(t, AuthModeNone, cfg.Auth.Mode)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionLifetime)
	assert.Equal(t, 720*time.Hour, cfg.Notifications.Retention)
	assert.True(t, cfg.Tasks.Enabled)
	assert.Equal(t, DefaultLibraryName, cfg.Global.LibraryName)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Auth.RateLimitWindow)
	assert.Equal(t, 30*time.Minute, cfg.Auth.LockoutDuration)
	assert.Empty(t, cfg.Audit.Dir)
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("CATALOG_DB_PATH", "/data/catalog.db")
	t.Setenv("FEEDBACK_DB_PATH", "/data/feedback.db")
	t.Setenv("AUTH_MODE", "local")
	t.Setenv("NOTIFICATION_RETENTION", "48h")
	t.Setenv("PORT", "9000")
	t.Setenv("AUDIT_DIR", "/data/audit")

	cfg := NewConfig()

	assert.Equal(t, "/data/catalog.db", cfg.Database.CatalogPath)
	assert.Equal(t, "/data/feedback.db", cfg.Database.FeedbackPath)
	assert.Equal(t, AuthModeLocal, cfg.Auth.Mode)
	assert.Equal(t, 48*time.Hour, cfg.Notifications.Retention)
	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, "/data/audit", cfg.Audit.Dir)
}
