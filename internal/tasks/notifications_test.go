package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/notify"
)

type fakeDeliverer struct {
	delivered int
	err       error
	calls     int
}

func (f *fakeDeliverer) Flush(context.Context) (int, error) {
	f.calls++
	return f.delivered, f.err
}

type fakePruner struct {
	retention time.Duration
}

func (f *fakePruner) DeleteReadOlderThan(_ context.Context, retention time.Duration) (notify.PruneResult, error) {
	f.retention = retention
	return notify.PruneResult{Notifications: 2, OutboxEntries: 1}, nil
}

func TestDeliverNotificationsTaskConfig(t *testing.T) {
	cfg := DeliverNotificationsTask{}.Config()

	assert.Equal(t, "deliver_notifications", cfg.Name)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Backoff)
	assert.NotNil(t, cfg.Retention)
}

func TestDeliverNotificationsProcessor(t *testing.T) {
	deliverer := &fakeDeliverer{delivered: 3}
	process := DeliverNotificationsProcessor(deliverer)

	require.NoError(t, process(context.Background(), DeliverNotificationsTask{Reason: "test"}))
	assert.Equal(t, 1, deliverer.calls)
}

func TestDeliverNotificationsProcessor_FailureIsRetried(t *testing.T) {
	deliverer := &fakeDeliverer{err: errors.New("database is locked")}
	process := DeliverNotificationsProcessor(deliverer)

	err := process(context.Background(), DeliverNotificationsTask{})

	assert.ErrorContains(t, err, "database is locked")
}

func TestDeliverNotificationsProcessor_NotConfigured(t *testing.T) {
	process := DeliverNotificationsProcessor(nil)

	assert.Error(t, process(context.Background(), DeliverNotificationsTask{}))
}

func TestPruneNotificationsTaskConfig(t *testing.T) {
	cfg := NewPruneNotificationsTask(24 * time.Hour).Config()

	assert.Equal(t, "prune_notifications", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
}

func TestPruneNotificationsProcessor(t *testing.T) {
	pruner := &fakePruner{}
	process := PruneNotificationsProcessor(pruner)

	require.NoError(t, process(context.Background(), NewPruneNotificationsTask(48*time.Hour)))
	assert.Equal(t, 48*time.Hour, pruner.retention)

	require.NoError(t, process(context.Background(), NewPruneNotificationsTask(30*time.Minute)))
	assert.Equal(t, 30*time.Minute, pruner.retention, "sub-hour retention must not fall back to the default")

	require.NoError(t, process(context.Background(), PruneNotificationsTask{}))
	assert.Equal(t, defaultNotificationRetention, pruner.retention)
}

func TestNewPruneNotificationsTask(t *testing.T) {
	assert.Equal(t, int64(1800), NewPruneNotificationsTask(30*time.Minute).RetentionSeconds)
	assert.Equal(t, 90*time.Second, NewPruneNotificationsTask(90*time.Second).Retention())
	assert.Equal(t, defaultNotificationRetention, NewPruneNotificationsTask(0).Retention())
	assert.Equal(t, defaultNotificationRetention, NewPruneNotificationsTask(-time.Hour).Retention())
}
