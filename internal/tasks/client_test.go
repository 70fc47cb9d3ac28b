package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(filepath.Join(t.TempDir(), "library.db"), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

// signalDeliverer reports every flush on a channel.
type signalDeliverer chan struct{}

func (s signalDeliverer) Flush(context.Context) (int, error) {
	s <- struct{}{}
	return 1, nil
}

func TestNewClient_CreatesTaskDatabase(t *testing.T) {
	client := newTestClient(t)

	assert.Equal(t, "library-tasks.db", filepath.Base(client.Path()))
	_, err := os.Stat(client.Path())
	assert.NoError(t, err, "tasks database should be created")
}

func TestClient_StopBeforeStart(t *testing.T) {
	client := newTestClient(t)

	assert.True(t, client.Stop(context.Background()))
}

func TestClient_StartStop(t *testing.T) {
	client := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	assert.True(t, client.Stop(stopCtx), "stop should succeed gracefully")
}

func TestClient_RunsDeliveryTask(t *testing.T) {
	client := newTestClient(t)

	delivered := make(signalDeliverer, 1)
	client.Register(NewDeliverNotificationsQueue(delivered))

	// Saved before workers start, picked up afterwards
	id, err := client.Enqueue(context.Background(), DeliverNotificationsTask{Reason: "test"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	select {
	case <-delivered:
	case <-time.After(5 * time.Second):
		t.Fatal("delivery task was not executed within timeout")
	}
}

func TestDatabasePath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "library-tasks.db"), DatabasePath(filepath.Join("data", "library.db")))
	assert.Equal(t, "catalog-tasks", DatabasePath("catalog"))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}
