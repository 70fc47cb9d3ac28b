// Package scheduler runs periodic notification maintenance on cron
// schedules. Jobs only enqueue tasks; the work itself happens in the task
// queue so failures are retried with backoff.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/librarian/internal/tasks"
)

// Enqueuer accepts tasks for execution.
type Enqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// Config holds the cron schedules of the notification jobs.
type Config struct {
	DeliverySchedule string        // Cron format: "* * * * *" = every minute
	PruneSchedule    string        // Cron format: "30 3 * * *" = daily at 03:30
	Retention        time.Duration // Read notifications older than this are pruned
}

// NotificationScheduler periodically drains the notification outbox and
// prunes old read notifications.
type NotificationScheduler struct {
	enqueuer Enqueuer
	config   Config

	cron      *cron.Cron
	entries   map[string]cron.EntryID
	mu        sync.RWMutex
	isRunning bool
	ctx       context.Context
}

// NewNotificationScheduler creates a new scheduler instance
func NewNotificationScheduler(enqueuer Enqueuer, cfg Config) *NotificationScheduler {
	return &NotificationScheduler{
		enqueuer: enqueuer,
		config:   cfg,
		cron:     cron.New(cron.WithParser(parser)),
		entries:  make(map[string]cron.EntryID),
	}
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks that a schedule uses the five-field cron format.
func ValidateSchedule(schedule string) error {
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	return nil
}

// Start registers the jobs and starts the cron scheduler. An empty schedule
// disables its job.
func (s *NotificationScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	s.ctx = ctx

	for _, job := range s.jobs() {
		if job.schedule == "" {
			log.Printf("[SCHEDULER] Notification %s job: disabled", job.name)
			continue
		}
		if err := ValidateSchedule(job.schedule); err != nil {
			return err
		}
		task := job.task
		entryID, err := s.cron.AddFunc(job.schedule, func() {
			s.enqueue(task)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s job: %w", job.name, err)
		}
		s.entries[job.name] = entryID
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("[SCHEDULER] Started with delivery '%s' and prune '%s'", s.config.DeliverySchedule, s.config.PruneSchedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *NotificationScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	done := s.cron.Stop()
	<-done.Done()

	s.isRunning = false
	log.Printf("[SCHEDULER] Stopped")
}

// RunNow enqueues an immediate outbox delivery.
func (s *NotificationScheduler) RunNow() {
	s.enqueue(tasks.DeliverNotificationsTask{Reason: "manual"})
}

// IsRunning returns whether the scheduler is active
func (s *NotificationScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the named job ("delivery" or "prune") runs next.
func (s *NotificationScheduler) NextRun(job string) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.entries[job]
	if !ok || !s.isRunning {
		return nil
	}
	next := s.cron.Entry(id).Next
	return &next
}

func (s *NotificationScheduler) enqueue(task backlite.Task) {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := s.enqueuer.Enqueue(ctx, task); err != nil {
		log.Printf("[SCHEDULER] Failed to enqueue %s: %v", task.Config().Name, err)
	}
}

type scheduledJob struct {
	name     string
	schedule string
	task     backlite.Task
}

func (s *NotificationScheduler) jobs() []scheduledJob {
	return []scheduledJob{
		{"delivery", s.config.DeliverySchedule, tasks.DeliverNotificationsTask{Reason: "scheduled"}},
		{"prune", s.config.PruneSchedule, tasks.NewPruneNotificationsTask(s.config.Retention)},
	}
}
