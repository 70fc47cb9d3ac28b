package tasks

import (
	"context"
	"fmt"

	"github.com/mikestefanello/backlite"
)

// InlineRunner executes notification tasks synchronously in the caller's
// goroutine. It stands in for the backlite client when the task queue is
// disabled.
type InlineRunner struct {
	deliver backlite.QueueProcessor[DeliverNotificationsTask]
	prune   backlite.QueueProcessor[PruneNotificationsTask]
}

func NewInlineRunner(deliverer NotificationDeliverer, pruner NotificationPruner) *InlineRunner {
	return &InlineRunner{
		deliver: DeliverNotificationsProcessor(deliverer),
		prune:   PruneNotificationsProcessor(pruner),
	}
}

// Enqueue runs the task immediately. The returned ID is the queue name.
func (r *InlineRunner) Enqueue(ctx context.Context, task backlite.Task) (string, error) {
	var err error
	switch t := task.(type) {
	case DeliverNotificationsTask:
		err = r.deliver(ctx, t)
	case PruneNotificationsTask:
		err = r.prune(ctx, t)
	default:
		return "", fmt.Errorf("unsupported task %T", task)
	}
	if err != nil {
		return "", err
	}
	return task.Config().Name, nil
}
