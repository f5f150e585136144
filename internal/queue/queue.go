package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Client is the slice of *asynq.Client the enqueue path needs.
type Client interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// PublishTaskID derives the deterministic queue task id for a target, so
// enqueueing the same target twice while one instance is outstanding is a
// no-op at the queue layer.
func PublishTaskID(targetID int64) string {
	return fmt.Sprintf("publish-%d", targetID)
}

// EnqueuePublishJob adds one per-target publish task to the publishing
// queue. Returns asynq.ErrTaskIDConflict when the target already has an
// outstanding (or recently completed) task.
func EnqueuePublishJob(ctx context.Context, client Client, payload PublishJobPayload) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishPost, taskPayload)

	_, err = client.EnqueueContext(ctx, task,
		asynq.Queue(QueuePublishing),
		asynq.TaskID(PublishTaskID(payload.TargetID)),
		asynq.MaxRetry(MaxPublishAttempts-1),
		asynq.Retention(completedTaskRetention),
	)
	return err
}
