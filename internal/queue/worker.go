package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/platform"
	"github.com/maheshrc27/postpilot/pkg/utils"
)

func (q *Queue) HandlePublishTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishJobPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal publish payload: %v: %w", err, asynq.SkipRetry)
	}

	return q.PublishTarget(ctx, &payload)
}

// PublishTarget runs the per-job state machine:
// publishing -> published | failed (unrecoverable) | error (queue retries).
func (q *Queue) PublishTarget(ctx context.Context, payload *PublishJobPayload) error {
	if err := q.pt.SetStatus(ctx, payload.TargetID, models.TargetStatusPublishing); err != nil {
		return err
	}

	acc, err := q.ar.GetByID(ctx, payload.AccountID)
	if err != nil {
		return err
	}
	if acc == nil || acc.AccessToken == "" {
		return q.failUnrecoverable(ctx, payload, "platform account not found or has no access token")
	}
	if !acc.IsActive {
		return q.failUnrecoverable(ctx, payload, "platform account is inactive")
	}

	accessToken, err := utils.Decrypt(acc.AccessToken, utils.DeriveKey(q.cfg.SecretKey))
	if err != nil {
		return q.failUnrecoverable(ctx, payload, "unable to decrypt access token")
	}

	adapter, err := q.adapters.Publisher(acc.Platform)
	if err != nil {
		return q.failUnrecoverable(ctx, payload, err.Error())
	}

	input := platform.PublishInput{Content: payload.Content, Hashtags: payload.Hashtags}

	result, err := adapter.PublishPost(ctx, accessToken, input, acc.PlatformUserID)
	if err == nil {
		return q.completePublish(ctx, payload, acc.Platform, result)
	}

	var pubErr *platform.PublishError
	if errors.As(err, &pubErr) {
		switch pubErr.StatusCode {
		case http.StatusBadRequest:
			// The platform rejected the content; retrying can never succeed.
			return q.failUnrecoverable(ctx, payload, pubErr.Error())

		case http.StatusUnauthorized:
			newToken, refreshErr := q.tokens.TryRefreshToken(ctx, payload.AccountID, acc.Platform)
			if refreshErr == nil && newToken != "" {
				result, retryErr := adapter.PublishPost(ctx, newToken, input, acc.PlatformUserID)
				if retryErr == nil {
					slog.Info("post published after token refresh",
						"target_id", payload.TargetID,
						"platform", acc.Platform)
					return q.completePublish(ctx, payload, acc.Platform, result)
				}
				// The refreshed token did not help; fall through to retry.
			}
		}
	}

	if incErr := q.pt.IncrementRetry(ctx, payload.TargetID); incErr != nil {
		slog.Info(incErr.Error())
	}
	return err
}

func (q *Queue) completePublish(ctx context.Context, payload *PublishJobPayload, platformName string, result *platform.PublishResult) error {
	if err := q.pt.MarkPublished(ctx, payload.TargetID, result.PlatformPostID, result.PlatformPostURL); err != nil {
		return err
	}

	slog.Info("post published",
		"target_id", payload.TargetID,
		"platform", platformName,
		"platform_post_id", result.PlatformPostID)

	return q.status.RecomputeParentStatus(ctx, payload.PostID)
}

// failUnrecoverable marks a target failed right away and stops queue
// retries: these conditions can never succeed without human intervention.
func (q *Queue) failUnrecoverable(ctx context.Context, payload *PublishJobPayload, reason string) error {
	if err := q.pt.MarkFailed(ctx, payload.TargetID, reason); err != nil {
		slog.Info(err.Error())
	}
	if err := q.status.RecomputeParentStatus(ctx, payload.PostID); err != nil {
		slog.Info(err.Error())
	}
	return fmt.Errorf("%s: %w", reason, asynq.SkipRetry)
}

// HandleFailedTask is the asynq server error handler. It turns the last
// failing attempt of a publish task into the terminal-failure procedure:
// mark the target failed, recompute the parent, dead-letter, notify.
func (q *Queue) HandleFailedTask(ctx context.Context, task *asynq.Task, err error) {
	if task.Type() != TaskTypePublishPost {
		return
	}
	if errors.Is(err, asynq.SkipRetry) {
		// Unrecoverable failures already updated the rows inline.
		return
	}

	var payload PublishJobPayload
	if uerr := json.Unmarshal(task.Payload(), &payload); uerr != nil {
		slog.Error("failed publish task has undecodable payload", "error", uerr.Error())
		return
	}

	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	slog.Error("publish job failed",
		"target_id", payload.TargetID,
		"attempt", retried+1,
		"max_attempts", maxRetry+1,
		"error", err.Error())

	if retried < maxRetry {
		return
	}

	q.handleFinalFailure(context.Background(), task.Payload(), &payload, retried+1, err)
}

func (q *Queue) handleFinalFailure(ctx context.Context, rawPayload []byte, payload *PublishJobPayload, attempts int, cause error) {
	errorMessage := fmt.Sprintf("Failed after %d attempts: %v", attempts, cause)

	if err := q.pt.MarkFailed(ctx, payload.TargetID, errorMessage); err != nil {
		slog.Info(err.Error())
	}
	if err := q.status.RecomputeParentStatus(ctx, payload.PostID); err != nil {
		slog.Info(err.Error())
	}

	q.DeadLetter(ctx, rawPayload, payload, cause.Error())
}
