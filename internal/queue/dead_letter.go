package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/notify"
)

// DeadLetter archives an exhausted publish job and then tries to tell the
// post's team owner about it. The archive write comes first; notification
// failures never cost us the record.
func (q *Queue) DeadLetter(ctx context.Context, rawPayload []byte, payload *PublishJobPayload, errorMessage string) {
	record := &models.DeadLetterRecord{
		PostTargetID:      payload.TargetID,
		PostID:            payload.PostID,
		PlatformAccountID: payload.AccountID,
		Payload:           rawPayload,
		ErrorMessage:      errorMessage,
		FailedAt:          time.Now(),
	}

	if _, err := q.dl.Create(ctx, record); err != nil {
		slog.Error("unable to write dead letter record",
			"target_id", payload.TargetID,
			"error", err.Error())
	} else {
		slog.Warn("publish job dead-lettered",
			"target_id", payload.TargetID,
			"post_id", payload.PostID,
			"error", errorMessage)
	}

	q.notifyFailure(ctx, payload, errorMessage)
}

func (q *Queue) notifyFailure(ctx context.Context, payload *PublishJobPayload, errorMessage string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("failure notification panicked", "recovered", r)
		}
	}()

	post, err := q.pr.GetByID(ctx, payload.PostID)
	if err != nil || post == nil {
		if err != nil {
			slog.Info(err.Error())
		}
		return
	}

	ownerEmail, err := q.tm.GetOwnerEmail(ctx, post.TeamID)
	if err != nil || ownerEmail == "" {
		if err != nil {
			slog.Info(err.Error())
		}
		return
	}

	platformName := "unknown"
	if acc, err := q.ar.GetByID(ctx, payload.AccountID); err == nil && acc != nil {
		platformName = acc.Platform
	}

	failure := notify.PublishFailure{
		To:          ownerEmail,
		PostID:      payload.PostID,
		PostContent: post.Content,
		Platforms: []notify.FailedPlatform{
			{Name: platformName, Error: errorMessage},
		},
		DashboardURL: q.cfg.FrontendURL,
	}

	if err := q.notifier.SendPublishFailure(ctx, failure); err != nil {
		slog.Error("failure notification not delivered",
			"post_id", payload.PostID,
			"error", err.Error())
	}
}
