package job

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/queue"
	"github.com/maheshrc27/postpilot/internal/repository"
)

// scanLookahead pads the due cutoff past the scan interval so a post never
// waits a full extra tick because its time fell between two scans.
const scanLookahead = 60 * time.Second

type ScanJob struct {
	mu     sync.Mutex
	pt     repository.PostTargetRepository
	pr     repository.PostRepository
	client queue.Client
}

func NewScanJob(pt repository.PostTargetRepository, pr repository.PostRepository, client queue.Client) *ScanJob {
	return &ScanJob{pt: pt, pr: pr, client: client}
}

// Run is the cron entry point. A scan still in flight makes the next tick a
// no-op instead of piling up.
func (j *ScanJob) Run() {
	if !j.mu.TryLock() {
		slog.Info("scan already running, skipping tick")
		return
	}
	defer j.mu.Unlock()

	if _, err := j.Scan(context.Background()); err != nil {
		slog.Info(err.Error())
	}
}

// Scan finds due pending targets, enqueues one publish job per target and
// flips each parent post to publishing once all of its due targets are in
// the queue. Returns the number of jobs enqueued.
func (j *ScanJob) Scan(ctx context.Context) (int, error) {
	targets, err := j.pt.ListDue(ctx, time.Now().Add(scanLookahead))
	if err != nil {
		return 0, err
	}
	if len(targets) == 0 {
		return 0, nil
	}

	enqueued := 0
	postIDs := make(map[int64]struct{})
	heldBack := make(map[int64]struct{})

	for _, t := range targets {
		payload := queue.PublishJobPayload{
			TargetID:  t.TargetID,
			PostID:    t.PostID,
			AccountID: t.PlatformAccountID,
			Content:   t.Content,
			Hashtags:  t.Hashtags,
		}

		err := queue.EnqueuePublishJob(ctx, j.client, payload)
		if err != nil {
			if errors.Is(err, asynq.ErrTaskIDConflict) {
				// Already queued for this target; the post still moves on.
				postIDs[t.PostID] = struct{}{}
				continue
			}
			// The post must stay scheduled so the next scan retries this
			// target; flipping it now would strand the target in pending.
			heldBack[t.PostID] = struct{}{}
			slog.Error("unable to enqueue publish job",
				"target_id", t.TargetID,
				"error", err.Error())
			continue
		}

		enqueued++
		postIDs[t.PostID] = struct{}{}
	}

	flipped := 0
	for postID := range postIDs {
		if _, ok := heldBack[postID]; ok {
			continue
		}
		if err := j.pr.UpdateStatus(ctx, models.PostStatusPublishing, postID); err != nil {
			slog.Info(err.Error())
		}
		flipped++
	}

	slog.Info("scheduled post scan complete",
		"job_count", enqueued,
		"post_count", flipped)
	return enqueued, nil
}
