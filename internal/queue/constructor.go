package queue

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/notify"
	"github.com/maheshrc27/postpilot/internal/platform"
	"github.com/maheshrc27/postpilot/internal/repository"
)

const (
	TaskTypePublishPost = "publish:post"
	QueuePublishing     = "publishing"

	// MaxPublishAttempts bounds total tries per job: the first attempt plus
	// queue retries.
	MaxPublishAttempts = 5

	// Completed publish tasks are retained so the deterministic task id
	// keeps deduplicating re-scans of a just-published target.
	completedTaskRetention = 7 * 24 * time.Hour

	// WorkerConcurrency is the number of publish jobs in flight at once.
	WorkerConcurrency = 5
)

// backoffSchedule is indexed by the number of retries already spent,
// capped at the last entry: a deliberate table, not an exponential
// formula. Retry timing depends on it.
var backoffSchedule = []time.Duration{
	30 * time.Second,
	2 * time.Minute,
	10 * time.Minute,
	30 * time.Minute,
	60 * time.Minute,
}

// PublishJobPayload is the queue message for one post target. Content and
// hashtags are resolved at scan time so the worker never re-reads the post.
type PublishJobPayload struct {
	TargetID  int64    `json:"target_id"`
	PostID    int64    `json:"post_id"`
	AccountID int64    `json:"account_id"`
	Content   string   `json:"content"`
	Hashtags  []string `json:"hashtags"`
}

// StatusRecomputer recomputes a parent post's status from its targets.
// Implemented by service.StatusService.
type StatusRecomputer interface {
	RecomputeParentStatus(ctx context.Context, postID int64) error
}

// TokenRefresher is the inline refresh entry point used on auth failures.
// Implemented by service.TokenService.
type TokenRefresher interface {
	TryRefreshToken(ctx context.Context, accountID int64, platformName string) (string, error)
}

// AdapterSource resolves the publish adapter for a platform name.
// *platform.Registry satisfies it.
type AdapterSource interface {
	Publisher(platformName string) (platform.Publisher, error)
}

type Queue struct {
	cfg      config.Config
	pt       repository.PostTargetRepository
	pr       repository.PostRepository
	ar       repository.PlatformAccountRepository
	dl       repository.DeadLetterRepository
	tm       repository.TeamRepository
	status   StatusRecomputer
	tokens   TokenRefresher
	adapters AdapterSource
	notifier notify.Notifier
}

func NewQueue(
	cfg config.Config,
	pt repository.PostTargetRepository,
	pr repository.PostRepository,
	ar repository.PlatformAccountRepository,
	dl repository.DeadLetterRepository,
	tm repository.TeamRepository,
	status StatusRecomputer,
	tokens TokenRefresher,
	adapters AdapterSource,
	notifier notify.Notifier) *Queue {
	return &Queue{
		cfg:      cfg,
		pt:       pt,
		pr:       pr,
		ar:       ar,
		dl:       dl,
		tm:       tm,
		status:   status,
		tokens:   tokens,
		adapters: adapters,
		notifier: notifier,
	}
}

// RetryDelay implements asynq.RetryDelayFunc over the capped backoff table.
// asynq passes n as the number of times the task has been retried, so the
// first failure arrives with n=0. A provider-supplied retry-after hint can
// stretch, but never shorten, the table delay.
func RetryDelay(n int, err error, task *asynq.Task) time.Duration {
	idx := n
	if idx < 0 {
		idx = 0
	}
	if idx >= len(backoffSchedule) {
		idx = len(backoffSchedule) - 1
	}
	delay := backoffSchedule[idx]

	var pubErr *platform.PublishError
	if errors.As(err, &pubErr) && pubErr.RetryAfter > 0 {
		if hinted := time.Duration(pubErr.RetryAfter) * time.Second; hinted > delay {
			delay = hinted
		}
	}

	return delay
}
