package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scanTargetRepo struct {
	repository.PostTargetRepository
	due []*models.DueTarget
}

func (f *scanTargetRepo) ListDue(ctx context.Context, until time.Time) ([]*models.DueTarget, error) {
	return f.due, nil
}

type scanPostRepo struct {
	repository.PostRepository
	statusUpdates map[int64]string
}

func (f *scanPostRepo) UpdateStatus(ctx context.Context, status string, postID int64) error {
	if f.statusUpdates == nil {
		f.statusUpdates = make(map[int64]string)
	}
	f.statusUpdates[postID] = status
	return nil
}

// fakeQueueClient simulates asynq's task id dedup: a second enqueue with a
// seen task id reports a conflict. Task ids in failing report a broker error.
type fakeQueueClient struct {
	seen     map[string]bool
	failing  map[string]error
	enqueued []*asynq.Task
}

func (f *fakeQueueClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}

	var taskID string
	for _, opt := range opts {
		if opt.Type() == asynq.TaskIDOpt {
			taskID = opt.Value().(string)
		}
	}

	if err, ok := f.failing[taskID]; ok {
		return nil, err
	}
	if f.seen[taskID] {
		return nil, asynq.ErrTaskIDConflict
	}
	f.seen[taskID] = true
	f.enqueued = append(f.enqueued, task)
	return &asynq.TaskInfo{}, nil
}

func TestScanEnqueuesDueTargets(t *testing.T) {
	pt := &scanTargetRepo{due: []*models.DueTarget{
		{TargetID: 100, PostID: 10, PlatformAccountID: 1, Content: "hello"},
		{TargetID: 101, PostID: 10, PlatformAccountID: 2, Content: "hello"},
		{TargetID: 102, PostID: 10, PlatformAccountID: 3, Content: "hello"},
	}}
	pr := &scanPostRepo{}
	client := &fakeQueueClient{}

	j := NewScanJob(pt, pr, client)

	enqueued, err := j.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, enqueued)
	assert.Len(t, client.enqueued, 3)

	require.Len(t, pr.statusUpdates, 1)
	assert.Equal(t, models.PostStatusPublishing, pr.statusUpdates[10])
}

func TestScanDeduplicatesRescans(t *testing.T) {
	pt := &scanTargetRepo{due: []*models.DueTarget{
		{TargetID: 100, PostID: 10, PlatformAccountID: 1, Content: "hello"},
	}}
	pr := &scanPostRepo{}
	client := &fakeQueueClient{}

	j := NewScanJob(pt, pr, client)

	first, err := j.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	second, err := j.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second)
	assert.Len(t, client.enqueued, 1)

	// The parent still advances even when every job was already queued.
	assert.Equal(t, models.PostStatusPublishing, pr.statusUpdates[10])
}

func TestScanHoldsBackPostOnEnqueueFailure(t *testing.T) {
	pt := &scanTargetRepo{due: []*models.DueTarget{
		{TargetID: 100, PostID: 10, PlatformAccountID: 1, Content: "hello"},
		{TargetID: 101, PostID: 10, PlatformAccountID: 2, Content: "hello"},
		{TargetID: 200, PostID: 11, PlatformAccountID: 1, Content: "other"},
	}}
	pr := &scanPostRepo{}
	client := &fakeQueueClient{failing: map[string]error{
		"publish-101": errors.New("redis connection refused"),
	}}

	j := NewScanJob(pt, pr, client)

	enqueued, err := j.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, enqueued)

	// Post 10 stays scheduled so the next scan retries target 101;
	// post 11 had every target enqueued and moves on.
	assert.NotContains(t, pr.statusUpdates, int64(10))
	assert.Equal(t, models.PostStatusPublishing, pr.statusUpdates[11])
}

func TestScanNothingDue(t *testing.T) {
	j := NewScanJob(&scanTargetRepo{}, &scanPostRepo{}, &fakeQueueClient{})

	enqueued, err := j.Scan(context.Background())
	require.NoError(t, err)
	assert.Zero(t, enqueued)
}
