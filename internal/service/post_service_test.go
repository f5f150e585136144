package service

import (
	"context"
	"errors"
	"testing"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishPostRepo struct {
	repository.PostRepository
	post         *models.Post
	scheduledNow bool
}

func (f *publishPostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	return f.post, nil
}

func (f *publishPostRepo) ScheduleNow(ctx context.Context, postID int64) error {
	f.scheduledNow = true
	return nil
}

type publishTargetRepo struct {
	repository.PostTargetRepository
	ids   []int64
	reset bool
}

func (f *publishTargetRepo) ListIDsByPostID(ctx context.Context, postID int64) ([]int64, error) {
	return f.ids, nil
}

func (f *publishTargetRepo) ResetByPostID(ctx context.Context, postID int64) error {
	f.reset = true
	return nil
}

type publishTeamRepo struct {
	repository.TeamRepository
	ownerID int64
}

func (f *publishTeamRepo) IsOwner(ctx context.Context, teamID, userID int64) (bool, error) {
	return userID == f.ownerID, nil
}

type fakeTaskRemover struct {
	deleted []string
	err     error
}

func (f *fakeTaskRemover) DeleteTask(queueName, taskID string) error {
	f.deleted = append(f.deleted, taskID)
	return f.err
}

func TestPublishNow(t *testing.T) {
	pr := &publishPostRepo{post: &models.Post{ID: 10, TeamID: 3}}
	s := NewPostService(pr, &publishTargetRepo{}, &publishTeamRepo{ownerID: 42}, &fakeTaskRemover{})

	require.NoError(t, s.PublishNow(context.Background(), 42, 10))
	assert.True(t, pr.scheduledNow)
}

func TestPublishNowAuthorization(t *testing.T) {
	t.Run("post not found", func(t *testing.T) {
		s := NewPostService(&publishPostRepo{}, &publishTargetRepo{}, &publishTeamRepo{ownerID: 42}, &fakeTaskRemover{})
		err := s.PublishNow(context.Background(), 42, 10)
		assert.ErrorIs(t, err, ErrPostNotFound)
	})

	t.Run("not the owner", func(t *testing.T) {
		pr := &publishPostRepo{post: &models.Post{ID: 10, TeamID: 3}}
		s := NewPostService(pr, &publishTargetRepo{}, &publishTeamRepo{ownerID: 42}, &fakeTaskRemover{})
		err := s.PublishNow(context.Background(), 7, 10)
		assert.ErrorIs(t, err, ErrNotPostOwner)
		assert.False(t, pr.scheduledNow)
	})
}

func TestReschedule(t *testing.T) {
	pr := &publishPostRepo{post: &models.Post{ID: 10, TeamID: 3}}
	pt := &publishTargetRepo{ids: []int64{100, 101}}
	remover := &fakeTaskRemover{}
	s := NewPostService(pr, pt, &publishTeamRepo{ownerID: 42}, remover)

	require.NoError(t, s.Reschedule(context.Background(), 42, 10))

	assert.Equal(t, []string{"publish-100", "publish-101"}, remover.deleted)
	assert.True(t, pt.reset)
	assert.True(t, pr.scheduledNow)
}

func TestRescheduleIgnoresMissingTasks(t *testing.T) {
	pr := &publishPostRepo{post: &models.Post{ID: 10, TeamID: 3}}
	pt := &publishTargetRepo{ids: []int64{100}}
	remover := &fakeTaskRemover{err: errors.New("task not found")}
	s := NewPostService(pr, pt, &publishTeamRepo{ownerID: 42}, remover)

	require.NoError(t, s.Reschedule(context.Background(), 42, 10))
	assert.True(t, pt.reset)
	assert.True(t, pr.scheduledNow)
}
