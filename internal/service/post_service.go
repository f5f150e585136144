package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/maheshrc27/postpilot/internal/queue"
	"github.com/maheshrc27/postpilot/internal/repository"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrNotPostOwner = errors.New("user does not own this post")
)

// TaskRemover deletes a retained or pending queue task by id.
// *asynq.Inspector satisfies it.
type TaskRemover interface {
	DeleteTask(queueName, taskID string) error
}

type PostService interface {
	// PublishNow moves a post in front of the scanner immediately.
	PublishNow(ctx context.Context, userID, postID int64) error

	// Reschedule resets a post's targets to pending and schedules the post
	// for immediate pickup. Retained queue tasks are removed first so the
	// deterministic task ids do not swallow the new jobs.
	Reschedule(ctx context.Context, userID, postID int64) error
}

type postService struct {
	pr    repository.PostRepository
	pt    repository.PostTargetRepository
	tm    repository.TeamRepository
	tasks TaskRemover
}

func NewPostService(pr repository.PostRepository, pt repository.PostTargetRepository, tm repository.TeamRepository, tasks TaskRemover) PostService {
	return &postService{pr: pr, pt: pt, tm: tm, tasks: tasks}
}

func (s *postService) PublishNow(ctx context.Context, userID, postID int64) error {
	if err := s.authorize(ctx, userID, postID); err != nil {
		return err
	}

	return s.pr.ScheduleNow(ctx, postID)
}

func (s *postService) Reschedule(ctx context.Context, userID, postID int64) error {
	if err := s.authorize(ctx, userID, postID); err != nil {
		return err
	}

	ids, err := s.pt.ListIDsByPostID(ctx, postID)
	if err != nil {
		return err
	}

	for _, id := range ids {
		// Missing tasks are fine; only tasks still retained block re-enqueue.
		if err := s.tasks.DeleteTask(queue.QueuePublishing, queue.PublishTaskID(id)); err != nil {
			slog.Info(err.Error())
		}
	}

	if err := s.pt.ResetByPostID(ctx, postID); err != nil {
		return err
	}

	return s.pr.ScheduleNow(ctx, postID)
}

func (s *postService) authorize(ctx context.Context, userID, postID int64) error {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}

	isOwner, err := s.tm.IsOwner(ctx, post.TeamID, userID)
	if err != nil {
		return err
	}
	if !isOwner {
		return ErrNotPostOwner
	}

	return nil
}
