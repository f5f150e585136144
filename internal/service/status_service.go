package service

import (
	"context"
	"log/slog"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
)

// StatusService reconciles a post's lifecycle status from the statuses of
// its targets. It is recomputed from current persisted state, never from
// event order, so concurrent target completions in any order converge on
// the same answer.
type StatusService interface {
	RecomputeParentStatus(ctx context.Context, postID int64) error
}

type statusService struct {
	pt repository.PostTargetRepository
	pr repository.PostRepository
}

func NewStatusService(pt repository.PostTargetRepository, pr repository.PostRepository) StatusService {
	return &statusService{pt: pt, pr: pr}
}

func (s *statusService) RecomputeParentStatus(ctx context.Context, postID int64) error {
	statuses, err := s.pt.ListStatusesByPostID(ctx, postID)
	if err != nil {
		return err
	}

	if len(statuses) == 0 {
		return nil
	}

	allPublished := true
	allFailed := true
	nonePending := true
	for _, status := range statuses {
		if status != models.TargetStatusPublished {
			allPublished = false
		}
		if status != models.TargetStatusFailed {
			allFailed = false
		}
		if status == models.TargetStatusPending || status == models.TargetStatusPublishing {
			nonePending = false
		}
	}

	switch {
	case allPublished:
		if err := s.pr.MarkPublished(ctx, postID); err != nil {
			return err
		}
		slog.Info("post published on all targets", "post_id", postID)
	case allFailed:
		if err := s.pr.UpdateStatus(ctx, models.PostStatusFailed, postID); err != nil {
			return err
		}
	case nonePending:
		if err := s.pr.UpdateStatus(ctx, models.PostStatusPartiallyPublished, postID); err != nil {
			return err
		}
	default:
		// Some targets are still pending or publishing; the parent stays put.
	}

	return nil
}
