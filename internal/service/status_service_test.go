package service

import (
	"context"
	"testing"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusTargetRepo struct {
	repository.PostTargetRepository
	statuses []string
}

func (f *statusTargetRepo) ListStatusesByPostID(ctx context.Context, postID int64) ([]string, error) {
	return f.statuses, nil
}

type statusPostRepo struct {
	repository.PostRepository
	updatedStatus   string
	markedPublished bool
}

func (f *statusPostRepo) UpdateStatus(ctx context.Context, status string, postID int64) error {
	f.updatedStatus = status
	return nil
}

func (f *statusPostRepo) MarkPublished(ctx context.Context, postID int64) error {
	f.markedPublished = true
	return nil
}

func TestRecomputeParentStatus(t *testing.T) {
	cases := []struct {
		name          string
		statuses      []string
		wantPublished bool
		wantStatus    string
	}{
		{
			name:          "all published",
			statuses:      []string{models.TargetStatusPublished, models.TargetStatusPublished},
			wantPublished: true,
		},
		{
			name:       "all failed",
			statuses:   []string{models.TargetStatusFailed, models.TargetStatusFailed},
			wantStatus: models.PostStatusFailed,
		},
		{
			name:       "mixed terminal",
			statuses:   []string{models.TargetStatusPublished, models.TargetStatusFailed},
			wantStatus: models.PostStatusPartiallyPublished,
		},
		{
			name:     "still pending",
			statuses: []string{models.TargetStatusPublished, models.TargetStatusPending},
		},
		{
			name:     "still publishing",
			statuses: []string{models.TargetStatusFailed, models.TargetStatusPublishing},
		},
		{
			name:     "no targets",
			statuses: nil,
		},
		{
			name:          "single published",
			statuses:      []string{models.TargetStatusPublished},
			wantPublished: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pr := &statusPostRepo{}
			s := NewStatusService(&statusTargetRepo{statuses: tc.statuses}, pr)

			err := s.RecomputeParentStatus(context.Background(), 7)
			require.NoError(t, err)

			assert.Equal(t, tc.wantPublished, pr.markedPublished)
			assert.Equal(t, tc.wantStatus, pr.updatedStatus)
		})
	}
}
