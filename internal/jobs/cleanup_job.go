package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/postpilot/internal/repository"
)

const deadLetterRetention = 90 * 24 * time.Hour

type CleanupJob struct {
	dl repository.DeadLetterRepository
}

func NewCleanupJob(dl repository.DeadLetterRepository) *CleanupJob {
	return &CleanupJob{dl: dl}
}

func (j *CleanupJob) Run() {
	removed, err := j.dl.DeleteOlderThan(context.Background(), time.Now().Add(-deadLetterRetention))
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if removed > 0 {
		slog.Info("dead letter records pruned", "removed", removed)
	}
}
