package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/postpilot/internal/models"
)

type DeadLetterRepository interface {
	Create(ctx context.Context, rec *models.DeadLetterRecord) (int64, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

type deadLetterRepository struct {
	db *sql.DB
}

func NewDeadLetterRepository(db *sql.DB) DeadLetterRepository {
	return &deadLetterRepository{db: db}
}

func (r *deadLetterRepository) Create(ctx context.Context, rec *models.DeadLetterRecord) (int64, error) {
	query := `
		INSERT INTO dead_letter_records (post_target_id, post_id, platform_account_id, payload, error_message, failed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query, rec.PostTargetID, rec.PostID, rec.PlatformAccountID,
		rec.Payload, rec.ErrorMessage, rec.FailedAt).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *deadLetterRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM dead_letter_records WHERE failed_at < $1`
	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return deleted, nil
}
