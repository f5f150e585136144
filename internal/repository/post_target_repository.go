package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/postpilot/internal/models"
)

type PostTargetRepository interface {
	GetByID(ctx context.Context, id int64) (*models.PostTarget, error)
	ListDue(ctx context.Context, until time.Time) ([]*models.DueTarget, error)
	ListStatusesByPostID(ctx context.Context, postID int64) ([]string, error)
	ListIDsByPostID(ctx context.Context, postID int64) ([]int64, error)
	SetStatus(ctx context.Context, id int64, status string) error
	MarkPublished(ctx context.Context, id int64, platformPostID, platformPostURL string) error
	MarkFailed(ctx context.Context, id int64, errorMessage string) error
	IncrementRetry(ctx context.Context, id int64) error
	ResetByPostID(ctx context.Context, postID int64) error
}

type postTargetRepository struct {
	db *sql.DB
}

func NewPostTargetRepository(db *sql.DB) PostTargetRepository {
	return &postTargetRepository{db: db}
}

func (r *postTargetRepository) GetByID(ctx context.Context, id int64) (*models.PostTarget, error) {
	query := `SELECT id, post_id, platform_account_id, COALESCE(content, ''), hashtags, status,
			COALESCE(platform_post_id, ''), COALESCE(platform_post_url, ''), COALESCE(error_message, ''),
			retry_count, max_retries, last_retry_at, published_at, created_at, updated_at
		FROM post_targets WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var t models.PostTarget
	err := row.Scan(&t.ID, &t.PostID, &t.PlatformAccountID, &t.Content, pq.Array(&t.Hashtags),
		&t.Status, &t.PlatformPostID, &t.PlatformPostURL, &t.ErrorMessage,
		&t.RetryCount, &t.MaxRetries, &t.LastRetryAt, &t.PublishedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &t, nil
}

// ListDue returns pending targets whose parent post is scheduled at or
// before the given cutoff, with effective content already resolved
// (target override else post content).
func (r *postTargetRepository) ListDue(ctx context.Context, until time.Time) ([]*models.DueTarget, error) {
	query := `SELECT pt.id, pt.post_id, pt.platform_account_id,
			COALESCE(NULLIF(pt.content, ''), p.content, ''),
			pt.hashtags
		FROM post_targets pt
		JOIN posts p ON p.id = pt.post_id
		WHERE p.status = $1
		  AND p.scheduled_at IS NOT NULL
		  AND p.scheduled_at <= $2
		  AND pt.status = $3`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusScheduled, until, models.TargetStatusPending)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var targets []*models.DueTarget
	for rows.Next() {
		var t models.DueTarget
		err := rows.Scan(&t.TargetID, &t.PostID, &t.PlatformAccountID, &t.Content, pq.Array(&t.Hashtags))
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		targets = append(targets, &t)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return targets, nil
}

func (r *postTargetRepository) ListStatusesByPostID(ctx context.Context, postID int64) ([]string, error) {
	query := `SELECT status FROM post_targets WHERE post_id = $1`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var statuses []string
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, rows.Err()
}

func (r *postTargetRepository) ListIDsByPostID(ctx context.Context, postID int64) ([]int64, error) {
	query := `SELECT id FROM post_targets WHERE post_id = $1`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postTargetRepository) SetStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE post_targets SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postTargetRepository) MarkPublished(ctx context.Context, id int64, platformPostID, platformPostURL string) error {
	query := `
		UPDATE post_targets
		SET status = $1,
			platform_post_id = $2,
			platform_post_url = $3,
			published_at = $4,
			updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, models.TargetStatusPublished, platformPostID, platformPostURL, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postTargetRepository) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	query := `
		UPDATE post_targets
		SET status = $1,
			error_message = $2,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.TargetStatusFailed, errorMessage, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postTargetRepository) IncrementRetry(ctx context.Context, id int64) error {
	query := `
		UPDATE post_targets
		SET retry_count = retry_count + 1,
			last_retry_at = $1,
			updated_at = $1
		WHERE id = $2
	`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// ResetByPostID puts every target of a post back to pending and clears
// error and retry state. Used by the reschedule operation only.
func (r *postTargetRepository) ResetByPostID(ctx context.Context, postID int64) error {
	query := `
		UPDATE post_targets
		SET status = $1,
			error_message = NULL,
			retry_count = 0,
			last_retry_at = NULL,
			updated_at = $2
		WHERE post_id = $3
	`
	_, err := r.db.ExecContext(ctx, query, models.TargetStatusPending, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
