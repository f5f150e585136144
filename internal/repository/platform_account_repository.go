package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/postpilot/internal/models"
)

type PlatformAccountRepository interface {
	Create(ctx context.Context, acc *models.PlatformAccount) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.PlatformAccount, error)
	ListExpiring(ctx context.Context, until time.Time) ([]*models.PlatformAccount, error)
	UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt *time.Time) error
	SetActive(ctx context.Context, id int64, active bool) error
}

type platformAccountRepository struct {
	db *sql.DB
}

func NewPlatformAccountRepository(db *sql.DB) PlatformAccountRepository {
	return &platformAccountRepository{db: db}
}

func (r *platformAccountRepository) Create(ctx context.Context, acc *models.PlatformAccount) (int64, error) {
	query := `
		INSERT INTO platform_accounts(
			team_id,
			platform,
			platform_user_id,
			username,
			display_name,
			access_token,
			refresh_token,
			token_expires_at,
			scopes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (team_id, platform, platform_user_id)
		DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			scopes = EXCLUDED.scopes,
			is_active = TRUE,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		acc.TeamID,
		acc.Platform,
		acc.PlatformUserID,
		acc.Username,
		acc.DisplayName,
		acc.AccessToken,
		acc.RefreshToken,
		acc.TokenExpiresAt,
		pq.Array(acc.Scopes),
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *platformAccountRepository) GetByID(ctx context.Context, id int64) (*models.PlatformAccount, error) {
	query := `SELECT id, team_id, platform, platform_user_id, COALESCE(username, ''), COALESCE(display_name, ''),
			COALESCE(access_token, ''), COALESCE(refresh_token, ''), token_expires_at, scopes, is_active,
			created_at, updated_at
		FROM platform_accounts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var acc models.PlatformAccount
	err := row.Scan(&acc.ID, &acc.TeamID, &acc.Platform, &acc.PlatformUserID, &acc.Username,
		&acc.DisplayName, &acc.AccessToken, &acc.RefreshToken, &acc.TokenExpiresAt,
		pq.Array(&acc.Scopes), &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &acc, nil
}

// ListExpiring returns active accounts holding a refresh token whose access
// token expires before the cutoff. Accounts without an expiry never show up
// (their tokens do not age out), and a refresh token stored as '' counts as
// absent.
func (r *platformAccountRepository) ListExpiring(ctx context.Context, until time.Time) ([]*models.PlatformAccount, error) {
	query := `SELECT id, team_id, platform, platform_user_id, COALESCE(username, ''), COALESCE(display_name, ''),
			COALESCE(access_token, ''), COALESCE(refresh_token, ''), token_expires_at, scopes, is_active,
			created_at, updated_at
		FROM platform_accounts
		WHERE is_active = TRUE
		  AND NULLIF(refresh_token, '') IS NOT NULL
		  AND token_expires_at IS NOT NULL
		  AND token_expires_at < $1`

	rows, err := r.db.QueryContext(ctx, query, until)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.PlatformAccount
	for rows.Next() {
		var acc models.PlatformAccount
		err := rows.Scan(&acc.ID, &acc.TeamID, &acc.Platform, &acc.PlatformUserID, &acc.Username,
			&acc.DisplayName, &acc.AccessToken, &acc.RefreshToken, &acc.TokenExpiresAt,
			pq.Array(&acc.Scopes), &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, &acc)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return accounts, nil
}

func (r *platformAccountRepository) UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt *time.Time) error {
	query := `
		UPDATE platform_accounts
		SET access_token = $1,
			refresh_token = COALESCE(NULLIF($2, ''), refresh_token),
			token_expires_at = $3,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, accessToken, refreshToken, expiresAt, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *platformAccountRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE platform_accounts SET is_active = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, active, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
