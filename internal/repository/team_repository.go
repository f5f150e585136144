package repository

import (
	"context"
	"database/sql"
	"log/slog"
)

type TeamRepository interface {
	GetOwnerEmail(ctx context.Context, teamID int64) (string, error)
	GetIDByOwner(ctx context.Context, userID int64) (int64, error)
	IsOwner(ctx context.Context, teamID, userID int64) (bool, error)
}

type teamRepository struct {
	db *sql.DB
}

func NewTeamRepository(db *sql.DB) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) GetOwnerEmail(ctx context.Context, teamID int64) (string, error) {
	query := `
		SELECT u.email
		FROM teams t
		JOIN users u ON u.id = t.owner_id
		WHERE t.id = $1
	`
	var email string
	err := r.db.QueryRowContext(ctx, query, teamID).Scan(&email)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		slog.Info(err.Error())
		return "", err
	}
	return email, nil
}

func (r *teamRepository) GetIDByOwner(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT id FROM teams WHERE owner_id = $1`

	var id int64
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *teamRepository) IsOwner(ctx context.Context, teamID, userID int64) (bool, error) {
	query := `SELECT 1 FROM teams WHERE id = $1 AND owner_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, teamID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}
