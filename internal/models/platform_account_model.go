package models

import "time"

// PlatformAccount is a connected, credentialed identity on one external
// platform. Access and refresh tokens are stored encrypted, never plaintext.
type PlatformAccount struct {
	ID             int64      `db:"id" json:"id"`
	TeamID         int64      `db:"team_id" json:"team_id"`
	Platform       string     `db:"platform" json:"platform"`
	PlatformUserID string     `db:"platform_user_id" json:"platform_user_id"`
	Username       string     `db:"username" json:"username"`
	DisplayName    string     `db:"display_name" json:"display_name"`
	AccessToken    string     `db:"access_token" json:"-"`
	RefreshToken   string     `db:"refresh_token" json:"-"`
	TokenExpiresAt *time.Time `db:"token_expires_at" json:"token_expires_at"`
	Scopes         []string   `db:"scopes" json:"scopes"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	PlatformTwitter  = "twitter"
	PlatformLinkedin = "linkedin"
	PlatformBluesky  = "bluesky"
)
