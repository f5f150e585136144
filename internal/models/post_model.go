package models

import "time"

type Post struct {
	ID          int64      `db:"id" json:"id"`
	TeamID      int64      `db:"team_id" json:"team_id"`
	Content     string     `db:"content" json:"content"`
	Status      string     `db:"status" json:"status"` // draft, scheduled, publishing, published, failed, partially_published
	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduled_at"`
	PublishedAt *time.Time `db:"published_at" json:"published_at"`
	Tags        []string   `db:"tags" json:"tags"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusDraft              = "draft"
	PostStatusScheduled          = "scheduled"
	PostStatusPublishing         = "publishing"
	PostStatusPublished          = "published"
	PostStatusFailed             = "failed"
	PostStatusPartiallyPublished = "partially_published"
)

// PostTarget binds one post to one connected platform account. It is the
// unit of publish work: the scheduler enqueues one job per target and the
// publisher moves its status forward (pending -> publishing -> published|failed).
type PostTarget struct {
	ID                int64      `db:"id" json:"id"`
	PostID            int64      `db:"post_id" json:"post_id"`
	PlatformAccountID int64      `db:"platform_account_id" json:"platform_account_id"`
	Content           string     `db:"content" json:"content"` // override, empty falls back to post content
	Hashtags          []string   `db:"hashtags" json:"hashtags"`
	Status            string     `db:"status" json:"status"`
	PlatformPostID    string     `db:"platform_post_id" json:"platform_post_id"`
	PlatformPostURL   string     `db:"platform_post_url" json:"platform_post_url"`
	ErrorMessage      string     `db:"error_message" json:"error_message"`
	RetryCount        int        `db:"retry_count" json:"retry_count"`
	MaxRetries        int        `db:"max_retries" json:"max_retries"`
	LastRetryAt       *time.Time `db:"last_retry_at" json:"last_retry_at"`
	PublishedAt       *time.Time `db:"published_at" json:"published_at"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	TargetStatusPending    = "pending"
	TargetStatusPublishing = "publishing"
	TargetStatusPublished  = "published"
	TargetStatusFailed     = "failed"
)

// DueTarget is the scan-query projection: a pending target of a scheduled
// post with content already resolved (target override else post content).
type DueTarget struct {
	TargetID          int64
	PostID            int64
	PlatformAccountID int64
	Content           string
	Hashtags          []string
}
