package models

import "time"

// DeadLetterRecord archives a publish job that exhausted all retries.
// The payload is stored as the raw job JSON, whatever fields it carried;
// this is a forensic sink, not a replay mechanism.
type DeadLetterRecord struct {
	ID                int64     `db:"id" json:"id"`
	PostTargetID      int64     `db:"post_target_id" json:"post_target_id"`
	PostID            int64     `db:"post_id" json:"post_id"`
	PlatformAccountID int64     `db:"platform_account_id" json:"platform_account_id"`
	Payload           []byte    `db:"payload" json:"payload"`
	ErrorMessage      string    `db:"error_message" json:"error_message"`
	FailedAt          time.Time `db:"failed_at" json:"failed_at"`
}
