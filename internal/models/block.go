package models

import "time"

// Block is a directional mute: blocker blocks blocked. The pair is unique, so
// blocking is idempotent and unblocking removes exactly one row.
type Block struct {
	ID        int64     `json:"id"`
	BlockerID int64     `json:"blocker_id"`
	BlockedID int64     `json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}
