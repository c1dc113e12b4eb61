package models

import "time"

type Favorite struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Notification struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Kind           string    `json:"kind"`
	Body           string    `json:"body"`
	ConversationID *int64    `json:"conversation_id,omitempty"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}
