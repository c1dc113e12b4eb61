package models

import "time"

type Conversation struct {
	ID             int64      `json:"id"`
	BuyerID        int64      `json:"buyer_id"`
	StoreID        int64      `json:"store_id"`
	ProductID      *int64     `json:"product_id"`
	LastMessageAt  time.Time  `json:"last_message_at"`
	DeletedByBuyer bool       `json:"deleted_by_buyer"`
	DeletedByStore bool       `json:"deleted_by_store"`
	IsReported     bool       `json:"is_reported"`
	IsBlocked      bool       `json:"is_blocked"`
	BlockedBy      *int64     `json:"blocked_by"`
	LastTypingBy   *int64     `json:"last_typing_by,omitempty"`
	LastTypingAt   *time.Time `json:"last_typing_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type ChatMessage struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConversationWithStore is the read model every authorization decision runs
// against: the conversation plus the store projection carrying its owner.
type ConversationWithStore struct {
	Conversation
	Store StoreSummary `json:"store"`
}

// IsMember reports whether userID is the conversation's buyer or the owner of
// its store.
func (c *ConversationWithStore) IsMember(userID int64) bool {
	return userID == c.BuyerID || userID == c.Store.OwnerID
}

// OtherParty returns the counterpart of userID. Callers must check membership
// first.
func (c *ConversationWithStore) OtherParty(userID int64) int64 {
	if userID == c.BuyerID {
		return c.Store.OwnerID
	}
	return c.BuyerID
}

type ConversationSummary struct {
	Conversation
	Store       StoreSummary    `json:"store"`
	Buyer       UserSummary     `json:"buyer"`
	Product     *ProductSummary `json:"product,omitempty"`
	LastMessage *ChatMessage    `json:"last_message,omitempty"`
	UnreadCount int             `json:"unread_count"`
}

type ConversationDetail struct {
	Conversation
	Store    StoreSummary    `json:"store"`
	Buyer    UserSummary     `json:"buyer"`
	Product  *ProductSummary `json:"product,omitempty"`
	Messages []ChatMessage   `json:"messages"`
}
