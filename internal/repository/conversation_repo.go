package repository

import (
	"context"
	"database/sql"

	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/models"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

const conversationColumns = `
	id, buyer_id, store_id, product_id, last_message_at,
	deleted_by_buyer, deleted_by_store, is_reported, is_blocked, blocked_by,
	last_typing_by, last_typing_at, created_at
`

// CreateOrRevive upserts on the (buyer, store, product) identity. A NULL
// product is bucketed as zero in the unique index, so the conflict target has
// to use the same expression. Reopening an existing conversation clears both
// per-side hide flags.
func (r *ConversationRepository) CreateOrRevive(
	ctx context.Context,
	buyerID int64,
	storeID int64,
	productID *int64,
) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (buyer_id, store_id, product_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (buyer_id, store_id, COALESCE(product_id, 0))
		DO UPDATE SET deleted_by_buyer = FALSE,
					  deleted_by_store = FALSE,
					  last_message_at = NOW()
		RETURNING ` + conversationColumns

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, buyerID, storeID, productID).Scan(
		&conversation.ID,
		&conversation.BuyerID,
		&conversation.StoreID,
		&conversation.ProductID,
		&conversation.LastMessageAt,
		&conversation.DeletedByBuyer,
		&conversation.DeletedByStore,
		&conversation.IsReported,
		&conversation.IsBlocked,
		&conversation.BlockedBy,
		&conversation.LastTypingBy,
		&conversation.LastTypingAt,
		&conversation.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *ConversationRepository) GetWithStore(
	ctx context.Context,
	conversationID int64,
) (*models.ConversationWithStore, error) {
	query := `
		SELECT
			c.id, c.buyer_id, c.store_id, c.product_id, c.last_message_at,
			c.deleted_by_buyer, c.deleted_by_store, c.is_reported, c.is_blocked, c.blocked_by,
			c.last_typing_by, c.last_typing_at, c.created_at,
			s.id, s.name, s.logo_url, s.user_id
		FROM conversations c
		JOIN stores s ON s.id = c.store_id
		WHERE c.id = $1
	`

	var conversation models.ConversationWithStore
	err := r.db.QueryRow(ctx, query, conversationID).Scan(
		&conversation.ID,
		&conversation.BuyerID,
		&conversation.StoreID,
		&conversation.ProductID,
		&conversation.LastMessageAt,
		&conversation.DeletedByBuyer,
		&conversation.DeletedByStore,
		&conversation.IsReported,
		&conversation.IsBlocked,
		&conversation.BlockedBy,
		&conversation.LastTypingBy,
		&conversation.LastTypingAt,
		&conversation.CreatedAt,
		&conversation.Store.ID,
		&conversation.Store.Name,
		&conversation.Store.LogoURL,
		&conversation.Store.OwnerID,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

// GetDetail loads the conversation with its store, buyer, and product
// projections. Messages are loaded separately by the message repository.
func (r *ConversationRepository) GetDetail(
	ctx context.Context,
	conversationID int64,
) (*models.ConversationDetail, error) {
	query := `
		SELECT
			c.id, c.buyer_id, c.store_id, c.product_id, c.last_message_at,
			c.deleted_by_buyer, c.deleted_by_store, c.is_reported, c.is_blocked, c.blocked_by,
			c.last_typing_by, c.last_typing_at, c.created_at,
			s.id, s.name, s.logo_url, s.user_id,
			u.id, u.name, u.avatar_url,
			p.id, p.name, p.image_url, p.price
		FROM conversations c
		JOIN stores s ON s.id = c.store_id
		JOIN users u ON u.id = c.buyer_id
		LEFT JOIN products p ON p.id = c.product_id
		WHERE c.id = $1
	`

	var detail models.ConversationDetail
	var productID sql.NullInt64
	var productName sql.NullString
	var productImage *string
	var productPrice sql.NullFloat64

	err := r.db.QueryRow(ctx, query, conversationID).Scan(
		&detail.ID,
		&detail.BuyerID,
		&detail.StoreID,
		&detail.ProductID,
		&detail.LastMessageAt,
		&detail.DeletedByBuyer,
		&detail.DeletedByStore,
		&detail.IsReported,
		&detail.IsBlocked,
		&detail.BlockedBy,
		&detail.LastTypingBy,
		&detail.LastTypingAt,
		&detail.CreatedAt,
		&detail.Store.ID,
		&detail.Store.Name,
		&detail.Store.LogoURL,
		&detail.Store.OwnerID,
		&detail.Buyer.ID,
		&detail.Buyer.Name,
		&detail.Buyer.AvatarURL,
		&productID,
		&productName,
		&productImage,
		&productPrice,
	)
	if err != nil {
		return nil, err
	}

	if productID.Valid {
		detail.Product = &models.ProductSummary{
			ID:       productID.Int64,
			Name:     productName.String,
			ImageURL: productImage,
			Price:    productPrice.Float64,
		}
	}

	return &detail, nil
}

// ListForBuyer returns the buyer's visible conversations, most recently
// active first. The unread count is computed per viewer, never stored.
func (r *ConversationRepository) ListForBuyer(
	ctx context.Context,
	buyerID int64,
) ([]models.ConversationSummary, error) {
	return r.list(ctx, `c.buyer_id = $1 AND c.deleted_by_buyer = FALSE`, buyerID)
}

// ListForSeller returns conversations against any store the caller owns.
func (r *ConversationRepository) ListForSeller(
	ctx context.Context,
	ownerID int64,
) ([]models.ConversationSummary, error) {
	return r.list(ctx, `s.user_id = $1 AND c.deleted_by_store = FALSE`, ownerID)
}

func (r *ConversationRepository) list(
	ctx context.Context,
	where string,
	viewerID int64,
) ([]models.ConversationSummary, error) {
	query := `
		SELECT
			c.id, c.buyer_id, c.store_id, c.product_id, c.last_message_at,
			c.deleted_by_buyer, c.deleted_by_store, c.is_reported, c.is_blocked, c.blocked_by,
			c.last_typing_by, c.last_typing_at, c.created_at,
			s.id, s.name, s.logo_url, s.user_id,
			u.id, u.name, u.avatar_url,
			p.id, p.name, p.image_url, p.price,
			lm.id, lm.conversation_id, lm.sender_id, lm.content, lm.is_read, lm.created_at,
			COALESCE(uc.unread_count, 0)
		FROM conversations c
		JOIN stores s ON s.id = c.store_id
		JOIN users u ON u.id = c.buyer_id
		LEFT JOIN products p ON p.id = c.product_id
		LEFT JOIN LATERAL (
			SELECT id, conversation_id, sender_id, content, is_read, created_at
			FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) lm ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS unread_count
			FROM messages
			WHERE conversation_id = c.id
			  AND sender_id <> $1
			  AND is_read = FALSE
		) uc ON TRUE
		WHERE ` + where + `
		ORDER BY c.last_message_at DESC, c.id DESC
	`

	rows, err := r.db.Query(ctx, query, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var summary models.ConversationSummary
		var productID sql.NullInt64
		var productName sql.NullString
		var productImage *string
		var productPrice sql.NullFloat64
		var messageID sql.NullInt64
		var messageConversationID sql.NullInt64
		var messageSenderID sql.NullInt64
		var messageContent sql.NullString
		var messageIsRead sql.NullBool
		var messageCreatedAt sql.NullTime

		if err := rows.Scan(
			&summary.ID,
			&summary.BuyerID,
			&summary.StoreID,
			&summary.ProductID,
			&summary.LastMessageAt,
			&summary.DeletedByBuyer,
			&summary.DeletedByStore,
			&summary.IsReported,
			&summary.IsBlocked,
			&summary.BlockedBy,
			&summary.LastTypingBy,
			&summary.LastTypingAt,
			&summary.CreatedAt,
			&summary.Store.ID,
			&summary.Store.Name,
			&summary.Store.LogoURL,
			&summary.Store.OwnerID,
			&summary.Buyer.ID,
			&summary.Buyer.Name,
			&summary.Buyer.AvatarURL,
			&productID,
			&productName,
			&productImage,
			&productPrice,
			&messageID,
			&messageConversationID,
			&messageSenderID,
			&messageContent,
			&messageIsRead,
			&messageCreatedAt,
			&summary.UnreadCount,
		); err != nil {
			return nil, err
		}

		if productID.Valid {
			summary.Product = &models.ProductSummary{
				ID:       productID.Int64,
				Name:     productName.String,
				ImageURL: productImage,
				Price:    productPrice.Float64,
			}
		}

		if messageID.Valid {
			summary.LastMessage = &models.ChatMessage{
				ID:             messageID.Int64,
				ConversationID: messageConversationID.Int64,
				SenderID:       messageSenderID.Int64,
				Content:        messageContent.String,
				IsRead:         messageIsRead.Bool,
				CreatedAt:      messageCreatedAt.Time,
			}
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

// Touch advances the activity timestamp and unhides the conversation on both
// sides: new activity is the only restore path.
func (r *ConversationRepository) Touch(ctx context.Context, conversationID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET last_message_at = NOW(),
			deleted_by_buyer = FALSE,
			deleted_by_store = FALSE
		WHERE id = $1
	`, conversationID)
	return err
}

func (r *ConversationRepository) HideForBuyer(ctx context.Context, conversationID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations SET deleted_by_buyer = TRUE WHERE id = $1
	`, conversationID)
	return err
}

func (r *ConversationRepository) HideForStore(ctx context.Context, conversationID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations SET deleted_by_store = TRUE WHERE id = $1
	`, conversationID)
	return err
}

func (r *ConversationRepository) SetReported(ctx context.Context, conversationID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations SET is_reported = TRUE WHERE id = $1
	`, conversationID)
	return err
}

func (r *ConversationRepository) SetTyping(ctx context.Context, conversationID, userID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET last_typing_by = $2,
			last_typing_at = NOW()
		WHERE id = $1
	`, conversationID, userID)
	return err
}

// SetBlockState mirrors the block relationship onto the conversation for O(1)
// enforcement on the send path.
func (r *ConversationRepository) SetBlockState(
	ctx context.Context,
	conversationID int64,
	blocked bool,
	blockedBy *int64,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET is_blocked = $2,
			blocked_by = $3
		WHERE id = $1
	`, conversationID, blocked, blockedBy)
	return err
}
