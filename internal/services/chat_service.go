package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/models"
	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/repository"
)

var (
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidInput         = errors.New("invalid input")
	ErrStoreNotFound        = errors.New("store not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrConversationBlocked  = errors.New("conversation is blocked")
	ErrOwnMessageRead       = errors.New("cannot mark own message as read")
)

type conversationStore interface {
	CreateOrRevive(ctx context.Context, buyerID, storeID int64, productID *int64) (*models.Conversation, error)
	GetWithStore(ctx context.Context, conversationID int64) (*models.ConversationWithStore, error)
	GetDetail(ctx context.Context, conversationID int64) (*models.ConversationDetail, error)
	ListForBuyer(ctx context.Context, buyerID int64) ([]models.ConversationSummary, error)
	ListForSeller(ctx context.Context, ownerID int64) ([]models.ConversationSummary, error)
	HideForBuyer(ctx context.Context, conversationID int64) error
	HideForStore(ctx context.Context, conversationID int64) error
	SetReported(ctx context.Context, conversationID int64) error
	SetTyping(ctx context.Context, conversationID, userID int64) error
}

type messageStore interface {
	GetByID(ctx context.Context, messageID int64) (*models.ChatMessage, error)
	ListByConversation(ctx context.Context, conversationID int64) ([]models.ChatMessage, error)
	MarkRead(ctx context.Context, messageID int64) error
}

type blockReader interface {
	Exists(ctx context.Context, blockerID, blockedID int64) (bool, error)
}

type storeReader interface {
	GetByID(ctx context.Context, id int64) (*models.Store, error)
}

type productReader interface {
	GetByID(ctx context.Context, id int64) (*models.Product, error)
}

type ChatService struct {
	db            *pgxpool.Pool
	conversations conversationStore
	messages      messageStore
	stores        storeReader
	products      productReader
	blocks        blockReader
}

// ChatDelivery is handed to the websocket hub after a message is persisted so
// connected sessions of both members get notified.
type ChatDelivery struct {
	Conversation *models.ConversationWithStore
	Message      *models.ChatMessage
	RecipientID  int64
}

// BlockToggle is the outcome of a block toggle: Blocked reports whether the
// caller now blocks the other party.
type BlockToggle struct {
	ConversationID int64
	ActorID        int64
	OtherID        int64
	Blocked        bool
}

type StartConversationInput struct {
	StoreID   int64
	ProductID *int64
	Message   string
}

func NewChatService(
	db *pgxpool.Pool,
	conversations conversationStore,
	messages messageStore,
	stores storeReader,
	products productReader,
	blocks blockReader,
) *ChatService {
	return &ChatService{
		db:            db,
		conversations: conversations,
		messages:      messages,
		stores:        stores,
		products:      products,
		blocks:        blocks,
	}
}

func (s *ChatService) ListConversations(
	ctx context.Context,
	actorID int64,
	role string,
) ([]models.ConversationSummary, error) {
	switch role {
	case "buyer":
		return s.conversations.ListForBuyer(ctx, actorID)
	case "seller":
		return s.conversations.ListForSeller(ctx, actorID)
	default:
		return nil, ErrForbidden
	}
}

// StartConversation creates or reopens the (buyer, store, product)
// conversation and records the opening message, in one transaction. Reopening
// clears both per-side hide flags so the thread reappears in both lists.
func (s *ChatService) StartConversation(
	ctx context.Context,
	actorID int64,
	role string,
	input StartConversationInput,
) (*models.Conversation, *models.ChatMessage, error) {
	if role != "buyer" {
		return nil, nil, ErrForbidden
	}
	if input.StoreID <= 0 {
		return nil, nil, ErrInvalidInput
	}

	content := strings.TrimSpace(input.Message)
	if content == "" {
		return nil, nil, ErrInvalidInput
	}

	store, err := s.stores.GetByID(ctx, input.StoreID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrStoreNotFound
		}
		return nil, nil, err
	}
	if store.UserID == actorID {
		return nil, nil, ErrInvalidInput
	}

	if input.ProductID != nil {
		product, err := s.products.GetByID(ctx, *input.ProductID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil, ErrProductNotFound
			}
			return nil, nil, err
		}
		if product.StoreID != input.StoreID {
			return nil, nil, ErrInvalidInput
		}
	}

	// A standing block between the pair gates the resume path too, not just
	// sends into an existing thread.
	blocked, err := s.pairBlocked(ctx, actorID, store.UserID)
	if err != nil {
		return nil, nil, err
	}
	if blocked {
		return nil, nil, ErrConversationBlocked
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txConversationRepo := repository.NewConversationRepository(tx)
	txMessageRepo := repository.NewMessageRepository(tx)
	txNotificationRepo := repository.NewNotificationRepository(tx)

	conversation, err := txConversationRepo.CreateOrRevive(ctx, actorID, input.StoreID, input.ProductID)
	if err != nil {
		return nil, nil, err
	}

	message, err := txMessageRepo.Create(ctx, conversation.ID, actorID, content)
	if err != nil {
		return nil, nil, err
	}

	if err := txNotificationRepo.Create(ctx, store.UserID, "message", content, &conversation.ID); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	conversation.LastMessageAt = message.CreatedAt
	return conversation, message, nil
}

// GetConversation returns the full thread, oldest message first. Fetching
// never flips read state; clients mark messages read explicitly.
func (s *ChatService) GetConversation(
	ctx context.Context,
	actorID int64,
	conversationID int64,
) (*models.ConversationDetail, error) {
	if conversationID <= 0 {
		return nil, ErrInvalidInput
	}

	detail, err := s.conversations.GetDetail(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if actorID != detail.BuyerID && actorID != detail.Store.OwnerID {
		return nil, ErrForbidden
	}

	messages, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	detail.Messages = messages

	return detail, nil
}

// SendMessage runs the mandatory check sequence: existence, membership, block
// state, then persist. Membership is checked before the block flag so a
// non-member never learns the conversation exists.
func (s *ChatService) SendMessage(
	ctx context.Context,
	actorID int64,
	conversationID int64,
	content string,
) (*ChatDelivery, error) {
	if conversationID <= 0 {
		return nil, ErrInvalidInput
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}

	conversation, err := s.conversations.GetWithStore(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if !conversation.IsMember(actorID) {
		return nil, ErrForbidden
	}
	if conversation.IsBlocked {
		return nil, ErrConversationBlocked
	}

	recipientID := conversation.OtherParty(actorID)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	txConversationRepo := repository.NewConversationRepository(tx)
	txNotificationRepo := repository.NewNotificationRepository(tx)

	message, err := txMessageRepo.Create(ctx, conversationID, actorID, trimmed)
	if err != nil {
		return nil, err
	}

	if err := txConversationRepo.Touch(ctx, conversationID); err != nil {
		return nil, err
	}

	if err := txNotificationRepo.Create(ctx, recipientID, "message", trimmed, &conversationID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &ChatDelivery{
		Conversation: conversation,
		Message:      message,
		RecipientID:  recipientID,
	}, nil
}

// MarkMessageRead flips is_read for the recipient. Senders cannot mark their
// own messages; re-marking an already-read message is a successful no-op.
func (s *ChatService) MarkMessageRead(
	ctx context.Context,
	actorID int64,
	messageID int64,
) (*models.ChatMessage, error) {
	if messageID <= 0 {
		return nil, ErrInvalidInput
	}

	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	if message.SenderID == actorID {
		return nil, ErrOwnMessageRead
	}

	conversation, err := s.conversations.GetWithStore(ctx, message.ConversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.IsMember(actorID) {
		return nil, ErrForbidden
	}

	if !message.IsRead {
		if err := s.messages.MarkRead(ctx, messageID); err != nil {
			return nil, err
		}
		message.IsRead = true
	}

	return message, nil
}

// ToggleBlock flips the caller's directional block against the other member
// and re-derives the conversation's cached block state from the Block rows
// between the pair, so the cache stays truthful even when both parties block
// each other independently.
func (s *ChatService) ToggleBlock(
	ctx context.Context,
	actorID int64,
	conversationID int64,
) (*BlockToggle, error) {
	if conversationID <= 0 {
		return nil, ErrInvalidInput
	}

	conversation, err := s.conversations.GetWithStore(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if !conversation.IsMember(actorID) {
		return nil, ErrForbidden
	}

	otherID := conversation.OtherParty(actorID)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txBlockRepo := repository.NewBlockRepository(tx)
	txConversationRepo := repository.NewConversationRepository(tx)
	txNotificationRepo := repository.NewNotificationRepository(tx)

	exists, err := txBlockRepo.Exists(ctx, actorID, otherID)
	if err != nil {
		return nil, err
	}

	blocked := !exists
	if exists {
		if err := txBlockRepo.Delete(ctx, actorID, otherID); err != nil {
			return nil, err
		}

		// The counterpart's block may still be in force.
		reverse, err := txBlockRepo.Exists(ctx, otherID, actorID)
		if err != nil {
			return nil, err
		}
		if reverse {
			err = txConversationRepo.SetBlockState(ctx, conversationID, true, &otherID)
		} else {
			err = txConversationRepo.SetBlockState(ctx, conversationID, false, nil)
		}
		if err != nil {
			return nil, err
		}
	} else {
		if err := txBlockRepo.Create(ctx, actorID, otherID); err != nil {
			return nil, err
		}
		if err := txConversationRepo.SetBlockState(ctx, conversationID, true, &actorID); err != nil {
			return nil, err
		}
	}

	kind := "unblock"
	if blocked {
		kind = "block"
	}
	if err := txNotificationRepo.Create(ctx, otherID, kind, "", &conversationID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &BlockToggle{
		ConversationID: conversationID,
		ActorID:        actorID,
		OtherID:        otherID,
		Blocked:        blocked,
	}, nil
}

// HideConversation soft-deletes the caller's side of the thread. Restore
// happens only through new activity.
func (s *ChatService) HideConversation(
	ctx context.Context,
	actorID int64,
	conversationID int64,
) error {
	conversation, err := s.memberConversation(ctx, actorID, conversationID)
	if err != nil {
		return err
	}

	if actorID == conversation.BuyerID {
		return s.conversations.HideForBuyer(ctx, conversationID)
	}
	return s.conversations.HideForStore(ctx, conversationID)
}

func (s *ChatService) ReportConversation(
	ctx context.Context,
	actorID int64,
	conversationID int64,
) error {
	if _, err := s.memberConversation(ctx, actorID, conversationID); err != nil {
		return err
	}
	return s.conversations.SetReported(ctx, conversationID)
}

func (s *ChatService) Typing(
	ctx context.Context,
	actorID int64,
	conversationID int64,
) error {
	if _, err := s.memberConversation(ctx, actorID, conversationID); err != nil {
		return err
	}
	return s.conversations.SetTyping(ctx, conversationID, actorID)
}

func (s *ChatService) pairBlocked(ctx context.Context, a, b int64) (bool, error) {
	forward, err := s.blocks.Exists(ctx, a, b)
	if err != nil {
		return false, err
	}
	if forward {
		return true, nil
	}
	return s.blocks.Exists(ctx, b, a)
}

func (s *ChatService) memberConversation(
	ctx context.Context,
	actorID int64,
	conversationID int64,
) (*models.ConversationWithStore, error) {
	if conversationID <= 0 {
		return nil, ErrInvalidInput
	}

	conversation, err := s.conversations.GetWithStore(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if !conversation.IsMember(actorID) {
		return nil, ErrForbidden
	}

	return conversation, nil
}

func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
