package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/models"
	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/repository"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func TestToggleBlockTwiceRestoresUnblockedState(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationChatService(pool)

	buyerID := createChatAccount(t, ctx, pool, "buyer")
	sellerID := createChatAccount(t, ctx, pool, "seller")
	storeID := createChatStore(t, ctx, pool, sellerID)
	t.Cleanup(func() { cleanupChatAccounts(t, ctx, pool, buyerID, sellerID) })

	conversation, _, err := service.StartConversation(ctx, buyerID, "buyer", StartConversationInput{
		StoreID: storeID,
		Message: "Hola, ¿tienen stock de lino?",
	})
	if err != nil {
		t.Fatalf("StartConversation: %v", err)
	}

	toggle, err := service.ToggleBlock(ctx, buyerID, conversation.ID)
	if err != nil {
		t.Fatalf("first ToggleBlock: %v", err)
	}
	if !toggle.Blocked {
		t.Fatalf("expected blocked=true after first toggle, got %+v", toggle)
	}

	detail, err := service.GetConversation(ctx, buyerID, conversation.ID)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if !detail.IsBlocked || detail.BlockedBy == nil || *detail.BlockedBy != buyerID {
		t.Fatalf("expected conversation blocked by buyer %d, got is_blocked=%v blocked_by=%v",
			buyerID, detail.IsBlocked, detail.BlockedBy)
	}
	if got := countBlocks(t, ctx, pool, buyerID, sellerID); got != 1 {
		t.Fatalf("expected exactly one block row, got %d", got)
	}

	toggle, err = service.ToggleBlock(ctx, buyerID, conversation.ID)
	if err != nil {
		t.Fatalf("second ToggleBlock: %v", err)
	}
	if toggle.Blocked {
		t.Fatalf("expected blocked=false after second toggle, got %+v", toggle)
	}

	detail, err = service.GetConversation(ctx, buyerID, conversation.ID)
	if err != nil {
		t.Fatalf("GetConversation after unblock: %v", err)
	}
	if detail.IsBlocked || detail.BlockedBy != nil {
		t.Fatalf("expected conversation unblocked, got is_blocked=%v blocked_by=%v",
			detail.IsBlocked, detail.BlockedBy)
	}
	if got := countBlocks(t, ctx, pool, buyerID, sellerID); got != 0 {
		t.Fatalf("expected no block rows after unblock, got %d", got)
	}

	if _, err := service.SendMessage(ctx, sellerID, conversation.ID, "De vuelta"); err != nil {
		t.Fatalf("SendMessage after unblock: %v", err)
	}
}

func TestUnblockKeepsConversationBlockedWhileReverseBlockStands(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationChatService(pool)

	buyerID := createChatAccount(t, ctx, pool, "buyer")
	sellerID := createChatAccount(t, ctx, pool, "seller")
	storeID := createChatStore(t, ctx, pool, sellerID)
	t.Cleanup(func() { cleanupChatAccounts(t, ctx, pool, buyerID, sellerID) })

	conversation, _, err := service.StartConversation(ctx, buyerID, "buyer", StartConversationInput{
		StoreID: storeID,
		Message: "Buenas",
	})
	if err != nil {
		t.Fatalf("StartConversation: %v", err)
	}

	if _, err := service.ToggleBlock(ctx, buyerID, conversation.ID); err != nil {
		t.Fatalf("buyer ToggleBlock: %v", err)
	}
	if _, err := service.ToggleBlock(ctx, sellerID, conversation.ID); err != nil {
		t.Fatalf("seller ToggleBlock: %v", err)
	}

	// The buyer lifts their block, but the seller's block is still in force:
	// the conversation flag must survive pointing at the seller.
	toggle, err := service.ToggleBlock(ctx, buyerID, conversation.ID)
	if err != nil {
		t.Fatalf("buyer unblock ToggleBlock: %v", err)
	}
	if toggle.Blocked {
		t.Fatalf("expected buyer's own block lifted, got %+v", toggle)
	}

	detail, err := service.GetConversation(ctx, buyerID, conversation.ID)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if !detail.IsBlocked || detail.BlockedBy == nil || *detail.BlockedBy != sellerID {
		t.Fatalf("expected conversation still blocked by seller %d, got is_blocked=%v blocked_by=%v",
			sellerID, detail.IsBlocked, detail.BlockedBy)
	}

	if _, err := service.SendMessage(ctx, buyerID, conversation.ID, "Hola"); err != ErrConversationBlocked {
		t.Fatalf("expected ErrConversationBlocked while reverse block stands, got %v", err)
	}

	if _, err := service.ToggleBlock(ctx, sellerID, conversation.ID); err != nil {
		t.Fatalf("seller unblock ToggleBlock: %v", err)
	}

	detail, err = service.GetConversation(ctx, buyerID, conversation.ID)
	if err != nil {
		t.Fatalf("GetConversation after both unblock: %v", err)
	}
	if detail.IsBlocked || detail.BlockedBy != nil {
		t.Fatalf("expected conversation unblocked after both lift, got is_blocked=%v blocked_by=%v",
			detail.IsBlocked, detail.BlockedBy)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func newIntegrationChatService(pool *pgxpool.Pool) *ChatService {
	return NewChatService(
		pool,
		repository.NewConversationRepository(pool),
		repository.NewMessageRepository(pool),
		repository.NewStoreRepository(pool),
		repository.NewProductRepository(pool),
		repository.NewBlockRepository(pool),
	)
}

func createChatAccount(t *testing.T, ctx context.Context, pool *pgxpool.Pool, role string) int64 {
	t.Helper()

	userRepo := repository.NewUserRepository(pool)
	user := &models.User{
		Name:         fmt.Sprintf("chat-test-%s", role),
		Email:        fmt.Sprintf("chat-test-%s-%d@example.com", role, time.Now().UnixNano()),
		PasswordHash: "test-hash",
		Role:         role,
	}
	if err := userRepo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser(%s): %v", role, err)
	}

	return user.ID
}

func createChatStore(t *testing.T, ctx context.Context, pool *pgxpool.Pool, ownerID int64) int64 {
	t.Helper()

	storeRepo := repository.NewStoreRepository(pool)
	store := &models.Store{
		UserID: ownerID,
		Name:   fmt.Sprintf("chat-test-store-%d", time.Now().UnixNano()),
	}
	if err := storeRepo.Create(ctx, store); err != nil {
		t.Fatalf("Create store: %v", err)
	}

	return store.ID
}

func countBlocks(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userIDs ...int64) int {
	t.Helper()

	var count int
	err := pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM blocks WHERE blocker_id = ANY($1) AND blocked_id = ANY($1)
	`, userIDs).Scan(&count)
	if err != nil {
		t.Fatalf("count blocks: %v", err)
	}
	return count
}

func cleanupChatAccounts(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userIDs ...int64) {
	t.Helper()

	if len(userIDs) == 0 {
		return
	}

	if _, err := pool.Exec(ctx, "DELETE FROM blocks WHERE blocker_id = ANY($1) OR blocked_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup blocks: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM notifications WHERE user_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup notifications: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM conversations WHERE buyer_id = ANY($1) OR store_id IN (SELECT id FROM stores WHERE user_id = ANY($1))", userIDs); err != nil {
		t.Fatalf("cleanup conversations: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM stores WHERE user_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup stores: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM users WHERE id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup users: %v", err)
	}
}
