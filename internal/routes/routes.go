package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/config"
	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/handlers"
	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/middleware"
	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/repository"
	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/services"
	chatws "github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	productRepo := repository.NewProductRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	storeHandler := handlers.NewStoreHandler(storeRepo)
	catalogService := services.NewCatalogService(productRepo, storeRepo)
	productHandler := handlers.NewProductHandler(catalogService)
	favoriteHandler := handlers.NewFavoriteHandler(favoriteRepo, productRepo)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)

	chatHub := chatws.NewHub()
	go chatHub.Run()
	chatService := services.NewChatService(db, conversationRepo, messageRepo, storeRepo, productRepo, blockRepo)
	chatHandler := handlers.NewChatHandler(chatService, chatHub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	stores := authProtected.Group("/stores")
	stores.Get("", storeHandler.ListStores)
	stores.Post("", storeHandler.CreateStore)
	stores.Get("/:id", storeHandler.GetStore)
	stores.Put("/:id", storeHandler.UpdateStore)

	products := authProtected.Group("/products")
	products.Get("", productHandler.ListProducts)
	products.Post("", productHandler.CreateProduct)
	products.Get("/:id", productHandler.GetProduct)
	products.Put("/:id", productHandler.UpdateProduct)
	products.Delete("/:id", productHandler.DeleteProduct)
	products.Post("/:id/favorite", favoriteHandler.ToggleFavorite)

	authProtected.Get("/favorites", favoriteHandler.ListFavorites)

	notifications := authProtected.Group("/notifications")
	notifications.Get("", notificationHandler.ListNotifications)
	notifications.Patch("/:id/read", notificationHandler.MarkNotificationRead)

	conversations := authProtected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Post("", chatHandler.StartConversation)
	conversations.Get("/:id", chatHandler.GetConversation)
	conversations.Delete("/:id", chatHandler.HideConversation)
	conversations.Post("/:id/block", chatHandler.ToggleBlock)
	conversations.Post("/:id/report", chatHandler.ReportConversation)
	conversations.Post("/:id/typing", chatHandler.Typing)

	messages := authProtected.Group("/messages")
	messages.Post("", chatHandler.SendMessage)
	messages.Patch("/:id/read", chatHandler.MarkMessageRead)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))
}
