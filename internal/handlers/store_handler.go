package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/models"
	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/repository"
)

type StoreHandler struct {
	storeRepo *repository.StoreRepository
}

type storeRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	LogoURL     *string `json:"logo_url"`
}

func NewStoreHandler(storeRepo *repository.StoreRepository) *StoreHandler {
	return &StoreHandler{storeRepo: storeRepo}
}

func (h *StoreHandler) CreateStore(c *fiber.Ctx) error {
	role, ok := currentRole(c)
	if !ok || role != "seller" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req storeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Store name is required"})
	}

	store := &models.Store{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		LogoURL:     req.LogoURL,
	}
	if err := h.storeRepo.Create(c.Context(), store); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create store"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"store": store})
}

func (h *StoreHandler) UpdateStore(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	storeID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid store id"})
	}

	store, err := h.storeRepo.GetByID(c.Context(), storeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Store not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch store"})
	}
	if store.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req storeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Store name is required"})
	}

	store.Name = req.Name
	store.Description = req.Description
	store.LogoURL = req.LogoURL
	if err := h.storeRepo.Update(c.Context(), store); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update store"})
	}

	return c.JSON(fiber.Map{"store": store})
}

func (h *StoreHandler) GetStore(c *fiber.Ctx) error {
	storeID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid store id"})
	}

	store, err := h.storeRepo.GetByID(c.Context(), storeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Store not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch store"})
	}

	return c.JSON(fiber.Map{"store": store})
}

func (h *StoreHandler) ListStores(c *fiber.Ctx) error {
	// ?mine=true narrows the listing to the caller's own stores.
	if c.Query("mine") == "true" {
		userID, err := currentUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}
		stores, err := h.storeRepo.ListByOwner(c.Context(), userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list stores"})
		}
		return c.JSON(fiber.Map{"stores": stores})
	}

	stores, err := h.storeRepo.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list stores"})
	}

	return c.JSON(fiber.Map{"stores": stores})
}
