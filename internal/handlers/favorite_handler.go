package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/repository"
)

type FavoriteHandler struct {
	favoriteRepo *repository.FavoriteRepository
	productRepo  *repository.ProductRepository
}

func NewFavoriteHandler(
	favoriteRepo *repository.FavoriteRepository,
	productRepo *repository.ProductRepository,
) *FavoriteHandler {
	return &FavoriteHandler{
		favoriteRepo: favoriteRepo,
		productRepo:  productRepo,
	}
}

// ToggleFavorite adds or removes the product from the caller's favorites.
func (h *FavoriteHandler) ToggleFavorite(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	productID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product id"})
	}

	if _, err := h.productRepo.GetByID(c.Context(), productID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch product"})
	}

	exists, err := h.favoriteRepo.Exists(c.Context(), userID, productID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to toggle favorite"})
	}

	if exists {
		err = h.favoriteRepo.Delete(c.Context(), userID, productID)
	} else {
		err = h.favoriteRepo.Create(c.Context(), userID, productID)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to toggle favorite"})
	}

	return c.JSON(fiber.Map{"favorited": !exists})
}

func (h *FavoriteHandler) ListFavorites(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	products, err := h.favoriteRepo.ListProducts(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list favorites"})
	}

	return c.JSON(fiber.Map{"favorites": products})
}
