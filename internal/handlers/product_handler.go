package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/models"
	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/repository"
	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/services"
)

type catalogApplicationService interface {
	ListProducts(ctx context.Context, filter repository.ProductFilter, page, limit int) ([]models.Product, int, error)
	GetProduct(ctx context.Context, productID int64) (*models.Product, error)
	CreateProduct(ctx context.Context, actorID int64, role string, input services.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, actorID, productID int64, input services.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, actorID, productID int64) error
}

type ProductHandler struct {
	service catalogApplicationService
}

type productRequest struct {
	StoreID     int64   `json:"store_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Price       float64 `json:"price"`
	ImageURL    *string `json:"image_url"`
	Stock       int     `json:"stock"`
}

func NewProductHandler(service catalogApplicationService) *ProductHandler {
	return &ProductHandler{service: service}
}

func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	filter := repository.ProductFilter{}
	if raw := c.Query("store_id"); raw != "" {
		storeID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || storeID <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid store_id filter"})
		}
		filter.StoreID = &storeID
	}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if search := c.Query("q"); search != "" {
		filter.Search = &search
	}
	if raw := c.Query("min_price"); raw != "" {
		minPrice, err := strconv.ParseFloat(raw, 64)
		if err != nil || minPrice < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid min_price filter"})
		}
		filter.MinPrice = &minPrice
	}
	if raw := c.Query("max_price"); raw != "" {
		maxPrice, err := strconv.ParseFloat(raw, 64)
		if err != nil || maxPrice < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid max_price filter"})
		}
		filter.MaxPrice = &maxPrice
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	products, total, err := h.service.ListProducts(c.Context(), filter, page, limit)
	if err != nil {
		return mapCatalogError(c, err)
	}

	return c.JSON(fiber.Map{
		"products":   products,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	productID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product id"})
	}

	product, err := h.service.GetProduct(c.Context(), productID)
	if err != nil {
		return mapCatalogError(c, err)
	}

	return c.JSON(fiber.Map{"product": product})
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	role, ok := currentRole(c)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	product, err := h.service.CreateProduct(c.Context(), userID, role, productInputFromRequest(req))
	if err != nil {
		return mapCatalogError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"product": product})
}

func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	productID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product id"})
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	product, err := h.service.UpdateProduct(c.Context(), userID, productID, productInputFromRequest(req))
	if err != nil {
		return mapCatalogError(c, err)
	}

	return c.JSON(fiber.Map{"product": product})
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	productID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product id"})
	}

	if err := h.service.DeleteProduct(c.Context(), userID, productID); err != nil {
		return mapCatalogError(c, err)
	}

	return c.JSON(fiber.Map{"deleted": true})
}

func productInputFromRequest(req productRequest) services.ProductInput {
	return services.ProductInput{
		StoreID:     req.StoreID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
	}
}

func mapCatalogError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrStoreNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Store not found"})
	case errors.Is(err, services.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process catalog request"})
	}
}
