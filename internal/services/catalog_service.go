package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/models"
	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/repository"
)

type productStore interface {
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context, filter repository.ProductFilter, limit, offset int) ([]models.Product, int, error)
}

// CatalogService owns product CRUD and public catalog browsing. Write
// operations verify the caller owns the store the product belongs to.
type CatalogService struct {
	products productStore
	stores   storeReader
}

type ProductInput struct {
	StoreID     int64
	Name        string
	Description *string
	Category    *string
	Price       float64
	ImageURL    *string
	Stock       int
}

func NewCatalogService(products productStore, stores storeReader) *CatalogService {
	return &CatalogService{products: products, stores: stores}
}

func (s *CatalogService) ListProducts(
	ctx context.Context,
	filter repository.ProductFilter,
	page int,
	limit int,
) ([]models.Product, int, error) {
	if page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}

	return s.products.List(ctx, filter, limit, (page-1)*limit)
}

func (s *CatalogService) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	if productID <= 0 {
		return nil, ErrInvalidInput
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	return product, nil
}

func (s *CatalogService) CreateProduct(
	ctx context.Context,
	actorID int64,
	role string,
	input ProductInput,
) (*models.Product, error) {
	if role != "seller" {
		return nil, ErrForbidden
	}
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	store, err := s.stores.GetByID(ctx, input.StoreID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	if store.UserID != actorID {
		return nil, ErrForbidden
	}

	product := &models.Product{
		StoreID:     input.StoreID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Category:    input.Category,
		Price:       input.Price,
		ImageURL:    input.ImageURL,
		Stock:       input.Stock,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

func (s *CatalogService) UpdateProduct(
	ctx context.Context,
	actorID int64,
	productID int64,
	input ProductInput,
) (*models.Product, error) {
	product, err := s.ownedProduct(ctx, actorID, productID)
	if err != nil {
		return nil, err
	}

	input.StoreID = product.StoreID
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Category = input.Category
	product.Price = input.Price
	product.ImageURL = input.ImageURL
	product.Stock = input.Stock

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, actorID, productID int64) error {
	if _, err := s.ownedProduct(ctx, actorID, productID); err != nil {
		return err
	}
	return s.products.Delete(ctx, productID)
}

func (s *CatalogService) ownedProduct(
	ctx context.Context,
	actorID int64,
	productID int64,
) (*models.Product, error) {
	if productID <= 0 {
		return nil, ErrInvalidInput
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	store, err := s.stores.GetByID(ctx, product.StoreID)
	if err != nil {
		return nil, err
	}
	if store.UserID != actorID {
		return nil, ErrForbidden
	}

	return product, nil
}

func validateProductInput(input ProductInput) error {
	if input.StoreID <= 0 || strings.TrimSpace(input.Name) == "" {
		return ErrInvalidInput
	}
	if input.Price < 0 || input.Stock < 0 {
		return ErrInvalidInput
	}
	return nil
}
