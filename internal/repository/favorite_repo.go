package repository

import (
	"context"

	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/models"
)

type FavoriteRepository struct {
	db DBTX
}

func NewFavoriteRepository(db DBTX) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, productID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM favorites WHERE user_id = $1 AND product_id = $2
		)
	`, userID, productID).Scan(&exists)
	return exists, err
}

func (r *FavoriteRepository) Create(ctx context.Context, userID, productID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO favorites (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING
	`, userID, productID)
	return err
}

func (r *FavoriteRepository) Delete(ctx context.Context, userID, productID int64) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM favorites WHERE user_id = $1 AND product_id = $2
	`, userID, productID)
	return err
}

// ListProducts returns the caller's favorited products, newest favorite first.
func (r *FavoriteRepository) ListProducts(ctx context.Context, userID int64) ([]models.Product, error) {
	query := `
		SELECT p.id, p.store_id, p.name, p.description, p.category, p.price, p.image_url, p.stock,
			   p.created_at, p.updated_at
		FROM favorites f
		JOIN products p ON p.id = f.product_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC, f.id DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		var product models.Product
		if err := rows.Scan(
			&product.ID,
			&product.StoreID,
			&product.Name,
			&product.Description,
			&product.Category,
			&product.Price,
			&product.ImageURL,
			&product.Stock,
			&product.CreatedAt,
			&product.UpdatedAt,
		); err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}
