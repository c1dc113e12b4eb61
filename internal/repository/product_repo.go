package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/models"
)

type ProductRepository struct {
	db DBTX
}

type ProductFilter struct {
	StoreID  *int64
	Category *string
	Search   *string
	MinPrice *float64
	MaxPrice *float64
}

func NewProductRepository(db DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (store_id, name, description, category, price, image_url, stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		product.StoreID,
		product.Name,
		product.Description,
		product.Category,
		product.Price,
		product.ImageURL,
		product.Stock,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
}

func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	query := `
		UPDATE products
		SET name = $1,
			description = $2,
			category = $3,
			price = $4,
			image_url = $5,
			stock = $6,
			updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query,
		product.Name,
		product.Description,
		product.Category,
		product.Price,
		product.ImageURL,
		product.Stock,
		product.ID,
	).Scan(&product.UpdatedAt)
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	return err
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	query := `
		SELECT id, store_id, name, description, category, price, image_url, stock, created_at, updated_at
		FROM products
		WHERE id = $1
	`
	var product models.Product
	err := r.db.QueryRow(ctx, query, id).Scan(
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
	)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) List(
	ctx context.Context,
	filter ProductFilter,
	limit int,
	offset int,
) ([]models.Product, int, error) {
	clauses := make([]string, 0, 5)
	args := make([]any, 0, 5)

	addClause := func(condition string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(condition, len(args)))
	}

	if filter.StoreID != nil {
		addClause("store_id = $%d", *filter.StoreID)
	}
	if filter.Category != nil {
		addClause("category = $%d", *filter.Category)
	}
	if filter.Search != nil {
		addClause("name ILIKE '%%' || $%d || '%%'", *filter.Search)
	}
	if filter.MinPrice != nil {
		addClause("price >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		addClause("price <= $%d", *filter.MaxPrice)
	}

	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}

	totalQuery := fmt.Sprintf(`SELECT COUNT(*) FROM products %s`, where)
	var total int
	if err := r.db.QueryRow(ctx, totalQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, store_id, name, description, category, price, image_url, stock, created_at, updated_at
		FROM products
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
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
			return nil, 0, err
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}
