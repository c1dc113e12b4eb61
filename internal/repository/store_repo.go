package repository

import (
	"context"

	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/models"
)

type StoreRepository struct {
	db DBTX
}

func NewStoreRepository(db DBTX) *StoreRepository {
	return &StoreRepository{db: db}
}

func (r *StoreRepository) Create(ctx context.Context, store *models.Store) error {
	query := `
		INSERT INTO stores (user_id, name, description, logo_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, store.UserID, store.Name, store.Description, store.LogoURL).
		Scan(&store.ID, &store.CreatedAt, &store.UpdatedAt)
}

func (r *StoreRepository) Update(ctx context.Context, store *models.Store) error {
	query := `
		UPDATE stores
		SET name = $1,
			description = $2,
			logo_url = $3,
			updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query, store.Name, store.Description, store.LogoURL, store.ID).
		Scan(&store.UpdatedAt)
}

func (r *StoreRepository) GetByID(ctx context.Context, id int64) (*models.Store, error) {
	query := `
		SELECT id, user_id, name, description, logo_url, created_at, updated_at
		FROM stores
		WHERE id = $1
	`
	var store models.Store
	err := r.db.QueryRow(ctx, query, id).Scan(
		&store.ID,
		&store.UserID,
		&store.Name,
		&store.Description,
		&store.LogoURL,
		&store.CreatedAt,
		&store.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *StoreRepository) List(ctx context.Context) ([]models.Store, error) {
	query := `
		SELECT id, user_id, name, description, logo_url, created_at, updated_at
		FROM stores
		ORDER BY name ASC, id ASC
	`
	return r.scanStores(ctx, query)
}

func (r *StoreRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Store, error) {
	query := `
		SELECT id, user_id, name, description, logo_url, created_at, updated_at
		FROM stores
		WHERE user_id = $1
		ORDER BY name ASC, id ASC
	`
	return r.scanStores(ctx, query, ownerID)
}

func (r *StoreRepository) scanStores(ctx context.Context, query string, args ...any) ([]models.Store, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stores := make([]models.Store, 0)
	for rows.Next() {
		var store models.Store
		if err := rows.Scan(
			&store.ID,
			&store.UserID,
			&store.Name,
			&store.Description,
			&store.LogoURL,
			&store.CreatedAt,
			&store.UpdatedAt,
		); err != nil {
			return nil, err
		}
		stores = append(stores, store)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stores, nil
}
