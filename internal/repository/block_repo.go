package repository

import "context"

type BlockRepository struct {
	db DBTX
}

func NewBlockRepository(db DBTX) *BlockRepository {
	return &BlockRepository{db: db}
}

func (r *BlockRepository) Exists(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM blocks WHERE blocker_id = $1 AND blocked_id = $2
		)
	`, blockerID, blockedID).Scan(&exists)
	return exists, err
}

// Create is idempotent thanks to the unique (blocker_id, blocked_id) pair.
func (r *BlockRepository) Create(ctx context.Context, blockerID, blockedID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO blocks (blocker_id, blocked_id)
		VALUES ($1, $2)
		ON CONFLICT (blocker_id, blocked_id) DO NOTHING
	`, blockerID, blockedID)
	return err
}

func (r *BlockRepository) Delete(ctx context.Context, blockerID, blockedID int64) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM blocks WHERE blocker_id = $1 AND blocked_id = $2
	`, blockerID, blockedID)
	return err
}
