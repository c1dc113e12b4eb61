package repository

import (
	"context"

	"github.com/Alejandroperezitsur/TextiSurAD25-sub000/internal/models"
)

type NotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(
	ctx context.Context,
	userID int64,
	kind string,
	body string,
	conversationID *int64,
) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO notifications (user_id, kind, body, conversation_id)
		VALUES ($1, $2, $3, $4)
	`, userID, kind, body, conversationID)
	return err
}

func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	query := `
		SELECT id, user_id, kind, body, conversation_id, is_read, created_at
		FROM notifications
		WHERE id = $1
	`

	var notification models.Notification
	err := r.db.QueryRow(ctx, query, id).Scan(
		&notification.ID,
		&notification.UserID,
		&notification.Kind,
		&notification.Body,
		&notification.ConversationID,
		&notification.IsRead,
		&notification.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &notification, nil
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID int64) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, kind, body, conversation_id, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var notification models.Notification
		if err := rows.Scan(
			&notification.ID,
			&notification.UserID,
			&notification.Kind,
			&notification.Body,
			&notification.ConversationID,
			&notification.IsRead,
			&notification.CreatedAt,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE id = $1
	`, id)
	return err
}
