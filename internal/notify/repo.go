package notify

import (
	"context"
	"database/sql"

	"github.com/Xstatic72/alphasis/internal/apperr"
	"github.com/Xstatic72/alphasis/internal/model"
)

// Repository persists absence notifications in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes one notification.
func (r *Repository) Insert(ctx context.Context, n model.Notification) (model.Notification, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (notification_id, parent_id, student_id, subject_id, notice_date, message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, n.NotificationID, n.ParentID, n.StudentID, n.SubjectID, n.Date, n.Message)
	if err := row.Scan(&n.CreatedAt); err != nil {
		return model.Notification{}, apperr.FromPG(err)
	}
	return n, nil
}

// ListForParent returns a parent's notifications, newest first.
func (r *Repository) ListForParent(ctx context.Context, parentID string) ([]model.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT notification_id, parent_id, student_id, subject_id, notice_date, message, created_at
		FROM notifications WHERE parent_id = $1
		ORDER BY created_at DESC
	`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.NotificationID, &n.ParentID, &n.StudentID, &n.SubjectID, &n.Date, &n.Message, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
