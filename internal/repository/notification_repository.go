package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/acehealth-ng/mentorlog-api/internal/models"
)

const notificationColumns = `id, user_id, notification_type, title, message, related_log_id, related_comment_id, thematic_area, extra_data, is_read, created_at, read_at`

// NotificationRepository provides database access for notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new instance of NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create stores a notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, user_id, notification_type, title, message, related_log_id, related_comment_id, thematic_area, extra_data, is_read, created_at, read_at) VALUES (:id, :user_id, :notification_type, :title, :message, :related_log_id, :related_comment_id, :thematic_area, :extra_data, :is_read, :created_at, :read_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// CreateSpecialistFanOut inserts a specialist notification, silently
// skipping duplicates for the same (log, specialist, area) triple. A
// partial unique index on specialist_log rows backs the conflict
// target, so re-submitting a log never double-notifies. Returns whether
// a row was actually inserted.
func (r *NotificationRepository) CreateSpecialistFanOut(ctx context.Context, n *models.Notification) (bool, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, user_id, notification_type, title, message, related_log_id, related_comment_id, thematic_area, extra_data, is_read, created_at, read_at) VALUES (:id, :user_id, :notification_type, :title, :message, :related_log_id, :related_comment_id, :thematic_area, :extra_data, :is_read, :created_at, :read_at) ON CONFLICT (related_log_id, user_id, thematic_area) WHERE notification_type = 'specialist_log' DO NOTHING`
	result, err := r.db.NamedExecContext(ctx, query, n)
	if err != nil {
		return false, fmt.Errorf("create specialist notification: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("specialist notification rows affected: %w", err)
	}
	return affected > 0, nil
}

// List returns a user's notifications based on filters with total count.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	baseQuery := `FROM notifications WHERE user_id = $1`
	args := []interface{}{filter.UserID}
	var conditions []string

	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("notification_type = $%d", len(args)+1))
		args = append(args, *filter.Type)
	}
	if filter.Unread != nil {
		conditions = append(conditions, fmt.Sprintf("is_read = $%d", len(args)+1))
		args = append(args, !*filter.Unread)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", notificationColumns, baseQuery, pageSize, offset)

	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	return notifications, total, nil
}

// UnreadCount returns how many unread notifications a user has.
func (r *NotificationRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks a single notification read, scoped to its recipient.
// Returns sql.ErrNoRows when the notification does not exist or belongs
// to someone else.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	const query = `UPDATE notifications SET is_read = TRUE, read_at = $3 WHERE id = $1 AND user_id = $2 AND is_read = FALSE`
	result, err := r.db.ExecContext(ctx, query, id, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish already-read from missing so callers can treat the
		// former as a no-op.
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM notifications WHERE id = $1 AND user_id = $2)`, id, userID); err != nil {
			return fmt.Errorf("check notification exists: %w", err)
		}
		if !exists {
			return sql.ErrNoRows
		}
	}
	return nil
}

// MarkManyRead marks the given notifications read, scoped to the
// recipient. Unknown or foreign identifiers are silently skipped.
// Returns the number updated.
func (r *NotificationRepository) MarkManyRead(ctx context.Context, ids []string, userID string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const query = `UPDATE notifications SET is_read = TRUE, read_at = $3 WHERE id = ANY($1) AND user_id = $2 AND is_read = FALSE`
	result, err := r.db.ExecContext(ctx, query, pq.Array(ids), userID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark notifications read rows affected: %w", err)
	}
	return int(affected), nil
}

// MarkAllRead marks every unread notification of a user as read and
// returns the number updated.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	const query = `UPDATE notifications SET is_read = TRUE, read_at = $2 WHERE user_id = $1 AND is_read = FALSE`
	result, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all read rows affected: %w", err)
	}
	return int(affected), nil
}

// Delete removes a notification, scoped to its recipient.
func (r *NotificationRepository) Delete(ctx context.Context, id, userID string) error {
	const query = `DELETE FROM notifications WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete notification rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
