package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// NotificationType distinguishes the events that produce a notification.
type NotificationType string

const (
	// NotificationSpecialistLog is the fan-out sent to thematic-area
	// specialists when a matching log is submitted.
	NotificationSpecialistLog NotificationType = "specialist_log"
	NotificationComment       NotificationType = "comment"
	NotificationApproval      NotificationType = "approval"
	NotificationRejection     NotificationType = "rejection"
)

// Notification is a single in-app notification. Specialist fan-out rows
// carry ThematicArea; a partial unique index on
// (related_log_id, user_id, thematic_area) keeps re-submissions from
// producing duplicates.
type Notification struct {
	ID               string           `db:"id" json:"id"`
	UserID           string           `db:"user_id" json:"user_id"`
	NotificationType NotificationType `db:"notification_type" json:"notification_type"`
	Title            string           `db:"title" json:"title"`
	Message          string           `db:"message" json:"message"`
	RelatedLogID     *string          `db:"related_log_id" json:"related_log_id,omitempty"`
	RelatedCommentID *string          `db:"related_comment_id" json:"related_comment_id,omitempty"`
	ThematicArea     *string          `db:"thematic_area" json:"thematic_area,omitempty"`
	ExtraData        types.JSONText   `db:"extra_data" json:"extra_data,omitempty"`
	IsRead           bool             `db:"is_read" json:"is_read"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	ReadAt           *time.Time       `db:"read_at" json:"read_at,omitempty"`
}

// NotificationFilter captures filtering criteria for listing a user's
// notifications.
type NotificationFilter struct {
	UserID   string
	Type     *NotificationType
	Unread   *bool
	Page     int
	PageSize int
}

// UnreadCountResponse reports a user's unread notification count.
type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}
