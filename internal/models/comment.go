package models

import "time"

// LogComment is feedback left on a mentorship log by a supervisor,
// specialist or administrator.
type LogComment struct {
	ID                  string    `db:"id" json:"id"`
	MentorshipLogID     string    `db:"mentorship_log_id" json:"mentorship_log_id"`
	UserID              string    `db:"user_id" json:"user_id"`
	CommentText         string    `db:"comment_text" json:"comment_text"`
	IsSpecialistComment bool      `db:"is_specialist_comment" json:"is_specialist_comment"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`

	// Populated by joins against users.
	UserName string   `db:"user_name" json:"user_name,omitempty"`
	UserRole UserRole `db:"user_role" json:"user_role,omitempty"`
}

// CreateCommentRequest is the payload for commenting on a log.
type CreateCommentRequest struct {
	CommentText string `json:"comment_text" validate:"required,min=1"`
}

// UpdateCommentRequest rewrites a comment's text.
type UpdateCommentRequest struct {
	CommentText string `json:"comment_text" validate:"required,min=1"`
}
