package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acehealth-ng/mentorlog-api/internal/models"
)

// CommentRepository provides database access for log comments.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new instance of CommentRepository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// FindByID returns a comment with author details joined in.
func (r *CommentRepository) FindByID(ctx context.Context, id string) (*models.LogComment, error) {
	const query = `SELECT c.id, c.mentorship_log_id, c.user_id, c.comment_text, c.is_specialist_comment, c.created_at, c.updated_at, u.full_name AS user_name, u.role AS user_role FROM log_comments c JOIN users u ON u.id = c.user_id WHERE c.id = $1 LIMIT 1`
	var comment models.LogComment
	if err := r.db.GetContext(ctx, &comment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find comment by id: %w", err)
	}
	return &comment, nil
}

// ListByLog returns all comments on a log, oldest first.
func (r *CommentRepository) ListByLog(ctx context.Context, logID string) ([]models.LogComment, error) {
	const query = `SELECT c.id, c.mentorship_log_id, c.user_id, c.comment_text, c.is_specialist_comment, c.created_at, c.updated_at, u.full_name AS user_name, u.role AS user_role FROM log_comments c JOIN users u ON u.id = c.user_id WHERE c.mentorship_log_id = $1 ORDER BY c.created_at`
	var comments []models.LogComment
	if err := r.db.SelectContext(ctx, &comments, query, logID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// Create stores a new comment.
func (r *CommentRepository) Create(ctx context.Context, comment *models.LogComment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}
	comment.UpdatedAt = now
	const query = `INSERT INTO log_comments (id, mentorship_log_id, user_id, comment_text, is_specialist_comment, created_at, updated_at) VALUES (:id, :mentorship_log_id, :user_id, :comment_text, :is_specialist_comment, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// UpdateText rewrites a comment's text.
func (r *CommentRepository) UpdateText(ctx context.Context, id, text string) error {
	const query = `UPDATE log_comments SET comment_text = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, text, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update comment rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a comment.
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM log_comments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete comment rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
