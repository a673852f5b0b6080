package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acehealth-ng/mentorlog-api/internal/models"
)

const followUpColumns = `id, mentorship_log_id, action_item, responsible_person, assigned_to, target_date, resources_needed, priority, status, notes, created_at, updated_at, completed_at`

const followUpColumnsQualified = `fu.id, fu.mentorship_log_id, fu.action_item, fu.responsible_person, fu.assigned_to, fu.target_date, fu.resources_needed, fu.priority, fu.status, fu.notes, fu.created_at, fu.updated_at, fu.completed_at`

// FollowUpRepository provides database access for action items.
type FollowUpRepository struct {
	db *sqlx.DB
}

// NewFollowUpRepository creates a new instance of FollowUpRepository.
func NewFollowUpRepository(db *sqlx.DB) *FollowUpRepository {
	return &FollowUpRepository{db: db}
}

// FindByID returns an action item by identifier.
func (r *FollowUpRepository) FindByID(ctx context.Context, id string) (*models.FollowUp, error) {
	query := fmt.Sprintf(`SELECT %s FROM follow_ups WHERE id = $1 LIMIT 1`, followUpColumns)
	var fu models.FollowUp
	if err := r.db.GetContext(ctx, &fu, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find follow up by id: %w", err)
	}
	return &fu, nil
}

// List returns action items based on filters with total count.
func (r *FollowUpRepository) List(ctx context.Context, filter models.FollowUpFilter) ([]models.FollowUp, int, error) {
	baseQuery := `FROM follow_ups fu JOIN mentorship_logs l ON l.id = fu.mentorship_log_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.VisibleToMentor != "" {
		conditions = append(conditions, fmt.Sprintf("(l.mentor_id = $%d OR fu.assigned_to = $%d)", len(args)+1, len(args)+1))
		args = append(args, filter.VisibleToMentor)
	}
	if filter.LogID != "" {
		conditions = append(conditions, fmt.Sprintf("fu.mentorship_log_id = $%d", len(args)+1))
		args = append(args, filter.LogID)
	}
	if filter.AssignedTo != "" {
		conditions = append(conditions, fmt.Sprintf("fu.assigned_to = $%d", len(args)+1))
		args = append(args, filter.AssignedTo)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("fu.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("fu.priority = $%d", len(args)+1))
		args = append(args, filter.Priority)
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY fu.target_date NULLS LAST, fu.created_at LIMIT %d OFFSET %d", followUpColumnsQualified, baseQuery, pageSize, offset)

	var followUps []models.FollowUp
	if err := r.db.SelectContext(ctx, &followUps, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list follow ups: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count follow ups: %w", err)
	}

	return followUps, total, nil
}

// Create inserts a single action item on an existing log.
func (r *FollowUpRepository) Create(ctx context.Context, fu *models.FollowUp) error {
	if fu.ID == "" {
		fu.ID = uuid.NewString()
	}
	if fu.Status == "" {
		fu.Status = models.FollowUpStatusPending
	}
	now := time.Now().UTC()
	if fu.CreatedAt.IsZero() {
		fu.CreatedAt = now
	}
	fu.UpdatedAt = now
	const query = `INSERT INTO follow_ups (id, mentorship_log_id, action_item, responsible_person, assigned_to, target_date, resources_needed, priority, status, notes, created_at, updated_at, completed_at) VALUES (:id, :mentorship_log_id, :action_item, :responsible_person, :assigned_to, :target_date, :resources_needed, :priority, :status, :notes, :created_at, :updated_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, fu); err != nil {
		return fmt.Errorf("create follow up: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of an action item.
func (r *FollowUpRepository) Update(ctx context.Context, fu *models.FollowUp) error {
	fu.UpdatedAt = time.Now().UTC()
	const query = `UPDATE follow_ups SET action_item = :action_item, responsible_person = :responsible_person, assigned_to = :assigned_to, target_date = :target_date, resources_needed = :resources_needed, priority = :priority, status = :status, notes = :notes, updated_at = :updated_at, completed_at = :completed_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, fu); err != nil {
		return fmt.Errorf("update follow up: %w", err)
	}
	return nil
}

// Delete removes an action item.
func (r *FollowUpRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM follow_ups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete follow up: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
