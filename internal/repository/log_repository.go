package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/acehealth-ng/mentorlog-api/internal/access"
	"github.com/acehealth-ng/mentorlog-api/internal/models"
)

// ErrStatusConflict is returned by Transition when the log is not in the
// expected workflow state. The returned log carries the actual status.
var ErrStatusConflict = errors.New("log not in expected status")

const logColumns = `l.id, l.facility_id, l.mentor_id, l.visit_date, l.status,
	l.interaction_type, l.duration_hours, l.duration_minutes, l.mentees_present,
	l.activities_conducted, l.activities_other_specify, l.thematic_areas, l.thematic_areas_other_specify,
	l.strengths_observed, l.gaps_identified, l.root_causes,
	l.challenges_encountered, l.solutions_proposed, l.support_needed, l.success_stories,
	l.attachment_types, l.created_at, l.updated_at, l.submitted_at, l.approved_at, l.approved_by,
	l.rejected_at, l.rejection_reason,
	u.full_name AS mentor_name, u.supervisor_id AS mentor_supervisor_id, f.name AS facility_name`

const logJoins = `FROM mentorship_logs l
	JOIN users u ON u.id = l.mentor_id
	JOIN facilities f ON f.id = l.facility_id`

// LogRepository provides database access for mentorship logs and their
// nested skills-transfer and follow-up rows.
type LogRepository struct {
	db *sqlx.DB
}

// NewLogRepository creates a new instance of LogRepository.
func NewLogRepository(db *sqlx.DB) *LogRepository {
	return &LogRepository{db: db}
}

// FindByID returns a log with mentor and facility names joined in. The
// nested collections are loaded separately.
func (r *LogRepository) FindByID(ctx context.Context, id string) (*models.MentorshipLog, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE l.id = $1 LIMIT 1`, logColumns, logJoins)
	var log models.MentorshipLog
	if err := r.db.GetContext(ctx, &log, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find log by id: %w", err)
	}
	if err := r.loadChildren(ctx, &log); err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *LogRepository) loadChildren(ctx context.Context, log *models.MentorshipLog) error {
	const skillsQuery = `SELECT id, mentorship_log_id, skill_knowledge_transferred, recipient_name, recipient_cadre, method, competency_level, followup_needed, created_at FROM skills_transfers WHERE mentorship_log_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &log.SkillsTransfers, skillsQuery, log.ID); err != nil {
		return fmt.Errorf("load skills transfers: %w", err)
	}
	const followUpsQuery = `SELECT id, mentorship_log_id, action_item, responsible_person, assigned_to, target_date, resources_needed, priority, status, notes, created_at, updated_at, completed_at FROM follow_ups WHERE mentorship_log_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &log.FollowUps, followUpsQuery, log.ID); err != nil {
		return fmt.Errorf("load follow ups: %w", err)
	}
	const attachmentsQuery = `SELECT id, mentorship_log_id, file_name, file_path, file_size, file_type, uploaded_by, created_at FROM attachments WHERE mentorship_log_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &log.Attachments, attachmentsQuery, log.ID); err != nil {
		return fmt.Errorf("load attachments: %w", err)
	}
	return nil
}

// List returns logs visible under the given scope, filtered and paginated.
func (r *LogRepository) List(ctx context.Context, filter models.LogFilter, scope access.ListScope) ([]models.MentorshipLog, int, error) {
	baseQuery := logJoins + ` WHERE 1=1`
	var conditions []string
	var args []interface{}

	if !scope.All {
		var window []string
		if len(scope.MentorIDs) > 0 {
			window = append(window, fmt.Sprintf("l.mentor_id = ANY($%d)", len(args)+1))
			args = append(args, pq.Array(scope.MentorIDs))
		}
		if len(scope.SpecialistAreas) > 0 {
			window = append(window, fmt.Sprintf("(l.status <> 'draft' AND l.thematic_areas ?| $%d)", len(args)+1))
			args = append(args, pq.Array(scope.SpecialistAreas))
		}
		if len(window) == 0 {
			return nil, 0, nil
		}
		conditions = append(conditions, "("+strings.Join(window, " OR ")+")")
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("l.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.FacilityID != "" {
		conditions = append(conditions, fmt.Sprintf("l.facility_id = $%d", len(args)+1))
		args = append(args, filter.FacilityID)
	}
	if filter.MentorID != "" {
		conditions = append(conditions, fmt.Sprintf("l.mentor_id = $%d", len(args)+1))
		args = append(args, filter.MentorID)
	}
	if filter.ThematicArea != "" {
		conditions = append(conditions, fmt.Sprintf("l.thematic_areas ? $%d", len(args)+1))
		args = append(args, filter.ThematicArea)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("l.visit_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("l.visit_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(f.name) LIKE $%d OR LOWER(u.full_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"visit_date": "l.visit_date",
		"created_at": "l.created_at",
		"updated_at": "l.updated_at",
		"status":     "l.status",
	}
	sortColumn, ok := allowedSorts[sortBy]
	if !ok {
		sortColumn = "l.visit_date"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", logColumns, baseQuery, sortColumn, sortOrder, pageSize, offset)

	var logs []models.MentorshipLog
	if err := r.db.SelectContext(ctx, &logs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list logs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count logs: %w", err)
	}

	return logs, total, nil
}

// Create inserts a log and its nested rows in one transaction.
func (r *LogRepository) Create(ctx context.Context, log *models.MentorshipLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	log.CreatedAt = now
	log.UpdatedAt = now
	if log.Status == "" {
		log.Status = models.LogStatusDraft
	}
	normalizeLogCollections(log)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create log: %w", err)
	}
	defer tx.Rollback()

	const query = `INSERT INTO mentorship_logs (id, facility_id, mentor_id, visit_date, status, interaction_type, duration_hours, duration_minutes, mentees_present, activities_conducted, activities_other_specify, thematic_areas, thematic_areas_other_specify, strengths_observed, gaps_identified, root_causes, challenges_encountered, solutions_proposed, support_needed, success_stories, attachment_types, created_at, updated_at) VALUES (:id, :facility_id, :mentor_id, :visit_date, :status, :interaction_type, :duration_hours, :duration_minutes, :mentees_present, :activities_conducted, :activities_other_specify, :thematic_areas, :thematic_areas_other_specify, :strengths_observed, :gaps_identified, :root_causes, :challenges_encountered, :solutions_proposed, :support_needed, :success_stories, :attachment_types, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create log: %w", err)
	}

	if err := insertChildren(ctx, tx, log); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create log: %w", err)
	}
	return nil
}

// Update rewrites a log's content fields and, when replaceChildren is
// set, replaces the nested skills-transfer and follow-up rows wholesale.
func (r *LogRepository) Update(ctx context.Context, log *models.MentorshipLog, replaceChildren bool) error {
	log.UpdatedAt = time.Now().UTC()
	normalizeLogCollections(log)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update log: %w", err)
	}
	defer tx.Rollback()

	const query = `UPDATE mentorship_logs SET facility_id = :facility_id, visit_date = :visit_date, interaction_type = :interaction_type, duration_hours = :duration_hours, duration_minutes = :duration_minutes, mentees_present = :mentees_present, activities_conducted = :activities_conducted, activities_other_specify = :activities_other_specify, thematic_areas = :thematic_areas, thematic_areas_other_specify = :thematic_areas_other_specify, strengths_observed = :strengths_observed, gaps_identified = :gaps_identified, root_causes = :root_causes, challenges_encountered = :challenges_encountered, solutions_proposed = :solutions_proposed, support_needed = :support_needed, success_stories = :success_stories, attachment_types = :attachment_types, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("update log: %w", err)
	}

	if replaceChildren {
		if _, err := tx.ExecContext(ctx, `DELETE FROM skills_transfers WHERE mentorship_log_id = $1`, log.ID); err != nil {
			return fmt.Errorf("clear skills transfers: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM follow_ups WHERE mentorship_log_id = $1`, log.ID); err != nil {
			return fmt.Errorf("clear follow ups: %w", err)
		}
		if err := insertChildren(ctx, tx, log); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update log: %w", err)
	}
	return nil
}

func insertChildren(ctx context.Context, tx *sqlx.Tx, log *models.MentorshipLog) error {
	now := time.Now().UTC()
	for i := range log.SkillsTransfers {
		st := &log.SkillsTransfers[i]
		if st.ID == "" {
			st.ID = uuid.NewString()
		}
		st.MentorshipLogID = log.ID
		if st.CreatedAt.IsZero() {
			st.CreatedAt = now
		}
		const query = `INSERT INTO skills_transfers (id, mentorship_log_id, skill_knowledge_transferred, recipient_name, recipient_cadre, method, competency_level, followup_needed, created_at) VALUES (:id, :mentorship_log_id, :skill_knowledge_transferred, :recipient_name, :recipient_cadre, :method, :competency_level, :followup_needed, :created_at)`
		if _, err := tx.NamedExecContext(ctx, query, st); err != nil {
			return fmt.Errorf("insert skills transfer: %w", err)
		}
	}
	for i := range log.FollowUps {
		fu := &log.FollowUps[i]
		if fu.ID == "" {
			fu.ID = uuid.NewString()
		}
		fu.MentorshipLogID = log.ID
		if fu.Status == "" {
			fu.Status = models.FollowUpStatusPending
		}
		if fu.CreatedAt.IsZero() {
			fu.CreatedAt = now
		}
		fu.UpdatedAt = now
		const query = `INSERT INTO follow_ups (id, mentorship_log_id, action_item, responsible_person, assigned_to, target_date, resources_needed, priority, status, notes, created_at, updated_at, completed_at) VALUES (:id, :mentorship_log_id, :action_item, :responsible_person, :assigned_to, :target_date, :resources_needed, :priority, :status, :notes, :created_at, :updated_at, :completed_at)`
		if _, err := tx.NamedExecContext(ctx, query, fu); err != nil {
			return fmt.Errorf("insert follow up: %w", err)
		}
	}
	return nil
}

func normalizeLogCollections(log *models.MentorshipLog) {
	if log.MenteesPresent == nil {
		log.MenteesPresent = models.MenteeList{}
	}
	if log.ActivitiesConducted == nil {
		log.ActivitiesConducted = models.StringList{}
	}
	if log.ThematicAreas == nil {
		log.ThematicAreas = models.StringList{}
	}
	if log.AttachmentTypes == nil {
		log.AttachmentTypes = models.StringList{}
	}
}

// Transition locks the log row, verifies the current workflow state and
// applies the mutation atomically. When the log is not in the expected
// state it returns the locked snapshot alongside ErrStatusConflict so
// callers can report the actual status.
func (r *LogRepository) Transition(ctx context.Context, id string, from models.LogStatus, mutate func(*models.MentorshipLog)) (*models.MentorshipLog, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback()

	const lockQuery = `SELECT id, facility_id, mentor_id, visit_date, status, thematic_areas, submitted_at, approved_at, approved_by, rejected_at, rejection_reason, created_at, updated_at FROM mentorship_logs WHERE id = $1 FOR UPDATE`
	var log models.MentorshipLog
	if err := tx.GetContext(ctx, &log, lockQuery, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock log for transition: %w", err)
	}

	if log.Status != from {
		return &log, ErrStatusConflict
	}

	mutate(&log)
	log.UpdatedAt = time.Now().UTC()

	const updateQuery = `UPDATE mentorship_logs SET status = :status, submitted_at = :submitted_at, approved_at = :approved_at, approved_by = :approved_by, rejected_at = :rejected_at, rejection_reason = :rejection_reason, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, updateQuery, &log); err != nil {
		return nil, fmt.Errorf("apply transition: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return &log, nil
}

// Delete removes a log and every dependent row in one transaction and
// returns the file paths of its attachments so stored files can be
// cleaned up afterwards.
func (r *LogRepository) Delete(ctx context.Context, id string) ([]string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete log: %w", err)
	}
	defer tx.Rollback()

	var paths []string
	if err := tx.SelectContext(ctx, &paths, `SELECT file_path FROM attachments WHERE mentorship_log_id = $1`, id); err != nil {
		return nil, fmt.Errorf("collect attachment paths: %w", err)
	}

	steps := []struct {
		name  string
		query string
	}{
		{"delete notifications", `DELETE FROM notifications WHERE related_log_id = $1`},
		{"delete comments", `DELETE FROM log_comments WHERE mentorship_log_id = $1`},
		{"delete attachments", `DELETE FROM attachments WHERE mentorship_log_id = $1`},
		{"delete follow ups", `DELETE FROM follow_ups WHERE mentorship_log_id = $1`},
		{"delete skills transfers", `DELETE FROM skills_transfers WHERE mentorship_log_id = $1`},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, id); err != nil {
			return nil, fmt.Errorf("%s: %w", step.name, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM mentorship_logs WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("delete log: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("delete log rows affected: %w", err)
	}
	if affected == 0 {
		return nil, sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete log: %w", err)
	}
	return paths, nil
}
