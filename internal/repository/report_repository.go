package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/acehealth-ng/mentorlog-api/internal/models"
)

// ReportRepository runs the aggregate queries behind operational reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Summary returns overall programme counts.
func (r *ReportRepository) Summary(ctx context.Context) (*models.SummaryReport, error) {
	report := &models.SummaryReport{
		LogsByStatus:      map[string]int{},
		FollowUpsByStatus: map[string]int{},
	}

	if err := r.db.GetContext(ctx, &report.TotalLogs, `SELECT COUNT(*) FROM mentorship_logs`); err != nil {
		return nil, fmt.Errorf("count logs: %w", err)
	}
	if err := r.db.GetContext(ctx, &report.TotalFacilities, `SELECT COUNT(*) FROM facilities`); err != nil {
		return nil, fmt.Errorf("count facilities: %w", err)
	}
	if err := r.db.GetContext(ctx, &report.TotalMentors, `SELECT COUNT(*) FROM users WHERE role = 'mentor'`); err != nil {
		return nil, fmt.Errorf("count mentors: %w", err)
	}
	if err := r.db.GetContext(ctx, &report.TotalFollowUps, `SELECT COUNT(*) FROM follow_ups`); err != nil {
		return nil, fmt.Errorf("count follow ups: %w", err)
	}

	var logCounts []models.StatusCount
	if err := r.db.SelectContext(ctx, &logCounts, `SELECT status AS key, COUNT(*) AS count FROM mentorship_logs GROUP BY status`); err != nil {
		return nil, fmt.Errorf("group logs by status: %w", err)
	}
	for _, c := range logCounts {
		report.LogsByStatus[c.Key] = c.Count
	}

	var followUpCounts []models.StatusCount
	if err := r.db.SelectContext(ctx, &followUpCounts, `SELECT status AS key, COUNT(*) AS count FROM follow_ups GROUP BY status`); err != nil {
		return nil, fmt.Errorf("group follow ups by status: %w", err)
	}
	for _, c := range followUpCounts {
		report.FollowUpsByStatus[c.Key] = c.Count
	}

	return report, nil
}

func logsReportConditions(filter models.LogsReportFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("l.visit_date >= $%d", len(args)+1))
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("l.visit_date <= $%d", len(args)+1))
		args = append(args, *filter.EndDate)
	}
	if filter.MentorID != "" {
		conditions = append(conditions, fmt.Sprintf("l.mentor_id = $%d", len(args)+1))
		args = append(args, filter.MentorID)
	}
	if filter.FacilityID != "" {
		conditions = append(conditions, fmt.Sprintf("l.facility_id = $%d", len(args)+1))
		args = append(args, filter.FacilityID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("l.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	return where, args
}

// LogsReport breaks down logs by mentor, facility and state under the
// given filter.
func (r *ReportRepository) LogsReport(ctx context.Context, filter models.LogsReportFilter) (*models.LogsReport, error) {
	where, args := logsReportConditions(filter)
	report := &models.LogsReport{
		LogsByMentor:   []models.MentorLogCount{},
		LogsByFacility: []models.FacilityLogCount{},
		LogsByState:    []models.StateLogCount{},
	}

	countQuery := `SELECT COUNT(*) FROM mentorship_logs l` + where
	if err := r.db.GetContext(ctx, &report.TotalCount, countQuery, args...); err != nil {
		return nil, fmt.Errorf("count report logs: %w", err)
	}

	mentorQuery := `SELECT u.id AS mentor_id, u.full_name AS mentor_name, COUNT(l.id) AS count FROM mentorship_logs l JOIN users u ON u.id = l.mentor_id` + where + ` GROUP BY u.id, u.full_name ORDER BY count DESC`
	if err := r.db.SelectContext(ctx, &report.LogsByMentor, mentorQuery, args...); err != nil {
		return nil, fmt.Errorf("group logs by mentor: %w", err)
	}

	facilityQuery := `SELECT f.id AS facility_id, f.name AS facility_name, COUNT(l.id) AS count FROM mentorship_logs l JOIN facilities f ON f.id = l.facility_id` + where + ` GROUP BY f.id, f.name ORDER BY count DESC`
	if err := r.db.SelectContext(ctx, &report.LogsByFacility, facilityQuery, args...); err != nil {
		return nil, fmt.Errorf("group logs by facility: %w", err)
	}

	stateQuery := `SELECT f.state AS state, COUNT(l.id) AS count FROM mentorship_logs l JOIN facilities f ON f.id = l.facility_id` + where + ` GROUP BY f.state ORDER BY count DESC`
	if err := r.db.SelectContext(ctx, &report.LogsByState, stateQuery, args...); err != nil {
		return nil, fmt.Errorf("group logs by state: %w", err)
	}

	return report, nil
}

// FollowUpsReport summarizes action item progress. Overdue means a
// pending or in-progress item whose target date is before now.
func (r *ReportRepository) FollowUpsReport(ctx context.Context, filter models.FollowUpsReportFilter, now time.Time) (*models.FollowUpsReport, error) {
	var conditions []string
	var args []interface{}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)+1))
		args = append(args, filter.Priority)
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	report := &models.FollowUpsReport{ByStatus: map[string]int{}}

	if err := r.db.GetContext(ctx, &report.TotalCount, `SELECT COUNT(*) FROM follow_ups`+where, args...); err != nil {
		return nil, fmt.Errorf("count report follow ups: %w", err)
	}

	// Pending and overdue counts honor the priority filter but not the
	// status filter.
	pendingQuery := `SELECT COUNT(*) FROM follow_ups WHERE status = 'pending'`
	var pendingArgs []interface{}
	if filter.Priority != "" {
		pendingQuery += ` AND priority = $1`
		pendingArgs = append(pendingArgs, filter.Priority)
	}
	if err := r.db.GetContext(ctx, &report.PendingCount, pendingQuery, pendingArgs...); err != nil {
		return nil, fmt.Errorf("count pending follow ups: %w", err)
	}

	overdueQuery := `SELECT COUNT(*) FROM follow_ups WHERE status IN ('pending', 'in_progress') AND target_date < $1`
	overdueArgs := []interface{}{now}
	if filter.Priority != "" {
		overdueQuery += ` AND priority = $2`
		overdueArgs = append(overdueArgs, filter.Priority)
	}
	if err := r.db.GetContext(ctx, &report.OverdueCount, overdueQuery, overdueArgs...); err != nil {
		return nil, fmt.Errorf("count overdue follow ups: %w", err)
	}

	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, `SELECT status AS key, COUNT(*) AS count FROM follow_ups`+where+` GROUP BY status`, args...); err != nil {
		return nil, fmt.Errorf("group report follow ups: %w", err)
	}
	for _, c := range counts {
		report.ByStatus[c.Key] = c.Count
	}

	return report, nil
}

// FacilityCoverage lists facilities with visit counts and last visit
// dates, optionally restricted to one state.
func (r *ReportRepository) FacilityCoverage(ctx context.Context, state string) ([]models.FacilityCoverage, error) {
	query := `SELECT f.id AS facility_id, f.name AS facility_name, f.code AS facility_code, f.state, f.lga, COUNT(l.id) AS visit_count, MAX(l.visit_date) AS last_visit_date FROM facilities f LEFT JOIN mentorship_logs l ON l.facility_id = f.id`
	var args []interface{}
	if state != "" {
		query += ` WHERE f.state = $1`
		args = append(args, state)
	}
	query += ` GROUP BY f.id, f.name, f.code, f.state, f.lga ORDER BY f.name`

	var coverage []models.FacilityCoverage
	if err := r.db.SelectContext(ctx, &coverage, query, args...); err != nil {
		return nil, fmt.Errorf("facility coverage: %w", err)
	}
	return coverage, nil
}
