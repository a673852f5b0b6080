package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/acehealth-ng/mentorlog-api/internal/models"
	appErrors "github.com/acehealth-ng/mentorlog-api/pkg/errors"
	"github.com/acehealth-ng/mentorlog-api/pkg/export"
)

type reportRepository interface {
	Summary(ctx context.Context) (*models.SummaryReport, error)
	LogsReport(ctx context.Context, filter models.LogsReportFilter) (*models.LogsReport, error)
	FollowUpsReport(ctx context.Context, filter models.FollowUpsReportFilter, now time.Time) (*models.FollowUpsReport, error)
	FacilityCoverage(ctx context.Context, state string) ([]models.FacilityCoverage, error)
}

type reportUserDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ReportCacheConfig tunes report result caching.
type ReportCacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ReportService produces programme-level aggregates for supervisors and
// admins, with optional Redis caching and CSV/PDF export.
type ReportService struct {
	repo   reportRepository
	users  reportUserDirectory
	cache  reportCache
	config ReportCacheConfig
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewReportService creates an instance of ReportService.
func NewReportService(repo reportRepository, users reportUserDirectory, cache reportCache, config ReportCacheConfig, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TTL <= 0 {
		config.TTL = 10 * time.Minute
	}
	return &ReportService{
		repo:   repo,
		users:  users,
		cache:  cache,
		config: config,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// Summary returns overall programme counts.
func (s *ReportService) Summary(ctx context.Context, actorID string) (*models.SummaryReport, error) {
	if err := s.requireReportAccess(ctx, actorID); err != nil {
		return nil, err
	}

	const cacheKey = "reports:summary"
	if s.cacheEnabled() {
		var cached models.SummaryReport
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	report, err := s.repo.Summary(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build summary report")
	}
	s.cacheSet(ctx, cacheKey, report)
	return report, nil
}

// Logs breaks down mentorship logs by mentor, facility and state.
func (s *ReportService) Logs(ctx context.Context, actorID string, filter models.LogsReportFilter) (*models.LogsReport, error) {
	if err := s.requireReportAccess(ctx, actorID); err != nil {
		return nil, err
	}

	cacheKey := logsReportCacheKey(filter)
	if s.cacheEnabled() {
		var cached models.LogsReport
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	report, err := s.repo.LogsReport(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build logs report")
	}
	s.cacheSet(ctx, cacheKey, report)
	return report, nil
}

// FollowUps summarizes action item progress, including overdue items.
func (s *ReportService) FollowUps(ctx context.Context, actorID string, filter models.FollowUpsReportFilter) (*models.FollowUpsReport, error) {
	if err := s.requireReportAccess(ctx, actorID); err != nil {
		return nil, err
	}
	report, err := s.repo.FollowUpsReport(ctx, filter, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build follow ups report")
	}
	return report, nil
}

// FacilityCoverage lists facilities with their visit counts and flags
// the never-visited ones.
func (s *ReportService) FacilityCoverage(ctx context.Context, actorID, state string) (*models.FacilityCoverageReport, error) {
	if err := s.requireReportAccess(ctx, actorID); err != nil {
		return nil, err
	}

	facilities, err := s.repo.FacilityCoverage(ctx, state)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build facility coverage report")
	}

	report := &models.FacilityCoverageReport{
		TotalFacilities: len(facilities),
		Facilities:      facilities,
	}
	for _, f := range facilities {
		if f.VisitCount > 0 {
			report.VisitedCount++
		}
	}
	report.UnvisitedCount = report.TotalFacilities - report.VisitedCount
	return report, nil
}

// ExportLogs renders the logs report as CSV or PDF.
func (s *ReportService) ExportLogs(ctx context.Context, actorID string, filter models.LogsReportFilter, format string) ([]byte, string, string, error) {
	report, err := s.Logs(ctx, actorID, filter)
	if err != nil {
		return nil, "", "", err
	}

	data := export.Dataset{
		Headers: []string{"Mentor", "Logs"},
	}
	for _, row := range report.LogsByMentor {
		data.Rows = append(data.Rows, []string{row.MentorName, strconv.Itoa(row.Count)})
	}
	return s.render(data, "Mentorship Logs by Mentor", "mentorship_logs_report", format)
}

// ExportFacilityCoverage renders the coverage report as CSV or PDF.
func (s *ReportService) ExportFacilityCoverage(ctx context.Context, actorID, state, format string) ([]byte, string, string, error) {
	report, err := s.FacilityCoverage(ctx, actorID, state)
	if err != nil {
		return nil, "", "", err
	}

	data := export.Dataset{
		Headers: []string{"Facility", "Code", "State", "LGA", "Visits", "Last Visit"},
	}
	for _, f := range report.Facilities {
		data.Rows = append(data.Rows, []string{
			f.FacilityName,
			derefString(f.FacilityCode),
			derefString(f.State),
			derefString(f.LGA),
			strconv.Itoa(f.VisitCount),
			formatDate(f.LastVisitDate),
		})
	}
	return s.render(data, "Facility Coverage", "facility_coverage_report", format)
}

func (s *ReportService) render(data export.Dataset, title, baseName, format string) ([]byte, string, string, error) {
	switch format {
	case "csv", "":
		out, err := s.csv.Render(data)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return out, "text/csv", baseName + ".csv", nil
	case "pdf":
		out, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return out, "application/pdf", baseName + ".pdf", nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *ReportService) requireReportAccess(ctx context.Context, actorID string) error {
	actor, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrUnauthorized, "acting user no longer exists")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load acting user")
	}
	if !actor.Active {
		return appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleSupervisor {
		return appErrors.Clone(appErrors.ErrForbidden, "reports are restricted to supervisors and administrators")
	}
	return nil
}

func (s *ReportService) cacheEnabled() bool {
	return s.config.Enabled && s.cache != nil
}

func (s *ReportService) cacheSet(ctx context.Context, key string, value interface{}) {
	if !s.cacheEnabled() {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.config.TTL); err != nil {
		s.logger.Warn("failed to cache report", zap.String("key", key), zap.Error(err))
	}
}

func logsReportCacheKey(filter models.LogsReportFilter) string {
	start, end := "", ""
	if filter.StartDate != nil {
		start = filter.StartDate.Format("2006-01-02")
	}
	if filter.EndDate != nil {
		end = filter.EndDate.Format("2006-01-02")
	}
	status := ""
	if filter.Status != nil {
		status = string(*filter.Status)
	}
	return fmt.Sprintf("reports:logs:%s:%s:%s:%s:%s", start, end, filter.MentorID, filter.FacilityID, status)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
