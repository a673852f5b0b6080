package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acehealth-ng/mentorlog-api/internal/models"
	appErrors "github.com/acehealth-ng/mentorlog-api/pkg/errors"
)

type mockReportRepo struct {
	summary      *models.SummaryReport
	summaryCalls int
	logsReport   *models.LogsReport
	followUps    *models.FollowUpsReport
	coverage     []models.FacilityCoverage
}

func (m *mockReportRepo) Summary(ctx context.Context) (*models.SummaryReport, error) {
	m.summaryCalls++
	return m.summary, nil
}

func (m *mockReportRepo) LogsReport(ctx context.Context, filter models.LogsReportFilter) (*models.LogsReport, error) {
	return m.logsReport, nil
}

func (m *mockReportRepo) FollowUpsReport(ctx context.Context, filter models.FollowUpsReportFilter, now time.Time) (*models.FollowUpsReport, error) {
	return m.followUps, nil
}

func (m *mockReportRepo) FacilityCoverage(ctx context.Context, state string) ([]models.FacilityCoverage, error) {
	return m.coverage, nil
}

type mockReportCache struct {
	values map[string][]byte
}

func (m *mockReportCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockReportCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.values == nil {
		m.values = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func newReportFixture(repo *mockReportRepo, cacheEnabled bool) *ReportService {
	users, _, _, _, _ := workflowFixture()
	return NewReportService(repo, users, &mockReportCache{}, ReportCacheConfig{Enabled: cacheEnabled, TTL: time.Minute}, zap.NewNop())
}

func TestReportsRestrictedToSupervisorsAndAdmins(t *testing.T) {
	repo := &mockReportRepo{summary: &models.SummaryReport{TotalLogs: 5}}
	svc := newReportFixture(repo, false)

	_, err := svc.Summary(context.Background(), "mentor-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	report, err := svc.Summary(context.Background(), "sup-1")
	require.NoError(t, err)
	assert.Equal(t, 5, report.TotalLogs)
}

func TestSummaryReportServedFromCache(t *testing.T) {
	repo := &mockReportRepo{summary: &models.SummaryReport{TotalLogs: 5}}
	svc := newReportFixture(repo, true)

	_, err := svc.Summary(context.Background(), "admin-1")
	require.NoError(t, err)
	_, err = svc.Summary(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.summaryCalls)
}

func TestFacilityCoverageCounts(t *testing.T) {
	visit := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockReportRepo{coverage: []models.FacilityCoverage{
		{FacilityID: "fac-1", FacilityName: "Gwale PHC", VisitCount: 3, LastVisitDate: &visit},
		{FacilityID: "fac-2", FacilityName: "Dala PHC", VisitCount: 0},
	}}
	svc := newReportFixture(repo, false)

	report, err := svc.FacilityCoverage(context.Background(), "admin-1", "")
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalFacilities)
	assert.Equal(t, 1, report.VisitedCount)
	assert.Equal(t, 1, report.UnvisitedCount)
}

func TestExportFacilityCoverageCSV(t *testing.T) {
	visit := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockReportRepo{coverage: []models.FacilityCoverage{
		{FacilityID: "fac-1", FacilityName: "Gwale PHC", State: strPtr("Kano"), VisitCount: 3, LastVisitDate: &visit},
	}}
	svc := newReportFixture(repo, false)

	out, contentType, filename, err := svc.ExportFacilityCoverage(context.Background(), "admin-1", "", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Equal(t, "facility_coverage_report.csv", filename)
	body := string(out)
	assert.True(t, strings.Contains(body, "Gwale PHC"))
	assert.True(t, strings.Contains(body, "2026-02-01"))
}

func TestExportLogsUnsupportedFormat(t *testing.T) {
	repo := &mockReportRepo{logsReport: &models.LogsReport{}}
	svc := newReportFixture(repo, false)

	_, _, _, err := svc.ExportLogs(context.Background(), "admin-1", models.LogsReportFilter{}, "xlsx")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
