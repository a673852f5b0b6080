package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acehealth-ng/mentorlog-api/internal/models"
	appErrors "github.com/acehealth-ng/mentorlog-api/pkg/errors"
)

type mockFollowUpRepo struct {
	items      map[string]*models.FollowUp
	lastFilter models.FollowUpFilter
}

func (m *mockFollowUpRepo) FindByID(ctx context.Context, id string) (*models.FollowUp, error) {
	if fu, ok := m.items[id]; ok {
		copy := *fu
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockFollowUpRepo) List(ctx context.Context, filter models.FollowUpFilter) ([]models.FollowUp, int, error) {
	m.lastFilter = filter
	var out []models.FollowUp
	for _, fu := range m.items {
		out = append(out, *fu)
	}
	return out, len(out), nil
}

func (m *mockFollowUpRepo) Create(ctx context.Context, fu *models.FollowUp) error {
	if m.items == nil {
		m.items = make(map[string]*models.FollowUp)
	}
	if fu.ID == "" {
		fu.ID = "fu-generated"
	}
	copy := *fu
	m.items[fu.ID] = &copy
	return nil
}

func (m *mockFollowUpRepo) Update(ctx context.Context, fu *models.FollowUp) error {
	copy := *fu
	m.items[fu.ID] = &copy
	return nil
}

func (m *mockFollowUpRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func newFollowUpFixture() (*mockUserDirectory, *mockLogRepo, *mockFollowUpRepo, *FollowUpService) {
	users, logs, _, _, _ := workflowFixture()
	repo := &mockFollowUpRepo{items: map[string]*models.FollowUp{
		"fu-1": {
			ID: "fu-1", MentorshipLogID: "log-submitted",
			ActionItem: "Restock HIV test kits", Status: models.FollowUpStatusPending,
			AssignedTo: strPtr("mentor-2"),
		},
	}}
	svc := NewFollowUpService(repo, logs, users, validator.New(), zap.NewNop())
	return users, logs, repo, svc
}

func TestListFollowUpsScopesMentors(t *testing.T) {
	_, _, repo, svc := newFollowUpFixture()

	_, _, err := svc.List(context.Background(), "mentor-1", models.FollowUpFilter{})
	require.NoError(t, err)
	assert.Equal(t, "mentor-1", repo.lastFilter.VisibleToMentor)

	_, _, err = svc.List(context.Background(), "sup-1", models.FollowUpFilter{})
	require.NoError(t, err)
	assert.Empty(t, repo.lastFilter.VisibleToMentor)
}

func TestAssigneeCanCompleteFollowUp(t *testing.T) {
	_, _, repo, svc := newFollowUpFixture()

	// mentor-2 cannot see the parent log but is the assignee.
	fu, err := svc.MarkCompleted(context.Background(), "mentor-2", "fu-1")
	require.NoError(t, err)
	assert.Equal(t, models.FollowUpStatusCompleted, fu.Status)
	require.NotNil(t, fu.CompletedAt)
	assert.Equal(t, models.FollowUpStatusCompleted, repo.items["fu-1"].Status)
}

func TestOwnerCanProgressFollowUp(t *testing.T) {
	_, _, _, svc := newFollowUpFixture()

	fu, err := svc.MarkInProgress(context.Background(), "mentor-1", "fu-1")
	require.NoError(t, err)
	assert.Equal(t, models.FollowUpStatusInProgress, fu.Status)
	assert.Nil(t, fu.CompletedAt)
}

func TestUnrelatedMentorCannotSeeFollowUp(t *testing.T) {
	_, _, repo, svc := newFollowUpFixture()
	repo.items["fu-1"].AssignedTo = nil

	_, err := svc.Get(context.Background(), "mentor-2", "fu-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestReopeningFollowUpClearsCompletion(t *testing.T) {
	_, _, repo, svc := newFollowUpFixture()

	_, err := svc.MarkCompleted(context.Background(), "mentor-1", "fu-1")
	require.NoError(t, err)
	require.NotNil(t, repo.items["fu-1"].CompletedAt)

	pending := models.FollowUpStatusPending
	fu, err := svc.Update(context.Background(), "mentor-1", "fu-1", models.UpdateFollowUpRequest{Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, models.FollowUpStatusPending, fu.Status)
	assert.Nil(t, fu.CompletedAt)
}

func TestAnySupervisorCanUpdateFollowUp(t *testing.T) {
	_, _, _, svc := newFollowUpFixture()

	notes := "Escalated to state team"
	fu, err := svc.Update(context.Background(), "sup-1", "fu-1", models.UpdateFollowUpRequest{Notes: &notes})
	require.NoError(t, err)
	require.NotNil(t, fu.Notes)
	assert.Equal(t, notes, *fu.Notes)

	// Supervision of the mentor is not required for status updates.
	_, err = svc.Update(context.Background(), "sup-2", "fu-1", models.UpdateFollowUpRequest{Notes: &notes})
	require.NoError(t, err)
}

func TestCreateFollowUpOnOwnLog(t *testing.T) {
	_, _, repo, svc := newFollowUpFixture()

	fu, err := svc.Create(context.Background(), "mentor-1", "log-submitted", models.FollowUpInput{
		ActionItem: "Schedule refresher training",
		AssignedTo: strPtr("11111111-1111-4111-8111-111111111111"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.FollowUpStatusPending, fu.Status)
	assert.Equal(t, "log-submitted", fu.MentorshipLogID)
	assert.Contains(t, repo.items, fu.ID)
}

func TestCreateFollowUpNotOwnerForbidden(t *testing.T) {
	_, _, _, svc := newFollowUpFixture()

	// The specialist sees the submitted log but cannot add items to it.
	_, err := svc.Create(context.Background(), "specialist-1", "log-submitted", models.FollowUpInput{ActionItem: "x"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestCreateFollowUpUnknownLog(t *testing.T) {
	_, _, _, svc := newFollowUpFixture()

	_, err := svc.Create(context.Background(), "mentor-1", "log-missing", models.FollowUpInput{ActionItem: "x"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestDeleteFollowUpBySupervisor(t *testing.T) {
	_, _, repo, svc := newFollowUpFixture()

	require.NoError(t, svc.Delete(context.Background(), "sup-2", "fu-1"))
	assert.Empty(t, repo.items)
}

func TestAssigneeCannotDeleteFollowUp(t *testing.T) {
	_, _, repo, svc := newFollowUpFixture()

	err := svc.Delete(context.Background(), "mentor-2", "fu-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Contains(t, repo.items, "fu-1")
}
