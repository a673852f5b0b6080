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

type mockUserRepo struct {
	users     map[string]*models.User
	logCounts map[string]int
	auditLogs []*models.AuditLog
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var users []models.User
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	if user, ok := m.users[id]; ok {
		user.Active = false
		return nil
	}
	return sql.ErrNoRows
}

func (m *mockUserRepo) CountLogsByMentor(ctx context.Context, userID string) (int, error) {
	return m.logCounts[userID], nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func userFixture() *mockUserRepo {
	return &mockUserRepo{
		users: map[string]*models.User{
			"mentor-1": {ID: "mentor-1", Email: "amina@example.org", FullName: "Amina Bello", Role: models.RoleMentor, Active: true, SupervisorID: strPtr("sup-1")},
			"mentor-2": {ID: "mentor-2", Email: "musa@example.org", FullName: "Musa Ibrahim", Role: models.RoleMentor, Active: true},
			"sup-1":    {ID: "sup-1", Email: "grace@example.org", FullName: "Grace Obi", Role: models.RoleSupervisor, Active: true},
			"admin-1":  {ID: "admin-1", Email: "admin@example.org", FullName: "Root Admin", Role: models.RoleAdmin, Active: true},
		},
		logCounts: map[string]int{"mentor-1": 4},
	}
}

func TestUserListMentorsForbidden(t *testing.T) {
	repo := userFixture()
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	_, _, err := svc.List(context.Background(), "mentor-1", models.UserFilter{})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	_, _, err = svc.List(context.Background(), "sup-1", models.UserFilter{})
	require.NoError(t, err)
}

func TestCreateUserAdminOnly(t *testing.T) {
	repo := userFixture()
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	req := models.CreateUserRequest{
		Email:    "new@example.org",
		Password: "s3cret-pass",
		FullName: "New Mentor",
		Role:     models.RoleMentor,
	}

	_, err := svc.Create(context.Background(), "sup-1", req, models.LoginRequest{})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	user, err := svc.Create(context.Background(), "admin-1", req, models.LoginRequest{})
	require.NoError(t, err)
	assert.True(t, user.Active)
	assert.NotEmpty(t, user.PasswordHash)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserCreate, repo.auditLogs[0].Action)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := userFixture()
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), "admin-1", models.CreateUserRequest{
		Email:    "Amina@Example.org",
		Password: "s3cret-pass",
		FullName: "Duplicate",
		Role:     models.RoleMentor,
	}, models.LoginRequest{})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestCreateUserSupervisorMustBeSupervisor(t *testing.T) {
	repo := userFixture()
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), "admin-1", models.CreateUserRequest{
		Email:        "new@example.org",
		Password:     "s3cret-pass",
		FullName:     "New Mentor",
		Role:         models.RoleMentor,
		SupervisorID: strPtr("mentor-2"),
	}, models.LoginRequest{})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestUpdateUserRoleMatrix(t *testing.T) {
	repo := userFixture()
	svc := NewUserService(repo, validator.New(), zap.NewNop())
	name := "Renamed"

	// Supervisors may update mentor profiles.
	updated, err := svc.Update(context.Background(), "sup-1", "mentor-1", models.UpdateUserRequest{FullName: &name}, models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.FullName)

	// Role changes are admin only.
	supervisorRole := models.RoleSupervisor
	_, err = svc.Update(context.Background(), "sup-1", "mentor-1", models.UpdateUserRequest{Role: &supervisorRole}, models.LoginRequest{})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	promoted, err := svc.Update(context.Background(), "admin-1", "mentor-1", models.UpdateUserRequest{Role: &supervisorRole}, models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSupervisor, promoted.Role)
}

func TestUpdateUserSelfProfile(t *testing.T) {
	repo := userFixture()
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	phone := "+2348012345678"
	updated, err := svc.Update(context.Background(), "mentor-1", "mentor-1", models.UpdateUserRequest{PhoneNumber: &phone}, models.LoginRequest{})
	require.NoError(t, err)
	require.NotNil(t, updated.PhoneNumber)
	assert.Equal(t, phone, *updated.PhoneNumber)

	// Mentors cannot touch other mentors.
	_, err = svc.Update(context.Background(), "mentor-1", "mentor-2", models.UpdateUserRequest{PhoneNumber: &phone}, models.LoginRequest{})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestUpdateUserActiveAdminOnly(t *testing.T) {
	repo := userFixture()
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	inactive := false
	_, err := svc.Update(context.Background(), "sup-1", "mentor-1", models.UpdateUserRequest{Active: &inactive}, models.LoginRequest{})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	updated, err := svc.Update(context.Background(), "admin-1", "mentor-1", models.UpdateUserRequest{Active: &inactive}, models.LoginRequest{})
	require.NoError(t, err)
	assert.False(t, updated.Active)
}

func TestUpdateUserDuplicateSpecializations(t *testing.T) {
	repo := userFixture()
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), "admin-1", "mentor-1", models.UpdateUserRequest{
		Specializations: []string{"PMTCT", "PMTCT"},
	}, models.LoginRequest{})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestUpdateUserSupervisorReferenceValidated(t *testing.T) {
	repo := userFixture()
	mentorUUID := "6ba7b810-9dad-41d1-80b4-00c04fd430c8"
	repo.users[mentorUUID] = &models.User{ID: mentorUUID, Email: "plain@example.org", FullName: "Plain Mentor", Role: models.RoleMentor, Active: true}
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	// The referenced user must exist.
	_, err := svc.Update(context.Background(), "admin-1", "mentor-1", models.UpdateUserRequest{
		SupervisorID: strPtr("6ba7b811-9dad-41d1-80b4-00c04fd430c8"),
	}, models.LoginRequest{})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	// And must actually hold the supervisor role.
	_, err = svc.Update(context.Background(), "admin-1", "mentor-1", models.UpdateUserRequest{
		SupervisorID: strPtr(mentorUUID),
	}, models.LoginRequest{})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, strPtr("sup-1"), repo.users["mentor-1"].SupervisorID, "failed updates leave the reference untouched")
}

func TestUpdateUserSelfSupervisionRejected(t *testing.T) {
	repo := userFixture()
	selfUUID := "6ba7b812-9dad-41d1-80b4-00c04fd430c8"
	repo.users[selfUUID] = &models.User{ID: selfUUID, Email: "loop@example.org", FullName: "Loop Mentor", Role: models.RoleMentor, Active: true}
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), "admin-1", selfUUID, models.UpdateUserRequest{
		SupervisorID: strPtr(selfUUID),
	}, models.LoginRequest{})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestDeleteUserWithLogsBlocked(t *testing.T) {
	repo := userFixture()
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "admin-1", "mentor-1", models.LoginRequest{})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)

	require.NoError(t, svc.Delete(context.Background(), "admin-1", "mentor-2", models.LoginRequest{}))
	assert.False(t, repo.users["mentor-2"].Active)
}

func TestDeleteUserAdminOnly(t *testing.T) {
	repo := userFixture()
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "sup-1", "mentor-2", models.LoginRequest{})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}
