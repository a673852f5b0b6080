package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acehealth-ng/mentorlog-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "phone_number", "cadre", "organization", "specializations", "supervisor_id", "active", "last_login", "created_at", "updated_at"})
}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := userRows().
		AddRow("1", "mentor@example.com", "hash", "Mentor One", string(models.RoleMentor), nil, nil, nil, []byte(`["PMTCT"]`), nil, true, now, now, now)
	mock.ExpectQuery("SELECT .+ FROM users WHERE email = \\$1 LIMIT 1").
		WithArgs("mentor@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "mentor@example.com")
	require.NoError(t, err)
	assert.Equal(t, "mentor@example.com", user.Email)
	assert.Equal(t, models.StringList{"PMTCT"}, user.Specializations)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersWithSupervisorFilter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	listRows := userRows().
		AddRow("1", "a@example.com", "hash", "A", string(models.RoleMentor), nil, nil, nil, []byte(`[]`), "sup-1", true, now, now, now)
	mock.ExpectQuery("SELECT .+ FROM users WHERE 1=1 AND supervisor_id = \\$1 ORDER BY created_at DESC LIMIT 20 OFFSET 0").
		WithArgs("sup-1").
		WillReturnRows(listRows)

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1 AND supervisor_id = $1")).
		WithArgs("sup-1").
		WillReturnRows(countRows)

	users, total, err := repo.List(context.Background(), models.UserFilter{SupervisorID: "sup-1"})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSpecialistsForAreas(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := userRows().
		AddRow("2", "spec@example.com", "hash", "Specialist", string(models.RoleMentor), nil, nil, nil, []byte(`["PMTCT","TB/HIV"]`), nil, true, now, now, now)
	mock.ExpectQuery("SELECT .+ FROM users WHERE active = TRUE AND specializations").
		WillReturnRows(rows)

	users, err := repo.ListSpecialistsForAreas(context.Background(), []string{"PMTCT"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Specialist", users[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSpecialistsForAreasEmpty(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	users, err := repo.ListSpecialistsForAreas(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, users)
}

func TestMenteeIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id"}).AddRow("m1").AddRow("m2")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE supervisor_id = $1")).
		WithArgs("sup-1").
		WillReturnRows(rows)

	ids, err := repo.MenteeIDs(context.Background(), "sup-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDefaultsSpecializations(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{Email: "new@example.com", PasswordHash: "hash", FullName: "New User", Role: models.RoleMentor, Active: true}
	err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotNil(t, user.Specializations)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateRefreshToken(context.Background(), &models.RefreshToken{ID: "1", UserID: "u1", Token: "token", ExpiresAt: time.Now(), CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
