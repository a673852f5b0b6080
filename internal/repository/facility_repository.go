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

const facilityColumns = `id, name, code, location, state, lga, facility_type, contact_person, contact_email, contact_phone, created_at, updated_at`

// FacilityRepository provides database access for facilities.
type FacilityRepository struct {
	db *sqlx.DB
}

// NewFacilityRepository creates a new instance of FacilityRepository.
func NewFacilityRepository(db *sqlx.DB) *FacilityRepository {
	return &FacilityRepository{db: db}
}

// FindByID returns a facility by identifier.
func (r *FacilityRepository) FindByID(ctx context.Context, id string) (*models.Facility, error) {
	query := fmt.Sprintf(`SELECT %s FROM facilities WHERE id = $1 LIMIT 1`, facilityColumns)
	var facility models.Facility
	if err := r.db.GetContext(ctx, &facility, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find facility by id: %w", err)
	}
	return &facility, nil
}

// FindByCode returns a facility by its unique code.
func (r *FacilityRepository) FindByCode(ctx context.Context, code string) (*models.Facility, error) {
	query := fmt.Sprintf(`SELECT %s FROM facilities WHERE code = $1 LIMIT 1`, facilityColumns)
	var facility models.Facility
	if err := r.db.GetContext(ctx, &facility, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find facility by code: %w", err)
	}
	return &facility, nil
}

// List returns facilities based on filters with total count.
func (r *FacilityRepository) List(ctx context.Context, filter models.FacilityFilter) ([]models.Facility, int, error) {
	baseQuery := `FROM facilities WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("state = $%d", len(args)+1))
		args = append(args, filter.State)
	}
	if filter.LGA != "" {
		conditions = append(conditions, fmt.Sprintf("lga = $%d", len(args)+1))
		args = append(args, filter.LGA)
	}
	if filter.FacilityType != "" {
		conditions = append(conditions, fmt.Sprintf("facility_type = $%d", len(args)+1))
		args = append(args, filter.FacilityType)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(code) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":       true,
		"state":      true,
		"lga":        true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "name"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "ASC"
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", facilityColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var facilities []models.Facility
	if err := r.db.SelectContext(ctx, &facilities, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list facilities: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count facilities: %w", err)
	}

	return facilities, total, nil
}

// Create inserts a new facility.
func (r *FacilityRepository) Create(ctx context.Context, facility *models.Facility) error {
	if facility.ID == "" {
		facility.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if facility.CreatedAt.IsZero() {
		facility.CreatedAt = now
	}
	facility.UpdatedAt = now

	const query = `INSERT INTO facilities (id, name, code, location, state, lga, facility_type, contact_person, contact_email, contact_phone, created_at, updated_at) VALUES (:id, :name, :code, :location, :state, :lga, :facility_type, :contact_person, :contact_email, :contact_phone, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, facility); err != nil {
		return fmt.Errorf("create facility: %w", err)
	}
	return nil
}

// Update updates mutable fields of a facility.
func (r *FacilityRepository) Update(ctx context.Context, facility *models.Facility) error {
	facility.UpdatedAt = time.Now().UTC()
	const query = `UPDATE facilities SET name = :name, code = :code, location = :location, state = :state, lga = :lga, facility_type = :facility_type, contact_person = :contact_person, contact_email = :contact_email, contact_phone = :contact_phone, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, facility); err != nil {
		return fmt.Errorf("update facility: %w", err)
	}
	return nil
}

// CountLogs returns the number of mentorship logs referencing a facility.
func (r *FacilityRepository) CountLogs(ctx context.Context, facilityID string) (int, error) {
	const query = `SELECT COUNT(*) FROM mentorship_logs WHERE facility_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, facilityID); err != nil {
		return 0, fmt.Errorf("count facility logs: %w", err)
	}
	return count, nil
}

// Delete removes a facility. Callers must verify no logs reference it.
func (r *FacilityRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM facilities WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete facility: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete facility rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
