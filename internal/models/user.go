package models

import "time"

// UserRole represents the available roles for the access-control system.
type UserRole string

const (
	RoleMentor     UserRole = "mentor"
	RoleSupervisor UserRole = "supervisor"
	RoleAdmin      UserRole = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleMentor, RoleSupervisor, RoleAdmin:
		return true
	}
	return false
}

// User represents an application user stored in the users table.
// Specializations lists the thematic areas a user acts as specialist for;
// it is consulted when fanning out notifications for submitted logs.
type User struct {
	ID              string     `db:"id" json:"id"`
	Email           string     `db:"email" json:"email"`
	PasswordHash    string     `db:"password_hash" json:"-"`
	FullName        string     `db:"full_name" json:"full_name"`
	Role            UserRole   `db:"role" json:"role"`
	PhoneNumber     *string    `db:"phone_number" json:"phone_number,omitempty"`
	Cadre           *string    `db:"cadre" json:"cadre,omitempty"`
	Organization    *string    `db:"organization" json:"organization,omitempty"`
	Specializations StringList `db:"specializations" json:"specializations"`
	SupervisorID    *string    `db:"supervisor_id" json:"supervisor_id,omitempty"`
	Active          bool       `db:"active" json:"active"`
	LastLogin       *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// UserInfo is the compact user shape embedded in log, comment and
// notification payloads.
type UserInfo struct {
	ID       string   `db:"id" json:"id"`
	FullName string   `db:"full_name" json:"full_name"`
	Email    string   `db:"email" json:"email"`
	Role     UserRole `db:"role" json:"role"`
}

// Info returns the compact representation of the user.
func (u *User) Info() UserInfo {
	return UserInfo{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: u.Role}
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role         *UserRole
	Active       *bool
	SupervisorID string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// CreateUserRequest is the payload for registering a new user.
type CreateUserRequest struct {
	Email           string   `json:"email" validate:"required,email"`
	Password        string   `json:"password" validate:"required,min=8"`
	FullName        string   `json:"full_name" validate:"required,min=2,max=120"`
	Role            UserRole `json:"role" validate:"required,oneof=mentor supervisor admin"`
	PhoneNumber     *string  `json:"phone_number,omitempty" validate:"omitempty,max=20"`
	Cadre           *string  `json:"cadre,omitempty" validate:"omitempty,max=120"`
	Organization    *string  `json:"organization,omitempty" validate:"omitempty,max=200"`
	Specializations []string `json:"specializations,omitempty" validate:"omitempty,unique,dive,min=1"`
	SupervisorID    *string  `json:"supervisor_id,omitempty" validate:"omitempty,uuid4"`
}

// UpdateUserRequest is the payload for updating an existing user. All
// fields are optional; role changes are restricted to administrators.
type UpdateUserRequest struct {
	Email           *string   `json:"email,omitempty" validate:"omitempty,email"`
	FullName        *string   `json:"full_name,omitempty" validate:"omitempty,min=2,max=120"`
	Role            *UserRole `json:"role,omitempty" validate:"omitempty,oneof=mentor supervisor admin"`
	PhoneNumber     *string   `json:"phone_number,omitempty" validate:"omitempty,max=20"`
	Cadre           *string   `json:"cadre,omitempty" validate:"omitempty,max=120"`
	Organization    *string   `json:"organization,omitempty" validate:"omitempty,max=200"`
	Specializations []string  `json:"specializations,omitempty" validate:"omitempty,unique,dive,min=1"`
	SupervisorID    *string   `json:"supervisor_id,omitempty" validate:"omitempty,uuid4"`
	Active          *bool     `json:"active,omitempty"`
}
