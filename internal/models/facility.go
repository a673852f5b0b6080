package models

import "time"

// Facility represents a health facility where mentorship visits happen.
type Facility struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Code          *string   `db:"code" json:"code,omitempty"`
	Location      *string   `db:"location" json:"location,omitempty"`
	State         *string   `db:"state" json:"state,omitempty"`
	LGA           *string   `db:"lga" json:"lga,omitempty"`
	FacilityType  *string   `db:"facility_type" json:"facility_type,omitempty"`
	ContactPerson *string   `db:"contact_person" json:"contact_person,omitempty"`
	ContactEmail  *string   `db:"contact_email" json:"contact_email,omitempty"`
	ContactPhone  *string   `db:"contact_phone" json:"contact_phone,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// CreateFacilityRequest is the payload for registering a facility.
type CreateFacilityRequest struct {
	Name          string  `json:"name" validate:"required,min=2,max=255"`
	Code          *string `json:"code,omitempty" validate:"omitempty,max=50"`
	Location      *string `json:"location,omitempty" validate:"omitempty,max=255"`
	State         *string `json:"state,omitempty" validate:"omitempty,max=100"`
	LGA           *string `json:"lga,omitempty" validate:"omitempty,max=100"`
	FacilityType  *string `json:"facility_type,omitempty" validate:"omitempty,max=100"`
	ContactPerson *string `json:"contact_person,omitempty" validate:"omitempty,max=255"`
	ContactEmail  *string `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone  *string `json:"contact_phone,omitempty" validate:"omitempty,max=20"`
}

// UpdateFacilityRequest updates facility attributes; all fields optional.
type UpdateFacilityRequest struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Code          *string `json:"code,omitempty" validate:"omitempty,max=50"`
	Location      *string `json:"location,omitempty" validate:"omitempty,max=255"`
	State         *string `json:"state,omitempty" validate:"omitempty,max=100"`
	LGA           *string `json:"lga,omitempty" validate:"omitempty,max=100"`
	FacilityType  *string `json:"facility_type,omitempty" validate:"omitempty,max=100"`
	ContactPerson *string `json:"contact_person,omitempty" validate:"omitempty,max=255"`
	ContactEmail  *string `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone  *string `json:"contact_phone,omitempty" validate:"omitempty,max=20"`
}

// FacilityFilter captures filtering criteria for listing facilities.
type FacilityFilter struct {
	State        string
	LGA          string
	FacilityType string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
