package model

import (
	"time"

	"github.com/google/uuid"
)

type DriverStatus string

const (
	DriverStatusActive     DriverStatus = "active"
	DriverStatusSuspended  DriverStatus = "suspended"
	DriverStatusOffboarded DriverStatus = "offboarded"
)

type Driver struct {
	Base
	TenantID         uuid.UUID    `json:"tenant_id" db:"tenant_id"`
	Name             string       `json:"name" db:"name"`
	Email            string       `json:"email" db:"email"`
	Phone            string       `json:"phone" db:"phone"`
	LicenseNumber    string       `json:"license_number" db:"license_number"`
	LicenseExpiresAt *time.Time   `json:"license_expires_at,omitempty" db:"license_expires_at"`
	Status           DriverStatus `json:"status" db:"status"`
}

type CreateDriverRequest struct {
	Name             string     `json:"name" binding:"required,max=200"`
	Email            string     `json:"email" binding:"required,email"`
	Phone            string     `json:"phone"`
	LicenseNumber    string     `json:"license_number" binding:"required"`
	LicenseExpiresAt *time.Time `json:"license_expires_at"`
}

type UpdateDriverRequest struct {
	Name             *string    `json:"name" binding:"omitempty,max=200"`
	Phone            *string    `json:"phone"`
	LicenseNumber    *string    `json:"license_number"`
	LicenseExpiresAt *time.Time `json:"license_expires_at"`
	Status           *string    `json:"status" binding:"omitempty,oneof=active suspended offboarded"`
}

type DriverFilter struct {
	Pagination
	Status string `form:"status"`
	Search string `form:"search"`
}
