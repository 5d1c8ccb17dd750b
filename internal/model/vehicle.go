package model

import (
	"time"

	"github.com/google/uuid"
)

type VehicleStatus string

const (
	VehicleStatusActive      VehicleStatus = "active"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
	VehicleStatusRetired     VehicleStatus = "retired"
)

type Vehicle struct {
	Base
	TenantID          uuid.UUID     `json:"tenant_id" db:"tenant_id"`
	RegistrationNo    string        `json:"registration_no" db:"registration_no"`
	Make              string        `json:"make" db:"make"`
	Model             string        `json:"model" db:"model"`
	Year              int           `json:"year" db:"year"`
	VIN               string        `json:"vin" db:"vin"`
	Status            VehicleStatus `json:"status" db:"status"`
	OdometerKM        int           `json:"odometer_km" db:"odometer_km"`
	NextMaintenanceAt *time.Time    `json:"next_maintenance_at,omitempty" db:"next_maintenance_at"`
	AssignedDriverID  *uuid.UUID    `json:"assigned_driver_id,omitempty" db:"assigned_driver_id"`
}

type CreateVehicleRequest struct {
	RegistrationNo string `json:"registration_no" binding:"required,max=20"`
	Make           string `json:"make" binding:"required"`
	Model          string `json:"model" binding:"required"`
	Year           int    `json:"year" binding:"required,gte=1980"`
	VIN            string `json:"vin" binding:"omitempty,len=17"`
	OdometerKM     int    `json:"odometer_km" binding:"gte=0"`
}

type UpdateVehicleRequest struct {
	Status            *string    `json:"status" binding:"omitempty,oneof=active maintenance retired"`
	OdometerKM        *int       `json:"odometer_km" binding:"omitempty,gte=0"`
	NextMaintenanceAt *time.Time `json:"next_maintenance_at"`
	AssignedDriverID  *string    `json:"assigned_driver_id" binding:"omitempty,uuid"`
}

type VehicleFilter struct {
	Pagination
	Status string `form:"status"`
	Search string `form:"search"`
}
