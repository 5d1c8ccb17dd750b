package model

import (
	"time"

	"github.com/google/uuid"
)

type DocumentType string

const (
	DocumentTypeRegistration DocumentType = "registration"
	DocumentTypeInsurance    DocumentType = "insurance"
	DocumentTypeLicense      DocumentType = "license"
	DocumentTypeContract     DocumentType = "contract"
	DocumentTypeOther        DocumentType = "other"
)

type DocumentStatus string

const (
	DocumentStatusPlaceholder DocumentStatus = "placeholder"
	DocumentStatusUploaded    DocumentStatus = "uploaded"
	DocumentStatusExpired     DocumentStatus = "expired"
)

type DocumentEntity string

const (
	DocumentEntityDriver  DocumentEntity = "driver"
	DocumentEntityVehicle DocumentEntity = "vehicle"
	DocumentEntityTenant  DocumentEntity = "tenant"
)

// Document is a compliance record attached to a driver, vehicle or the tenant
// itself. Vehicle creation seeds placeholder rows for the required types.
type Document struct {
	Base
	TenantID   uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	EntityType DocumentEntity `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID      `json:"entity_id" db:"entity_id"`
	Type       DocumentType   `json:"type" db:"type"`
	Status     DocumentStatus `json:"status" db:"status"`
	FileName   string         `json:"file_name" db:"file_name"`
	FileSize   int64          `json:"file_size" db:"file_size"`
	MimeType   string         `json:"mime_type" db:"mime_type"`
	StorageKey string         `json:"storage_key" db:"storage_key"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty" db:"expires_at"`
}

type CreateDocumentRequest struct {
	EntityType DocumentEntity `json:"entity_type" binding:"required,oneof=driver vehicle tenant"`
	EntityID   string         `json:"entity_id" binding:"required,uuid"`
	Type       DocumentType   `json:"type" binding:"required,oneof=registration insurance license contract other"`
	FileName   string         `json:"file_name" binding:"required"`
	FileSize   int64          `json:"file_size" binding:"gte=0"`
	MimeType   string         `json:"mime_type"`
	StorageKey string         `json:"storage_key"`
	ExpiresAt  *time.Time     `json:"expires_at"`
}

type DocumentFilter struct {
	Pagination
	EntityType string `form:"entity_type"`
	EntityID   string `form:"entity_id"`
	Type       string `form:"type"`
	Status     string `form:"status"`
}
