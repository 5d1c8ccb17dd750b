package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog records who did what to which entity. Append-only; rows are
// retained per tenant compliance requirements and swept by the worker.
type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	UserID     uuid.UUID       `json:"user_id" db:"user_id"`
	TenantID   *uuid.UUID      `json:"tenant_id,omitempty" db:"tenant_id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id" db:"entity_id"`
	Changes    json.RawMessage `json:"changes,omitempty" db:"changes"`
	IPAddress  string          `json:"ip_address" db:"ip_address"`
	UserAgent  string          `json:"user_agent" db:"user_agent"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

const (
	AuditActionCreate     = "create"
	AuditActionUpdate     = "update"
	AuditActionDelete     = "delete"
	AuditActionTransition = "transition"
	AuditActionLogin      = "login"

	AuditEntityLead        = "lead"
	AuditEntityOpportunity = "opportunity"
	AuditEntityActivity    = "activity"
	AuditEntityTenant      = "tenant"
	AuditEntityDriver      = "driver"
	AuditEntityVehicle     = "vehicle"
	AuditEntityDocument    = "document"
	AuditEntityTemplate    = "notification_template"
	AuditEntityUser        = "user"
)

type AuditLogFilter struct {
	Pagination
	UserID     string    `form:"user_id"`
	EntityType string    `form:"entity_type"`
	Action     string    `form:"action"`
	Since      time.Time `form:"since"`
	Until      time.Time `form:"until"`
}

// AuditStats aggregates audit activity for the admin dashboard.
type AuditStats struct {
	TotalLogs    int64          `json:"total_logs"`
	ActionCounts map[string]int `json:"action_counts"`
	EntityCounts map[string]int `json:"entity_counts"`
}
