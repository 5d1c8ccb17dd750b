package model

type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
	TenantStatusChurned   TenantStatus = "churned"
)

// Tenant is a customer organization. Almost all operational data (drivers,
// vehicles, documents) is scoped by tenant_id; CRM entities are not.
type Tenant struct {
	Base
	Name          string       `json:"name" db:"name"`
	Slug          string       `json:"slug" db:"slug"`
	CountryCode   string       `json:"country_code" db:"country_code"`
	DefaultLocale string       `json:"default_locale" db:"default_locale"`
	Status        TenantStatus `json:"status" db:"status"`
	ContactEmail  string       `json:"contact_email" db:"contact_email"`
}

type CreateTenantRequest struct {
	Name          string `json:"name" binding:"required"`
	Slug          string `json:"slug" binding:"required,lowercase"`
	CountryCode   string `json:"country_code" binding:"required,len=2"`
	DefaultLocale string `json:"default_locale"`
	ContactEmail  string `json:"contact_email" binding:"omitempty,email"`
}

type UpdateTenantRequest struct {
	Name          *string `json:"name"`
	CountryCode   *string `json:"country_code" binding:"omitempty,len=2"`
	DefaultLocale *string `json:"default_locale"`
	Status        *string `json:"status" binding:"omitempty,oneof=active suspended churned"`
	ContactEmail  *string `json:"contact_email" binding:"omitempty,email"`
}
