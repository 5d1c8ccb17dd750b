package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fleetyard/backoffice-api/internal/model"
)

type LeadRepository interface {
	Create(ctx context.Context, lead *model.Lead) error
	Get(ctx context.Context, id uuid.UUID) (*model.Lead, error)
	GetByEmail(ctx context.Context, email string) (*model.Lead, error)
	Update(ctx context.Context, lead *model.Lead) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.LeadStatus) error
	SoftDelete(ctx context.Context, id, deletedBy uuid.UUID) error
	List(ctx context.Context, filter *model.LeadFilter) ([]*model.Lead, int, error)
}

type OpportunityRepository interface {
	Create(ctx context.Context, opp *model.Opportunity) error
	Get(ctx context.Context, id uuid.UUID) (*model.Opportunity, error)
	Update(ctx context.Context, opp *model.Opportunity) error
	SoftDelete(ctx context.Context, id, deletedBy uuid.UUID) error
	List(ctx context.Context, filter *model.OpportunityFilter) ([]*model.Opportunity, int, error)
	PipelineSummary(ctx context.Context, rottingBefore time.Time) ([]*model.PipelineStageSummary, error)
}

type ActivityRepository interface {
	Create(ctx context.Context, activity *model.Activity) error
	Get(ctx context.Context, id uuid.UUID) (*model.Activity, error)
	Update(ctx context.Context, activity *model.Activity) error
	Complete(ctx context.Context, id uuid.UUID, completedAt time.Time) error
	SoftDelete(ctx context.Context, id, deletedBy uuid.UUID) error
	List(ctx context.Context, filter *model.ActivityFilter) ([]*model.Activity, int, error)
}

type TenantRepository interface {
	Create(ctx context.Context, tenant *model.Tenant) error
	Get(ctx context.Context, id uuid.UUID) (*model.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*model.Tenant, error)
	Update(ctx context.Context, tenant *model.Tenant) error
	SoftDelete(ctx context.Context, id, deletedBy uuid.UUID) error
	List(ctx context.Context, p *model.Pagination) ([]*model.Tenant, int, error)
}

type DriverRepository interface {
	Create(ctx context.Context, driver *model.Driver) error
	Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Driver, error)
	Update(ctx context.Context, driver *model.Driver) error
	SoftDelete(ctx context.Context, tenantID, id, deletedBy uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter *model.DriverFilter) ([]*model.Driver, int, error)
}

type VehicleRepository interface {
	// CreateWithSetup inserts the vehicle, its required document placeholders
	// and the initial maintenance date in one transaction.
	CreateWithSetup(ctx context.Context, vehicle *model.Vehicle, docs []*model.Document) error
	Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Vehicle, error)
	Update(ctx context.Context, vehicle *model.Vehicle) error
	SoftDelete(ctx context.Context, tenantID, id, deletedBy uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter *model.VehicleFilter) ([]*model.Vehicle, int, error)
}

type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Document, error)
	// FindExisting returns the live document for (tenant, entity, type), or
	// nil when absent.
	FindExisting(ctx context.Context, tenantID, entityID uuid.UUID, entityType model.DocumentEntity, docType model.DocumentType) (*model.Document, error)
	Update(ctx context.Context, doc *model.Document) error
	SoftDelete(ctx context.Context, tenantID, id, deletedBy uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter *model.DocumentFilter) ([]*model.Document, int, error)
}

type TemplateRepository interface {
	Create(ctx context.Context, tpl *model.NotificationTemplate) error
	Get(ctx context.Context, id uuid.UUID) (*model.NotificationTemplate, error)
	GetByCodeAndChannel(ctx context.Context, code string, channel model.NotificationChannel) (*model.NotificationTemplate, error)
	Exists(ctx context.Context, code string, channel model.NotificationChannel) (bool, error)
	FindByCountryAndLocale(ctx context.Context, country, locale string) ([]*model.NotificationTemplate, error)
	Update(ctx context.Context, tpl *model.NotificationTemplate) error
	SoftDelete(ctx context.Context, id, deletedBy uuid.UUID) error
	List(ctx context.Context, p *model.Pagination) ([]*model.NotificationTemplate, int, error)
}

type NotificationLogRepository interface {
	Create(ctx context.Context, log *model.NotificationLog) error
	Get(ctx context.Context, id uuid.UUID) (*model.NotificationLog, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.NotificationLog, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.NotificationStatus, at time.Time) error
	RecordTimestamp(ctx context.Context, id uuid.UUID, status model.NotificationStatus, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, at time.Time) error
	List(ctx context.Context, filter *model.NotificationLogFilter) ([]*model.NotificationLog, int, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}

type AuditRepository interface {
	Create(ctx context.Context, log *model.AuditLog) error
	List(ctx context.Context, filter *model.AuditLogFilter) ([]*model.AuditLog, int, error)
	Stats(ctx context.Context, since time.Time) (*model.AuditStats, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}
