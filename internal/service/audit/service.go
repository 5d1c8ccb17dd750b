package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fleetyard/backoffice-api/internal/model"
	"github.com/fleetyard/backoffice-api/internal/repository"
)

// LogOptions carries optional audit detail.
type LogOptions struct {
	TenantID  *uuid.UUID
	Changes   interface{}
	IPAddress string
	UserAgent string
}

type Service struct {
	repo   repository.AuditRepository
	logger *zerolog.Logger
}

func NewService(repo repository.AuditRepository, logger *zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Log records an audit entry. Audit failures never fail the operation that
// triggered them; they are logged and dropped.
func (s *Service) Log(ctx context.Context, userID uuid.UUID, action, entityType string, entityID uuid.UUID, opts *LogOptions) {
	entry := &model.AuditLog{
		ID:         uuid.New(),
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if opts != nil {
		entry.TenantID = opts.TenantID
		entry.IPAddress = opts.IPAddress
		entry.UserAgent = opts.UserAgent
		if opts.Changes != nil {
			if b, err := json.Marshal(opts.Changes); err == nil {
				entry.Changes = b
			}
		}
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error().Err(err).
			Str("action", action).
			Str("entity_type", entityType).
			Str("entity_id", entityID.String()).
			Msg("failed to write audit log")
	}
}

func (s *Service) List(ctx context.Context, filter *model.AuditLogFilter) ([]*model.AuditLog, int, error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

func (s *Service) Stats(ctx context.Context, since time.Time) (*model.AuditStats, error) {
	return s.repo.Stats(ctx, since)
}

// Sweep deletes entries older than the retention window and returns the count.
func (s *Service) Sweep(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.DeleteBefore(ctx, time.Now().Add(-retention))
}
