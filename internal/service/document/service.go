package document

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fleetyard/backoffice-api/internal/model"
	"github.com/fleetyard/backoffice-api/internal/repository"
	"github.com/fleetyard/backoffice-api/internal/repository/postgres"
	"github.com/fleetyard/backoffice-api/internal/service/audit"
	"github.com/fleetyard/backoffice-api/pkg/apperror"
)

type Servicer interface {
	Upload(ctx context.Context, tenantID uuid.UUID, req *model.CreateDocumentRequest, actorID uuid.UUID) (*model.Document, bool, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Document, error)
	Delete(ctx context.Context, tenantID, id, actorID uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter *model.DocumentFilter) ([]*model.Document, int, error)
}

type Service struct {
	repo    repository.DocumentRepository
	auditor *audit.Service
}

func NewService(repo repository.DocumentRepository, auditor *audit.Service) *Service {
	return &Service{repo: repo, auditor: auditor}
}

// Upload attaches file metadata to an entity. An existing row for the same
// (entity, type) is never duplicated: a placeholder is filled in place, so the
// compliance row seeded at vehicle creation becomes the uploaded document, and
// an already-uploaded row is returned as is. The second return value reports
// whether a new row was inserted.
func (s *Service) Upload(ctx context.Context, tenantID uuid.UUID, req *model.CreateDocumentRequest, actorID uuid.UUID) (*model.Document, bool, error) {
	entityID, err := uuid.Parse(req.EntityID)
	if err != nil {
		return nil, false, apperror.BadRequest("invalid entity_id")
	}

	existing, err := s.repo.FindExisting(ctx, tenantID, entityID, req.EntityType, req.Type)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up existing document: %w", err)
	}

	if existing != nil {
		if existing.Status != model.DocumentStatusPlaceholder {
			return existing, false, nil
		}

		existing.Status = model.DocumentStatusUploaded
		existing.FileName = req.FileName
		existing.FileSize = req.FileSize
		existing.MimeType = req.MimeType
		existing.StorageKey = req.StorageKey
		existing.ExpiresAt = req.ExpiresAt

		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, false, fmt.Errorf("failed to fill document placeholder: %w", err)
		}
		s.auditor.Log(ctx, actorID, model.AuditActionUpdate, model.AuditEntityDocument, existing.ID, &audit.LogOptions{
			TenantID: &tenantID,
			Changes:  req,
		})
		return existing, false, nil
	}

	doc := &model.Document{
		Base:       model.Base{ID: uuid.New()},
		TenantID:   tenantID,
		EntityType: req.EntityType,
		EntityID:   entityID,
		Type:       req.Type,
		Status:     model.DocumentStatusUploaded,
		FileName:   req.FileName,
		FileSize:   req.FileSize,
		MimeType:   req.MimeType,
		StorageKey: req.StorageKey,
		ExpiresAt:  req.ExpiresAt,
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, false, fmt.Errorf("failed to create document: %w", err)
	}

	s.auditor.Log(ctx, actorID, model.AuditActionCreate, model.AuditEntityDocument, doc.ID, &audit.LogOptions{
		TenantID: &tenantID,
		Changes:  req,
	})
	return doc, true, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Document, error) {
	doc, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperror.NotFound("document")
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, id, actorID uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, tenantID, id, actorID); err != nil {
		if postgres.IsNoRows(err) {
			return apperror.NotFound("document")
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}
	s.auditor.Log(ctx, actorID, model.AuditActionDelete, model.AuditEntityDocument, id, &audit.LogOptions{TenantID: &tenantID})
	return nil
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter *model.DocumentFilter) ([]*model.Document, int, error) {
	filter.Normalize()
	return s.repo.List(ctx, tenantID, filter)
}
