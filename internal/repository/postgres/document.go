package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fleetyard/backoffice-api/internal/model"
	"github.com/fleetyard/backoffice-api/internal/repository"
)

type documentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sqlx.DB) repository.DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	query := `
		INSERT INTO documents (
			id, tenant_id, entity_type, entity_id, type, status,
			file_name, file_size, mime_type, storage_key, expires_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.TenantID, doc.EntityType, doc.EntityID, doc.Type,
		doc.Status, doc.FileName, doc.FileSize, doc.MimeType, doc.StorageKey,
		doc.ExpiresAt, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (r *documentRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Document, error) {
	query := `SELECT * FROM documents WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`
	var doc model.Document
	if err := r.db.GetContext(ctx, &doc, query, id, tenantID); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) FindExisting(ctx context.Context, tenantID, entityID uuid.UUID, entityType model.DocumentEntity, docType model.DocumentType) (*model.Document, error) {
	query := `
		SELECT * FROM documents
		WHERE tenant_id = $1 AND entity_id = $2 AND entity_type = $3 AND type = $4
		AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`
	var doc model.Document
	err := r.db.GetContext(ctx, &doc, query, tenantID, entityID, entityType, docType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find document: %w", err)
	}
	return &doc, nil
}

func (r *documentRepository) Update(ctx context.Context, doc *model.Document) error {
	query := `
		UPDATE documents SET
			status = $1, file_name = $2, file_size = $3, mime_type = $4,
			storage_key = $5, expires_at = $6, updated_at = $7
		WHERE id = $8 AND tenant_id = $9 AND deleted_at IS NULL
	`
	doc.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query,
		doc.Status, doc.FileName, doc.FileSize, doc.MimeType, doc.StorageKey,
		doc.ExpiresAt, doc.UpdatedAt, doc.ID, doc.TenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return requireRow(res, "document")
}

func (r *documentRepository) SoftDelete(ctx context.Context, tenantID, id, deletedBy uuid.UUID) error {
	query := `
		UPDATE documents SET deleted_at = $1, deleted_by = $2
		WHERE id = $3 AND tenant_id = $4 AND deleted_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, time.Now(), deletedBy, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return requireRow(res, "document")
}

func (r *documentRepository) List(ctx context.Context, tenantID uuid.UUID, filter *model.DocumentFilter) ([]*model.Document, int, error) {
	where := "WHERE tenant_id = $1 AND deleted_at IS NULL"
	args := []interface{}{tenantID}

	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		where += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}
	if filter.EntityID != "" {
		args = append(args, filter.EntityID)
		where += fmt.Sprintf(" AND entity_id = $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM documents "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	args = append(args, filter.PageSize, filter.Offset())
	query := fmt.Sprintf("SELECT * FROM documents %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args))

	var docs []*model.Document
	if err := r.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, total, nil
}
