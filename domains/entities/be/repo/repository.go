package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/troveworks/trove-crm/platform/go/persistence"
)

// Repository exposes the persistence operations required by the entities service.
type Repository interface {
	CreateRecord(ctx context.Context, params persistence.CreateRecordParams) (persistence.Record, error)
	GetRecord(ctx context.Context, tenantID uuid.UUID, entityType persistence.EntityType, recordID uuid.UUID) (persistence.Record, error)
	ListRecords(ctx context.Context, tenantID uuid.UUID, entityType persistence.EntityType, params persistence.ListRecordsParams) (persistence.ListRecordsResult, error)
	UpdateRecord(ctx context.Context, tenantID uuid.UUID, entityType persistence.EntityType, recordID uuid.UUID, params persistence.UpdateRecordParams) (persistence.Record, error)
	SoftDeleteRecord(ctx context.Context, tenantID uuid.UUID, entityType persistence.EntityType, recordID uuid.UUID) error
}

type postgresRepository struct {
	records *persistence.RecordStore
}

// NewPostgresRepository builds a Repository backed by the shared persistence layer.
func NewPostgresRepository(records *persistence.RecordStore) Repository {
	if records == nil {
		panic("record store is required")
	}
	return &postgresRepository{records: records}
}

func (r *postgresRepository) CreateRecord(ctx context.Context, params persistence.CreateRecordParams) (persistence.Record, error) {
	return r.records.CreateRecord(ctx, params)
}

func (r *postgresRepository) GetRecord(ctx context.Context, tenantID uuid.UUID, entityType persistence.EntityType, recordID uuid.UUID) (persistence.Record, error) {
	return r.records.GetRecord(ctx, tenantID, entityType, recordID)
}

func (r *postgresRepository) ListRecords(ctx context.Context, tenantID uuid.UUID, entityType persistence.EntityType, params persistence.ListRecordsParams) (persistence.ListRecordsResult, error) {
	return r.records.ListRecords(ctx, tenantID, entityType, params)
}

func (r *postgresRepository) UpdateRecord(ctx context.Context, tenantID uuid.UUID, entityType persistence.EntityType, recordID uuid.UUID, params persistence.UpdateRecordParams) (persistence.Record, error) {
	return r.records.UpdateRecord(ctx, tenantID, entityType, recordID, params)
}

func (r *postgresRepository) SoftDeleteRecord(ctx context.Context, tenantID uuid.UUID, entityType persistence.EntityType, recordID uuid.UUID) error {
	return r.records.SoftDeleteRecord(ctx, tenantID, entityType, recordID)
}
