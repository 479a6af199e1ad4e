package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RecordStore persists the standard CRM entities (companies, contacts, catalog
// items, quotes) in a single table discriminated by entity type. Custom field
// payloads land in a JSONB column after passing the validation gate.
type RecordStore struct {
	pool *pgxpool.Pool
}

// NewRecordStore returns a store instance bound to the shared pool.
func NewRecordStore(ctx context.Context, pool *pgxpool.Pool) (*RecordStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}

	return &RecordStore{pool: pool}, nil
}

// Record mirrors one CRM entity row. CatalogType is only set for catalog
// items, QuoteStatus only for quotes.
type Record struct {
	RecordID     uuid.UUID       `json:"recordId"`
	TenantID     uuid.UUID       `json:"tenantId"`
	EntityType   EntityType      `json:"entityType"`
	Name         string          `json:"name"`
	CatalogType  *string         `json:"catalogType,omitempty"`
	QuoteStatus  *string         `json:"quoteStatus,omitempty"`
	CustomFields json.RawMessage `json:"customFields"`
	IsDeleted    bool            `json:"isDeleted"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

const recordColumns = `
	record_id, tenant_id, entity_type, name, catalog_type, quote_status,
	custom_fields, is_deleted, created_at, updated_at`

// CreateRecordParams defines the payload required to persist a new record.
// CustomFields must already be validated; the store does not re-check them.
type CreateRecordParams struct {
	RecordID     uuid.UUID
	TenantID     uuid.UUID
	EntityType   EntityType
	Name         string
	CatalogType  *string
	QuoteStatus  *string
	CustomFields json.RawMessage
}

// CreateRecord inserts a new CRM record.
func (s *RecordStore) CreateRecord(ctx context.Context, params CreateRecordParams) (Record, error) {
	if params.RecordID == uuid.Nil {
		return Record{}, errors.New("record id is required")
	}
	if params.TenantID == uuid.Nil {
		return Record{}, errors.New("tenant id is required")
	}
	if strings.TrimSpace(params.Name) == "" {
		return Record{}, errors.New("record name is required")
	}

	customFields := params.CustomFields
	if len(customFields) == 0 {
		customFields = json.RawMessage(`{}`)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO crm_records (
			record_id, tenant_id, entity_type, name, catalog_type, quote_status,
			custom_fields, is_deleted, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, FALSE, NOW(), NOW()
		)
		RETURNING `+recordColumns+`
	`, params.RecordID, params.TenantID, params.EntityType, strings.TrimSpace(params.Name),
		params.CatalogType, params.QuoteStatus, customFields)

	record, err := scanRecord(row)
	if err != nil {
		return Record{}, fmt.Errorf("insert record: %w", err)
	}

	return record, nil
}

// GetRecord loads one live record owned by the tenant.
func (s *RecordStore) GetRecord(ctx context.Context, tenantID uuid.UUID, entityType EntityType, recordID uuid.UUID) (Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM crm_records
		WHERE record_id = $1 AND tenant_id = $2 AND entity_type = $3 AND is_deleted = FALSE
	`, recordID, tenantID, entityType)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, fmt.Errorf("load record: %w", err)
	}

	return record, nil
}

// ListRecordsParams defines pagination for record listings.
type ListRecordsParams struct {
	Limit  int
	Offset int
}

// ListRecordsResult bundles one page of records with the unfiltered total.
type ListRecordsResult struct {
	Records []Record
	Total   int64
}

// ListRecords returns live records for (tenant, entityType) ordered by name.
func (s *RecordStore) ListRecords(ctx context.Context, tenantID uuid.UUID, entityType EntityType, params ListRecordsParams) (ListRecordsResult, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM crm_records
		WHERE tenant_id = $1 AND entity_type = $2 AND is_deleted = FALSE
	`, tenantID, entityType).Scan(&total); err != nil {
		return ListRecordsResult{}, fmt.Errorf("count records: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+recordColumns+`
		FROM crm_records
		WHERE tenant_id = $1 AND entity_type = $2 AND is_deleted = FALSE
		ORDER BY name ASC, created_at ASC
		LIMIT $3 OFFSET $4
	`, tenantID, entityType, limit, offset)
	if err != nil {
		return ListRecordsResult{}, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		record, scanErr := scanRecord(rows)
		if scanErr != nil {
			return ListRecordsResult{}, scanErr
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return ListRecordsResult{}, fmt.Errorf("iterate records: %w", err)
	}

	return ListRecordsResult{Records: records, Total: total}, nil
}

// UpdateRecordParams defines the patchable attributes of a record.
// CustomFields replaces the stored payload wholesale when non-nil; merge
// semantics belong to the service layer which validates the merged object.
type UpdateRecordParams struct {
	Name         *string
	CatalogType  *string
	QuoteStatus  *string
	CustomFields json.RawMessage
}

// UpdateRecord applies a partial update to a tenant-owned record.
func (s *RecordStore) UpdateRecord(ctx context.Context, tenantID uuid.UUID, entityType EntityType, recordID uuid.UUID, params UpdateRecordParams) (Record, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Record{}, fmt.Errorf("begin update record tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM crm_records
		WHERE record_id = $1 AND tenant_id = $2 AND entity_type = $3 AND is_deleted = FALSE
		FOR UPDATE
	`, recordID, tenantID, entityType)

	current, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, fmt.Errorf("load record: %w", err)
	}

	name := current.Name
	if params.Name != nil {
		trimmed := strings.TrimSpace(*params.Name)
		if trimmed == "" {
			return Record{}, errors.New("record name is required")
		}
		name = trimmed
	}

	catalogType := current.CatalogType
	if params.CatalogType != nil {
		catalogType = params.CatalogType
	}

	quoteStatus := current.QuoteStatus
	if params.QuoteStatus != nil {
		quoteStatus = params.QuoteStatus
	}

	customFields := current.CustomFields
	if params.CustomFields != nil {
		customFields = params.CustomFields
	}

	row = tx.QueryRow(ctx, `
		UPDATE crm_records
		SET name = $4,
		    catalog_type = $5,
		    quote_status = $6,
		    custom_fields = $7,
		    updated_at = NOW()
		WHERE record_id = $1 AND tenant_id = $2 AND entity_type = $3
		RETURNING `+recordColumns+`
	`, recordID, tenantID, entityType, name, catalogType, quoteStatus, customFields)

	record, err := scanRecord(row)
	if err != nil {
		return Record{}, fmt.Errorf("update record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Record{}, fmt.Errorf("commit update record tx: %w", err)
	}

	return record, nil
}

// SoftDeleteRecord marks a record deleted; the row is retained for history.
func (s *RecordStore) SoftDeleteRecord(ctx context.Context, tenantID uuid.UUID, entityType EntityType, recordID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE crm_records
		SET is_deleted = TRUE,
		    updated_at = NOW()
		WHERE record_id = $1 AND tenant_id = $2 AND entity_type = $3 AND is_deleted = FALSE
	`, recordID, tenantID, entityType)
	if err != nil {
		return fmt.Errorf("soft delete record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func scanRecord(scanner rowScanner) (Record, error) {
	var (
		recordID     uuid.UUID
		tenantID     uuid.UUID
		entityType   string
		name         string
		catalogType  pgtype.Text
		quoteStatus  pgtype.Text
		customFields []byte
		isDeleted    bool
		createdAt    time.Time
		updatedAt    time.Time
	)

	if err := scanner.Scan(&recordID, &tenantID, &entityType, &name, &catalogType, &quoteStatus,
		&customFields, &isDeleted, &createdAt, &updatedAt); err != nil {
		return Record{}, err
	}

	var catalogTypePtr *string
	if catalogType.Valid {
		v := catalogType.String
		catalogTypePtr = &v
	}

	var quoteStatusPtr *string
	if quoteStatus.Valid {
		v := quoteStatus.String
		quoteStatusPtr = &v
	}

	return Record{
		RecordID:     recordID,
		TenantID:     tenantID,
		EntityType:   EntityType(entityType),
		Name:         name,
		CatalogType:  catalogTypePtr,
		QuoteStatus:  quoteStatusPtr,
		CustomFields: customFields,
		IsDeleted:    isDeleted,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}
