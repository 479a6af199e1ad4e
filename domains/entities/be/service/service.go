package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	domainrepo "github.com/troveworks/trove-crm/domains/entities/be/repo"
	"github.com/troveworks/trove-crm/platform/go/persistence"
	"github.com/troveworks/trove-crm/platform/go/validation"
)

// Domain-level error sentinel values.
var (
	ErrRecordNotFound = errors.New("record not found")
)

// ValidationError carries the aggregated verdict that blocked a mutation.
type ValidationError struct {
	Errors []validation.FieldError
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// CreateRecordInput defines the payload required to create a CRM record.
// CatalogType is only meaningful for catalog items, QuoteStatus for quotes.
type CreateRecordInput struct {
	Name         string
	CatalogType  *string
	QuoteStatus  *string
	CustomFields map[string]any
}

// UpdateRecordInput defines a partial record update. CustomFields carries a
// patch that is merged over the stored payload before revalidation; a nil map
// leaves the stored payload untouched.
type UpdateRecordInput struct {
	Name         *string
	CatalogType  *string
	QuoteStatus  *string
	CustomFields map[string]any
}

// ListRecordsInput defines pagination for record listings.
type ListRecordsInput struct {
	Limit  int
	Offset int
}

// ListRecordsOutput bundles one page of records with the unfiltered total.
type ListRecordsOutput struct {
	Records []persistence.Record
	Total   int64
}

// Service exposes CRUD over the standard CRM entities. Every create and
// update passes the entity validator before anything is written; a failed
// verdict aborts the mutation with a ValidationError listing every problem.
type Service interface {
	CreateRecord(ctx context.Context, tenantID uuid.UUID, entityType string, input CreateRecordInput) (persistence.Record, error)
	GetRecord(ctx context.Context, tenantID uuid.UUID, entityType string, recordID uuid.UUID) (persistence.Record, error)
	ListRecords(ctx context.Context, tenantID uuid.UUID, entityType string, input ListRecordsInput) (ListRecordsOutput, error)
	UpdateRecord(ctx context.Context, tenantID uuid.UUID, entityType string, recordID uuid.UUID, input UpdateRecordInput) (persistence.Record, error)
	DeleteRecord(ctx context.Context, tenantID uuid.UUID, entityType string, recordID uuid.UUID) error
}

type service struct {
	repo      domainrepo.Repository
	validator *validation.EntityValidator
}

// New constructs a Service instance.
func New(repo domainrepo.Repository, validator *validation.EntityValidator) Service {
	if repo == nil {
		panic("entities repository is required")
	}
	if validator == nil {
		panic("entity validator is required")
	}

	return &service{repo: repo, validator: validator}
}

func (s *service) CreateRecord(ctx context.Context, tenantID uuid.UUID, entityType string, input CreateRecordInput) (persistence.Record, error) {
	parsed, err := persistence.ParseEntityType(entityType)
	if err != nil {
		return persistence.Record{}, &ValidationError{Errors: []validation.FieldError{{
			Path: "entityType", Message: err.Error(),
		}}}
	}

	if strings.TrimSpace(input.Name) == "" {
		return persistence.Record{}, &ValidationError{Errors: []validation.FieldError{{
			Path: "name", Message: "name is required",
		}}}
	}

	verdict, err := s.validator.ValidateEntity(ctx, validation.EntityInput{
		TenantID:     tenantID,
		EntityType:   parsed,
		CustomFields: input.CustomFields,
		CatalogType:  input.CatalogType,
		QuoteStatus:  input.QuoteStatus,
	})
	if err != nil {
		return persistence.Record{}, fmt.Errorf("validate record: %w", err)
	}
	if !verdict.Valid {
		return persistence.Record{}, &ValidationError{Errors: verdict.Errors}
	}

	customFields, err := json.Marshal(verdict.ValidatedCustomFields)
	if err != nil {
		return persistence.Record{}, fmt.Errorf("encode custom fields: %w", err)
	}

	record, err := s.repo.CreateRecord(ctx, persistence.CreateRecordParams{
		RecordID:     uuid.New(),
		TenantID:     tenantID,
		EntityType:   parsed,
		Name:         input.Name,
		CatalogType:  input.CatalogType,
		QuoteStatus:  input.QuoteStatus,
		CustomFields: customFields,
	})
	if err != nil {
		return persistence.Record{}, err
	}

	return record, nil
}

func (s *service) GetRecord(ctx context.Context, tenantID uuid.UUID, entityType string, recordID uuid.UUID) (persistence.Record, error) {
	parsed, err := persistence.ParseEntityType(entityType)
	if err != nil {
		return persistence.Record{}, ErrRecordNotFound
	}

	record, err := s.repo.GetRecord(ctx, tenantID, parsed, recordID)
	if err != nil {
		if errors.Is(err, persistence.ErrRecordNotFound) {
			return persistence.Record{}, ErrRecordNotFound
		}
		return persistence.Record{}, err
	}

	return record, nil
}

func (s *service) ListRecords(ctx context.Context, tenantID uuid.UUID, entityType string, input ListRecordsInput) (ListRecordsOutput, error) {
	parsed, err := persistence.ParseEntityType(entityType)
	if err != nil {
		return ListRecordsOutput{}, &ValidationError{Errors: []validation.FieldError{{
			Path: "entityType", Message: err.Error(),
		}}}
	}

	result, err := s.repo.ListRecords(ctx, tenantID, parsed, persistence.ListRecordsParams{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return ListRecordsOutput{}, err
	}

	return ListRecordsOutput{Records: result.Records, Total: result.Total}, nil
}

func (s *service) UpdateRecord(ctx context.Context, tenantID uuid.UUID, entityType string, recordID uuid.UUID, input UpdateRecordInput) (persistence.Record, error) {
	parsed, err := persistence.ParseEntityType(entityType)
	if err != nil {
		return persistence.Record{}, ErrRecordNotFound
	}

	current, err := s.repo.GetRecord(ctx, tenantID, parsed, recordID)
	if err != nil {
		if errors.Is(err, persistence.ErrRecordNotFound) {
			return persistence.Record{}, ErrRecordNotFound
		}
		return persistence.Record{}, err
	}

	merged, err := mergeCustomFields(current.CustomFields, input.CustomFields)
	if err != nil {
		return persistence.Record{}, err
	}

	verdict, err := s.validator.ValidateEntity(ctx, validation.EntityInput{
		TenantID:     tenantID,
		EntityType:   parsed,
		CustomFields: merged,
		CatalogType:  input.CatalogType,
		QuoteStatus:  input.QuoteStatus,
	})
	if err != nil {
		return persistence.Record{}, fmt.Errorf("validate record: %w", err)
	}
	if !verdict.Valid {
		return persistence.Record{}, &ValidationError{Errors: verdict.Errors}
	}

	customFields, err := json.Marshal(verdict.ValidatedCustomFields)
	if err != nil {
		return persistence.Record{}, fmt.Errorf("encode custom fields: %w", err)
	}

	record, err := s.repo.UpdateRecord(ctx, tenantID, parsed, recordID, persistence.UpdateRecordParams{
		Name:         input.Name,
		CatalogType:  input.CatalogType,
		QuoteStatus:  input.QuoteStatus,
		CustomFields: customFields,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrRecordNotFound) {
			return persistence.Record{}, ErrRecordNotFound
		}
		return persistence.Record{}, err
	}

	return record, nil
}

func (s *service) DeleteRecord(ctx context.Context, tenantID uuid.UUID, entityType string, recordID uuid.UUID) error {
	parsed, err := persistence.ParseEntityType(entityType)
	if err != nil {
		return ErrRecordNotFound
	}

	if err := s.repo.SoftDeleteRecord(ctx, tenantID, parsed, recordID); err != nil {
		if errors.Is(err, persistence.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return err
	}

	return nil
}

// mergeCustomFields layers the patch over the stored payload. Patch keys
// override, explicit nulls included; the merged object is revalidated as a
// whole so stale values never dodge a tightened schema.
func mergeCustomFields(stored json.RawMessage, patch map[string]any) (map[string]any, error) {
	merged := map[string]any{}
	if len(stored) > 0 {
		if err := json.Unmarshal(stored, &merged); err != nil {
			return nil, fmt.Errorf("decode stored custom fields: %w", err)
		}
	}

	for key, value := range patch {
		merged[key] = value
	}

	return merged, nil
}
