package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/troveworks/trove-crm/platform/go/persistence"
)

// Repository exposes the persistence operations required by the custom fields service.
type Repository interface {
	LoadFieldDefinitions(ctx context.Context, tenantID uuid.UUID, entityType persistence.EntityType) ([]persistence.FieldDefinition, error)
	GetFieldDefinition(ctx context.Context, tenantID, id uuid.UUID) (persistence.FieldDefinition, error)
	CreateFieldDefinition(ctx context.Context, params persistence.CreateFieldDefinitionParams) (persistence.FieldDefinition, error)
	UpdateFieldDefinition(ctx context.Context, tenantID, id uuid.UUID, params persistence.UpdateFieldDefinitionParams) (persistence.FieldDefinition, error)
	ArchiveFieldDefinition(ctx context.Context, tenantID, id uuid.UUID) error

	GetOptionSet(ctx context.Context, tenantID uuid.UUID, name string) (persistence.OptionSetWithOptions, error)
	ListOptionSets(ctx context.Context, tenantID uuid.UUID) ([]persistence.OptionSetWithOptions, error)
	CreateOptionSet(ctx context.Context, params persistence.CreateOptionSetParams) (persistence.OptionSet, error)
	AddOption(ctx context.Context, tenantID, optionSetID uuid.UUID, params persistence.AddOptionParams) (persistence.OptionSetOption, error)
	UpdateOption(ctx context.Context, tenantID, optionSetID, optionID uuid.UUID, params persistence.UpdateOptionParams) (persistence.OptionSetOption, error)
	ArchiveOption(ctx context.Context, tenantID, optionSetID, optionID uuid.UUID) error
}

type postgresRepository struct {
	fields  *persistence.FieldDefinitionStore
	options *persistence.OptionSetStore
}

// NewPostgresRepository builds a Repository backed by the shared persistence layer.
func NewPostgresRepository(fields *persistence.FieldDefinitionStore, options *persistence.OptionSetStore) Repository {
	if fields == nil {
		panic("field definition store is required")
	}
	if options == nil {
		panic("option set store is required")
	}
	return &postgresRepository{fields: fields, options: options}
}

func (r *postgresRepository) LoadFieldDefinitions(ctx context.Context, tenantID uuid.UUID, entityType persistence.EntityType) ([]persistence.FieldDefinition, error) {
	return r.fields.LoadFieldDefinitions(ctx, tenantID, entityType)
}

func (r *postgresRepository) GetFieldDefinition(ctx context.Context, tenantID, id uuid.UUID) (persistence.FieldDefinition, error) {
	return r.fields.GetFieldDefinition(ctx, tenantID, id)
}

func (r *postgresRepository) CreateFieldDefinition(ctx context.Context, params persistence.CreateFieldDefinitionParams) (persistence.FieldDefinition, error) {
	return r.fields.CreateFieldDefinition(ctx, params)
}

func (r *postgresRepository) UpdateFieldDefinition(ctx context.Context, tenantID, id uuid.UUID, params persistence.UpdateFieldDefinitionParams) (persistence.FieldDefinition, error) {
	return r.fields.UpdateFieldDefinition(ctx, tenantID, id, params)
}

func (r *postgresRepository) ArchiveFieldDefinition(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.fields.ArchiveFieldDefinition(ctx, tenantID, id)
}

func (r *postgresRepository) GetOptionSet(ctx context.Context, tenantID uuid.UUID, name string) (persistence.OptionSetWithOptions, error) {
	return r.options.GetOptionSet(ctx, tenantID, name)
}

func (r *postgresRepository) ListOptionSets(ctx context.Context, tenantID uuid.UUID) ([]persistence.OptionSetWithOptions, error) {
	return r.options.ListOptionSets(ctx, tenantID)
}

func (r *postgresRepository) CreateOptionSet(ctx context.Context, params persistence.CreateOptionSetParams) (persistence.OptionSet, error) {
	return r.options.CreateOptionSet(ctx, params)
}

func (r *postgresRepository) AddOption(ctx context.Context, tenantID, optionSetID uuid.UUID, params persistence.AddOptionParams) (persistence.OptionSetOption, error) {
	return r.options.AddOption(ctx, tenantID, optionSetID, params)
}

func (r *postgresRepository) UpdateOption(ctx context.Context, tenantID, optionSetID, optionID uuid.UUID, params persistence.UpdateOptionParams) (persistence.OptionSetOption, error) {
	return r.options.UpdateOption(ctx, tenantID, optionSetID, optionID, params)
}

func (r *postgresRepository) ArchiveOption(ctx context.Context, tenantID, optionSetID, optionID uuid.UUID) error {
	return r.options.ArchiveOption(ctx, tenantID, optionSetID, optionID)
}
