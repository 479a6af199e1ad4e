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

// FieldDefinitionStore provides PostgreSQL-backed access to tenant custom field schemas.
type FieldDefinitionStore struct {
	pool       *pgxpool.Pool
	optionSets *OptionSetStore
}

// NewFieldDefinitionStore returns a store instance. The option set store is
// used to resolve enum/multienum definitions with their full vocabulary.
func NewFieldDefinitionStore(ctx context.Context, pool *pgxpool.Pool, optionSets *OptionSetStore) (*FieldDefinitionStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	if optionSets == nil {
		return nil, errors.New("option set store is required")
	}

	return &FieldDefinitionStore{pool: pool, optionSets: optionSets}, nil
}

const fieldDefinitionColumns = `
	field_definition_id, tenant_id, entity_type, field_key, label, description,
	data_type, required, searchable, option_set_id, default_value, ui_config,
	is_archived, created_at, updated_at`

// LoadFieldDefinitions returns every live definition for (tenant, entityType)
// ordered by label ascending. Enum and multienum definitions come back with
// their option set fully resolved so validation never needs a second lookup.
func (s *FieldDefinitionStore) LoadFieldDefinitions(ctx context.Context, tenantID uuid.UUID, entityType EntityType) ([]FieldDefinition, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+fieldDefinitionColumns+`
		FROM field_definitions
		WHERE tenant_id = $1 AND entity_type = $2 AND is_archived = FALSE
		ORDER BY label ASC
	`, tenantID, entityType)
	if err != nil {
		return nil, fmt.Errorf("load field definitions: %w", err)
	}
	defer rows.Close()

	definitions := []FieldDefinition{}
	for rows.Next() {
		definition, scanErr := scanFieldDefinition(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		definitions = append(definitions, definition)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate field definitions: %w", err)
	}

	if err := s.resolveOptionSets(ctx, tenantID, definitions); err != nil {
		return nil, err
	}

	return definitions, nil
}

// GetFieldDefinition loads one live or archived definition owned by the tenant.
func (s *FieldDefinitionStore) GetFieldDefinition(ctx context.Context, tenantID, id uuid.UUID) (FieldDefinition, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+fieldDefinitionColumns+`
		FROM field_definitions
		WHERE field_definition_id = $1 AND tenant_id = $2
	`, id, tenantID)

	definition, err := scanFieldDefinition(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FieldDefinition{}, ErrFieldDefinitionNotFound
		}
		return FieldDefinition{}, fmt.Errorf("load field definition: %w", err)
	}

	return definition, nil
}

// CreateFieldDefinitionParams defines the payload required to persist a definition.
type CreateFieldDefinitionParams struct {
	FieldDefinitionID uuid.UUID
	TenantID          uuid.UUID
	EntityType        EntityType
	FieldKey          string
	Label             string
	Description       *string
	DataType          DataType
	Required          bool
	Searchable        bool
	OptionSetID       *uuid.UUID
	DefaultValue      json.RawMessage
	UIConfig          json.RawMessage
}

// CreateFieldDefinition inserts a new definition. A live definition with the
// same (tenant, entityType, fieldKey) yields ErrFieldDefinitionConflict; the
// partial unique index makes concurrent creates race safely in the database.
func (s *FieldDefinitionStore) CreateFieldDefinition(ctx context.Context, params CreateFieldDefinitionParams) (FieldDefinition, error) {
	if params.FieldDefinitionID == uuid.Nil {
		return FieldDefinition{}, errors.New("field definition id is required")
	}
	if params.TenantID == uuid.Nil {
		return FieldDefinition{}, errors.New("tenant id is required")
	}
	if strings.TrimSpace(params.FieldKey) == "" {
		return FieldDefinition{}, errors.New("field key is required")
	}
	if strings.TrimSpace(params.Label) == "" {
		return FieldDefinition{}, errors.New("label is required")
	}
	if params.DataType.RequiresOptionSet() && params.OptionSetID == nil {
		return FieldDefinition{}, errors.New("option set id is required for enum data types")
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO field_definitions (
			field_definition_id, tenant_id, entity_type, field_key, label, description,
			data_type, required, searchable, option_set_id, default_value, ui_config,
			is_archived, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, FALSE, NOW(), NOW()
		)
		RETURNING `+fieldDefinitionColumns+`
	`, params.FieldDefinitionID, params.TenantID, params.EntityType,
		strings.TrimSpace(params.FieldKey), strings.TrimSpace(params.Label), params.Description,
		params.DataType, params.Required, params.Searchable, params.OptionSetID,
		params.DefaultValue, params.UIConfig)

	definition, err := scanFieldDefinition(row)
	if err != nil {
		if isUniqueViolation(err) {
			return FieldDefinition{}, ErrFieldDefinitionConflict
		}
		return FieldDefinition{}, fmt.Errorf("insert field definition: %w", err)
	}

	return definition, nil
}

// UpdateFieldDefinitionParams defines the patchable attributes of a definition.
// FieldKey and DataType are deliberately absent: both are immutable after creation.
type UpdateFieldDefinitionParams struct {
	Label        *string
	Description  *string
	Required     *bool
	Searchable   *bool
	OptionSetID  *uuid.UUID
	DefaultValue json.RawMessage
	UIConfig     json.RawMessage
	IsArchived   *bool
}

// UpdateFieldDefinition applies a partial update to a tenant-owned definition.
func (s *FieldDefinitionStore) UpdateFieldDefinition(ctx context.Context, tenantID, id uuid.UUID, params UpdateFieldDefinitionParams) (FieldDefinition, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return FieldDefinition{}, fmt.Errorf("begin update field definition tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx, `
		SELECT `+fieldDefinitionColumns+`
		FROM field_definitions
		WHERE field_definition_id = $1 AND tenant_id = $2
		FOR UPDATE
	`, id, tenantID)

	current, err := scanFieldDefinition(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FieldDefinition{}, ErrFieldDefinitionNotFound
		}
		return FieldDefinition{}, fmt.Errorf("load field definition: %w", err)
	}

	label := current.Label
	if params.Label != nil {
		trimmed := strings.TrimSpace(*params.Label)
		if trimmed == "" {
			return FieldDefinition{}, errors.New("label is required")
		}
		label = trimmed
	}

	description := current.Description
	if params.Description != nil {
		description = params.Description
	}

	required := current.Required
	if params.Required != nil {
		required = *params.Required
	}

	searchable := current.Searchable
	if params.Searchable != nil {
		searchable = *params.Searchable
	}

	optionSetID := current.OptionSetID
	if params.OptionSetID != nil {
		optionSetID = params.OptionSetID
	}
	if current.DataType.RequiresOptionSet() && optionSetID == nil {
		return FieldDefinition{}, errors.New("option set id is required for enum data types")
	}

	defaultValue := current.DefaultValue
	if params.DefaultValue != nil {
		defaultValue = params.DefaultValue
	}

	uiConfig := current.UIConfig
	if params.UIConfig != nil {
		uiConfig = params.UIConfig
	}

	isArchived := current.IsArchived
	if params.IsArchived != nil {
		isArchived = *params.IsArchived
	}

	row = tx.QueryRow(ctx, `
		UPDATE field_definitions
		SET label = $3,
		    description = $4,
		    required = $5,
		    searchable = $6,
		    option_set_id = $7,
		    default_value = $8,
		    ui_config = $9,
		    is_archived = $10,
		    updated_at = NOW()
		WHERE field_definition_id = $1 AND tenant_id = $2
		RETURNING `+fieldDefinitionColumns+`
	`, id, tenantID, label, description, required, searchable, optionSetID, defaultValue, uiConfig, isArchived)

	definition, err := scanFieldDefinition(row)
	if err != nil {
		if isUniqueViolation(err) {
			return FieldDefinition{}, ErrFieldDefinitionConflict
		}
		return FieldDefinition{}, fmt.Errorf("update field definition: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return FieldDefinition{}, fmt.Errorf("commit update field definition tx: %w", err)
	}

	return definition, nil
}

// ArchiveFieldDefinition soft-deletes a definition. Archiving an already
// archived definition is a no-op success; rows are never removed.
func (s *FieldDefinitionStore) ArchiveFieldDefinition(ctx context.Context, tenantID, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE field_definitions
		SET is_archived = TRUE,
		    updated_at = NOW()
		WHERE field_definition_id = $1 AND tenant_id = $2
	`, id, tenantID)
	if err != nil {
		return fmt.Errorf("archive field definition: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrFieldDefinitionNotFound
	}

	return nil
}

// resolveOptionSets populates the OptionSet of enum/multienum definitions.
// Definitions with no option set id (legacy rows) are left unresolved and
// reject every value during validation.
func (s *FieldDefinitionStore) resolveOptionSets(ctx context.Context, tenantID uuid.UUID, definitions []FieldDefinition) error {
	// Cache per option set id: several fields may share one vocabulary.
	resolved := map[uuid.UUID]*OptionSetWithOptions{}

	for i := range definitions {
		def := &definitions[i]
		if !def.DataType.RequiresOptionSet() || def.OptionSetID == nil {
			continue
		}

		if cached, ok := resolved[*def.OptionSetID]; ok {
			def.OptionSet = cached
			continue
		}

		set, err := s.loadOptionSetByID(ctx, tenantID, *def.OptionSetID)
		if err != nil {
			if errors.Is(err, ErrOptionSetNotFound) {
				continue
			}
			return err
		}

		resolved[*def.OptionSetID] = set
		def.OptionSet = set
	}

	return nil
}

func (s *FieldDefinitionStore) loadOptionSetByID(ctx context.Context, tenantID, optionSetID uuid.UUID) (*OptionSetWithOptions, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT option_set_id, tenant_id, name, entity_type, created_at, updated_at
		FROM option_sets
		WHERE option_set_id = $1 AND tenant_id = $2
	`, optionSetID, tenantID)

	set, err := scanOptionSet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOptionSetNotFound
		}
		return nil, fmt.Errorf("load option set by id: %w", err)
	}

	options, err := s.optionSets.loadOptions(ctx, set.ID)
	if err != nil {
		return nil, err
	}

	return &OptionSetWithOptions{OptionSet: set, Options: options}, nil
}

func scanFieldDefinition(scanner rowScanner) (FieldDefinition, error) {
	var (
		id           uuid.UUID
		tenantID     uuid.UUID
		entityType   string
		fieldKey     string
		label        string
		description  pgtype.Text
		dataType     string
		required     bool
		searchable   bool
		optionSetID  pgtype.UUID
		defaultValue []byte
		uiConfig     []byte
		isArchived   bool
		createdAt    time.Time
		updatedAt    time.Time
	)

	if err := scanner.Scan(&id, &tenantID, &entityType, &fieldKey, &label, &description,
		&dataType, &required, &searchable, &optionSetID, &defaultValue, &uiConfig,
		&isArchived, &createdAt, &updatedAt); err != nil {
		return FieldDefinition{}, err
	}

	var descriptionPtr *string
	if description.Valid {
		d := description.String
		descriptionPtr = &d
	}

	var optionSetPtr *uuid.UUID
	if optionSetID.Valid {
		osid, err := uuid.FromBytes(optionSetID.Bytes[:])
		if err != nil {
			return FieldDefinition{}, fmt.Errorf("parse option set id: %w", err)
		}
		optionSetPtr = &osid
	}

	return FieldDefinition{
		ID:           id,
		TenantID:     tenantID,
		EntityType:   EntityType(entityType),
		FieldKey:     fieldKey,
		Label:        label,
		Description:  descriptionPtr,
		DataType:     DataType(dataType),
		Required:     required,
		Searchable:   searchable,
		OptionSetID:  optionSetPtr,
		DefaultValue: defaultValue,
		UIConfig:     uiConfig,
		IsArchived:   isArchived,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}
