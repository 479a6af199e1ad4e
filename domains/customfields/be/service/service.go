package service

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	domainrepo "github.com/troveworks/trove-crm/domains/customfields/be/repo"
	"github.com/troveworks/trove-crm/platform/go/persistence"
)

//go:embed uiconfig.schema.json
var uiConfigSchemaJSON string

// uiConfigSchema validates the opaque uiConfig blob once at the write
// boundary; after this check the blob travels as json.RawMessage untouched.
var uiConfigSchema = jsonschema.MustCompileString("trove://schemas/uiconfig.json", uiConfigSchemaJSON)

var fieldKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError captures input validation problems surfaced by the service.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// Domain-level error sentinel values.
var (
	ErrFieldNotFound     = errors.New("field definition not found")
	ErrFieldConflict     = errors.New("field definition conflict")
	ErrOptionSetNotFound = errors.New("option set not found")
	ErrOptionSetConflict = errors.New("option set conflict")
	ErrOptionNotFound    = errors.New("option not found")
	ErrOptionConflict    = errors.New("option conflict")
)

// CreateFieldInput defines the payload required to add a custom field.
type CreateFieldInput struct {
	EntityType   string
	FieldKey     string
	Label        string
	Description  *string
	DataType     string
	Required     bool
	Searchable   bool
	OptionSetID  *uuid.UUID
	DefaultValue json.RawMessage
	UIConfig     json.RawMessage
}

// UpdateFieldInput defines the patchable attributes of a custom field.
// FieldKey and DataType are immutable and deliberately absent.
type UpdateFieldInput struct {
	Label        *string
	Description  *string
	Required     *bool
	Searchable   *bool
	OptionSetID  *uuid.UUID
	DefaultValue json.RawMessage
	UIConfig     json.RawMessage
}

// CreateOptionSetInput defines the payload required to register an option set.
type CreateOptionSetInput struct {
	Name       string
	EntityType *string
}

// AddOptionInput defines the payload required to append an option.
type AddOptionInput struct {
	OptionKey   string
	Label       string
	Description *string
	SortOrder   *int
	IsActive    *bool
}

// UpdateOptionInput defines the patchable attributes of an option.
type UpdateOptionInput struct {
	Label       *string
	Description *string
	SortOrder   *int
	IsActive    *bool
}

// Service exposes the settings/administration operations for tenant field
// schemas and controlled vocabularies.
type Service interface {
	ListFields(ctx context.Context, tenantID uuid.UUID, entityType string) ([]persistence.FieldDefinition, error)
	CreateField(ctx context.Context, tenantID uuid.UUID, input CreateFieldInput) (persistence.FieldDefinition, error)
	UpdateField(ctx context.Context, tenantID, id uuid.UUID, input UpdateFieldInput) (persistence.FieldDefinition, error)
	ArchiveField(ctx context.Context, tenantID, id uuid.UUID) error

	GetOptionSet(ctx context.Context, tenantID uuid.UUID, name string) (persistence.OptionSetWithOptions, error)
	ListOptionSets(ctx context.Context, tenantID uuid.UUID) ([]persistence.OptionSetWithOptions, error)
	CreateOptionSet(ctx context.Context, tenantID uuid.UUID, input CreateOptionSetInput) (persistence.OptionSet, error)
	AddOption(ctx context.Context, tenantID, optionSetID uuid.UUID, input AddOptionInput) (persistence.OptionSetOption, error)
	UpdateOption(ctx context.Context, tenantID, optionSetID, optionID uuid.UUID, input UpdateOptionInput) (persistence.OptionSetOption, error)
	ArchiveOption(ctx context.Context, tenantID, optionSetID, optionID uuid.UUID) error
}

type service struct {
	repo domainrepo.Repository
}

// New constructs a Service instance.
func New(repo domainrepo.Repository) Service {
	if repo == nil {
		panic("custom fields repository is required")
	}

	return &service{repo: repo}
}

func (s *service) ListFields(ctx context.Context, tenantID uuid.UUID, entityType string) ([]persistence.FieldDefinition, error) {
	parsed, err := persistence.ParseEntityType(entityType)
	if err != nil {
		return nil, &ValidationError{Fields: FieldErrors{"entityType": {err.Error()}}}
	}

	return s.repo.LoadFieldDefinitions(ctx, tenantID, parsed)
}

func (s *service) CreateField(ctx context.Context, tenantID uuid.UUID, input CreateFieldInput) (persistence.FieldDefinition, error) {
	fields := FieldErrors{}

	entityType, err := persistence.ParseEntityType(input.EntityType)
	if input.EntityType == "" {
		fields["entityType"] = append(fields["entityType"], "entityType is required")
	} else if err != nil {
		fields["entityType"] = append(fields["entityType"], err.Error())
	}

	fieldKey := strings.TrimSpace(input.FieldKey)
	switch {
	case fieldKey == "":
		fields["fieldKey"] = append(fields["fieldKey"], "fieldKey is required")
	case !fieldKeyPattern.MatchString(fieldKey):
		fields["fieldKey"] = append(fields["fieldKey"], "fieldKey must be snake_case")
	}

	if strings.TrimSpace(input.Label) == "" {
		fields["label"] = append(fields["label"], "label is required")
	}

	dataType, err := persistence.ParseDataType(input.DataType)
	if input.DataType == "" {
		fields["dataType"] = append(fields["dataType"], "dataType is required")
	} else if err != nil {
		fields["dataType"] = append(fields["dataType"], err.Error())
	} else if dataType.RequiresOptionSet() && input.OptionSetID == nil {
		fields["optionSetId"] = append(fields["optionSetId"], "optionSetId is required for enum and multienum fields")
	}

	if uiErr := validateUIConfig(input.UIConfig); uiErr != "" {
		fields["uiConfig"] = append(fields["uiConfig"], uiErr)
	}

	if len(fields) > 0 {
		return persistence.FieldDefinition{}, &ValidationError{Fields: fields}
	}

	record, err := s.repo.CreateFieldDefinition(ctx, persistence.CreateFieldDefinitionParams{
		FieldDefinitionID: uuid.New(),
		TenantID:          tenantID,
		EntityType:        entityType,
		FieldKey:          fieldKey,
		Label:             strings.TrimSpace(input.Label),
		Description:       input.Description,
		DataType:          dataType,
		Required:          input.Required,
		Searchable:        input.Searchable,
		OptionSetID:       input.OptionSetID,
		DefaultValue:      input.DefaultValue,
		UIConfig:          input.UIConfig,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrFieldDefinitionConflict) {
			return persistence.FieldDefinition{}, ErrFieldConflict
		}
		return persistence.FieldDefinition{}, err
	}

	return record, nil
}

func (s *service) UpdateField(ctx context.Context, tenantID, id uuid.UUID, input UpdateFieldInput) (persistence.FieldDefinition, error) {
	if id == uuid.Nil {
		return persistence.FieldDefinition{}, &ValidationError{Fields: FieldErrors{"id": {"id is required"}}}
	}

	if uiErr := validateUIConfig(input.UIConfig); uiErr != "" {
		return persistence.FieldDefinition{}, &ValidationError{Fields: FieldErrors{"uiConfig": {uiErr}}}
	}

	record, err := s.repo.UpdateFieldDefinition(ctx, tenantID, id, persistence.UpdateFieldDefinitionParams{
		Label:        input.Label,
		Description:  input.Description,
		Required:     input.Required,
		Searchable:   input.Searchable,
		OptionSetID:  input.OptionSetID,
		DefaultValue: input.DefaultValue,
		UIConfig:     input.UIConfig,
	})
	if err != nil {
		switch {
		case errors.Is(err, persistence.ErrFieldDefinitionNotFound):
			return persistence.FieldDefinition{}, ErrFieldNotFound
		case errors.Is(err, persistence.ErrFieldDefinitionConflict):
			return persistence.FieldDefinition{}, ErrFieldConflict
		}
		return persistence.FieldDefinition{}, err
	}

	return record, nil
}

func (s *service) ArchiveField(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.repo.ArchiveFieldDefinition(ctx, tenantID, id); err != nil {
		if errors.Is(err, persistence.ErrFieldDefinitionNotFound) {
			return ErrFieldNotFound
		}
		return err
	}

	return nil
}

func (s *service) GetOptionSet(ctx context.Context, tenantID uuid.UUID, name string) (persistence.OptionSetWithOptions, error) {
	record, err := s.repo.GetOptionSet(ctx, tenantID, name)
	if err != nil {
		if errors.Is(err, persistence.ErrOptionSetNotFound) {
			return persistence.OptionSetWithOptions{}, ErrOptionSetNotFound
		}
		return persistence.OptionSetWithOptions{}, err
	}

	return record, nil
}

func (s *service) ListOptionSets(ctx context.Context, tenantID uuid.UUID) ([]persistence.OptionSetWithOptions, error) {
	return s.repo.ListOptionSets(ctx, tenantID)
}

func (s *service) CreateOptionSet(ctx context.Context, tenantID uuid.UUID, input CreateOptionSetInput) (persistence.OptionSet, error) {
	fields := FieldErrors{}

	if strings.TrimSpace(input.Name) == "" {
		fields["name"] = append(fields["name"], "name is required")
	}

	var entityType *persistence.EntityType
	if input.EntityType != nil && *input.EntityType != "" {
		parsed, err := persistence.ParseEntityType(*input.EntityType)
		if err != nil {
			fields["entityType"] = append(fields["entityType"], err.Error())
		} else {
			entityType = &parsed
		}
	}

	if len(fields) > 0 {
		return persistence.OptionSet{}, &ValidationError{Fields: fields}
	}

	record, err := s.repo.CreateOptionSet(ctx, persistence.CreateOptionSetParams{
		OptionSetID: uuid.New(),
		TenantID:    tenantID,
		Name:        strings.TrimSpace(input.Name),
		EntityType:  entityType,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrOptionSetConflict) {
			return persistence.OptionSet{}, ErrOptionSetConflict
		}
		return persistence.OptionSet{}, err
	}

	return record, nil
}

func (s *service) AddOption(ctx context.Context, tenantID, optionSetID uuid.UUID, input AddOptionInput) (persistence.OptionSetOption, error) {
	fields := FieldErrors{}
	if strings.TrimSpace(input.OptionKey) == "" {
		fields["optionKey"] = append(fields["optionKey"], "optionKey is required")
	}
	if strings.TrimSpace(input.Label) == "" {
		fields["label"] = append(fields["label"], "label is required")
	}
	if len(fields) > 0 {
		return persistence.OptionSetOption{}, &ValidationError{Fields: fields}
	}

	record, err := s.repo.AddOption(ctx, tenantID, optionSetID, persistence.AddOptionParams{
		OptionID:    uuid.New(),
		OptionKey:   input.OptionKey,
		Label:       input.Label,
		Description: input.Description,
		SortOrder:   input.SortOrder,
		IsActive:    input.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, persistence.ErrOptionSetNotFound):
			return persistence.OptionSetOption{}, ErrOptionSetNotFound
		case errors.Is(err, persistence.ErrOptionConflict):
			return persistence.OptionSetOption{}, ErrOptionConflict
		}
		return persistence.OptionSetOption{}, err
	}

	return record, nil
}

func (s *service) UpdateOption(ctx context.Context, tenantID, optionSetID, optionID uuid.UUID, input UpdateOptionInput) (persistence.OptionSetOption, error) {
	record, err := s.repo.UpdateOption(ctx, tenantID, optionSetID, optionID, persistence.UpdateOptionParams{
		Label:       input.Label,
		Description: input.Description,
		SortOrder:   input.SortOrder,
		IsActive:    input.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, persistence.ErrOptionSetNotFound):
			return persistence.OptionSetOption{}, ErrOptionSetNotFound
		case errors.Is(err, persistence.ErrOptionNotFound):
			return persistence.OptionSetOption{}, ErrOptionNotFound
		}
		return persistence.OptionSetOption{}, err
	}

	return record, nil
}

func (s *service) ArchiveOption(ctx context.Context, tenantID, optionSetID, optionID uuid.UUID) error {
	if err := s.repo.ArchiveOption(ctx, tenantID, optionSetID, optionID); err != nil {
		switch {
		case errors.Is(err, persistence.ErrOptionSetNotFound):
			return ErrOptionSetNotFound
		case errors.Is(err, persistence.ErrOptionNotFound):
			return ErrOptionNotFound
		}
		return err
	}

	return nil
}

// validateUIConfig parses and schema-checks the blob; empty means valid.
func validateUIConfig(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var document any
	if err := json.Unmarshal(raw, &document); err != nil {
		return fmt.Sprintf("uiConfig is not valid JSON: %v", err)
	}

	if err := uiConfigSchema.Validate(document); err != nil {
		return fmt.Sprintf("uiConfig rejected: %v", err)
	}

	return ""
}
