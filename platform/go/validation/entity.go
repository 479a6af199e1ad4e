package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/troveworks/trove-crm/platform/go/persistence"
)

// Built-in vocabularies for entity-level enumerated attributes. The names are
// fixed contracts with the seeded option sets, not derived per entity type.
const (
	CatalogTypeOptionSet = "catalog_item_type"
	QuoteStatusOptionSet = "quote_status"
)

// DefinitionSource loads the live field definitions for an entity type, with
// enum option sets resolved. Implemented by persistence.FieldDefinitionStore.
type DefinitionSource interface {
	LoadFieldDefinitions(ctx context.Context, tenantID uuid.UUID, entityType persistence.EntityType) ([]persistence.FieldDefinition, error)
}

// OptionKeySource resolves a named option set to its active keys in sort
// order, yielding an empty list when the set does not exist. Implemented by
// persistence.OptionSetStore.
type OptionKeySource interface {
	GetActiveOptionKeys(ctx context.Context, tenantID uuid.UUID, name string) ([]string, error)
}

// EntityValidator is the single gate every entity create/update mutation must
// pass. It loads the tenant's schema, validates the dynamic payload, and
// checks built-in enumerated attributes against their option sets.
type EntityValidator struct {
	definitions DefinitionSource
	optionSets  OptionKeySource
}

// NewEntityValidator constructs an EntityValidator.
func NewEntityValidator(definitions DefinitionSource, optionSets OptionKeySource) *EntityValidator {
	if definitions == nil {
		panic("definition source is required")
	}
	if optionSets == nil {
		panic("option key source is required")
	}

	return &EntityValidator{definitions: definitions, optionSets: optionSets}
}

// EntityInput is a candidate entity mutation. CatalogType and QuoteStatus are
// only consulted for the matching entity types and skipped when nil.
type EntityInput struct {
	TenantID     uuid.UUID
	EntityType   persistence.EntityType
	CustomFields map[string]any
	CatalogType  *string
	QuoteStatus  *string
}

// EntityResult is the aggregated verdict for one entity mutation.
// ValidatedCustomFields is present only when Valid.
type EntityResult struct {
	Valid                 bool           `json:"valid"`
	Errors                []FieldError   `json:"errors"`
	ValidatedCustomFields map[string]any `json:"validatedCustomFields,omitempty"`
}

// ValidateEntity runs the full pipeline: load definitions, validate the
// custom fields payload, check built-in enumerated attributes, and aggregate
// every error into one verdict. An error return means the underlying store
// failed; validation problems never surface as errors.
func (v *EntityValidator) ValidateEntity(ctx context.Context, input EntityInput) (EntityResult, error) {
	if _, err := persistence.ParseEntityType(string(input.EntityType)); err != nil {
		return EntityResult{}, err
	}

	definitions, err := v.definitions.LoadFieldDefinitions(ctx, input.TenantID, input.EntityType)
	if err != nil {
		return EntityResult{}, fmt.Errorf("load field definitions: %w", err)
	}

	fieldsResult := ValidateCustomFields(input.CustomFields, definitions)
	errs := append([]FieldError{}, fieldsResult.Errors...)

	if input.EntityType == persistence.EntityTypeCatalogItem && input.CatalogType != nil {
		keys, err := v.optionSets.GetActiveOptionKeys(ctx, input.TenantID, CatalogTypeOptionSet)
		if err != nil {
			return EntityResult{}, fmt.Errorf("load catalog type options: %w", err)
		}
		if !contains(keys, *input.CatalogType) {
			errs = append(errs, FieldError{
				Path:    "type",
				Message: fmt.Sprintf("Invalid catalog type. Must be one of: %s", strings.Join(keys, ", ")),
			})
		}
	}

	if input.EntityType == persistence.EntityTypeQuote && input.QuoteStatus != nil {
		keys, err := v.optionSets.GetActiveOptionKeys(ctx, input.TenantID, QuoteStatusOptionSet)
		if err != nil {
			return EntityResult{}, fmt.Errorf("load quote status options: %w", err)
		}
		if !contains(keys, *input.QuoteStatus) {
			errs = append(errs, FieldError{
				Path:    "status",
				Message: fmt.Sprintf("Invalid quote status. Must be one of: %s", strings.Join(keys, ", ")),
			})
		}
	}

	if len(errs) > 0 {
		return EntityResult{Valid: false, Errors: errs}, nil
	}

	return EntityResult{
		Valid:                 true,
		Errors:                []FieldError{},
		ValidatedCustomFields: fieldsResult.ValidatedData,
	}, nil
}
