package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/troveworks/trove-crm/platform/go/persistence"
)

type mockDefinitionSource struct {
	loadFn func(ctx context.Context, tenantID uuid.UUID, entityType persistence.EntityType) ([]persistence.FieldDefinition, error)
}

func (m *mockDefinitionSource) LoadFieldDefinitions(ctx context.Context, tenantID uuid.UUID, entityType persistence.EntityType) ([]persistence.FieldDefinition, error) {
	if m.loadFn == nil {
		return nil, nil
	}
	return m.loadFn(ctx, tenantID, entityType)
}

type mockOptionKeySource struct {
	keysFn func(ctx context.Context, tenantID uuid.UUID, name string) ([]string, error)
}

func (m *mockOptionKeySource) GetActiveOptionKeys(ctx context.Context, tenantID uuid.UUID, name string) ([]string, error) {
	if m.keysFn == nil {
		return []string{}, nil
	}
	return m.keysFn(ctx, tenantID, name)
}

func strPtr(s string) *string { return &s }

func TestValidateEntityMissingCatalogTypeOptionSet(t *testing.T) {
	t.Parallel()

	// no option set registered at all: the empty valid set still rejects
	validator := NewEntityValidator(&mockDefinitionSource{}, &mockOptionKeySource{})

	result, err := validator.ValidateEntity(context.Background(), EntityInput{
		TenantID:    uuid.New(),
		EntityType:  persistence.EntityTypeCatalogItem,
		CatalogType: strPtr("widget"),
	})

	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	require.Equal(t, "type", result.Errors[0].Path)
	require.Equal(t, "Invalid catalog type. Must be one of: ", result.Errors[0].Message)
}

func TestValidateEntityCatalogTypeAccepted(t *testing.T) {
	t.Parallel()

	options := &mockOptionKeySource{
		keysFn: func(ctx context.Context, tenantID uuid.UUID, name string) ([]string, error) {
			require.Equal(t, CatalogTypeOptionSet, name)
			return []string{"widget", "service"}, nil
		},
	}
	validator := NewEntityValidator(&mockDefinitionSource{}, options)

	result, err := validator.ValidateEntity(context.Background(), EntityInput{
		TenantID:    uuid.New(),
		EntityType:  persistence.EntityTypeCatalogItem,
		CatalogType: strPtr("widget"),
	})

	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Empty(t, result.Errors)
}

func TestValidateEntityQuoteStatus(t *testing.T) {
	t.Parallel()

	options := &mockOptionKeySource{
		keysFn: func(ctx context.Context, tenantID uuid.UUID, name string) ([]string, error) {
			require.Equal(t, QuoteStatusOptionSet, name)
			return []string{"draft", "sent"}, nil
		},
	}
	validator := NewEntityValidator(&mockDefinitionSource{}, options)

	result, err := validator.ValidateEntity(context.Background(), EntityInput{
		TenantID:    uuid.New(),
		EntityType:  persistence.EntityTypeQuote,
		QuoteStatus: strPtr("accepted"),
	})

	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Equal(t, "status", result.Errors[0].Path)
	require.Equal(t, "Invalid quote status. Must be one of: draft, sent", result.Errors[0].Message)
}

func TestValidateEntityStatusSkippedWhenAbsent(t *testing.T) {
	t.Parallel()

	options := &mockOptionKeySource{
		keysFn: func(ctx context.Context, tenantID uuid.UUID, name string) ([]string, error) {
			t.Fatal("option keys must not be fetched when the attribute is absent")
			return nil, nil
		},
	}
	validator := NewEntityValidator(&mockDefinitionSource{}, options)

	result, err := validator.ValidateEntity(context.Background(), EntityInput{
		TenantID:   uuid.New(),
		EntityType: persistence.EntityTypeQuote,
	})

	require.NoError(t, err)
	require.True(t, result.Valid)
}

func TestValidateEntityCombinesCustomFieldAndAttributeErrors(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	defs := &mockDefinitionSource{
		loadFn: func(ctx context.Context, gotTenant uuid.UUID, entityType persistence.EntityType) ([]persistence.FieldDefinition, error) {
			require.Equal(t, tenantID, gotTenant)
			require.Equal(t, persistence.EntityTypeCatalogItem, entityType)
			return []persistence.FieldDefinition{fieldDef("sku", persistence.DataTypeString, true)}, nil
		},
	}
	options := &mockOptionKeySource{
		keysFn: func(ctx context.Context, tenantID uuid.UUID, name string) ([]string, error) {
			return []string{"widget"}, nil
		},
	}
	validator := NewEntityValidator(defs, options)

	result, err := validator.ValidateEntity(context.Background(), EntityInput{
		TenantID:    tenantID,
		EntityType:  persistence.EntityTypeCatalogItem,
		CatalogType: strPtr("gadget"),
	})

	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 2)
	require.Equal(t, "customFields.sku", result.Errors[0].Path)
	require.Equal(t, "type", result.Errors[1].Path)
	require.Nil(t, result.ValidatedCustomFields)
}

func TestValidateEntityValidPayload(t *testing.T) {
	t.Parallel()

	defs := &mockDefinitionSource{
		loadFn: func(ctx context.Context, tenantID uuid.UUID, entityType persistence.EntityType) ([]persistence.FieldDefinition, error) {
			return []persistence.FieldDefinition{
				fieldDef("employee_count", persistence.DataTypeNumber, false),
			}, nil
		},
	}
	validator := NewEntityValidator(defs, &mockOptionKeySource{})

	result, err := validator.ValidateEntity(context.Background(), EntityInput{
		TenantID:     uuid.New(),
		EntityType:   persistence.EntityTypeCompany,
		CustomFields: map[string]any{"employee_count": float64(50)},
	})

	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Equal(t, map[string]any{"employee_count": float64(50)}, result.ValidatedCustomFields)
}

func TestValidateEntityStorageFailurePropagates(t *testing.T) {
	t.Parallel()

	storageErr := errors.New("connection reset")
	defs := &mockDefinitionSource{
		loadFn: func(ctx context.Context, tenantID uuid.UUID, entityType persistence.EntityType) ([]persistence.FieldDefinition, error) {
			return nil, storageErr
		},
	}
	validator := NewEntityValidator(defs, &mockOptionKeySource{})

	_, err := validator.ValidateEntity(context.Background(), EntityInput{
		TenantID:   uuid.New(),
		EntityType: persistence.EntityTypeCompany,
	})

	require.ErrorIs(t, err, storageErr)
}

func TestValidateEntityUnknownEntityType(t *testing.T) {
	t.Parallel()

	validator := NewEntityValidator(&mockDefinitionSource{}, &mockOptionKeySource{})

	_, err := validator.ValidateEntity(context.Background(), EntityInput{
		TenantID:   uuid.New(),
		EntityType: persistence.EntityType("spaceship"),
	})

	require.Error(t, err)
}
