package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troveworks/trove-crm/platform/go/persistence"
)

type mockRepository struct {
	loadFieldDefinitions  func(ctx context.Context, tenantID uuid.UUID, entityType persistence.EntityType) ([]persistence.FieldDefinition, error)
	getFieldDefinition    func(ctx context.Context, tenantID, id uuid.UUID) (persistence.FieldDefinition, error)
	createFieldDefinition func(ctx context.Context, params persistence.CreateFieldDefinitionParams) (persistence.FieldDefinition, error)
	updateFieldDefinition func(ctx context.Context, tenantID, id uuid.UUID, params persistence.UpdateFieldDefinitionParams) (persistence.FieldDefinition, error)
	archiveFieldDef       func(ctx context.Context, tenantID, id uuid.UUID) error
	getOptionSet          func(ctx context.Context, tenantID uuid.UUID, name string) (persistence.OptionSetWithOptions, error)
	listOptionSets        func(ctx context.Context, tenantID uuid.UUID) ([]persistence.OptionSetWithOptions, error)
	createOptionSet       func(ctx context.Context, params persistence.CreateOptionSetParams) (persistence.OptionSet, error)
	addOption             func(ctx context.Context, tenantID, optionSetID uuid.UUID, params persistence.AddOptionParams) (persistence.OptionSetOption, error)
	updateOption          func(ctx context.Context, tenantID, optionSetID, optionID uuid.UUID, params persistence.UpdateOptionParams) (persistence.OptionSetOption, error)
	archiveOption         func(ctx context.Context, tenantID, optionSetID, optionID uuid.UUID) error
}

func (m *mockRepository) LoadFieldDefinitions(ctx context.Context, tenantID uuid.UUID, entityType persistence.EntityType) ([]persistence.FieldDefinition, error) {
	return m.loadFieldDefinitions(ctx, tenantID, entityType)
}

func (m *mockRepository) GetFieldDefinition(ctx context.Context, tenantID, id uuid.UUID) (persistence.FieldDefinition, error) {
	return m.getFieldDefinition(ctx, tenantID, id)
}

func (m *mockRepository) CreateFieldDefinition(ctx context.Context, params persistence.CreateFieldDefinitionParams) (persistence.FieldDefinition, error) {
	return m.createFieldDefinition(ctx, params)
}

func (m *mockRepository) UpdateFieldDefinition(ctx context.Context, tenantID, id uuid.UUID, params persistence.UpdateFieldDefinitionParams) (persistence.FieldDefinition, error) {
	return m.updateFieldDefinition(ctx, tenantID, id, params)
}

func (m *mockRepository) ArchiveFieldDefinition(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.archiveFieldDef(ctx, tenantID, id)
}

func (m *mockRepository) GetOptionSet(ctx context.Context, tenantID uuid.UUID, name string) (persistence.OptionSetWithOptions, error) {
	return m.getOptionSet(ctx, tenantID, name)
}

func (m *mockRepository) ListOptionSets(ctx context.Context, tenantID uuid.UUID) ([]persistence.OptionSetWithOptions, error) {
	return m.listOptionSets(ctx, tenantID)
}

func (m *mockRepository) CreateOptionSet(ctx context.Context, params persistence.CreateOptionSetParams) (persistence.OptionSet, error) {
	return m.createOptionSet(ctx, params)
}

func (m *mockRepository) AddOption(ctx context.Context, tenantID, optionSetID uuid.UUID, params persistence.AddOptionParams) (persistence.OptionSetOption, error) {
	return m.addOption(ctx, tenantID, optionSetID, params)
}

func (m *mockRepository) UpdateOption(ctx context.Context, tenantID, optionSetID, optionID uuid.UUID, params persistence.UpdateOptionParams) (persistence.OptionSetOption, error) {
	return m.updateOption(ctx, tenantID, optionSetID, optionID, params)
}

func (m *mockRepository) ArchiveOption(ctx context.Context, tenantID, optionSetID, optionID uuid.UUID) error {
	return m.archiveOption(ctx, tenantID, optionSetID, optionID)
}

func TestCreateFieldValidatesInput(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.CreateField(context.Background(), uuid.New(), CreateFieldInput{
		EntityType: "spaceship",
		FieldKey:   "Bad Key",
		DataType:   "enum",
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "entityType")
	assert.Contains(t, validationErr.Fields, "fieldKey")
	assert.Contains(t, validationErr.Fields, "label")
	assert.Contains(t, validationErr.Fields, "optionSetId")
}

func TestCreateFieldRequiresOptionSetForMultienum(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.CreateField(context.Background(), uuid.New(), CreateFieldInput{
		EntityType: "contact",
		FieldKey:   "tags",
		Label:      "Tags",
		DataType:   "multienum",
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "optionSetId")
	assert.Equal(t, []string{"optionSetId is required for enum and multienum fields"}, validationErr.Fields["optionSetId"])
}

func TestCreateFieldRejectsInvalidUIConfig(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	cases := map[string]json.RawMessage{
		"not JSON":         json.RawMessage(`{widget:`),
		"unknown property": json.RawMessage(`{"widget":"textarea","surprise":true}`),
		"wrong value type": json.RawMessage(`{"rows":"five"}`),
		"top-level scalar": json.RawMessage(`42`),
		"zero column span": json.RawMessage(`{"columnSpan":0}`),
	}

	for name, raw := range cases {
		raw := raw
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.CreateField(context.Background(), uuid.New(), CreateFieldInput{
				EntityType: "company",
				FieldKey:   "industry_note",
				Label:      "Industry note",
				DataType:   "longtext",
				UIConfig:   raw,
			})

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Contains(t, validationErr.Fields, "uiConfig")
		})
	}
}

func TestCreateFieldPassesNormalisedParams(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	var captured persistence.CreateFieldDefinitionParams
	repo := &mockRepository{
		createFieldDefinition: func(_ context.Context, params persistence.CreateFieldDefinitionParams) (persistence.FieldDefinition, error) {
			captured = params
			return persistence.FieldDefinition{ID: params.FieldDefinitionID, FieldKey: params.FieldKey}, nil
		},
	}
	svc := New(repo)

	created, err := svc.CreateField(context.Background(), tenantID, CreateFieldInput{
		EntityType: "company",
		FieldKey:   "  annual_revenue  ",
		Label:      "  Annual revenue ",
		DataType:   "currency",
		Required:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, tenantID, captured.TenantID)
	assert.Equal(t, persistence.EntityTypeCompany, captured.EntityType)
	assert.Equal(t, "annual_revenue", captured.FieldKey)
	assert.Equal(t, "Annual revenue", captured.Label)
	assert.Equal(t, persistence.DataTypeCurrency, captured.DataType)
	assert.True(t, captured.Required)
	assert.Equal(t, "annual_revenue", created.FieldKey)
}

func TestCreateFieldTranslatesConflict(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{
		createFieldDefinition: func(context.Context, persistence.CreateFieldDefinitionParams) (persistence.FieldDefinition, error) {
			return persistence.FieldDefinition{}, persistence.ErrFieldDefinitionConflict
		},
	}
	svc := New(repo)

	_, err := svc.CreateField(context.Background(), uuid.New(), CreateFieldInput{
		EntityType: "contact",
		FieldKey:   "loyalty_tier",
		Label:      "Loyalty tier",
		DataType:   "string",
	})

	require.ErrorIs(t, err, ErrFieldConflict)
}

func TestUpdateFieldTranslatesNotFound(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{
		updateFieldDefinition: func(context.Context, uuid.UUID, uuid.UUID, persistence.UpdateFieldDefinitionParams) (persistence.FieldDefinition, error) {
			return persistence.FieldDefinition{}, persistence.ErrFieldDefinitionNotFound
		},
	}
	svc := New(repo)

	label := "Renamed"
	_, err := svc.UpdateField(context.Background(), uuid.New(), uuid.New(), UpdateFieldInput{Label: &label})

	require.ErrorIs(t, err, ErrFieldNotFound)
}

func TestArchiveFieldTranslatesNotFound(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{
		archiveFieldDef: func(context.Context, uuid.UUID, uuid.UUID) error {
			return persistence.ErrFieldDefinitionNotFound
		},
	}
	svc := New(repo)

	err := svc.ArchiveField(context.Background(), uuid.New(), uuid.New())

	require.ErrorIs(t, err, ErrFieldNotFound)
}

func TestListFieldsRejectsUnknownEntityType(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.ListFields(context.Background(), uuid.New(), "invoice")

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "entityType")
}

func TestCreateOptionSetValidatesAndTrims(t *testing.T) {
	t.Parallel()

	var captured persistence.CreateOptionSetParams
	repo := &mockRepository{
		createOptionSet: func(_ context.Context, params persistence.CreateOptionSetParams) (persistence.OptionSet, error) {
			captured = params
			return persistence.OptionSet{ID: params.OptionSetID, Name: params.Name}, nil
		},
	}
	svc := New(repo)

	_, err := svc.CreateOptionSet(context.Background(), uuid.New(), CreateOptionSetInput{Name: "   "})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "name")

	created, err := svc.CreateOptionSet(context.Background(), uuid.New(), CreateOptionSetInput{Name: "  deal_stage "})
	require.NoError(t, err)
	assert.Equal(t, "deal_stage", captured.Name)
	assert.Equal(t, "deal_stage", created.Name)
}

func TestCreateOptionSetTranslatesConflict(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{
		createOptionSet: func(context.Context, persistence.CreateOptionSetParams) (persistence.OptionSet, error) {
			return persistence.OptionSet{}, persistence.ErrOptionSetConflict
		},
	}
	svc := New(repo)

	_, err := svc.CreateOptionSet(context.Background(), uuid.New(), CreateOptionSetInput{Name: "deal_stage"})

	require.ErrorIs(t, err, ErrOptionSetConflict)
}

func TestAddOptionTranslatesErrors(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{
		addOption: func(context.Context, uuid.UUID, uuid.UUID, persistence.AddOptionParams) (persistence.OptionSetOption, error) {
			return persistence.OptionSetOption{}, persistence.ErrOptionSetNotFound
		},
	}
	svc := New(repo)

	_, err := svc.AddOption(context.Background(), uuid.New(), uuid.New(), AddOptionInput{
		OptionKey: "won",
		Label:     "Won",
	})

	require.ErrorIs(t, err, ErrOptionSetNotFound)
}

func TestAddOptionValidatesInput(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.AddOption(context.Background(), uuid.New(), uuid.New(), AddOptionInput{})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "optionKey")
	assert.Contains(t, validationErr.Fields, "label")
}

func TestArchiveOptionTranslatesNotFound(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{
		archiveOption: func(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) error {
			return persistence.ErrOptionNotFound
		},
	}
	svc := New(repo)

	err := svc.ArchiveOption(context.Background(), uuid.New(), uuid.New(), uuid.New())

	require.ErrorIs(t, err, ErrOptionNotFound)
}
