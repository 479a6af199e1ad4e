package validation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/troveworks/trove-crm/platform/go/persistence"
)

func fieldDef(key string, dataType persistence.DataType, required bool) persistence.FieldDefinition {
	return persistence.FieldDefinition{
		ID:         uuid.New(),
		TenantID:   uuid.New(),
		EntityType: persistence.EntityTypeCompany,
		FieldKey:   key,
		Label:      key,
		DataType:   dataType,
		Required:   required,
	}
}

func enumDef(key string, dataType persistence.DataType, options ...persistence.OptionSetOption) persistence.FieldDefinition {
	def := fieldDef(key, dataType, false)
	setID := uuid.New()
	def.OptionSetID = &setID
	def.OptionSet = &persistence.OptionSetWithOptions{
		OptionSet: persistence.OptionSet{ID: setID, TenantID: def.TenantID, Name: key + "_set"},
		Options:   options,
	}
	return def
}

func option(key string, active bool) persistence.OptionSetOption {
	return persistence.OptionSetOption{
		ID:        uuid.New(),
		OptionKey: key,
		Label:     key,
		IsActive:  active,
	}
}

func TestValidateValueRequired(t *testing.T) {
	t.Parallel()

	for _, dataType := range []persistence.DataType{
		persistence.DataTypeString, persistence.DataTypeLongtext, persistence.DataTypeNumber,
		persistence.DataTypeCurrency, persistence.DataTypeBoolean, persistence.DataTypeDate,
		persistence.DataTypeDatetime, persistence.DataTypeEmail, persistence.DataTypePhone,
		persistence.DataTypeURL, persistence.DataTypeJSON, persistence.DataTypeEnum,
		persistence.DataTypeMultienum,
	} {
		def := fieldDef("the_field", dataType, true)

		err := ValidateValue(def, nil)
		require.NotNil(t, err, "nil value for required %s", dataType)
		require.Equal(t, "customFields.the_field", err.Path)
		require.Equal(t, "the_field is required", err.Message)

		err = ValidateValue(def, "")
		require.NotNil(t, err, "empty string for required %s", dataType)
		require.Equal(t, "the_field is required", err.Message)
	}
}

func TestValidateValueRequiredAcceptsTypedValue(t *testing.T) {
	t.Parallel()

	valid := map[persistence.DataType]any{
		persistence.DataTypeString:   "acme",
		persistence.DataTypeLongtext: "a long note",
		persistence.DataTypeNumber:   float64(42),
		persistence.DataTypeCurrency: 19.99,
		persistence.DataTypeBoolean:  false,
		persistence.DataTypeDate:     "2024-01-15T00:00:00.000Z",
		persistence.DataTypeDatetime: "2024-01-15T13:45:00.000Z",
		persistence.DataTypeEmail:    "ops@acme.example.com",
		persistence.DataTypePhone:    "+44 20 7946 0958",
		persistence.DataTypeURL:      "https://acme.example.com",
		persistence.DataTypeJSON:     map[string]any{"k": "v"},
	}

	for dataType, value := range valid {
		def := fieldDef("the_field", dataType, true)
		require.Nil(t, ValidateValue(def, value), "valid %s value", dataType)
	}

	enum := enumDef("the_field", persistence.DataTypeEnum, option("a", true))
	enum.Required = true
	require.Nil(t, ValidateValue(enum, "a"))

	multi := enumDef("the_field", persistence.DataTypeMultienum, option("a", true))
	multi.Required = true
	require.Nil(t, ValidateValue(multi, []any{"a"}))
}

func TestValidateValueOptionalAndAbsent(t *testing.T) {
	t.Parallel()

	for _, dataType := range []persistence.DataType{
		persistence.DataTypeString, persistence.DataTypeNumber, persistence.DataTypeBoolean,
		persistence.DataTypeDate, persistence.DataTypeEmail, persistence.DataTypePhone,
		persistence.DataTypeURL, persistence.DataTypeJSON, persistence.DataTypeEnum,
		persistence.DataTypeMultienum,
	} {
		def := fieldDef("anything", dataType, false)
		require.Nil(t, ValidateValue(def, nil), "nil value for optional %s", dataType)
	}
}

func TestValidateValueTypes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		dataType persistence.DataType
		value    any
		wantErr  string
	}{
		{"string ok", persistence.DataTypeString, "hello", ""},
		{"string rejects number", persistence.DataTypeString, float64(5), "Expected string"},
		{"longtext ok", persistence.DataTypeLongtext, "long text", ""},
		{"empty string ok when optional", persistence.DataTypeString, "", ""},

		{"number ok float", persistence.DataTypeNumber, float64(50), ""},
		{"number ok int", persistence.DataTypeNumber, 50, ""},
		{"number rejects string", persistence.DataTypeNumber, "50", "Expected number"},
		{"currency rejects bool", persistence.DataTypeCurrency, true, "Expected number"},

		{"boolean ok", persistence.DataTypeBoolean, true, ""},
		{"boolean rejects string", persistence.DataTypeBoolean, "true", "Expected boolean"},

		{"email ok", persistence.DataTypeEmail, "sales@acme.example.com", ""},
		{"email rejects missing domain dot", persistence.DataTypeEmail, "sales@acme", "Expected a valid email address"},
		{"email rejects missing local", persistence.DataTypeEmail, "@acme.com", "Expected a valid email address"},

		{"phone ok", persistence.DataTypePhone, "+1 (555) 010-2030", ""},
		{"phone rejects letters", persistence.DataTypePhone, "call me", "Expected a valid phone number"},

		{"url ok", persistence.DataTypeURL, "https://acme.example.com/about", ""},
		{"url rejects relative", persistence.DataTypeURL, "/about", "Expected a valid URL"},
		{"url rejects non-string", persistence.DataTypeURL, 12, "Expected a valid URL"},

		{"json ok object", persistence.DataTypeJSON, map[string]any{"a": 1}, ""},
		{"json ok array", persistence.DataTypeJSON, []any{1, 2}, ""},
		{"json rejects string", persistence.DataTypeJSON, "{}", "Expected a JSON object or array"},
		{"json rejects number", persistence.DataTypeJSON, float64(1), "Expected a JSON object or array"},

		{"unknown data type", persistence.DataType("blob"), "x", `Unsupported data type "blob"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			def := fieldDef("f", tc.dataType, false)
			err := ValidateValue(def, tc.value)
			if tc.wantErr == "" {
				require.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			require.Equal(t, tc.wantErr, err.Message)
			require.Equal(t, "customFields.f", err.Path)
		})
	}
}

func TestValidateValueISOStrictness(t *testing.T) {
	t.Parallel()

	def := fieldDef("due_date", persistence.DataTypeDate, false)

	require.Nil(t, ValidateValue(def, "2024-01-15T00:00:00.000Z"))
	require.Nil(t, ValidateValue(def, "2024-01-15T09:30:00.500+02:00"))

	for _, bad := range []string{
		"Jan 15 2024",
		"2024-01-15",                // parseable but not canonical
		"2024-01-15T00:00:00Z",      // missing milliseconds
		"2024-01-15T00:00:00.0000Z", // excess precision
	} {
		err := ValidateValue(def, bad)
		require.NotNil(t, err, "value %q should be rejected", bad)
		require.Equal(t, "Expected an ISO 8601 date string", err.Message)
	}
}

func TestValidateValueEnumMembership(t *testing.T) {
	t.Parallel()

	def := enumDef("region", persistence.DataTypeEnum,
		option("na", true), option("eu", true), option("apac", false))

	require.Nil(t, ValidateValue(def, "na"))
	require.Nil(t, ValidateValue(def, "eu"))

	inactive := ValidateValue(def, "apac")
	require.NotNil(t, inactive)
	require.Equal(t, "Invalid value. Must be one of: na, eu", inactive.Message)

	// unknown keys get the identical message format
	unknown := ValidateValue(def, "latam")
	require.NotNil(t, unknown)
	require.Equal(t, inactive.Message, unknown.Message)

	nonString := ValidateValue(def, 7)
	require.NotNil(t, nonString)
}

func TestValidateValueEnumWithoutOptionSet(t *testing.T) {
	t.Parallel()

	def := fieldDef("region", persistence.DataTypeEnum, false)

	err := ValidateValue(def, "na")
	require.NotNil(t, err)
	require.Equal(t, "Invalid value. Must be one of: ", err.Message)
}

func TestValidateValueMultienum(t *testing.T) {
	t.Parallel()

	def := enumDef("tags", persistence.DataTypeMultienum,
		option("vip", true), option("churned", true), option("legacy", false))

	require.Nil(t, ValidateValue(def, []any{}))
	require.Nil(t, ValidateValue(def, []any{"vip"}))
	require.Nil(t, ValidateValue(def, []any{"vip", "churned"}))

	err := ValidateValue(def, "vip")
	require.NotNil(t, err)
	require.Equal(t, "Expected an array of option keys", err.Message)

	// first violation is reported with the offending item and the valid set
	err = ValidateValue(def, []any{"vip", "legacy", "unknown"})
	require.NotNil(t, err)
	require.Equal(t, "Invalid value legacy. Must be one of: vip, churned", err.Message)

	err = ValidateValue(def, []any{42})
	require.NotNil(t, err)
	require.Equal(t, "Invalid value 42. Must be one of: vip, churned", err.Message)
}
