package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntityType enumerates the standard CRM entities that accept custom fields.
type EntityType string

const (
	EntityTypeCompany     EntityType = "company"
	EntityTypeContact     EntityType = "contact"
	EntityTypeCatalogItem EntityType = "catalog_item"
	EntityTypeQuote       EntityType = "quote"
)

// EntityTypes lists every supported entity type in a stable order.
func EntityTypes() []EntityType {
	return []EntityType{EntityTypeCompany, EntityTypeContact, EntityTypeCatalogItem, EntityTypeQuote}
}

// ParseEntityType validates a raw entity type string.
func ParseEntityType(raw string) (EntityType, error) {
	switch EntityType(raw) {
	case EntityTypeCompany, EntityTypeContact, EntityTypeCatalogItem, EntityTypeQuote:
		return EntityType(raw), nil
	default:
		return "", fmt.Errorf("unknown entity type %q", raw)
	}
}

// DataType enumerates the closed set of custom field value types.
type DataType string

const (
	DataTypeString    DataType = "string"
	DataTypeLongtext  DataType = "longtext"
	DataTypeNumber    DataType = "number"
	DataTypeCurrency  DataType = "currency"
	DataTypeBoolean   DataType = "boolean"
	DataTypeDate      DataType = "date"
	DataTypeDatetime  DataType = "datetime"
	DataTypeEmail     DataType = "email"
	DataTypePhone     DataType = "phone"
	DataTypeURL       DataType = "url"
	DataTypeJSON      DataType = "json"
	DataTypeEnum      DataType = "enum"
	DataTypeMultienum DataType = "multienum"
)

// ParseDataType validates a raw data type string.
func ParseDataType(raw string) (DataType, error) {
	switch DataType(raw) {
	case DataTypeString, DataTypeLongtext, DataTypeNumber, DataTypeCurrency,
		DataTypeBoolean, DataTypeDate, DataTypeDatetime, DataTypeEmail,
		DataTypePhone, DataTypeURL, DataTypeJSON, DataTypeEnum, DataTypeMultienum:
		return DataType(raw), nil
	default:
		return "", fmt.Errorf("unknown data type %q", raw)
	}
}

// RequiresOptionSet reports whether fields of this type must reference an option set.
func (d DataType) RequiresOptionSet() bool {
	return d == DataTypeEnum || d == DataTypeMultienum
}

// FieldDefinition describes one tenant-authored custom attribute on an entity type.
// FieldKey and DataType are immutable after creation; archival replaces deletion so
// stored values remain interpretable.
type FieldDefinition struct {
	ID           uuid.UUID             `json:"id"`
	TenantID     uuid.UUID             `json:"tenantId"`
	EntityType   EntityType            `json:"entityType"`
	FieldKey     string                `json:"fieldKey"`
	Label        string                `json:"label"`
	Description  *string               `json:"description,omitempty"`
	DataType     DataType              `json:"dataType"`
	Required     bool                  `json:"required"`
	Searchable   bool                  `json:"searchable"`
	OptionSetID  *uuid.UUID            `json:"optionSetId,omitempty"`
	DefaultValue json.RawMessage       `json:"defaultValue,omitempty"`
	UIConfig     json.RawMessage       `json:"uiConfig,omitempty"`
	IsArchived   bool                  `json:"isArchived"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
	OptionSet    *OptionSetWithOptions `json:"optionSet,omitempty"`
}

// OptionSet is a tenant-scoped named controlled vocabulary. The EntityType tie
// is informational only and never enforced against field definitions.
type OptionSet struct {
	ID         uuid.UUID   `json:"id"`
	TenantID   uuid.UUID   `json:"tenantId"`
	Name       string      `json:"name"`
	EntityType *EntityType `json:"entityType,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// OptionSetOption is one choice within an option set. Deactivation replaces
// deletion so values already stored on records keep resolving.
type OptionSetOption struct {
	ID          uuid.UUID `json:"id"`
	OptionSetID uuid.UUID `json:"optionSetId"`
	OptionKey   string    `json:"optionKey"`
	Label       string    `json:"label"`
	Description *string   `json:"description,omitempty"`
	SortOrder   int       `json:"sortOrder"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OptionSetWithOptions bundles a set with its options ordered by sort order ascending.
type OptionSetWithOptions struct {
	OptionSet
	Options []OptionSetOption `json:"options"`
}

// ActiveOptionKeys returns the active option keys in sort order.
func (s *OptionSetWithOptions) ActiveOptionKeys() []string {
	if s == nil {
		return nil
	}

	keys := make([]string, 0, len(s.Options))
	for _, opt := range s.Options {
		if opt.IsActive {
			keys = append(keys, opt.OptionKey)
		}
	}
	return keys
}
