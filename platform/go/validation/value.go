package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/troveworks/trove-crm/platform/go/persistence"
)

// Deliberately lightweight shapes: local@domain.tld and a digit/punctuation
// class with an optional leading +. Full RFC compliance is not a goal.
var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9()\s-]+$`)
)

// isoLayout is the canonical wire form for date/datetime values: RFC 3339
// with millisecond precision. Inputs must round-trip through this layout
// byte-for-byte; merely parseable dates are rejected.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// ValidateValue checks one candidate value against one field definition and
// returns the first problem found, or nil. A nil value covers both an absent
// key and an explicit JSON null.
func ValidateValue(field persistence.FieldDefinition, value any) *FieldError {
	if field.Required && isMissing(value) {
		return fieldError(field, "%s is required", field.Label)
	}
	// optional and missing is always valid; skip type checks
	if value == nil {
		return nil
	}

	switch field.DataType {
	case persistence.DataTypeString, persistence.DataTypeLongtext:
		if _, ok := value.(string); !ok {
			return fieldError(field, "Expected string")
		}

	case persistence.DataTypeNumber, persistence.DataTypeCurrency:
		num, ok := numericValue(value)
		if !ok || math.IsNaN(num) || math.IsInf(num, 0) {
			return fieldError(field, "Expected number")
		}

	case persistence.DataTypeBoolean:
		if _, ok := value.(bool); !ok {
			return fieldError(field, "Expected boolean")
		}

	case persistence.DataTypeEmail:
		s, ok := value.(string)
		if !ok || !emailPattern.MatchString(s) {
			return fieldError(field, "Expected a valid email address")
		}

	case persistence.DataTypePhone:
		s, ok := value.(string)
		if !ok || !phonePattern.MatchString(s) {
			return fieldError(field, "Expected a valid phone number")
		}

	case persistence.DataTypeURL:
		s, ok := value.(string)
		if !ok {
			return fieldError(field, "Expected a valid URL")
		}
		parsed, err := url.Parse(s)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fieldError(field, "Expected a valid URL")
		}

	case persistence.DataTypeDate, persistence.DataTypeDatetime:
		s, ok := value.(string)
		if !ok || !isCanonicalISO(s) {
			return fieldError(field, "Expected an ISO 8601 date string")
		}

	case persistence.DataTypeJSON:
		switch value.(type) {
		case string, float64, int, int64, json.Number:
			return fieldError(field, "Expected a JSON object or array")
		}

	case persistence.DataTypeEnum:
		s, ok := value.(string)
		valid := activeKeys(field)
		if !ok || !contains(valid, s) {
			return fieldError(field, "Invalid value. Must be one of: %s", strings.Join(valid, ", "))
		}

	case persistence.DataTypeMultienum:
		items, ok := value.([]any)
		if !ok {
			return fieldError(field, "Expected an array of option keys")
		}
		valid := activeKeys(field)
		for _, item := range items {
			s, isString := item.(string)
			if !isString || !contains(valid, s) {
				return fieldError(field, "Invalid value %v. Must be one of: %s", item, strings.Join(valid, ", "))
			}
		}

	default:
		return fieldError(field, "Unsupported data type %q", field.DataType)
	}

	return nil
}

func fieldError(field persistence.FieldDefinition, format string, args ...any) *FieldError {
	return &FieldError{
		Path:    "customFields." + field.FieldKey,
		Message: fmt.Sprintf(format, args...),
	}
}

// isMissing reports absent/null/empty-string, the trio that trips "required".
func isMissing(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// isCanonicalISO accepts only strings that re-serialize to themselves through
// the canonical layout, i.e. values that are already in canonical ISO form.
func isCanonicalISO(s string) bool {
	parsed, err := time.Parse(isoLayout, s)
	if err != nil {
		return false
	}
	return parsed.Format(isoLayout) == s
}

// activeKeys returns the valid choices for an enum-backed field in sort order.
// A missing or unresolved option set yields no valid choices.
func activeKeys(field persistence.FieldDefinition) []string {
	if field.OptionSet == nil {
		return []string{}
	}
	return field.OptionSet.ActiveOptionKeys()
}

func contains(keys []string, candidate string) bool {
	for _, key := range keys {
		if key == candidate {
			return true
		}
	}
	return false
}
