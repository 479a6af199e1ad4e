package validation

import (
	"sort"

	"github.com/troveworks/trove-crm/platform/go/persistence"
)

// ValidateCustomFields checks a candidate payload against the live definitions
// of an entity type. The schema is closed: keys without a definition are
// rejected, never passed through. A nil candidate is treated as an empty
// object, so only required-field errors can result.
//
// Error ordering is deterministic: unknown-key errors first (sorted by key),
// then definition-driven errors in definition order.
func ValidateCustomFields(candidate map[string]any, definitions []persistence.FieldDefinition) Result {
	if candidate == nil {
		candidate = map[string]any{}
	}

	defined := make(map[string]struct{}, len(definitions))
	for _, def := range definitions {
		defined[def.FieldKey] = struct{}{}
	}

	var errs []FieldError

	var unknown []string
	for key := range candidate {
		if _, ok := defined[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		errs = append(errs, FieldError{
			Path:    "customFields." + key,
			Message: "Unknown custom field",
		})
	}

	validated := map[string]any{}
	for _, def := range definitions {
		value := candidate[def.FieldKey]
		if fieldErr := ValidateValue(def, value); fieldErr != nil {
			errs = append(errs, *fieldErr)
			continue
		}

		// only echo back keys the caller actually supplied
		if _, ok := candidate[def.FieldKey]; ok {
			validated[def.FieldKey] = value
		}
	}

	if len(errs) > 0 {
		return Result{Valid: false, Errors: errs}
	}

	return Result{Valid: true, Errors: []FieldError{}, ValidatedData: validated}
}
