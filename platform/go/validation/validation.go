// Package validation decides whether dynamic JSON payloads conform to a
// tenant's custom field schema. The checks are driven entirely by stored
// field definitions, so tenants extend their entities without code changes.
package validation

// FieldError locates one validation problem. Path is a dotted locator
// ("customFields.<fieldKey>" or a bare attribute name such as "type") suitable
// for surfacing next to a form control.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Result is the aggregated verdict for a custom fields payload.
// ValidatedData is present only when Valid and contains exactly the subset of
// input keys that were recognized and passed validation; unknown keys are
// never echoed back.
type Result struct {
	Valid         bool           `json:"valid"`
	Errors        []FieldError   `json:"errors"`
	ValidatedData map[string]any `json:"validatedData,omitempty"`
}
