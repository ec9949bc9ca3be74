// Package validation checks raw form values against workflow-defined field
// descriptors. Every function here is pure.
package validation

import (
	"fmt"

	"benefit-calculator/internal/fieldtypes"
	"benefit-calculator/internal/model"
)

// ValidateField returns the error message for value, or "" when it is valid.
func ValidateField(field model.FieldDescriptor, value any) string {
	if model.IsEmpty(value) {
		if field.IsRequired() {
			return fmt.Sprintf("%s is required", field.Label)
		}
		return ""
	}
	return fieldtypes.For(field.DataType).Validate(field, value)
}

// ValidateForm validates every descriptor in fields against values and
// returns only the failing ones, keyed by field id. Keys of values that are
// not described by fields are ignored.
func ValidateForm(fields []model.FieldDescriptor, values map[string]any) map[string]string {
	errs := make(map[string]string)
	for _, f := range fields {
		if msg := ValidateField(f, values[f.ID]); msg != "" {
			errs[f.ID] = msg
		}
	}
	return errs
}

func IsFormValid(fields []model.FieldDescriptor, values map[string]any) bool {
	return len(ValidateForm(fields, values)) == 0
}
