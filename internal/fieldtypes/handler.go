package fieldtypes

import "benefit-calculator/internal/model"

// TypeHandler defines the per-data-type contract. Each handler validates and
// converts values that are already known to be non-empty.
type TypeHandler interface {
	Validate(field model.FieldDescriptor, value any) string
	Convert(value any) any
	WireType() model.WireType
}
