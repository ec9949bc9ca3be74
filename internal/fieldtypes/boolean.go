package fieldtypes

import "benefit-calculator/internal/model"

type BooleanHandler struct{}

// Validate accepts any non-empty value.
func (h *BooleanHandler) Validate(model.FieldDescriptor, any) string {
	return ""
}

// Convert keeps real booleans and maps every other non-empty value to true,
// including the string "false".
func (h *BooleanHandler) Convert(value any) any {
	if b, ok := value.(bool); ok {
		return b
	}
	return true
}

// WireType is String: the engine receives booleans untyped.
func (h *BooleanHandler) WireType() model.WireType {
	return model.WireTypeString
}
