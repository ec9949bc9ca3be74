package fieldtypes

import "benefit-calculator/internal/model"

var registry = map[model.DataType]TypeHandler{
	model.DataTypeString:  &TextHandler{},
	model.DataTypeDouble:  &DoubleHandler{},
	model.DataTypeBoolean: &BooleanHandler{},
	model.DataTypeDate:    &DateHandler{},
}

func Get(dt model.DataType) (TypeHandler, bool) {
	h, ok := registry[dt]
	return h, ok
}

// For returns the handler for dt. Unknown data types are treated as plain
// strings without a pattern.
func For(dt model.DataType) TypeHandler {
	if h, ok := registry[dt]; ok {
		return h
	}
	return passThrough{}
}

type passThrough struct{}

func (passThrough) Validate(model.FieldDescriptor, any) string { return "" }
func (passThrough) Convert(v any) any                          { return v }
func (passThrough) WireType() model.WireType                   { return model.WireTypeString }
