package model

// DataType is the declared type of a workflow-required field.
type DataType string

const (
	DataTypeString  DataType = "String"
	DataTypeDouble  DataType = "Double"
	DataTypeBoolean DataType = "Boolean"
	DataTypeDate    DataType = "Date"
)

// FieldDescriptor describes one datum the workflow requires before its
// active task can be completed. The list of descriptors for a task is
// immutable once fetched.
type FieldDescriptor struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	DataType DataType `json:"dataType"`
	Required *bool    `json:"required,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Pattern  string   `json:"pattern,omitempty"`
}

// IsRequired reports whether a value must be supplied. An omitted required
// flag means required.
func (f FieldDescriptor) IsRequired() bool {
	return f.Required == nil || *f.Required
}

// FindField returns the descriptor with the given id.
func FindField(fields []FieldDescriptor, id string) (FieldDescriptor, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// IsEmpty reports whether v counts as "no value": nil or the empty string.
// A boolean false is a value.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
