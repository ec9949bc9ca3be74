// Package formdata converts raw form input into typed workflow variables.
package formdata

import (
	"benefit-calculator/internal/fieldtypes"
	"benefit-calculator/internal/model"
)

// ProcessFormValues converts raw values into their declared types. Only the
// given fields are read; extra keys in raw are dropped and missing or empty
// values become nil. No validation happens here.
func ProcessFormValues(fields []model.FieldDescriptor, raw map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		v := raw[f.ID]
		if model.IsEmpty(v) {
			out[f.ID] = nil
			continue
		}
		out[f.ID] = fieldtypes.For(f.DataType).Convert(v)
	}
	return out
}

// PrepareSubmissionData packages processed values for task completion. It
// walks the keys of processed, not fields: a key without a matching
// descriptor is still sent and tagged String.
func PrepareSubmissionData(processInstanceID string, fields []model.FieldDescriptor, processed map[string]any) model.SubmissionPayload {
	vars := make(map[string]model.Variable, len(processed))
	for id, v := range processed {
		wire := model.WireTypeString
		if f, ok := model.FindField(fields, id); ok {
			wire = fieldtypes.For(f.DataType).WireType()
		}
		vars[id] = model.Variable{Value: v, Type: wire}
	}
	return model.SubmissionPayload{
		ProcessInstanceID: processInstanceID,
		Variables:         vars,
	}
}
