package formdata

import (
	"math"

	json "github.com/goccy/go-json"

	"benefit-calculator/internal/model"
)

// MarshalPayload encodes a submission payload. JSON has no NaN or Inf, so
// such values are sent as null.
func MarshalPayload(p model.SubmissionPayload) ([]byte, error) {
	vars := make(map[string]model.Variable, len(p.Variables))
	for id, v := range p.Variables {
		if f, ok := v.Value.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			v.Value = nil
		}
		vars[id] = v
	}
	return json.Marshal(model.SubmissionPayload{
		ProcessInstanceID: p.ProcessInstanceID,
		Variables:         vars,
	})
}
