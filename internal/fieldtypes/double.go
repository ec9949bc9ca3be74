package fieldtypes

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"benefit-calculator/internal/model"
)

type DoubleHandler struct{}

func (h *DoubleHandler) Validate(field model.FieldDescriptor, value any) string {
	n, ok := ParseNumber(value)
	if !ok {
		return fmt.Sprintf("%s must be a valid number", field.Label)
	}
	if field.Min != nil && n < *field.Min {
		return fmt.Sprintf("%s must be at least %s", field.Label, model.Stringify(*field.Min))
	}
	if field.Max != nil && n > *field.Max {
		return fmt.Sprintf("%s must be at most %s", field.Label, model.Stringify(*field.Max))
	}
	return ""
}

// Convert parses the stringified value. Unparsable input becomes NaN and is
// not corrected here.
func (h *DoubleHandler) Convert(value any) any {
	n, ok := ParseNumber(value)
	if !ok {
		return math.NaN()
	}
	return n
}

func (h *DoubleHandler) WireType() model.WireType {
	return model.WireTypeDouble
}

// ParseNumber coerces v to a float64. Numbers pass through and a bool is 1
// or 0. Anything else is stringified and parsed; NaN is never valid.
func ParseNumber(v any) (float64, bool) {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case bool:
		if t {
			n = 1
		}
	default:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(model.Stringify(v)), 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	}
	if math.IsNaN(n) {
		return 0, false
	}
	return n, true
}
