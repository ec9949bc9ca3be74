package fieldtypes

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"benefit-calculator/internal/model"
)

type DateHandler struct{}

func (h *DateHandler) Validate(field model.FieldDescriptor, value any) string {
	if _, ok := ParseDate(model.Stringify(value)); !ok {
		return fmt.Sprintf("%s must be a valid date", field.Label)
	}
	return ""
}

// Convert leaves dates as strings on the wire.
func (h *DateHandler) Convert(value any) any {
	return value
}

func (h *DateHandler) WireType() model.WireType {
	return model.WireTypeString
}

// ParseDate accepts "YYYY-MM-DD" on a fast path and any layout dateparse
// recognizes otherwise.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, ok := fastParseDate(s); ok {
		return t, true
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// fastParseDate parses "YYYY-MM-DD" without layout parsing.
func fastParseDate(s string) (time.Time, bool) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return time.Time{}, false
	}
	for i := 0; i < len(s); i++ {
		if i != 4 && i != 7 && (s[i] < '0' || s[i] > '9') {
			return time.Time{}, false
		}
	}
	y := int(s[0]-'0')*1000 + int(s[1]-'0')*100 + int(s[2]-'0')*10 + int(s[3]-'0')
	m := time.Month(int(s[5]-'0')*10 + int(s[6]-'0'))
	d := int(s[8]-'0')*10 + int(s[9]-'0')
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}
