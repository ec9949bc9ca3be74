package fieldtypes

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"benefit-calculator/internal/model"
)

// patterns caches compiled field patterns; a nil entry marks a pattern that
// does not compile.
var patterns sync.Map

type TextHandler struct{}

func (h *TextHandler) Validate(field model.FieldDescriptor, value any) string {
	if field.Pattern == "" {
		return ""
	}
	re := compile(field.Pattern)
	if re != nil && re.MatchString(model.Stringify(value)) {
		return ""
	}
	if strings.Contains(field.Pattern, "@") {
		return "Please enter a valid email address"
	}
	return fmt.Sprintf("Invalid format for %s", field.Label)
}

func (h *TextHandler) Convert(value any) any {
	return value
}

func (h *TextHandler) WireType() model.WireType {
	return model.WireTypeString
}

func compile(pattern string) *regexp.Regexp {
	if re, ok := patterns.Load(pattern); ok {
		return re.(*regexp.Regexp)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		re = nil
	}
	patterns.Store(pattern, re)
	return re
}
