package engine

import (
	"context"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"benefit-calculator/internal/camunda"
	"benefit-calculator/internal/model"
)

// RequiredFields returns the field descriptors the task declares in its
// required-fields form variable. The list is cached per task: a task's
// field set never changes once read.
func (s *Service) RequiredFields(ctx context.Context, taskID string) ([]model.FieldDescriptor, error) {
	if fields, ok := s.fields.Get(taskID); ok {
		return append([]model.FieldDescriptor(nil), fields...), nil
	}

	name := s.cfg.RequiredFieldsVariable
	vars, err := s.engine.FormVariables(ctx, taskID, name)
	if err != nil {
		if isMissingTask(err) {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		return nil, fmt.Errorf("form variables of task %s: %w", taskID, err)
	}
	v, ok := vars[name]
	if !ok || v.Value == nil {
		return nil, fmt.Errorf("%w: task %s has no %q variable", ErrRequiredFieldsMissing, taskID, name)
	}
	fields, err := parseFieldList(v.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: task %s: %v", ErrRequiredFieldsInvalid, taskID, err)
	}

	s.fields.Add(taskID, fields)
	s.logger.Debug("required fields loaded", "task_id", taskID, "fields", len(fields))
	return append([]model.FieldDescriptor(nil), fields...), nil
}

// isMissingTask recognizes the engine's answers for an unknown task id.
func isMissingTask(err error) bool {
	if camunda.IsNotFound(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "cannot find task") || strings.Contains(msg, "task not found")
}

// parseFieldList decodes a descriptor list serialized either as a JSON
// string or as an already structured value.
func parseFieldList(v any) ([]model.FieldDescriptor, error) {
	var raw []byte
	if str, ok := v.(string); ok {
		raw = []byte(str)
	} else {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	var fields []model.FieldDescriptor
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if strings.TrimSpace(f.ID) == "" {
			return nil, fmt.Errorf("field %d has no id", i)
		}
		if _, dup := seen[f.ID]; dup {
			return nil, fmt.Errorf("duplicate field id %q", f.ID)
		}
		seen[f.ID] = struct{}{}
	}
	return fields, nil
}
