package handler

import (
	"errors"
	"net/http"
	"strings"

	"benefit-calculator/internal/engine"
	"benefit-calculator/internal/model"
)

type errorRule struct {
	target  error
	status  int
	code    string
	message string
}

var errorRules = []errorRule{
	{engine.ErrInvalidVariables, http.StatusBadRequest, model.CodeInvalidVariables, "Invalid process variables"},
	{engine.ErrNoActiveTasks, http.StatusNotFound, model.CodeNoActiveTasks, "No active tasks found for the process"},
	{engine.ErrTaskNotFound, http.StatusNotFound, model.CodeTaskNotFound, "Task not found"},
	{engine.ErrProcessNotFound, http.StatusNotFound, model.CodeProcessNotFound, "Process not found"},
	{engine.ErrProcessNotCompleted, http.StatusConflict, model.CodeProcessNotCompleted, "Process has not completed yet"},
	{engine.ErrRequiredFieldsMissing, http.StatusBadGateway, model.CodeRequiredFieldsUnavailable, "Required fields are not available for the task"},
	{engine.ErrRequiredFieldsInvalid, http.StatusBadGateway, model.CodeRequiredFieldsUnavailable, "Required fields are not available for the task"},
	{engine.ErrEngineUnavailable, http.StatusServiceUnavailable, model.CodeServiceUnavailable, "Workflow engine is unavailable"},
}

// Classify maps an orchestration error to an HTTP status and error envelope.
// Wrapped sentinels are matched first; errors that only carry the sentinel
// text are matched by substring.
func Classify(err error) (int, model.ErrorResponse) {
	rule, ok := matchRule(err)
	if !ok {
		return http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.CodeInternal,
			Message: "Internal server error",
			Details: []string{err.Error()},
		}
	}
	return rule.status, model.ErrorResponse{
		Error:   rule.code,
		Message: rule.message,
		Details: []string{err.Error()},
	}
}

func matchRule(err error) (errorRule, bool) {
	for _, r := range errorRules {
		if errors.Is(err, r.target) {
			return r, true
		}
	}
	msg := strings.ToLower(err.Error())
	for _, r := range errorRules {
		if strings.Contains(msg, r.target.Error()) {
			return r, true
		}
	}
	return errorRule{}, false
}
