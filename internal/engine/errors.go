package engine

import (
	"errors"

	"benefit-calculator/internal/camunda"
)

// The text of these errors is part of the contract: callers that only see a
// message classify failures by these substrings.
var (
	ErrTaskNotFound          = errors.New("task not found")
	ErrNoActiveTasks         = errors.New("no active tasks found")
	ErrProcessNotFound       = errors.New("process not found")
	ErrProcessNotCompleted   = errors.New("process not completed")
	ErrInvalidVariables      = errors.New("invalid variables")
	ErrRequiredFieldsMissing = errors.New("required fields variable is missing")
	ErrRequiredFieldsInvalid = errors.New("required fields variable is malformed")
	ErrEngineUnavailable     = camunda.ErrUnavailable
)
