package model

// Error codes carried in ErrorResponse.Error.
const (
	CodeInvalidJSON               = "INVALID_JSON"
	CodeValidation                = "VALIDATION_ERROR"
	CodeInvalidVariables          = "INVALID_VARIABLES"
	CodeTaskNotFound              = "TASK_NOT_FOUND"
	CodeNoActiveTasks             = "NO_ACTIVE_TASKS"
	CodeProcessNotFound           = "PROCESS_NOT_FOUND"
	CodeProcessNotCompleted       = "PROCESS_NOT_COMPLETED"
	CodeRequiredFieldsUnavailable = "REQUIRED_FIELDS_UNAVAILABLE"
	CodeServiceUnavailable        = "SERVICE_UNAVAILABLE"
	CodeMethodNotAllowed          = "METHOD_NOT_ALLOWED"
	CodeNotFound                  = "NOT_FOUND"
	CodeInternal                  = "INTERNAL_ERROR"
)

// SubprocessPendingMessage annotates a result whose subprocess did not
// finish inside the wait budget.
const SubprocessPendingMessage = "Calculation completed. Subprocess may still be processing."

// CalculationCompletedMessage is the message of a fully completed calculation.
const CalculationCompletedMessage = "Calculation completed successfully"
