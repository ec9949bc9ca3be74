package model

// StartProcessResponse is returned by the start endpoint. Success is stamped
// by the client after a successful round trip.
type StartProcessResponse struct {
	ProcessInstanceID string            `json:"processInstanceId"`
	TaskID            string            `json:"taskId,omitempty"`
	RequiredFields    []FieldDescriptor `json:"requiredFields,omitempty"`
	Message           string            `json:"message,omitempty"`
	Success           bool              `json:"success"`
}

// ProcessHandle identifies the process instance owned by a wizard session.
// TaskID is resolved separately from the instance id and may be empty.
type ProcessHandle struct {
	ProcessInstanceID string `json:"processInstanceId"`
	TaskID            string `json:"taskId,omitempty"`
}

// CalculationResult is the final output of a completed calculation. Data is
// only set when the server answered with an unrecognized body.
type CalculationResult struct {
	Success        bool           `json:"success"`
	MemberData     MemberData     `json:"memberData"`
	SubProcessData SubProcessData `json:"subProcessData"`
	Message        string         `json:"message,omitempty"`
	CalculationID  string         `json:"calculationId,omitempty"`
	Timestamp      string         `json:"timestamp,omitempty"`
	Data           any            `json:"data,omitempty"`
}

// ErrorResponse is the standard error envelope of the HTTP boundary.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}
