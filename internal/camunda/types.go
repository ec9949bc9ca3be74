package camunda

// VariableValue is a typed variable as the engine reads and writes it.
type VariableValue struct {
	Value any    `json:"value"`
	Type  string `json:"type,omitempty"`
}

type Task struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	ProcessInstanceID string `json:"processInstanceId"`
	TaskDefinitionKey string `json:"taskDefinitionKey"`
}

type ProcessInstance struct {
	ID           string `json:"id"`
	DefinitionID string `json:"definitionId"`
	BusinessKey  string `json:"businessKey"`
	Ended        bool   `json:"ended"`
	Suspended    bool   `json:"suspended"`
}

type HistoricProcessInstance struct {
	ID                     string  `json:"id"`
	SuperProcessInstanceID string  `json:"superProcessInstanceId"`
	EndTime                *string `json:"endTime"`
	State                  string  `json:"state"`
}

// Completed reports whether the history shows an end time.
func (h HistoricProcessInstance) Completed() bool {
	return h.EndTime != nil && *h.EndTime != ""
}

type VariableInstance struct {
	Name              string `json:"name"`
	Type              string `json:"type"`
	Value             any    `json:"value"`
	ProcessInstanceID string `json:"processInstanceId"`
}

type startRequest struct {
	BusinessKey string                   `json:"businessKey,omitempty"`
	Variables   map[string]VariableValue `json:"variables"`
}

type completeRequest struct {
	Variables map[string]VariableValue `json:"variables"`
}
