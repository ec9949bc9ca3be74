package camunda

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// StartProcess starts the latest version of the process definition key.
func (c *Client) StartProcess(ctx context.Context, key, businessKey string, vars map[string]VariableValue) (ProcessInstance, error) {
	var pi ProcessInstance
	path := "/process-definition/key/" + url.PathEscape(key) + "/start"
	err := c.do(ctx, http.MethodPost, path, nil, startRequest{BusinessKey: businessKey, Variables: vars}, &pi)
	return pi, err
}

func (c *Client) Tasks(ctx context.Context, processInstanceID string) ([]Task, error) {
	var tasks []Task
	q := url.Values{"processInstanceId": {processInstanceID}}
	err := c.do(ctx, http.MethodGet, "/task", q, nil, &tasks)
	return tasks, err
}

// FormVariables reads the named form variables of a task.
func (c *Client) FormVariables(ctx context.Context, taskID string, names ...string) (map[string]VariableValue, error) {
	vars := map[string]VariableValue{}
	var q url.Values
	if len(names) > 0 {
		q = url.Values{"variableNames": {strings.Join(names, ",")}}
	}
	err := c.do(ctx, http.MethodGet, "/task/"+url.PathEscape(taskID)+"/form-variables", q, nil, &vars)
	return vars, err
}

func (c *Client) CompleteTask(ctx context.Context, taskID string, vars map[string]VariableValue) error {
	return c.do(ctx, http.MethodPost, "/task/"+url.PathEscape(taskID)+"/complete", nil, completeRequest{Variables: vars}, nil)
}

// Variables lists the runtime variables of a process instance.
func (c *Client) Variables(ctx context.Context, processInstanceID string) ([]VariableInstance, error) {
	var vars []VariableInstance
	q := url.Values{"processInstanceIdIn": {processInstanceID}}
	err := c.do(ctx, http.MethodGet, "/variable-instance", q, nil, &vars)
	return vars, err
}

// HistoricVariables lists variables of a process instance from history,
// which still holds them after the instance ended.
func (c *Client) HistoricVariables(ctx context.Context, processInstanceID string) ([]VariableInstance, error) {
	var vars []VariableInstance
	q := url.Values{"processInstanceId": {processInstanceID}}
	err := c.do(ctx, http.MethodGet, "/history/variable-instance", q, nil, &vars)
	return vars, err
}

// SubProcessInstances lists running children of a super process instance.
func (c *Client) SubProcessInstances(ctx context.Context, superID string) ([]ProcessInstance, error) {
	var pis []ProcessInstance
	q := url.Values{"superProcessInstance": {superID}}
	err := c.do(ctx, http.MethodGet, "/process-instance", q, nil, &pis)
	return pis, err
}

func (c *Client) HistoricSubProcessInstances(ctx context.Context, superID string) ([]HistoricProcessInstance, error) {
	var his []HistoricProcessInstance
	q := url.Values{"superProcessInstanceId": {superID}}
	err := c.do(ctx, http.MethodGet, "/history/process-instance", q, nil, &his)
	return his, err
}

// ProcessInstance fetches a running instance. The engine answers 404 once the
// instance has ended.
func (c *Client) ProcessInstance(ctx context.Context, id string) (ProcessInstance, error) {
	var pi ProcessInstance
	err := c.do(ctx, http.MethodGet, "/process-instance/"+url.PathEscape(id), nil, nil, &pi)
	return pi, err
}

func (c *Client) HistoricProcessInstance(ctx context.Context, id string) (HistoricProcessInstance, error) {
	var hi HistoricProcessInstance
	err := c.do(ctx, http.MethodGet, "/history/process-instance/"+url.PathEscape(id), nil, nil, &hi)
	return hi, err
}

// VariableMap flattens variable instances into name/value pairs.
func VariableMap(vars []VariableInstance) map[string]any {
	out := make(map[string]any, len(vars))
	for _, v := range vars {
		out[v.Name] = v.Value
	}
	return out
}
