// Package engine drives a benefit calculation through the workflow engine:
// start a process, expose the active task's required fields, complete the
// task, wait for the calculation subprocess and assemble the final result.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"benefit-calculator/internal/camunda"
	"benefit-calculator/internal/metrics"
	"benefit-calculator/internal/model"
	"benefit-calculator/internal/waitpolicy"
)

// Engine is the subset of the workflow engine REST API the service uses.
type Engine interface {
	StartProcess(ctx context.Context, key, businessKey string, vars map[string]camunda.VariableValue) (camunda.ProcessInstance, error)
	Tasks(ctx context.Context, processInstanceID string) ([]camunda.Task, error)
	FormVariables(ctx context.Context, taskID string, names ...string) (map[string]camunda.VariableValue, error)
	CompleteTask(ctx context.Context, taskID string, vars map[string]camunda.VariableValue) error
	Variables(ctx context.Context, processInstanceID string) ([]camunda.VariableInstance, error)
	HistoricVariables(ctx context.Context, processInstanceID string) ([]camunda.VariableInstance, error)
	SubProcessInstances(ctx context.Context, superID string) ([]camunda.ProcessInstance, error)
	HistoricSubProcessInstances(ctx context.Context, superID string) ([]camunda.HistoricProcessInstance, error)
	ProcessInstance(ctx context.Context, id string) (camunda.ProcessInstance, error)
	HistoricProcessInstance(ctx context.Context, id string) (camunda.HistoricProcessInstance, error)
}

type Config struct {
	ProcessKey             string
	RequiredFieldsVariable string
	FieldCacheSize         int
}

type Option func(*Service)

func WithWaiter(w *waitpolicy.Waiter) Option {
	return func(s *Service) { s.waiter = w }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock replaces the time source used for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type Service struct {
	engine  Engine
	cfg     Config
	fields  *lru.Cache[string, []model.FieldDescriptor]
	waiter  *waitpolicy.Waiter
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func New(e Engine, cfg Config, opts ...Option) (*Service, error) {
	if cfg.ProcessKey == "" {
		return nil, errors.New("engine: process key is required")
	}
	if cfg.RequiredFieldsVariable == "" {
		cfg.RequiredFieldsVariable = "requiredFields"
	}
	if cfg.FieldCacheSize <= 0 {
		cfg.FieldCacheSize = 256
	}
	cache, err := lru.New[string, []model.FieldDescriptor](cfg.FieldCacheSize)
	if err != nil {
		return nil, fmt.Errorf("engine: field cache: %w", err)
	}
	s := &Service{
		engine: e,
		cfg:    cfg,
		fields: cache,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.waiter == nil {
		s.waiter = waitpolicy.New(waitpolicy.Default())
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "engine")
	return s, nil
}

// StartProcess starts a calculation process for the member. Every start
// field is sent as a String variable, empty or not, so the fixed member
// fields always exist on the instance.
func (s *Service) StartProcess(ctx context.Context, req model.StartProcessRequest) (model.ProcessHandle, error) {
	vars := make(map[string]camunda.VariableValue)
	for k, v := range req.Variables() {
		vars[k] = camunda.VariableValue{Value: v, Type: string(model.WireTypeString)}
	}
	pi, err := s.engine.StartProcess(ctx, s.cfg.ProcessKey, req.MemberID, vars)
	s.metrics.ProcessStarted(err)
	if err != nil {
		return model.ProcessHandle{}, fmt.Errorf("start process %s: %w", s.cfg.ProcessKey, err)
	}
	s.logger.Info("process started", "process_instance_id", pi.ID, "member_id", req.MemberID)
	return model.ProcessHandle{ProcessInstanceID: pi.ID}, nil
}

// Begin starts a process and resolves its first task and required fields.
func (s *Service) Begin(ctx context.Context, req model.StartProcessRequest) (model.StartProcessResponse, error) {
	handle, err := s.StartProcess(ctx, req)
	if err != nil {
		return model.StartProcessResponse{}, err
	}
	task, err := s.ActiveTask(ctx, handle.ProcessInstanceID)
	if err != nil {
		return model.StartProcessResponse{}, err
	}
	fields, err := s.RequiredFields(ctx, task.ID)
	if err != nil {
		return model.StartProcessResponse{}, err
	}
	return model.StartProcessResponse{
		ProcessInstanceID: handle.ProcessInstanceID,
		TaskID:            task.ID,
		RequiredFields:    fields,
		Message:           "Process started successfully",
		Success:           true,
	}, nil
}

// ActiveTask resolves the single active task of a process instance.
func (s *Service) ActiveTask(ctx context.Context, processInstanceID string) (camunda.Task, error) {
	tasks, err := s.engine.Tasks(ctx, processInstanceID)
	if err != nil {
		return camunda.Task{}, fmt.Errorf("query tasks of %s: %w", processInstanceID, err)
	}
	if len(tasks) == 0 {
		return camunda.Task{}, fmt.Errorf("%w for process %s", ErrNoActiveTasks, processInstanceID)
	}
	if len(tasks) > 1 {
		s.logger.Warn("more than one active task, using the first", "process_instance_id", processInstanceID, "tasks", len(tasks))
	}
	return tasks[0], nil
}

// CompleteTask completes the active task of the payload's process instance
// with its typed variables and returns the completed task id.
func (s *Service) CompleteTask(ctx context.Context, payload model.SubmissionPayload) (string, error) {
	vars, err := engineVariables(payload)
	if err != nil {
		return "", err
	}
	task, err := s.ActiveTask(ctx, payload.ProcessInstanceID)
	if err != nil {
		return "", err
	}
	err = s.engine.CompleteTask(ctx, task.ID, vars)
	s.metrics.TaskCompleted(err)
	if err != nil {
		return "", completionError(task.ID, err)
	}
	s.fields.Remove(task.ID)
	s.logger.Info("task completed", "process_instance_id", payload.ProcessInstanceID, "task_id", task.ID, "variables", len(vars))
	return task.ID, nil
}

func engineVariables(payload model.SubmissionPayload) (map[string]camunda.VariableValue, error) {
	if strings.TrimSpace(payload.ProcessInstanceID) == "" {
		return nil, fmt.Errorf("%w: processInstanceId is required", ErrInvalidVariables)
	}
	if payload.Variables == nil {
		return nil, fmt.Errorf("%w: variables are required", ErrInvalidVariables)
	}
	vars := make(map[string]camunda.VariableValue, len(payload.Variables))
	for id, v := range payload.Variables {
		switch v.Type {
		case model.WireTypeDouble, model.WireTypeString:
		default:
			return nil, fmt.Errorf("%w: %s has unsupported type %q", ErrInvalidVariables, id, v.Type)
		}
		vars[id] = camunda.VariableValue{Value: v.Value, Type: string(v.Type)}
	}
	return vars, nil
}

func completionError(taskID string, err error) error {
	var se *camunda.StatusError
	switch {
	case camunda.IsNotFound(err):
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	case errors.As(err, &se) && se.Status == 400:
		return fmt.Errorf("%w: %s", ErrInvalidVariables, se.Message)
	default:
		return fmt.Errorf("complete task %s: %w", taskID, err)
	}
}

// Calculate completes the active task, waits for the calculation subprocess
// and assembles the result. A subprocess that outlives the wait budget does
// not fail the calculation: whatever it has produced so far is returned.
func (s *Service) Calculate(ctx context.Context, payload model.SubmissionPayload) (model.CalculationResult, error) {
	if _, err := s.CompleteTask(ctx, payload); err != nil {
		return model.CalculationResult{}, err
	}
	outcome, err := s.WaitForSubprocess(ctx, payload.ProcessInstanceID)
	if err != nil {
		return model.CalculationResult{}, err
	}
	result, err := s.FinalResults(ctx, payload.ProcessInstanceID, outcome.SubprocessID)
	if err != nil {
		return model.CalculationResult{}, err
	}

	waitResult := metrics.WaitCompleted
	switch {
	case outcome.Completed && outcome.SubprocessID == "":
		waitResult = metrics.WaitNone
	case !outcome.Completed && !result.SubProcessData.IsEmpty():
		waitResult = metrics.WaitPartial
		result.Message = model.SubprocessPendingMessage
		s.logger.Warn("subprocess wait timed out, using partial data", "process_instance_id", payload.ProcessInstanceID)
	case !outcome.Completed:
		waitResult = metrics.WaitPending
		result.Message = model.SubprocessPendingMessage
		s.logger.Warn("subprocess wait timed out without data", "process_instance_id", payload.ProcessInstanceID)
	}
	s.metrics.SubprocessWaited(waitResult, outcome.Elapsed)

	result.CalculationID = uuid.New().String()
	result.Timestamp = s.now().UTC().Format(time.RFC3339)
	return result, nil
}

// Result returns the final result of an already finished process.
func (s *Service) Result(ctx context.Context, processInstanceID string) (model.CalculationResult, error) {
	st, err := s.processState(ctx, processInstanceID)
	if err != nil {
		return model.CalculationResult{}, err
	}
	switch st {
	case stateMissing:
		return model.CalculationResult{}, fmt.Errorf("%w: %s", ErrProcessNotFound, processInstanceID)
	case stateRunning:
		return model.CalculationResult{}, fmt.Errorf("%w: %s", ErrProcessNotCompleted, processInstanceID)
	}
	result, err := s.FinalResults(ctx, processInstanceID, "")
	if err != nil {
		return model.CalculationResult{}, err
	}
	result.Timestamp = s.now().UTC().Format(time.RFC3339)
	return result, nil
}

// FinalResults assembles the result from the main process variables and,
// when a subprocess is known or discoverable, the subprocess variables.
func (s *Service) FinalResults(ctx context.Context, processInstanceID, subprocessID string) (model.CalculationResult, error) {
	mainVars, err := s.processVariables(ctx, processInstanceID, false)
	if err != nil {
		return model.CalculationResult{}, err
	}
	if len(mainVars) == 0 {
		return model.CalculationResult{}, fmt.Errorf("%w: %s has no variables", ErrProcessNotFound, processInstanceID)
	}

	if subprocessID == "" {
		id, err := s.findSubprocess(ctx, processInstanceID)
		if err != nil {
			s.logger.Warn("subprocess lookup failed", "process_instance_id", processInstanceID, "error", err)
		}
		subprocessID = id
	}

	var sub model.SubProcessData
	if subprocessID != "" {
		subVars, err := s.processVariables(ctx, subprocessID, true)
		if err != nil {
			s.logger.Warn("subprocess variables unavailable", "subprocess_id", subprocessID, "error", err)
		}
		sub = model.NewSubProcessData(subVars)
	}

	return model.CalculationResult{
		Success:        true,
		MemberData:     model.NewMemberData(mainVars),
		SubProcessData: sub,
		Message:        model.CalculationCompletedMessage,
	}, nil
}

// processVariables reads variables from the runtime API, falling back to
// history when the runtime has none. historyFirst flips the order for
// instances that are expected to have ended.
func (s *Service) processVariables(ctx context.Context, id string, historyFirst bool) (map[string]any, error) {
	sources := []func(context.Context, string) ([]camunda.VariableInstance, error){
		s.engine.Variables,
		s.engine.HistoricVariables,
	}
	if historyFirst {
		sources[0], sources[1] = sources[1], sources[0]
	}
	var firstErr error
	answered := false
	for _, src := range sources {
		vars, err := src(ctx, id)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		answered = true
		if len(vars) > 0 {
			return camunda.VariableMap(vars), nil
		}
	}
	switch {
	case answered:
		return nil, nil
	case camunda.IsNotFound(firstErr):
		return nil, fmt.Errorf("%w: %s", ErrProcessNotFound, id)
	default:
		return nil, fmt.Errorf("variables of %s: %w", id, firstErr)
	}
}
