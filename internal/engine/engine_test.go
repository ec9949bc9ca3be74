package engine

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benefit-calculator/internal/camunda"
	"benefit-calculator/internal/model"
	"benefit-calculator/internal/waitpolicy"
)

func notFound(path string) error {
	return &camunda.StatusError{Method: "GET", Path: path, Status: http.StatusNotFound}
}

// fakeEngine is an in-memory workflow engine.
type fakeEngine struct {
	mu sync.Mutex

	startVars   map[string]camunda.VariableValue
	tasks       map[string][]camunda.Task
	formVars    map[string]map[string]camunda.VariableValue
	formCalls   int
	completed   map[string]map[string]camunda.VariableValue
	completeErr error
	vars        map[string][]camunda.VariableInstance
	historyVars map[string][]camunda.VariableInstance
	children    map[string][]camunda.ProcessInstance
	running     map[string]bool
	history     map[string]camunda.HistoricProcessInstance
	endsAfter   map[string]int
	onComplete  func(f *fakeEngine)
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		tasks:       map[string][]camunda.Task{},
		formVars:    map[string]map[string]camunda.VariableValue{},
		completed:   map[string]map[string]camunda.VariableValue{},
		vars:        map[string][]camunda.VariableInstance{},
		historyVars: map[string][]camunda.VariableInstance{},
		children:    map[string][]camunda.ProcessInstance{},
		running:     map[string]bool{},
		history:     map[string]camunda.HistoricProcessInstance{},
		endsAfter:   map[string]int{},
	}
}

func (f *fakeEngine) StartProcess(_ context.Context, key, businessKey string, vars map[string]camunda.VariableValue) (camunda.ProcessInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startVars = vars
	f.running["p1"] = true
	for k, v := range vars {
		f.vars["p1"] = append(f.vars["p1"], camunda.VariableInstance{Name: k, Value: v.Value, Type: v.Type})
	}
	return camunda.ProcessInstance{ID: "p1", BusinessKey: businessKey}, nil
}

func (f *fakeEngine) Tasks(_ context.Context, pid string) ([]camunda.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tasks[pid], nil
}

func (f *fakeEngine) FormVariables(_ context.Context, taskID string, names ...string) (map[string]camunda.VariableValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.formCalls++
	vars, ok := f.formVars[taskID]
	if !ok {
		return nil, notFound("/task/" + taskID + "/form-variables")
	}
	return vars, nil
}

func (f *fakeEngine) CompleteTask(_ context.Context, taskID string, vars map[string]camunda.VariableValue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completed[taskID] = vars
	for pid, tasks := range f.tasks {
		for _, t := range tasks {
			if t.ID == taskID {
				delete(f.tasks, pid)
			}
		}
	}
	if f.onComplete != nil {
		f.onComplete(f)
	}
	return nil
}

func (f *fakeEngine) Variables(_ context.Context, pid string) ([]camunda.VariableInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vars[pid], nil
}

func (f *fakeEngine) HistoricVariables(_ context.Context, pid string) ([]camunda.VariableInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.historyVars[pid], nil
}

func (f *fakeEngine) SubProcessInstances(_ context.Context, superID string) ([]camunda.ProcessInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []camunda.ProcessInstance
	for _, c := range f.children[superID] {
		if f.running[c.ID] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeEngine) HistoricSubProcessInstances(_ context.Context, superID string) ([]camunda.HistoricProcessInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []camunda.HistoricProcessInstance
	for _, c := range f.children[superID] {
		if h, ok := f.history[c.ID]; ok {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeEngine) ProcessInstance(_ context.Context, id string) (camunda.ProcessInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n, ok := f.endsAfter[id]; ok {
		if n <= 0 {
			f.end(id)
		}
		f.endsAfter[id] = n - 1
	}
	if !f.running[id] {
		return camunda.ProcessInstance{}, notFound("/process-instance/" + id)
	}
	return camunda.ProcessInstance{ID: id}, nil
}

func (f *fakeEngine) HistoricProcessInstance(_ context.Context, id string) (camunda.HistoricProcessInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.history[id]
	if !ok {
		return h, notFound("/history/process-instance/" + id)
	}
	return h, nil
}

// end must be called with f.mu held.
func (f *fakeEngine) end(id string) {
	delete(f.running, id)
	end := "2024-01-01T00:00:00.000+0000"
	h := f.history[id]
	h.ID = id
	h.EndTime = &end
	h.State = "COMPLETED"
	f.history[id] = h
}

type instantClock struct{ now time.Time }

func (c *instantClock) Now() time.Time { return c.now }

type instantTimer struct {
	clock *instantClock
	c     chan time.Time
}

func (t *instantTimer) Start(d time.Duration) {
	t.clock.now = t.clock.now.Add(d)
	t.c <- t.clock.now
}
func (t *instantTimer) Stop()               {}
func (t *instantTimer) C() <-chan time.Time { return t.c }

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, f *fakeEngine) *Service {
	t.Helper()
	clock := &instantClock{now: fixedNow}
	waiter := waitpolicy.New(waitpolicy.Default(),
		waitpolicy.WithClock(clock),
		waitpolicy.WithTimer(func() backoff.Timer {
			return &instantTimer{clock: clock, c: make(chan time.Time, 1)}
		}),
	)
	s, err := New(f, Config{ProcessKey: "benefit-calculation"},
		WithWaiter(waiter),
		WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)
	return s
}

const salaryFields = `[{"id":"salary","label":"Salary","dataType":"Double","min":0},{"id":"spouse","label":"Spouse","dataType":"Boolean","required":false}]`

func startedEngine() *fakeEngine {
	f := newFakeEngine()
	f.tasks["p1"] = []camunda.Task{{ID: "t1", ProcessInstanceID: "p1"}}
	f.formVars["t1"] = map[string]camunda.VariableValue{
		"requiredFields": {Value: salaryFields, Type: "String"},
	}
	return f
}

func testMember() model.StartProcessRequest {
	return model.StartProcessRequest{
		FirstName:    "Jane",
		LastName:     "Doe",
		MemberID:     "M-100",
		DateOfBirth:  "1960-06-15",
		BenefitClass: "A",
		PaymentType:  "LUMP",
		PlanNumber:   "PL-1",
	}
}

func TestBegin(t *testing.T) {
	f := startedEngine()
	s := newTestService(t, f)

	resp, err := s.Begin(context.Background(), testMember())
	require.NoError(t, err)
	assert.Equal(t, "p1", resp.ProcessInstanceID)
	assert.Equal(t, "t1", resp.TaskID)
	require.Len(t, resp.RequiredFields, 2)
	assert.Equal(t, model.DataTypeDouble, resp.RequiredFields[0].DataType)
	assert.True(t, resp.RequiredFields[0].IsRequired())
	assert.False(t, resp.RequiredFields[1].IsRequired())

	assert.Equal(t, camunda.VariableValue{Value: "M-100", Type: "String"}, f.startVars["memberId"])
	assert.Equal(t, camunda.VariableValue{Value: "", Type: "String"}, f.startVars["effectiveDate"])
}

func TestRequiredFieldsAreCachedPerTask(t *testing.T) {
	f := startedEngine()
	s := newTestService(t, f)

	first, err := s.RequiredFields(context.Background(), "t1")
	require.NoError(t, err)
	first[0].Label = "mutated"

	second, err := s.RequiredFields(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "Salary", second[0].Label)
	assert.Equal(t, 1, f.formCalls)
}

func TestRequiredFieldsErrors(t *testing.T) {
	f := startedEngine()
	f.formVars["t-empty"] = map[string]camunda.VariableValue{}
	f.formVars["t-bad"] = map[string]camunda.VariableValue{"requiredFields": {Value: "not json"}}
	f.formVars["t-dup"] = map[string]camunda.VariableValue{"requiredFields": {Value: `[{"id":"a"},{"id":"a"}]`}}
	f.formVars["t-obj"] = map[string]camunda.VariableValue{"requiredFields": {Value: []any{
		map[string]any{"id": "x", "label": "X", "dataType": "String"},
	}}}
	s := newTestService(t, f)
	ctx := context.Background()

	_, err := s.RequiredFields(ctx, "t-empty")
	assert.ErrorIs(t, err, ErrRequiredFieldsMissing)
	assert.NotErrorIs(t, err, ErrTaskNotFound)

	_, err = s.RequiredFields(ctx, "t-bad")
	assert.ErrorIs(t, err, ErrRequiredFieldsInvalid)

	_, err = s.RequiredFields(ctx, "t-dup")
	assert.ErrorIs(t, err, ErrRequiredFieldsInvalid)

	_, err = s.RequiredFields(ctx, "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.Contains(t, err.Error(), "task not found")

	fields, err := s.RequiredFields(ctx, "t-obj")
	require.NoError(t, err)
	assert.Equal(t, "x", fields[0].ID)
}

func TestActiveTaskNone(t *testing.T) {
	s := newTestService(t, newFakeEngine())
	_, err := s.ActiveTask(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrNoActiveTasks)
	assert.Contains(t, err.Error(), "no active tasks found")
}

func TestCompleteTaskValidatesPayload(t *testing.T) {
	s := newTestService(t, startedEngine())
	ctx := context.Background()

	_, err := s.CompleteTask(ctx, model.SubmissionPayload{Variables: map[string]model.Variable{}})
	assert.ErrorIs(t, err, ErrInvalidVariables)

	_, err = s.CompleteTask(ctx, model.SubmissionPayload{ProcessInstanceID: "p1"})
	assert.ErrorIs(t, err, ErrInvalidVariables)

	_, err = s.CompleteTask(ctx, model.SubmissionPayload{
		ProcessInstanceID: "p1",
		Variables:         map[string]model.Variable{"x": {Value: true, Type: "Boolean"}},
	})
	assert.ErrorIs(t, err, ErrInvalidVariables)
	assert.Contains(t, err.Error(), "invalid variables")
}

func TestCompleteTaskEngineErrors(t *testing.T) {
	f := startedEngine()
	f.completeErr = &camunda.StatusError{Status: http.StatusBadRequest, Message: "Cannot convert value"}
	s := newTestService(t, f)

	payload := model.SubmissionPayload{ProcessInstanceID: "p1", Variables: map[string]model.Variable{}}
	_, err := s.CompleteTask(context.Background(), payload)
	assert.ErrorIs(t, err, ErrInvalidVariables)

	f.completeErr = notFound("/task/t1/complete")
	_, err = s.CompleteTask(context.Background(), payload)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	f.completeErr = errors.New("boom")
	_, err = s.CompleteTask(context.Background(), payload)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTaskNotFound)
}

func salaryPayload() model.SubmissionPayload {
	return model.SubmissionPayload{
		ProcessInstanceID: "p1",
		Variables: map[string]model.Variable{
			"salary": {Value: 50000.5, Type: model.WireTypeDouble},
			"spouse": {Value: true, Type: model.WireTypeString},
		},
	}
}

func TestCalculateWaitsForSubprocess(t *testing.T) {
	f := startedEngine()
	_, err := f.StartProcess(context.Background(), "k", "M-100", map[string]camunda.VariableValue{
		"firstName": {Value: "Jane"},
		"memberId":  {Value: "M-100"},
	})
	require.NoError(t, err)
	f.onComplete = func(f *fakeEngine) {
		f.children["p1"] = []camunda.ProcessInstance{{ID: "s1"}}
		f.running["s1"] = true
		f.endsAfter["s1"] = 3
		f.historyVars["s1"] = []camunda.VariableInstance{
			{Name: "paymentAmount", Value: 1250.75},
			{Name: "totalBenefit", Value: 90000.0},
			{Name: "internalScratch", Value: "dropped"},
		}
		f.vars["p1"] = append(f.vars["p1"], camunda.VariableInstance{Name: "salary", Value: 50000.5})
	}
	s := newTestService(t, f)

	result, err := s.Calculate(context.Background(), salaryPayload())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, model.CalculationCompletedMessage, result.Message)
	assert.Equal(t, "Jane", result.MemberData.FirstName)
	assert.Equal(t, "M-100", result.MemberData.MemberID)
	assert.Equal(t, 50000.5, result.MemberData.Factors["salary"])
	assert.Equal(t, 1250.75, result.SubProcessData.PaymentAmount)
	assert.Equal(t, 90000.0, result.SubProcessData.TotalBenefit)
	assert.NotEmpty(t, result.CalculationID)
	assert.Equal(t, "2024-05-01T12:00:00Z", result.Timestamp)

	assert.Equal(t, camunda.VariableValue{Value: 50000.5, Type: "Double"}, f.completed["t1"]["salary"])
	assert.Equal(t, camunda.VariableValue{Value: true, Type: "String"}, f.completed["t1"]["spouse"])
}

func TestCalculateWithoutSubprocess(t *testing.T) {
	f := startedEngine()
	_, _ = f.StartProcess(context.Background(), "k", "M-100", map[string]camunda.VariableValue{"firstName": {Value: "Jane"}})
	f.onComplete = func(f *fakeEngine) {
		f.end("p1")
		f.historyVars["p1"] = f.vars["p1"]
		delete(f.vars, "p1")
	}
	s := newTestService(t, f)

	result, err := s.Calculate(context.Background(), salaryPayload())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.SubProcessData.IsEmpty())
	assert.Equal(t, "Jane", result.MemberData.FirstName)

	b, err := json.Marshal(result.SubProcessData)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))
}

func TestCalculateTimeoutWithPartialData(t *testing.T) {
	f := startedEngine()
	_, _ = f.StartProcess(context.Background(), "k", "M-100", map[string]camunda.VariableValue{"firstName": {Value: "Jane"}})
	f.onComplete = func(f *fakeEngine) {
		f.children["p1"] = []camunda.ProcessInstance{{ID: "s1"}}
		f.running["s1"] = true
		f.vars["s1"] = []camunda.VariableInstance{{Name: "paymentAmount", Value: 10.0}}
	}
	s := newTestService(t, f)

	outcome, err := s.WaitForSubprocess(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "", outcome.SubprocessID, "no subprocess before the task is completed")

	result, err := s.Calculate(context.Background(), salaryPayload())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 10.0, result.SubProcessData.PaymentAmount)
	assert.Equal(t, model.SubprocessPendingMessage, result.Message)
}

func TestCalculateTimeoutWithoutData(t *testing.T) {
	f := startedEngine()
	_, _ = f.StartProcess(context.Background(), "k", "M-100", map[string]camunda.VariableValue{"firstName": {Value: "Jane"}})
	f.onComplete = func(f *fakeEngine) {
		f.children["p1"] = []camunda.ProcessInstance{{ID: "s1"}}
		f.running["s1"] = true
	}
	s := newTestService(t, f)

	result, err := s.Calculate(context.Background(), salaryPayload())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.SubProcessData.IsEmpty())
	assert.Equal(t, model.SubprocessPendingMessage, result.Message)
}

func TestResult(t *testing.T) {
	f := startedEngine()
	_, _ = f.StartProcess(context.Background(), "k", "M-100", map[string]camunda.VariableValue{"firstName": {Value: "Jane"}})
	s := newTestService(t, f)
	ctx := context.Background()

	_, err := s.Result(ctx, "p1")
	assert.ErrorIs(t, err, ErrProcessNotCompleted)
	assert.Contains(t, err.Error(), "process not completed")

	_, err = s.Result(ctx, "nope")
	assert.ErrorIs(t, err, ErrProcessNotFound)

	f.end("p1")
	f.historyVars["p1"] = f.vars["p1"]
	result, err := s.Result(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Jane", result.MemberData.FirstName)
}

func TestNewRequiresProcessKey(t *testing.T) {
	_, err := New(newFakeEngine(), Config{})
	assert.Error(t, err)
}
