package client

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benefit-calculator/internal/formdata"
	"benefit-calculator/internal/model"
)

type recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *recorder) Notify(_ context.Context, n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recorder) all() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// captured holds the last request body seen by the test server.
type captured struct {
	mu   sync.Mutex
	path string
	body []byte
}

func newTestClient(t *testing.T, status int, body string) (*Client, *recorder, *captured) {
	t.Helper()
	seen := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen.mu.Lock()
		seen.path = r.URL.Path
		seen.body = b
		seen.mu.Unlock()
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	rec := &recorder{}
	return New(Config{BaseURL: srv.URL}, WithNotifier(rec)), rec, seen
}

var salaryField = []model.FieldDescriptor{{ID: "salary", Label: "Salary", DataType: model.DataTypeDouble}}

func TestStartProcessStampsSuccess(t *testing.T) {
	c, rec, seen := newTestClient(t, http.StatusOK,
		`{"processInstanceId":"p1","requiredFields":[{"id":"salary","label":"Salary","dataType":"Double"}],"success":false}`)

	req := model.StartProcessRequest{FirstName: "Jane", LastName: "Doe", MemberID: "M-1"}
	resp, err := c.StartProcess(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "p1", resp.ProcessInstanceID)
	assert.Equal(t, salaryField, resp.RequiredFields)
	assert.Empty(t, rec.all())

	assert.Equal(t, StartPath, seen.path)
	assert.JSONEq(t, `{"firstName":"Jane","lastName":"Doe","memberId":"M-1","benefitClass":"","paymentType":"","planNumber":"","paymentTypeDesc":""}`, string(seen.body))
}

func TestStartProcessIgnoresNonBoolSuccess(t *testing.T) {
	for _, body := range []string{
		`{"processInstanceId":"p1","taskId":"t1","success":"yes"}`,
		`{"processInstanceId":"p1","taskId":"t1","success":1}`,
		`{"processInstanceId":"p1","taskId":"t1","success":{"ok":true}}`,
	} {
		c, rec, _ := newTestClient(t, http.StatusOK, body)
		resp, err := c.StartProcess(context.Background(), model.StartProcessRequest{})
		require.NoError(t, err, body)
		assert.True(t, resp.Success, body)
		assert.Equal(t, "p1", resp.ProcessInstanceID, body)
		assert.Equal(t, "t1", resp.TaskID, body)
		assert.Empty(t, rec.all(), body)
	}
}

func TestStartProcessPropagatesServerMessage(t *testing.T) {
	c, rec, _ := newTestClient(t, http.StatusBadRequest,
		`{"error":"VALIDATION_ERROR","message":"Request validation failed","details":["firstName is required"]}`)

	_, err := c.StartProcess(context.Background(), model.StartProcessRequest{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	assert.Equal(t, "Request validation failed", err.Error())
	assert.Equal(t, []string{"firstName is required"}, apiErr.Details)
	assert.False(t, apiErr.Retryable())

	notices := rec.all()
	require.Len(t, notices, 1)
	assert.Equal(t, "start", notices[0].Operation)
	assert.Equal(t, "Request validation failed", notices[0].Message)
}

func TestAPIErrorMessageFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"server message", http.StatusNotFound, `{"error":"TASK_NOT_FOUND","message":"Task is gone"}`, "Task is gone"},
		{"server error", http.StatusNotFound, `{"error":"task not found"}`, "task not found"},
		{"status table", http.StatusServiceUnavailable, ``, StatusMessage(http.StatusServiceUnavailable)},
		{"non json body", http.StatusBadGateway, `<html>bad gateway</html>`, StatusMessage(http.StatusBadGateway)},
		{"unlisted status", http.StatusTeapot, `{}`, "An unexpected error occurred (status 418). Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newTestClient(t, tt.status, tt.body)
			_, err := c.SubmitCalculation(context.Background(), model.SubmissionPayload{ProcessInstanceID: "p1"})
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.want, apiErr.Message)
		})
	}
}

func TestRetryable(t *testing.T) {
	for status, want := range map[int]bool{
		http.StatusBadRequest:          false,
		http.StatusNotFound:            false,
		http.StatusConflict:            false,
		http.StatusRequestTimeout:      true,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusServiceUnavailable:  true,
	} {
		assert.Equal(t, want, (&APIError{Status: status}).Retryable(), "status %d", status)
	}
	assert.True(t, IsRetryable(&TransportError{Err: errors.New("refused")}))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	rec := &recorder{}
	c := New(Config{BaseURL: url}, WithNotifier(rec))
	_, err := c.StartProcess(context.Background(), model.StartProcessRequest{FirstName: "Jane"})

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, NetworkFailureMessage, err.Error())
	assert.Equal(t, "start", te.Op)

	notices := rec.all()
	require.Len(t, notices, 1)
	assert.Equal(t, NetworkFailureMessage, notices[0].Message)
	assert.True(t, notices[0].Retryable)
}

func TestSubmitCalculationTriage(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
		want    *model.CalculationResult
	}{
		{
			name:    "error key wins over success key",
			body:    `{"error":"Calculation failed","success":true}`,
			wantErr: "Calculation failed",
		},
		{
			name:    "empty error",
			body:    `{"error":"","success":true}`,
			wantErr: UnknownAPIErrorMessage,
		},
		{
			name:    "null error",
			body:    `{"error":null}`,
			wantErr: UnknownAPIErrorMessage,
		},
		{
			name: "result returned unchanged",
			body: `{"success":false,"memberData":{"firstName":"Jane"},"subProcessData":{"paymentAmount":10},"message":"partial"}`,
			want: &model.CalculationResult{
				Success:        false,
				MemberData:     model.MemberData{FirstName: "Jane"},
				SubProcessData: model.SubProcessData{PaymentAmount: 10.0},
				Message:        "partial",
			},
		},
		{
			name: "string success is truthy",
			body: `{"success":"done","data":{"x":1},"message":"ok"}`,
			want: &model.CalculationResult{Success: true, Message: "ok", Data: map[string]any{"x": 1.0}},
		},
		{
			name: "zero success is falsy",
			body: `{"success":0,"message":"partial"}`,
			want: &model.CalculationResult{Success: false, Message: "partial"},
		},
		{
			name: "unrecognized object",
			body: `{"paymentAmount":10}`,
			want: &model.CalculationResult{Success: true, Data: map[string]any{"paymentAmount": 10.0}},
		},
		{
			name: "unrecognized array",
			body: `[1,2]`,
			want: &model.CalculationResult{Success: true, Data: []any{1.0, 2.0}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec, _ := newTestClient(t, http.StatusOK, tt.body)
			got, err := c.SubmitCalculation(context.Background(), model.SubmissionPayload{ProcessInstanceID: "p1"})
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				assert.Len(t, rec.all(), 1)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubmitCalculationPayload(t *testing.T) {
	c, _, seen := newTestClient(t, http.StatusOK, `{"success":true}`)

	processed := formdata.ProcessFormValues(salaryField, map[string]any{"salary": "50000.5"})
	payload := formdata.PrepareSubmissionData("p1", salaryField, processed)
	_, err := c.SubmitCalculation(context.Background(), payload)
	require.NoError(t, err)

	assert.Equal(t, CompletePath, seen.path)
	assert.JSONEq(t, `{"processInstanceId":"p1","variables":{"salary":{"value":50000.5,"type":"Double"}}}`, string(seen.body))
}

func TestSubmitCalculationSendsNaNAsNull(t *testing.T) {
	c, _, seen := newTestClient(t, http.StatusOK, `{"success":true}`)

	payload := model.SubmissionPayload{
		ProcessInstanceID: "p1",
		Variables:         map[string]model.Variable{"salary": {Value: math.NaN(), Type: model.WireTypeDouble}},
	}
	_, err := c.SubmitCalculation(context.Background(), payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"processInstanceId":"p1","variables":{"salary":{"value":null,"type":"Double"}}}`, string(seen.body))
}
