// Package client talks to the benefit calculation HTTP API on behalf of the
// wizard.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"benefit-calculator/internal/formdata"
	"benefit-calculator/internal/model"
)

const (
	StartPath    = "/api/start-process"
	CompletePath = "/api/complete-task"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL  string
	timeout  time.Duration
	http     *fasthttp.Client
	notifier Notifier
	logger   *slog.Logger
}

type Option func(*Client)

// WithNotifier sets the receiver of failure notices. The default logs them.
func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: timeout,
		http: &fasthttp.Client{
			Name:                "benefit-calculator-wizard",
			MaxIdleConnDuration: 90 * time.Second,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notifier == nil {
		c.notifier = LogNotifier{Logger: c.logger}
	}
	c.logger = c.logger.With("component", "client")
	return c
}

// StartProcess sends the member data and returns the started process with
// its required fields. Success is always true on a decoded answer.
func (c *Client) StartProcess(ctx context.Context, req model.StartProcessRequest) (*model.StartProcessResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode start request: %w", err)
	}
	_, raw, err := c.post(ctx, "start", StartPath, body)
	if err != nil {
		return nil, err
	}
	var resp model.StartProcessResponse
	if err := decodeWithoutSuccess(raw, &resp); err != nil {
		return nil, c.fail(ctx, "start", fmt.Errorf("%w: %v", ErrInvalidResponse, err))
	}
	resp.Success = true
	return &resp, nil
}

// SubmitCalculation completes the process with the typed form values.
func (c *Client) SubmitCalculation(ctx context.Context, payload model.SubmissionPayload) (*model.CalculationResult, error) {
	body, err := formdata.MarshalPayload(payload)
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}
	status, raw, err := c.post(ctx, "complete", CompletePath, body)
	if err != nil {
		return nil, err
	}
	result, err := classify(status, raw)
	if err != nil {
		return nil, c.fail(ctx, "complete", err)
	}
	return result, nil
}

// classify sorts a 2xx body into an error, a calculation result or an
// unrecognized answer, checked in that order.
func classify(status int, raw []byte) (*model.CalculationResult, error) {
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	obj, _ := body.(map[string]any)

	if v, ok := obj["error"]; ok {
		msg := UnknownAPIErrorMessage
		if truthy(v) {
			msg = describe(v)
		}
		return nil, &APIError{Status: status, Message: msg}
	}
	if v, ok := obj["success"]; ok {
		var result model.CalculationResult
		if err := decodeWithoutSuccess(raw, &result); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		result.Success = truthy(v)
		return &result, nil
	}
	return &model.CalculationResult{Success: true, Data: body}, nil
}

// decodeWithoutSuccess decodes raw into dst with the success key removed.
// Servers do not agree on its type; callers set Success themselves.
func decodeWithoutSuccess(raw []byte, dst any) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	delete(fields, "success")
	rest, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(rest, dst)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	}
	return true
}

func describe(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

type errorBody struct {
	Error   any      `json:"error"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

func (c *Client) post(ctx context.Context, op, path string, body []byte) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, c.fail(ctx, op, &TransportError{Op: op, Err: err})
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBodyRaw(body)

	deadline := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	start := time.Now()
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return 0, nil, c.fail(ctx, op, &TransportError{Op: op, Err: err})
	}
	status := resp.StatusCode()
	c.logger.DebugContext(ctx, "api request", "operation", op, "status", status, "duration", time.Since(start))

	// The body buffer is released with resp.
	raw := append([]byte(nil), resp.Body()...)
	if status < 200 || status >= 300 {
		return status, nil, c.fail(ctx, op, apiError(status, raw))
	}
	return status, raw, nil
}

func apiError(status int, raw []byte) *APIError {
	var eb errorBody
	_ = json.Unmarshal(raw, &eb)
	code, _ := eb.Error.(string)
	msg := eb.Message
	if msg == "" && truthy(eb.Error) {
		msg = describe(eb.Error)
	}
	if msg == "" {
		msg = StatusMessage(status)
	}
	return &APIError{Status: status, Code: code, Message: msg, Details: eb.Details}
}

func (c *Client) fail(ctx context.Context, op string, err error) error {
	c.notifier.Notify(ctx, Notice{
		Operation: op,
		Message:   err.Error(),
		Retryable: IsRetryable(err),
		Err:       err,
	})
	return err
}
