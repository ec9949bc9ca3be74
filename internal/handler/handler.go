// Package handler exposes the calculation service over HTTP.
package handler

import (
	"context"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"benefit-calculator/internal/metrics"
	"benefit-calculator/internal/model"
)

// Service is the orchestration the handlers delegate to.
type Service interface {
	Begin(ctx context.Context, req model.StartProcessRequest) (model.StartProcessResponse, error)
	Calculate(ctx context.Context, payload model.SubmissionPayload) (model.CalculationResult, error)
	Result(ctx context.Context, processInstanceID string) (model.CalculationResult, error)
}

const (
	RouteStartProcess = "/api/start-process"
	RouteCompleteTask = "/api/complete-task"
	RouteResults      = "/api/results"
	RouteHealth       = "/api/health"
	RouteMetrics      = "/metrics"
)

type Handler struct {
	svc     Service
	metrics *metrics.Metrics
	expose  fasthttp.RequestHandler
	logger  *slog.Logger
	version string
}

type Option func(*Handler)

// WithMetrics counts requests in m and serves the exposition from expose.
func WithMetrics(m *metrics.Metrics, expose fasthttp.RequestHandler) Option {
	return func(h *Handler) {
		h.metrics = m
		h.expose = expose
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

func WithVersion(v string) Option {
	return func(h *Handler) { h.version = v }
}

func New(svc Service, opts ...Option) *Handler {
	h := &Handler{svc: svc, logger: slog.Default(), version: "dev"}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "handler")
	return h
}

// Handle is the fasthttp entry point.
func (h *Handler) Handle(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	route := string(ctx.Path())

	switch route {
	case RouteStartProcess:
		h.method(ctx, fasthttp.MethodPost, h.startProcess)
	case RouteCompleteTask:
		h.method(ctx, fasthttp.MethodPost, h.completeTask)
	case RouteResults:
		h.method(ctx, fasthttp.MethodGet, h.results)
	case RouteHealth:
		h.method(ctx, fasthttp.MethodGet, h.health)
	case RouteMetrics:
		if h.expose == nil {
			route = "unknown"
			writeError(ctx, fasthttp.StatusNotFound, model.CodeNotFound, "Route not found", nil)
			break
		}
		h.expose(ctx)
	default:
		route = "unknown"
		writeError(ctx, fasthttp.StatusNotFound, model.CodeNotFound, "Route not found", nil)
	}

	status := ctx.Response.StatusCode()
	h.metrics.Request(route, status)
	h.logger.Debug("request", "method", string(ctx.Method()), "path", string(ctx.Path()), "status", status, "duration", time.Since(start))
}

func (h *Handler) method(ctx *fasthttp.RequestCtx, method string, next fasthttp.RequestHandler) {
	if string(ctx.Method()) != method {
		ctx.Response.Header.Set(fasthttp.HeaderAllow, method)
		writeError(ctx, fasthttp.StatusMethodNotAllowed, model.CodeMethodNotAllowed, "Method not allowed", nil)
		return
	}
	next(ctx)
}

func (h *Handler) startProcess(ctx *fasthttp.RequestCtx) {
	var req model.StartProcessRequest
	if !decode(ctx, &req) {
		return
	}
	if details := ValidateStartRequest(req); len(details) > 0 {
		writeError(ctx, fasthttp.StatusBadRequest, model.CodeValidation, "Request validation failed", details)
		return
	}
	resp, err := h.svc.Begin(ctx, req)
	if err != nil {
		h.fail(ctx, "start process", err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (h *Handler) completeTask(ctx *fasthttp.RequestCtx) {
	var payload model.SubmissionPayload
	if !decode(ctx, &payload) {
		return
	}
	if payload.ProcessInstanceID == "" {
		writeError(ctx, fasthttp.StatusBadRequest, model.CodeValidation, "Request validation failed", []string{"processInstanceId is required"})
		return
	}
	result, err := h.svc.Calculate(ctx, payload)
	if err != nil {
		h.fail(ctx, "complete task", err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, result)
}

func (h *Handler) results(ctx *fasthttp.RequestCtx) {
	pid := string(ctx.QueryArgs().Peek("processInstanceId"))
	if pid == "" {
		writeError(ctx, fasthttp.StatusBadRequest, model.CodeValidation, "Request validation failed", []string{"processInstanceId is required"})
		return
	}
	result, err := h.svc.Result(ctx, pid)
	if err != nil {
		h.fail(ctx, "results", err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, result)
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (h *Handler) health(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, healthResponse{Status: "ok", Version: h.version})
}

func (h *Handler) fail(ctx *fasthttp.RequestCtx, op string, err error) {
	status, resp := Classify(err)
	if status >= fasthttp.StatusInternalServerError {
		h.logger.Error(op+" failed", "error", err, "status", status)
	} else {
		h.logger.Warn(op+" rejected", "error", err, "status", status)
	}
	writeJSON(ctx, status, resp)
}

func decode(ctx *fasthttp.RequestCtx, v any) bool {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, model.CodeInvalidJSON, "Invalid JSON in request body", []string{err.Error()})
		return false
	}
	return true
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		status = fasthttp.StatusInternalServerError
		b, _ = json.Marshal(model.ErrorResponse{Error: model.CodeInternal, Message: "Failed to encode response", Details: []string{err.Error()}})
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(b)
}

func writeError(ctx *fasthttp.RequestCtx, status int, code, message string, details []string) {
	if details == nil {
		details = []string{}
	}
	writeJSON(ctx, status, model.ErrorResponse{Error: code, Message: message, Details: details})
}
