// Package metrics exposes orchestration counters in Prometheus format.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Subprocess wait outcomes.
const (
	WaitCompleted = "completed"
	WaitPartial   = "timeout_partial"
	WaitPending   = "timeout_empty"
	WaitNone      = "no_subprocess"
)

type Metrics struct {
	processStarts   *prometheus.CounterVec
	taskCompletions *prometheus.CounterVec
	subprocessWaits *prometheus.CounterVec
	waitDuration    prometheus.Histogram
	requests        *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		processStarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "benefit_process_starts_total",
			Help: "Workflow process instances started, by outcome.",
		}, []string{"outcome"}),
		taskCompletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "benefit_task_completions_total",
			Help: "Workflow task completions, by outcome.",
		}, []string{"outcome"}),
		subprocessWaits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "benefit_subprocess_waits_total",
			Help: "Subprocess waits, by how they ended.",
		}, []string{"outcome"}),
		waitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "benefit_subprocess_wait_seconds",
			Help:    "Time spent waiting for the calculation subprocess.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "benefit_http_requests_total",
			Help: "HTTP requests served, by route and status.",
		}, []string{"route", "status"}),
	}
	reg.MustRegister(m.processStarts, m.taskCompletions, m.subprocessWaits, m.waitDuration, m.requests)
	return m
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (m *Metrics) ProcessStarted(err error) {
	if m == nil {
		return
	}
	m.processStarts.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) TaskCompleted(err error) {
	if m == nil {
		return
	}
	m.taskCompletions.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) SubprocessWaited(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.subprocessWaits.WithLabelValues(result).Inc()
	m.waitDuration.Observe(d.Seconds())
}

func (m *Metrics) Request(route string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Handler serves the gatherer's metrics on a fasthttp route.
func Handler(g prometheus.Gatherer) fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
