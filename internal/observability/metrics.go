package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	reg prometheus.Gatherer

	ChatRequests       *prometheus.CounterVec
	RepeatedQuestions  prometheus.Counter
	CompletionErrors   *prometheus.CounterVec
	CompletionLatency  prometheus.Histogram
	AuditFailures      prometheus.Counter
	StreamParseErrors  prometheus.Counter
	RateLimitRejected  *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	AuditQueueConsumed *prometheus.CounterVec
}

// NewMetrics registers instruments on reg; nil means the default registry.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	var (
		r prometheus.Registerer = prometheus.DefaultRegisterer
		g prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		r, g = reg, reg
	}
	f := promauto.With(r)

	return &Metrics{
		reg: g,
		ChatRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Customer chat requests by priority and mode.",
		}, []string{"priority", "mode"}),
		RepeatedQuestions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repeated_questions_total",
			Help:      "Questions that crossed the high repetition threshold.",
		}),
		CompletionErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_errors_total",
			Help:      "Completion service failures by mode.",
		}, []string{"mode"}),
		CompletionLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_latency_ms",
			Help:      "Completion call latency in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 4000, 8000, 16000},
		}),
		AuditFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_failures_total",
			Help:      "Audit log writes that failed and were dropped.",
		}),
		StreamParseErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_parse_errors_total",
			Help:      "Streamed data lines skipped because they were not JSON.",
		}),
		RateLimitRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejected_total",
			Help:      "Requests rejected by the rate limiter by scope.",
		}, []string{"scope"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		AuditQueueConsumed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_queue_consumed_total",
			Help:      "Queued audit entries handled by the worker by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) ObserveChat(priority, mode string) {
	if m == nil {
		return
	}
	m.ChatRequests.WithLabelValues(priority, mode).Inc()
}

func (m *Metrics) ObserveRepeated() {
	if m == nil {
		return
	}
	m.RepeatedQuestions.Inc()
}

func (m *Metrics) ObserveCompletion(mode string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.CompletionLatency.Observe(float64(d.Milliseconds()))
	if err != nil {
		m.CompletionErrors.WithLabelValues(mode).Inc()
	}
}

func (m *Metrics) ObserveAuditFailure() {
	if m == nil {
		return
	}
	m.AuditFailures.Inc()
}

func (m *Metrics) ObserveParseError() {
	if m == nil {
		return
	}
	m.StreamParseErrors.Inc()
}

func (m *Metrics) ObserveRateLimited(scope string) {
	if m == nil {
		return
	}
	m.RateLimitRejected.WithLabelValues(scope).Inc()
}

func (m *Metrics) ObserveHTTP(route, status string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, status).Inc()
}

func (m *Metrics) ObserveConsumed(outcome string) {
	if m == nil {
		return
	}
	m.AuditQueueConsumed.WithLabelValues(outcome).Inc()
}

// Handler serves the registry the metrics were created on.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
