package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	planRunTotal    *prometheus.CounterVec
	planRunDuration *prometheus.HistogramVec
	planParseErrors prometheus.Counter

	stepTotal    *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec

	sanitizerRepairs *prometheus.CounterVec

	inlineTurnsTotal *prometheus.CounterVec
	inlineRunsTotal  *prometheus.CounterVec

	toolExecutionTotal    *prometheus.CounterVec
	toolExecutionDuration *prometheus.HistogramVec

	llmCallTotal    *prometheus.CounterVec
	llmCallDuration *prometheus.HistogramVec
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			planRunTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "toolplan_plan_runs_total",
					Help: "Total batch plan runs by final status.",
				},
				[]string{"status"},
			),
			planRunDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "toolplan_plan_run_duration_seconds",
					Help:    "Batch plan run duration in seconds by final status.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"status"},
			),
			planParseErrors: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "toolplan_plan_parse_errors_total",
					Help: "Model replies that could not be turned into a plan.",
				},
			),
			stepTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "toolplan_steps_total",
					Help: "Executed plan steps by action and status.",
				},
				[]string{"action", "status"},
			),
			stepDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "toolplan_step_duration_seconds",
					Help:    "Plan step dispatch duration in seconds by action.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"action"},
			),
			sanitizerRepairs: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "toolplan_sanitizer_repairs_total",
					Help: "Sanitizer passes that changed model output, by pass name.",
				},
				[]string{"pass"},
			),
			inlineTurnsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "toolplan_inline_turns_total",
					Help: "Inline protocol turns by reply kind.",
				},
				[]string{"kind"},
			),
			inlineRunsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "toolplan_inline_runs_total",
					Help: "Inline protocol runs by outcome.",
				},
				[]string{"outcome"},
			),
			toolExecutionTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "toolplan_tool_execution_total",
					Help: "Tool host executions by tool and status.",
				},
				[]string{"tool", "status"},
			),
			toolExecutionDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "toolplan_tool_execution_duration_seconds",
					Help:    "Tool host execution duration in seconds by tool.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"tool"},
			),
			llmCallTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "toolplan_llm_calls_total",
					Help: "Language model calls by provider and status.",
				},
				[]string{"provider", "status"},
			),
			llmCallDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "toolplan_llm_call_duration_seconds",
					Help:    "Language model call duration in seconds by provider.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"provider"},
			),
		}

		prometheus.MustRegister(
			m.planRunTotal,
			m.planRunDuration,
			m.planParseErrors,
			m.stepTotal,
			m.stepDuration,
			m.sanitizerRepairs,
			m.inlineTurnsTotal,
			m.inlineRunsTotal,
			m.toolExecutionTotal,
			m.toolExecutionDuration,
			m.llmCallTotal,
			m.llmCallDuration,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

func RecordPlanRun(status string, duration time.Duration) {
	m := getMetrics()
	m.planRunTotal.WithLabelValues(status).Inc()
	m.planRunDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func RecordPlanParseError() {
	getMetrics().planParseErrors.Inc()
}

func RecordStep(action, status string, duration time.Duration) {
	m := getMetrics()
	m.stepTotal.WithLabelValues(action, status).Inc()
	m.stepDuration.WithLabelValues(action).Observe(duration.Seconds())
}

func RecordSanitizerRepair(pass string) {
	getMetrics().sanitizerRepairs.WithLabelValues(pass).Inc()
}

func RecordInlineTurn(kind string) {
	getMetrics().inlineTurnsTotal.WithLabelValues(kind).Inc()
}

func RecordInlineRun(outcome string) {
	getMetrics().inlineRunsTotal.WithLabelValues(outcome).Inc()
}

func RecordToolExecution(tool string, duration time.Duration, success bool) {
	m := getMetrics()
	m.toolExecutionTotal.WithLabelValues(tool, statusLabel(success)).Inc()
	m.toolExecutionDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

func RecordLLMCall(provider string, duration time.Duration, success bool) {
	m := getMetrics()
	m.llmCallTotal.WithLabelValues(provider, statusLabel(success)).Inc()
	m.llmCallDuration.WithLabelValues(provider).Observe(duration.Seconds())
}
