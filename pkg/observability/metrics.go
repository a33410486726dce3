package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/folio/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes counters and histograms for conversation turns.
type Metrics struct {
	turnsTotal     *prometheus.CounterVec
	turnLatency    *prometheus.HistogramVec
	dialogBegins   *prometheus.CounterVec
	dialogEnds     *prometheus.CounterVec
	promptsTotal   *prometheus.CounterVec
	promptRetries  *prometheus.CounterVec
	promptOutcomes *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg (prometheus.DefaultRegisterer when nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "turns_total",
			Help:      "Total turns handled, by intent and status",
		}, []string{"intent", "status"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "folio",
			Name:      "turn_duration_seconds",
			Help:      "Latency of turn processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		dialogBegins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folio",
			Subsystem: "dialog",
			Name:      "begins_total",
			Help:      "Total dialogs started",
		}, []string{"dialog_id"}),
		dialogEnds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folio",
			Subsystem: "dialog",
			Name:      "ends_total",
			Help:      "Total dialogs that left the stack, by reason",
		}, []string{"dialog_id", "reason"}),
		promptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folio",
			Subsystem: "prompt",
			Name:      "issued_total",
			Help:      "Total prompts issued",
		}, []string{"kind"}),
		promptRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folio",
			Subsystem: "prompt",
			Name:      "retries_total",
			Help:      "Total re-prompts after invalid input",
		}, []string{"dialog_id", "kind"}),
		promptOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folio",
			Subsystem: "prompt",
			Name:      "results_total",
			Help:      "Total resolved prompts, answered or exhausted",
		}, []string{"kind", "answered"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.turnLatency, m.dialogBegins, m.dialogEnds,
		m.promptsTotal, m.promptRetries, m.promptOutcomes)
	return m
}

func status(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}

// ObserveTurn records a finished turn.
func (m *Metrics) ObserveTurn(e *domain.TurnEvent) {
	if m == nil {
		return
	}
	intent := e.Intent
	if intent == "" {
		intent = "none"
	}
	m.turnsTotal.WithLabelValues(intent, status(e.Err)).Inc()
	m.turnLatency.WithLabelValues(status(e.Err)).Observe(e.Duration.Seconds())
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	if m == nil {
		return domain.LifecycleHooks{}
	}
	return domain.LifecycleHooks{
		OnTurn: func(_ context.Context, e *domain.TurnEvent) {
			m.ObserveTurn(e)
		},
		OnDialogBegin: func(_ context.Context, e *domain.DialogEvent) {
			m.dialogBegins.WithLabelValues(e.DialogID).Inc()
		},
		OnDialogEnd: func(_ context.Context, e *domain.DialogEvent) {
			m.dialogEnds.WithLabelValues(e.DialogID, string(e.Reason)).Inc()
		},
		OnPrompt: func(_ context.Context, e *domain.PromptEvent) {
			m.promptsTotal.WithLabelValues(string(e.Kind)).Inc()
		},
		OnPromptRetry: func(_ context.Context, e *domain.PromptEvent) {
			m.promptRetries.WithLabelValues(e.DialogID, string(e.Kind)).Inc()
		},
		OnPromptResult: func(_ context.Context, e *domain.PromptEvent) {
			answered := "false"
			if e.Answered {
				answered = "true"
			}
			m.promptOutcomes.WithLabelValues(string(e.Kind), answered).Inc()
		},
	}
}

// Handler serves the metrics gathered by g (prometheus.DefaultGatherer when nil).
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
