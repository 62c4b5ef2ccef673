// Package metrics records gateway and workflow metrics with Prometheus.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/spigell/careeros/internal/ai"
)

// Recorder holds the collectors used across the service.
type Recorder struct {
	gatewayRequests *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
	agentFallbacks  *prometheus.CounterVec
	workflowRuns    *prometheus.CounterVec
	workflowDrafts  prometheus.Histogram
	assistFallbacks *prometheus.CounterVec
}

// NewRecorder registers collectors on reg. Pass prometheus.DefaultRegisterer
// to expose them through promhttp.Handler.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		gatewayRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careeros_gateway_requests_total",
				Help: "Total number of language model gateway calls by provider, model and status",
			},
			[]string{"provider", "model", "status"},
		),
		gatewayDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "careeros_gateway_request_duration_seconds",
				Help:    "Duration of language model gateway calls in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"provider", "model"},
		),
		agentFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careeros_roadmap_agent_fallbacks_total",
				Help: "Number of times a roadmap agent substituted a default value",
			},
			[]string{"agent", "cause"},
		),
		workflowRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careeros_roadmap_workflows_total",
				Help: "Total number of roadmap workflow runs by outcome",
			},
			[]string{"outcome"},
		),
		workflowDrafts: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "careeros_roadmap_drafting_passes",
				Help:    "Number of curriculum drafting passes per roadmap workflow",
				Buckets: []float64{1, 2, 3, 4, 5},
			},
		),
		assistFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careeros_assist_fallbacks_total",
				Help: "Number of assistant replies replaced by a default payload",
			},
			[]string{"assistant"},
		),
	}
}

// ObserveGateway records one gateway call.
func (r *Recorder) ObserveGateway(provider, model string, err error, duration time.Duration) {
	if r == nil {
		return
	}
	r.gatewayRequests.WithLabelValues(provider, model, gatewayStatus(err)).Inc()
	r.gatewayDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
}

// IncAgentFallback counts an agent that fell back to its default output.
func (r *Recorder) IncAgentFallback(agent, cause string) {
	if r == nil {
		return
	}
	r.agentFallbacks.WithLabelValues(agent, cause).Inc()
}

// ObserveWorkflow records the outcome of one roadmap workflow.
func (r *Recorder) ObserveWorkflow(outcome string, drafts int) {
	if r == nil {
		return
	}
	r.workflowRuns.WithLabelValues(outcome).Inc()
	if drafts > 0 {
		r.workflowDrafts.Observe(float64(drafts))
	}
}

// IncAssistFallback counts an assistant that returned its default payload.
func (r *Recorder) IncAssistFallback(assistant string) {
	if r == nil {
		return
	}
	r.assistFallbacks.WithLabelValues(assistant).Inc()
}

// Instrument wraps next so every call is counted and timed.
func Instrument(next ai.Gateway, r *Recorder, provider, model string) ai.Gateway {
	if r == nil {
		return next
	}

	return ai.GatewayFunc(func(ctx context.Context, prompt string) (string, error) {
		start := time.Now()
		out, err := next.Invoke(ctx, prompt)
		r.ObserveGateway(provider, model, err, time.Since(start))
		return out, err
	})
}

func gatewayStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ai.ErrGatewayTimeout):
		return "timeout"
	default:
		return "error"
	}
}
