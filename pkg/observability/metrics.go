package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aretw0/concord/pkg/domain"
)

const namespace = "concord"

// Metrics counts engine lifecycle events.
type Metrics struct {
	iterations   *prometheus.CounterVec
	steps        *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	outcomes     *prometheus.CounterVec
	commits      *prometheus.CounterVec

	mu      sync.Mutex
	started map[string]time.Time
}

// NewMetrics creates and registers the engine metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		iterations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loop_iterations_total",
			Help:      "Iterations started, per loop.",
		}, []string{"loop"}),
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loop_steps_total",
			Help:      "Steps completed, per loop, step and status.",
		}, []string{"loop", "step", "status"}),
		stepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Wall time per step, dominated by reviewer latency on waiting steps.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"loop", "step"}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loop_outcomes_total",
			Help:      "Terminal loop decisions, per loop and decision.",
		}, []string{"loop", "decision"}),
		commits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_commits_total",
			Help:      "Set-once commits into shared session state, per slot.",
		}, []string{"slot"}),
		started: make(map[string]time.Time),
	}
}

func stepKey(e *domain.StepEvent) string {
	return fmt.Sprintf("%s|%s|%s|%d", e.SessionID, e.Loop, e.Step, e.Iteration)
}

// Hooks adapts the metrics to the engine's lifecycle hook surface.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnIterationStart: func(_ context.Context, e *domain.IterationEvent) {
			m.iterations.WithLabelValues(e.Loop).Inc()
		},
		OnStepStart: func(_ context.Context, e *domain.StepEvent) {
			m.mu.Lock()
			m.started[stepKey(e)] = e.Timestamp
			m.mu.Unlock()
		},
		OnStepEnd: func(_ context.Context, e *domain.StepEvent) {
			status := "ok"
			if e.IsError {
				status = "error"
			}
			m.steps.WithLabelValues(e.Loop, e.Step, status).Inc()

			key := stepKey(e)
			m.mu.Lock()
			start, ok := m.started[key]
			delete(m.started, key)
			m.mu.Unlock()
			if ok {
				m.stepDuration.WithLabelValues(e.Loop, e.Step).Observe(e.Timestamp.Sub(start).Seconds())
			}
		},
		OnLoopEnd: func(_ context.Context, e *domain.LoopEvent) {
			m.outcomes.WithLabelValues(e.Loop, string(e.Decision)).Inc()
		},
		OnCommit: func(_ context.Context, e *domain.CommitEvent) {
			m.commits.WithLabelValues(e.Slot).Inc()
		},
	}
}
