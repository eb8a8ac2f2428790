package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
)

// metrics are the pipeline's Prometheus collectors.
type metrics struct {
	// runs counts finished runs by outcome (completed, failed).
	runs *prometheus.CounterVec
	// stageDuration measures each stage, labelled by stage name.
	stageDuration *prometheus.HistogramVec
	// stageFailures counts stages that errored or panicked.
	stageFailures *prometheus.CounterVec
	// filesDiscovered records the source file count of each run.
	filesDiscovered prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Analysis runs by outcome",
		}, []string{"outcome"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"stage"}),
		stageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "stage_failures_total",
			Help:      "Stages that failed or panicked",
		}, []string{"stage"}),
		filesDiscovered: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "files_discovered",
			Help:      "Source files discovered per run",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}
}
