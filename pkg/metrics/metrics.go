package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lab lifecycle metrics
var (
	LabsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labs_created_total",
			Help: "Total number of labs created",
		},
		[]string{"lab_type", "mode"},
	)

	LabsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "labs_expired_total",
			Help: "Total number of labs torn down by the expiry sweeper",
		},
	)

	SweepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lab_sweeps_total",
			Help: "Total number of expiry sweep runs",
		},
		[]string{"status"},
	)
)

// Setup pipeline metrics
var (
	PipelinesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "setup_pipelines_completed_total",
			Help: "Total number of setup pipelines completed",
		},
		[]string{"result"},
	)

	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "setup_step_duration_seconds",
			Help:    "Setup step execution duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.4 minutes
		},
		[]string{"status"},
	)

	StepRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "setup_step_retries_total",
			Help: "Total number of setup step retry attempts",
		},
	)

	PipelineQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "setup_pipeline_queue_depth",
			Help: "Number of setup pipelines waiting for a worker",
		},
	)
)

// Remote execution metrics
var (
	ExecCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lab_exec_commands_total",
			Help: "Total number of remote commands executed in lab pods",
		},
		[]string{"result"},
	)

	ExecDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lab_exec_duration_seconds",
			Help:    "Remote command execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
