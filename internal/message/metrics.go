package message

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claimant_messages_processed_total",
			Help: "Messages processed by type and resulting status.",
		},
		[]string{"type", "status"},
	)
	messageProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "claimant_message_processing_seconds",
			Help:    "Time spent processing a single message.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"type"},
	)
	dispatchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claimant_dispatch_runs_total",
			Help: "Dispatcher runs by outcome.",
		},
		[]string{"outcome"},
	)
)
