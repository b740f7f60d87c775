// Package metrics declares the Prometheus instruments for the conversation
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parley",
			Subsystem: "conversation_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "parley",
			Subsystem: "conversation_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	// Generation lifecycle counters
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parley",
			Subsystem: "conversation_api",
			Name:      "generations_total",
			Help:      "Total generation runs by terminal status",
		},
		[]string{"status"},
	)

	// Generation duration histogram
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "parley",
			Subsystem: "conversation_api",
			Name:      "generation_duration_seconds",
			Help:      "Generation run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"status"},
	)

	// Tool call counters
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parley",
			Subsystem: "conversation_api",
			Name:      "tool_calls_total",
			Help:      "Total domain tool invocations",
		},
		[]string{"action", "status"},
	)

	// Repairs applied to finalized messages
	RepairsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "parley",
			Subsystem: "conversation_api",
			Name:      "repairs_total",
			Help:      "Total hallucinated tool-call repairs applied",
		},
	)

	// Queue depth gauge
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "parley",
			Subsystem: "conversation_api",
			Name:      "queue_depth",
			Help:      "Pending generation queue depth",
		},
	)

	// Connected realtime clients
	RealtimeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "parley",
			Subsystem: "conversation_api",
			Name:      "realtime_clients",
			Help:      "Currently connected realtime clients",
		},
	)

	// Realtime events fanned out to subscribers
	RealtimeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parley",
			Subsystem: "conversation_api",
			Name:      "realtime_events_total",
			Help:      "Total realtime events delivered",
		},
		[]string{"entity_type", "action"},
	)
)
