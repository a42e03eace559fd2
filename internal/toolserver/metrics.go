package toolserver

import "github.com/prometheus/client_golang/prometheus"

var (
	toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolshed_tool_calls_total",
			Help: "Total number of tool invocations.",
		},
		[]string{"tool", "status"},
	)
	toolCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toolshed_tool_call_duration_seconds",
			Help:    "Tool invocation duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)
)

func init() {
	prometheus.MustRegister(toolCallsTotal)
	prometheus.MustRegister(toolCallDuration)
}
