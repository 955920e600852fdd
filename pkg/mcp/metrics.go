package mcp

import "github.com/prometheus/client_golang/prometheus"

// metrics are the process-level counters/gauges the teacher's go.mod
// pulls in prometheus/client_golang for, generalized from the teacher's
// checkpoint/remediation counters to the protocol-core surface named in
// SPEC_FULL.md §10.
var (
	requestsByMethod = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mcp_requests_total",
		Help: "Total JSON-RPC requests handled, by method.",
	}, []string{"method"})

	toolCallOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mcp_tool_call_outcomes_total",
		Help: "Total tools/call invocations, by tool name and outcome.",
	}, []string{"tool", "outcome"})

	activeSessionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mcp_active_sessions",
		Help: "Current number of tracked HTTP sessions.",
	})
)

func init() {
	prometheus.MustRegister(requestsByMethod, toolCallOutcomes, activeSessionsGauge)
}

// RecordRequest increments the per-method request counter.
func RecordRequest(method string) {
	requestsByMethod.WithLabelValues(method).Inc()
}

// RecordToolCall increments the per-tool outcome counter.
func RecordToolCall(tool string, isError bool) {
	outcome := "ok"
	if isError {
		outcome = "error"
	}
	toolCallOutcomes.WithLabelValues(tool, outcome).Inc()
}

// SetActiveSessions updates the active-sessions gauge.
func SetActiveSessions(n int) {
	activeSessionsGauge.Set(float64(n))
}
