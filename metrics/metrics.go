package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	LinesForwardedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logrelay_lines_forwarded_total",
			Help: "Total number of log lines forwarded to the sink.",
		},
		[]string{"tool"},
	)

	LinesDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logrelay_lines_dropped_total",
			Help: "Total number of log lines dropped by the filter list.",
		},
		[]string{"tool"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logrelay_errors_total",
			Help: "Total number of subprocess I/O failures.",
		},
		[]string{"tool", "op"},
	)

	RelayRunning = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "logrelay_running",
			Help: "1 while the relay is streaming from the tool.",
		},
		[]string{"tool"},
	)

	LastActivityTimestamp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "logrelay_last_activity_timestamp_seconds",
			Help: "Unix timestamp of the last line read from the tool.",
		},
		[]string{"tool"},
	)
)

func init() {
	prometheus.MustRegister(LinesForwardedTotal)
	prometheus.MustRegister(LinesDroppedTotal)
	prometheus.MustRegister(ErrorsTotal)
	prometheus.MustRegister(RelayRunning)
	prometheus.MustRegister(LastActivityTimestamp)
}
