// Package metrics provides Prometheus metrics for the panel backend.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Upstream API metrics, labelled by target ("amnezia" or "telegram").
	UpstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "panel",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Total number of upstream API request attempts.",
	}, []string{"target"})
	UpstreamRetriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "panel",
		Subsystem: "upstream",
		Name:      "retries_total",
		Help:      "Total number of retried upstream API requests.",
	}, []string{"target"})
	UpstreamFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "panel",
		Subsystem: "upstream",
		Name:      "failures_total",
		Help:      "Total number of upstream API requests that failed after all retries.",
	}, []string{"target", "kind"})

	// Notification metrics.
	TelegramMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "panel",
		Subsystem: "telegram",
		Name:      "messages_total",
		Help:      "Total number of Telegram messages sent, by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		UpstreamRequestsTotal,
		UpstreamRetriesTotal,
		UpstreamFailuresTotal,

		TelegramMessagesTotal,
	)
}
