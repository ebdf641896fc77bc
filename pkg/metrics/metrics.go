// Package metrics holds the prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "office_agent"

var (
	AgentActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Agent tool executions by tool and outcome",
		},
		[]string{"tool", "outcome"},
	)

	AIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_requests_total",
			Help:      "Generative-text requests by provider and status",
		},
		[]string{"provider", "status"},
	)

	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_request_duration_seconds",
			Help:      "Latency of generative-text requests",
			Buckets:   []float64{.25, .5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	InboxEmails = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbox_emails_total",
			Help:      "Inbox messages seen by the triage pipeline, by result",
		},
		[]string{"result"},
	)

	EmailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Outgoing emails by status",
		},
		[]string{"status"},
	)

	CronRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cron_runs_total",
			Help:      "Scheduled job executions by status",
		},
		[]string{"status"},
	)

	CronActiveJobs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cron_active_jobs",
			Help:      "Number of ticking jobs in the scheduler registry",
		},
	)
)

func init() {
	prometheus.MustRegister(AgentActions, AIRequests, AIRequestDuration, InboxEmails, EmailsSent, CronRuns, CronActiveJobs)
}

// ObserveAI records one generative-text call
func ObserveAI(provider string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	AIRequests.WithLabelValues(provider, status).Inc()
	AIRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
