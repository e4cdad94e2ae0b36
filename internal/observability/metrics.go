package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "escalation_http_requests_total",
		Help: "Total number of HTTP requests handled",
	}, []string{"method", "route", "status"})
	HTTPErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "escalation_http_errors_total",
		Help: "Total number of HTTP requests that ended in a domain error",
	}, []string{"method", "route", "code"})

	// Sweep metrics
	SweepsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "escalation_sweeps_total",
		Help: "Total number of escalation sweeps run",
	}, []string{"trigger"})
	SweepsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "escalation_sweeps_skipped_total",
		Help: "Total number of periodic ticks skipped because a sweep was still in flight",
	})
	SweepDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "escalation_sweep_duration_seconds",
		Help:    "Wall time of escalation sweeps",
		Buckets: prometheus.DefBuckets,
	}, []string{"trigger"})
	TicketsEvaluated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "escalation_tickets_evaluated_total",
		Help: "Total number of open tickets evaluated by sweeps",
	})
	Escalations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "escalation_transitions_total",
		Help: "Total number of committed escalation transitions",
	}, []string{"trigger_type", "to_level"})
	CASConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "escalation_cas_conflicts_total",
		Help: "Total number of transitions skipped because the ticket level changed concurrently",
	})
	TicketErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "escalation_ticket_errors_total",
		Help: "Total number of per-ticket sweep failures",
	}, []string{"code"})
	RuleMisconfigured = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "escalation_rule_misconfigured_total",
		Help: "Total number of escalations whose target could not be resolved",
	}, []string{"rule_id"})

	// Notification metrics
	NotificationsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "escalation_notifications_published_total",
		Help: "Total number of notification intents accepted by the sink",
	}, []string{"sink", "type"})
	NotificationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "escalation_notification_failures_total",
		Help: "Total number of notification intents the sink failed to accept",
	}, []string{"sink"})
)

func init() {
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPErrors)
	prometheus.MustRegister(SweepsTotal)
	prometheus.MustRegister(SweepsSkipped)
	prometheus.MustRegister(SweepDuration)
	prometheus.MustRegister(TicketsEvaluated)
	prometheus.MustRegister(Escalations)
	prometheus.MustRegister(CASConflicts)
	prometheus.MustRegister(TicketErrors)
	prometheus.MustRegister(RuleMisconfigured)
	prometheus.MustRegister(NotificationsPublished)
	prometheus.MustRegister(NotificationFailures)
}
