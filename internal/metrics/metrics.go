package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ticketbot"

var (
	// Registry holds the bot's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	eventsHandled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "handled_total",
			Help:      "Total number of inbound platform events handled.",
		},
		[]string{"kind", "status"},
	)

	eventDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "handle_duration_seconds",
			Help:      "Time spent handling an inbound event.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"kind"},
	)

	ticketRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tickets",
			Name:      "requests_total",
			Help:      "Ticket menu selections by option and result.",
		},
		[]string{"option", "result"},
	)

	applications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "applications",
			Name:      "total",
			Help:      "Applications by role type and lifecycle step.",
		},
		[]string{"role_type", "outcome"},
	)

	decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reviews",
			Name:      "decisions_total",
			Help:      "Staff review decisions by action, role type and status.",
		},
		[]string{"action", "role_type", "status"},
	)

	gaugesOnce sync.Once
)

func init() {
	Registry.MustRegister(
		eventsHandled,
		eventDuration,
		ticketRequests,
		applications,
		decisions,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RegisterGauges exposes the open session and running application counts.
// Only the first call registers.
func RegisterGauges(openSessions, runningApplications func() int) {
	gaugesOnce.Do(func() {
		Registry.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "sessions",
				Name:      "open",
				Help:      "Current number of open ticket and application sessions.",
			}, func() float64 { return float64(openSessions()) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "applications",
				Name:      "running",
				Help:      "Current number of applications awaiting answers.",
			}, func() float64 { return float64(runningApplications()) }),
		)
	})
}

// ObserveEvent records one handled event
func ObserveEvent(kind string, elapsed time.Duration, panicked bool) {
	status := "ok"
	if panicked {
		status = "panic"
	}
	eventsHandled.WithLabelValues(kind, status).Inc()
	eventDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// TicketRequest records the result of a ticket menu selection
func TicketRequest(option, result string) {
	ticketRequests.WithLabelValues(option, result).Inc()
}

// Application records an application lifecycle step
func Application(roleType, outcome string) {
	applications.WithLabelValues(roleType, outcome).Inc()
}

// Decision records a resolved review decision
func Decision(action, roleType string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	decisions.WithLabelValues(action, roleType, status).Inc()
}
