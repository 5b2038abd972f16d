package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var authEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "museum_auth_events_total",
	Help: "Authentication and account lifecycle events by outcome.",
}, []string{"event", "outcome"})

// AuthEvent counts one occurrence of event (register, login, refresh, delete, ...) with outcome.
func AuthEvent(event, outcome string) {
	authEvents.WithLabelValues(event, outcome).Inc()
}
