// Package metrics holds the prometheus collectors of the poll service
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector the service updates. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	PollsGenerated  prometheus.Counter
	VotesCast       prometheus.Counter
	PollsClosed     *prometheus.CounterVec
	Rejections      *prometheus.CounterVec
	AlertsPublished prometheus.Counter
	HTTPRequests    *prometheus.CounterVec
}

// New registers the collectors on registry
func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		PollsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "ecodrive_polls_generated_total",
			Help: "Total number of polls generated",
		}),
		VotesCast: factory.NewCounter(prometheus.CounterOpts{
			Name: "ecodrive_votes_cast_total",
			Help: "Total number of votes accepted",
		}),
		PollsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ecodrive_polls_closed_total",
			Help: "Total number of polls resolved, by who closed them",
		}, []string{"closed_by"}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ecodrive_rejections_total",
			Help: "Total number of rejected poll operations, by operation and reason",
		}, []string{"operation", "reason"}),
		AlertsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "ecodrive_area_alerts_published_total",
			Help: "Total number of area alerts published",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ecodrive_http_requests_total",
			Help: "Total number of HTTP requests, by route and status",
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) PollGenerated() {
	if m != nil {
		m.PollsGenerated.Inc()
	}
}

func (m *Metrics) VoteCast() {
	if m != nil {
		m.VotesCast.Inc()
	}
}

func (m *Metrics) PollClosed(closedBy string) {
	if m != nil {
		m.PollsClosed.WithLabelValues(closedBy).Inc()
	}
}

func (m *Metrics) Rejected(operation, reason string) {
	if m != nil {
		m.Rejections.WithLabelValues(operation, reason).Inc()
	}
}

func (m *Metrics) AlertPublished() {
	if m != nil {
		m.AlertsPublished.Inc()
	}
}

func (m *Metrics) Request(route, status string) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(route, status).Inc()
	}
}
