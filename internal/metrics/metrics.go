package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RegistrationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "felicity",
		Name:      "registrations_created_total",
		Help:      "Registrations created, by registration type and initial payment status.",
	}, []string{"type", "payment_status"})

	PaymentReviews = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "felicity",
		Name:      "payment_reviews_total",
		Help:      "Payment reviews, by action and result.",
	}, []string{"action", "result"})

	CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "felicity",
		Name:      "checkins_total",
		Help:      "Attendance check-ins recorded, by method.",
	}, []string{"method"})

	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "felicity",
		Name:      "event_status_transitions_total",
		Help:      "Persisted event status transitions, by source and target status.",
	}, []string{"from", "to"})

	TeamFanOut = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "felicity",
		Name:      "team_fanout_outcomes_total",
		Help:      "Per-member outcomes of team registration fan-out.",
	}, []string{"outcome"})

	SideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "felicity",
		Name:      "side_effect_failures_total",
		Help:      "Background side effects that failed, by job kind.",
	}, []string{"kind"})

	RealtimeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "felicity",
		Name:      "realtime_connections",
		Help:      "Currently connected websocket clients.",
	})
)
