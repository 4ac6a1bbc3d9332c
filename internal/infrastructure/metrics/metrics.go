package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution outcomes.
const (
	OutcomeLive     = "live"
	OutcomeExpired  = "expired"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

var (
	LinksCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempqr_links_created_total",
			Help: "Identifiers issued, by plan",
		},
		[]string{"plan"},
	)

	LinksResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempqr_links_resolved_total",
			Help: "Resolution attempts, by outcome",
		},
		[]string{"outcome"},
	)

	QRRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempqr_qr_rendered_total",
			Help: "QR images rendered, by format",
		},
		[]string{"format"},
	)

	ResolutionEventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempqr_resolution_events_consumed_total",
			Help: "Resolution events processed by the consumer, by result",
		},
		[]string{"result"},
	)
)
