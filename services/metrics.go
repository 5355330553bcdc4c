package services

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loadRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resource_loader_requests_total",
			Help: "Load requests by how they were resolved",
		},
		[]string{"result"},
	)

	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resource_loader_fetches_total",
			Help: "Outbound resource fetches by outcome",
		},
		[]string{"outcome"},
	)

	fetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resource_loader_fetch_duration_seconds",
			Help:    "Time spent fetching whole resources",
			Buckets: prometheus.DefBuckets,
		},
	)

	pendingFetches = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resource_loader_pending_fetches",
			Help: "Fetches currently in flight",
		},
	)
)

func fetchOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind.String()
	}
	return "error"
}
