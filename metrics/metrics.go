package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RevisionsAppliedTotal tracks the total number of schema revisions applied.
var RevisionsAppliedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ultimateco_entrypoint_revisions_applied_total",
		Help: "Total number of schema revisions applied",
	},
	[]string{"driver"},
)

// MigrationFailuresTotal tracks the total number of failed migration runs.
var MigrationFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ultimateco_entrypoint_migration_failures_total",
		Help: "Total failed migration runs",
	},
	[]string{"driver"},
)

// MigrationDuration tracks the duration of successful migration runs.
var MigrationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "ultimateco_entrypoint_migration_duration_seconds",
		Help:    "Duration of successful migration runs",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"driver"},
)

// DatabaseWaitSeconds tracks how long startup waited for the database.
var DatabaseWaitSeconds = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "ultimateco_entrypoint_database_wait_seconds",
		Help:    "Time spent waiting for the database to become reachable",
		Buckets: prometheus.DefBuckets,
	},
)
