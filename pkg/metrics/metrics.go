// Package metrics exposes the GCS's internal state as prometheus gauges,
// following the teacher's pkg/metrics/metrics.go registration-at-init
// shape: one GaugeVec per entity table, labeled by its lifecycle state,
// polled by a Collector rather than updated inline by every manager
// mutation so no manager takes a metrics dependency of its own.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	NodesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gcsd_nodes_total",
			Help: "Total number of known nodes by state",
		},
		[]string{"state"},
	)

	JobsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gcsd_jobs_total",
			Help: "Total number of known jobs by liveness",
		},
		[]string{"is_dead"},
	)

	ActorsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gcsd_actors_total",
			Help: "Total number of known actors by lifecycle state",
		},
		[]string{"state"},
	)

	PlacementGroupsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gcsd_placement_groups_total",
			Help: "Total number of known placement groups by state",
		},
		[]string{"state"},
	)

	PendingActorsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gcsd_pending_actors_total",
			Help: "Number of actors parked awaiting a feasible node",
		},
	)

	WorkerDeathsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gcsd_worker_deaths_total",
			Help: "Total number of worker death reports processed",
		},
	)

	SchedulingLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gcsd_scheduling_latency_seconds",
			Help:    "Time taken to place an actor or placement-group bundle",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(NodesTotal)
	prometheus.MustRegister(JobsTotal)
	prometheus.MustRegister(ActorsTotal)
	prometheus.MustRegister(PlacementGroupsTotal)
	prometheus.MustRegister(PendingActorsTotal)
	prometheus.MustRegister(WorkerDeathsTotal)
	prometheus.MustRegister(SchedulingLatency)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
