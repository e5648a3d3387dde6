/*
Package metrics exposes the GCS's control-plane state through Prometheus.

Metrics are gauges over the current contents of each manager's table
(nodes by state, jobs by liveness, actors by lifecycle state, placement
groups by state), plus a gauge of parked actors, a worker-death counter
and a scheduling-latency histogram. All are registered at package init.
The gauges are refreshed on a timer by Collector, which polls each
manager's List/GetAll method rather than having every manager push updates
inline; no code in this module updates the counter or the histogram.

# Usage

	coll := metrics.NewCollector(nodeMgr, jobMgr, actorMgr, pgMgr, cfg.CollectStatsInterval())
	coll.Start()
	defer coll.Stop()

	mux.Handle("/metrics", metrics.Handler())

# Health

health.go carries a small component health registry independent of the
entity gauges above: subsystems (store, RPC server) call RegisterComponent
and UpdateComponent, and the /health, /ready, /live HTTP handlers read it
back. This is orthogonal to Prometheus scraping and intended for a load
balancer or orchestrator's liveness/readiness probes.
*/
package metrics
