/*
Package metrics defines and registers every k3rs Prometheus metric and
exposes the scrape handler.

# Metric families

Cluster state (sampled by Collector every 15s from the Store):
  - k3rs_nodes_total{status}
  - k3rs_pods_total{namespace,status}
  - k3rs_deployments_total, k3rs_replicasets_total, k3rs_secrets_total

Leader election:
  - k3rs_is_leader
  - k3rs_leader_renewals_total{outcome}

Watch:
  - k3rs_watch_subscribers_total
  - k3rs_watch_events_appended_total

Scheduler:
  - k3rs_scheduling_latency_seconds
  - k3rs_pods_scheduled_total
  - k3rs_scheduling_deferred_total

Controllers:
  - k3rs_reconciliation_duration_seconds{controller}
  - k3rs_reconciliation_cycles_total{controller}

# Usage

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ReconciliationDuration, "deployment")

	collector := metrics.NewCollector(store, leaderElection)
	collector.Start()
	defer collector.Stop()

	http.Handle("/metrics", metrics.Handler())
*/
package metrics
