package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cluster metrics
	NodesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "k3rs_nodes_total",
			Help: "Total number of nodes by status",
		},
		[]string{"status"},
	)

	PodsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "k3rs_pods_total",
			Help: "Total number of pods by namespace and status",
		},
		[]string{"namespace", "status"},
	)

	DeploymentsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "k3rs_deployments_total",
			Help: "Total number of deployments",
		},
	)

	ReplicaSetsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "k3rs_replicasets_total",
			Help: "Total number of replicasets",
		},
	)

	SecretsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "k3rs_secrets_total",
			Help: "Total number of secrets",
		},
	)

	// Leader election metrics
	IsLeader = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "k3rs_is_leader",
			Help: "Whether this control-plane process currently holds the controller-leader lease (1 = leader, 0 = follower)",
		},
	)

	LeaderRenewalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "k3rs_leader_renewals_total",
			Help: "Total lease renewal attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Watch/event log metrics
	WatchSubscribersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "k3rs_watch_subscribers_total",
			Help: "Number of live EventLog subscriptions",
		},
	)

	WatchEventsAppendedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "k3rs_watch_events_appended_total",
			Help: "Total ChangeEvents appended to the event log",
		},
	)

	// Scheduler metrics
	SchedulingLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "k3rs_scheduling_latency_seconds",
			Help:    "Time taken to choose a node for a pod, in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PodsScheduled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "k3rs_pods_scheduled_total",
			Help: "Total number of pods successfully scheduled",
		},
	)

	SchedulingDeferredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "k3rs_scheduling_deferred_total",
			Help: "Total number of scheduling attempts deferred for lack of an eligible node",
		},
	)

	// Controller reconciliation metrics
	ReconciliationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "k3rs_reconciliation_duration_seconds",
			Help:    "Duration of one controller reconciliation pass",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"controller"},
	)

	ReconciliationCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "k3rs_reconciliation_cycles_total",
			Help: "Total reconciliation passes by controller",
		},
		[]string{"controller"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(NodesTotal)
	prometheus.MustRegister(PodsTotal)
	prometheus.MustRegister(DeploymentsTotal)
	prometheus.MustRegister(ReplicaSetsTotal)
	prometheus.MustRegister(SecretsTotal)
	prometheus.MustRegister(IsLeader)
	prometheus.MustRegister(LeaderRenewalsTotal)
	prometheus.MustRegister(WatchSubscribersTotal)
	prometheus.MustRegister(WatchEventsAppendedTotal)
	prometheus.MustRegister(SchedulingLatency)
	prometheus.MustRegister(PodsScheduled)
	prometheus.MustRegister(SchedulingDeferredTotal)
	prometheus.MustRegister(ReconciliationDuration)
	prometheus.MustRegister(ReconciliationCyclesTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
