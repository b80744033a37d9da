package metrics

import (
	"encoding/json"
	"time"

	"github.com/k3rs/k3rs/pkg/storage"
	"github.com/k3rs/k3rs/pkg/types"
)

// LeaderChecker reports whether this process currently holds the
// controller-leader lease. Satisfied by *leader.Election; kept as a
// narrow interface here to avoid importing pkg/leader.
type LeaderChecker interface {
	IsLeader() bool
}

// storeHealthProbeKey is read (never written) purely to exercise the
// Store's read path for health reporting; it is never expected to exist.
const storeHealthProbeKey = "/metrics/health-probe"

// Collector periodically samples Store contents into the package-level
// gauges. It never mutates the Store.
type Collector struct {
	store  storage.Store
	leader LeaderChecker
	stopCh chan struct{}
}

// NewCollector creates a metrics collector reading from store. leader
// may be nil if this process never participates in leader election
// (e.g. an agent-only process).
func NewCollector(store storage.Store, leader LeaderChecker) *Collector {
	return &Collector{
		store:  store,
		leader: leader,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics every 15 seconds.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectStoreHealth()
	c.collectNodeMetrics()
	c.collectPodMetrics()
	c.collectDeploymentMetrics()
	c.collectReplicaSetMetrics()
	c.collectSecretMetrics()
	c.collectLeaderMetrics()
}

// collectStoreHealth registers the "store" health component from a
// cheap Store round-trip: a key that is expected to never exist
// resolving to ErrNotFound is just as much a sign of a reachable Store
// as finding something, so only an unexpected error marks it unhealthy.
func (c *Collector) collectStoreHealth() {
	_, err := c.store.Get(storeHealthProbeKey)
	if err != nil && err != storage.ErrNotFound {
		RegisterComponent("store", false, err.Error())
		return
	}
	RegisterComponent("store", true, "")
}

func (c *Collector) collectNodeMetrics() {
	kvs, err := c.store.ListPrefix(types.NodeKeyPrefix)
	if err != nil {
		return
	}

	counts := make(map[types.NodeStatus]int)
	for _, kv := range kvs {
		var node types.Node
		if json.Unmarshal(kv.Value, &node) != nil {
			continue
		}
		counts[node.Status]++
	}
	for status, count := range counts {
		NodesTotal.WithLabelValues(string(status)).Set(float64(count))
	}
}

func (c *Collector) collectPodMetrics() {
	kvs, err := c.store.ListPrefix(types.PodKeyPrefix)
	if err != nil {
		return
	}

	type key struct {
		namespace string
		status    types.PodStatus
	}
	counts := make(map[key]int)
	for _, kv := range kvs {
		var pod types.Pod
		if json.Unmarshal(kv.Value, &pod) != nil {
			continue
		}
		counts[key{pod.Namespace, pod.Status}]++
	}
	for k, count := range counts {
		PodsTotal.WithLabelValues(k.namespace, string(k.status)).Set(float64(count))
	}
}

func (c *Collector) collectDeploymentMetrics() {
	kvs, err := c.store.ListPrefix(types.DeploymentKeyPrefix)
	if err != nil {
		return
	}
	DeploymentsTotal.Set(float64(len(kvs)))
}

func (c *Collector) collectReplicaSetMetrics() {
	kvs, err := c.store.ListPrefix(types.ReplicaSetKeyPrefix)
	if err != nil {
		return
	}
	ReplicaSetsTotal.Set(float64(len(kvs)))
}

func (c *Collector) collectSecretMetrics() {
	kvs, err := c.store.ListPrefix(types.SecretKeyPrefix)
	if err != nil {
		return
	}
	SecretsTotal.Set(float64(len(kvs)))
}

func (c *Collector) collectLeaderMetrics() {
	if c.leader == nil {
		return
	}
	if c.leader.IsLeader() {
		IsLeader.Set(1)
	} else {
		IsLeader.Set(0)
	}
}
