package controller

import (
	"context"
	"encoding/json"
	"time"

	"github.com/k3rs/k3rs/pkg/storage"
	"github.com/k3rs/k3rs/pkg/types"
)

// DefaultEvictionGrace is how long a Node may sit at Unknown status
// before its Pods are evicted back to Pending for rescheduling, absent
// an explicit eviction_grace in config.
const DefaultEvictionGrace = 5 * time.Minute

// controlPlaneLabel marks Pods EvictionController must never touch.
const controlPlaneLabel = "node-role.kubernetes.io/control-plane"

// EvictionController resets every non-terminal, non-control-plane Pod
// on a Node that has sat at Unknown status for at least grace — measured
// from the moment the Node transitioned to Unknown (types.Node.UnknownSince),
// not from its last heartbeat — back to Pending with no node_name, so the
// ReplicaSet/Deployment controllers recreate it or the Scheduler re-binds
// it elsewhere.
type EvictionController struct {
	store storage.Store
	grace time.Duration
}

// NewEvictionController builds an EvictionController over store. A
// non-positive grace falls back to DefaultEvictionGrace.
func NewEvictionController(store storage.Store, grace time.Duration) *EvictionController {
	if grace <= 0 {
		grace = DefaultEvictionGrace
	}
	return &EvictionController{store: store, grace: grace}
}

func (c *EvictionController) Name() string          { return "eviction" }
func (c *EvictionController) Period() time.Duration { return 30 * time.Second }

func (c *EvictionController) Reconcile(ctx context.Context) error {
	nodes, err := c.staleNodes()
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return nil
	}

	pods, err := c.listAllPods()
	if err != nil {
		return err
	}

	for _, pod := range pods {
		if _, evict := nodes[pod.NodeName]; !evict {
			continue
		}
		if pod.Status.Terminal() || pod.Status == types.PodTerminating {
			continue
		}
		if _, ok := pod.Labels[controlPlaneLabel]; ok {
			continue
		}

		pod.Status = types.PodPending
		pod.NodeName = ""
		data, err := json.Marshal(pod)
		if err != nil {
			continue
		}
		if err := c.store.Put(types.PodKey(pod.Namespace, pod.Name), data); err != nil {
			return err
		}
	}
	return nil
}

// staleNodes returns the set of Node names that have sat Unknown for
// at least c.grace.
func (c *EvictionController) staleNodes() (map[string]struct{}, error) {
	kvs, err := c.store.ListPrefix(types.NodeKeyPrefix)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	stale := make(map[string]struct{})
	for _, kv := range kvs {
		var node types.Node
		if err := json.Unmarshal(kv.Value, &node); err != nil {
			continue
		}
		if node.Status == types.NodeUnknown && !node.UnknownSince.IsZero() && now.Sub(node.UnknownSince) >= c.grace {
			stale[node.Name] = struct{}{}
		}
	}
	return stale, nil
}

func (c *EvictionController) listAllPods() ([]*types.Pod, error) {
	kvs, err := c.store.ListPrefix(types.PodKeyPrefix)
	if err != nil {
		return nil, err
	}
	var pods []*types.Pod
	for _, kv := range kvs {
		var pod types.Pod
		if err := json.Unmarshal(kv.Value, &pod); err != nil {
			continue
		}
		pods = append(pods, &pod)
	}
	return pods, nil
}
