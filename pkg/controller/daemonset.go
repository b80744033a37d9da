package controller

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/k3rs/k3rs/pkg/storage"
	"github.com/k3rs/k3rs/pkg/types"
)

// DaemonSetController ensures exactly one Pod owned by each DaemonSet
// runs on every Node whose labels are a superset of its node_selector
// and whose status is Ready, deleting DS-owned Pods on nodes that no
// longer qualify.
type DaemonSetController struct {
	store storage.Store
}

func NewDaemonSetController(store storage.Store) *DaemonSetController {
	return &DaemonSetController{store: store}
}

func (c *DaemonSetController) Name() string          { return "daemonset" }
func (c *DaemonSetController) Period() time.Duration { return 15 * time.Second }

func (c *DaemonSetController) Reconcile(ctx context.Context) error {
	dsKVs, err := c.store.ListPrefix(types.DaemonSetKeyPrefix)
	if err != nil {
		return err
	}

	nodes, err := c.listQualifyingNodes()
	if err != nil {
		return err
	}

	for _, kv := range dsKVs {
		var ds types.DaemonSet
		if err := json.Unmarshal(kv.Value, &ds); err != nil {
			continue
		}
		ns, _, ok := types.SplitNamespacedKey(types.DaemonSetKeyPrefix, kv.Key)
		if !ok {
			continue
		}
		ds.Namespace = ns
		if err := c.reconcileOne(&ds, nodes); err != nil {
			return err
		}
	}
	return nil
}

func (c *DaemonSetController) listQualifyingNodes() ([]*types.Node, error) {
	kvs, err := c.store.ListPrefix(types.NodeKeyPrefix)
	if err != nil {
		return nil, err
	}
	var nodes []*types.Node
	for _, kv := range kvs {
		var node types.Node
		if err := json.Unmarshal(kv.Value, &node); err != nil {
			continue
		}
		nodes = append(nodes, &node)
	}
	return nodes, nil
}

func (c *DaemonSetController) reconcileOne(ds *types.DaemonSet, nodes []*types.Node) error {
	owned, err := c.ownedPods(ds)
	if err != nil {
		return err
	}
	byNode := make(map[string]*types.Pod, len(owned))
	for _, p := range owned {
		byNode[p.NodeName] = p
	}

	qualifying := make(map[string]bool, len(nodes))
	desired := 0
	for _, n := range nodes {
		if !qualifies(ds, n) {
			continue
		}
		qualifying[n.Name] = true
		desired++
		if _, exists := byNode[n.Name]; !exists {
			if err := c.createPod(ds, n); err != nil {
				return err
			}
		}
	}

	var scheduled, ready int
	for nodeName, pod := range byNode {
		if !qualifying[nodeName] {
			if err := c.store.Delete(types.PodKey(pod.Namespace, pod.Name)); err != nil {
				return err
			}
			continue
		}
		scheduled++
		if pod.Status == types.PodRunning {
			ready++
		}
	}

	want := types.DaemonSetStatus{
		DesiredNumberScheduled: desired,
		CurrentNumberScheduled: scheduled,
		NumberReady:            ready,
	}
	if want == ds.Status {
		return nil
	}
	ds.Status = want

	data, err := json.Marshal(ds)
	if err != nil {
		return err
	}
	return c.store.Put(types.DaemonSetKey(ds.Namespace, ds.Name), data)
}

func qualifies(ds *types.DaemonSet, node *types.Node) bool {
	if node.Status != types.NodeReady {
		return false
	}
	return ds.Spec.NodeSelector.Subset(node.Labels)
}

func (c *DaemonSetController) ownedPods(ds *types.DaemonSet) ([]*types.Pod, error) {
	kvs, err := c.store.ListPrefix(types.PodPrefix(ds.Namespace))
	if err != nil {
		return nil, err
	}
	var owned []*types.Pod
	for _, kv := range kvs {
		var pod types.Pod
		if err := json.Unmarshal(kv.Value, &pod); err != nil {
			continue
		}
		if pod.OwnedBy(ds.ID) {
			owned = append(owned, &pod)
		}
	}
	return owned, nil
}

func (c *DaemonSetController) createPod(ds *types.DaemonSet, node *types.Node) error {
	pod := types.Pod{
		ID:        uuid.New().String(),
		Name:      ds.Name + "-" + uuid.New().String()[:8],
		Namespace: ds.Namespace,
		Spec:      ds.Spec.Template,
		Status:    types.PodScheduled,
		NodeName:  node.Name,
		OwnerRef: &types.OwnerRef{
			Kind:      "DaemonSet",
			Namespace: ds.Namespace,
			Name:      ds.Name,
			UID:       ds.ID,
		},
		CreatedAt: time.Now(),
	}
	data, err := json.Marshal(&pod)
	if err != nil {
		return err
	}
	return c.store.Put(types.PodKey(pod.Namespace, pod.Name), data)
}
