package controller

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/k3rs/k3rs/pkg/storage"
	"github.com/k3rs/k3rs/pkg/types"
)

// ReplicaSetController keeps the number of Pods owned by each
// ReplicaSet and matching its selector equal to spec.replicas: it
// synthesizes Pods from the template on a shortfall and deletes the
// least-useful excess Pods on an overage.
type ReplicaSetController struct {
	store storage.Store
}

func NewReplicaSetController(store storage.Store) *ReplicaSetController {
	return &ReplicaSetController{store: store}
}

func (c *ReplicaSetController) Name() string          { return "replicaset" }
func (c *ReplicaSetController) Period() time.Duration { return 10 * time.Second }

func (c *ReplicaSetController) Reconcile(ctx context.Context) error {
	rsKVs, err := c.store.ListPrefix(types.ReplicaSetKeyPrefix)
	if err != nil {
		return err
	}

	for _, kv := range rsKVs {
		var rs types.ReplicaSet
		if err := json.Unmarshal(kv.Value, &rs); err != nil {
			continue
		}
		ns, _, ok := types.SplitNamespacedKey(types.ReplicaSetKeyPrefix, kv.Key)
		if !ok {
			continue
		}
		rs.Namespace = ns
		if err := c.reconcileOne(&rs); err != nil {
			return err
		}
	}
	return nil
}

func (c *ReplicaSetController) reconcileOne(rs *types.ReplicaSet) error {
	pods, err := c.ownedPods(rs)
	if err != nil {
		return err
	}

	delta := rs.Spec.Replicas - len(pods)
	switch {
	case delta > 0:
		for i := 0; i < delta; i++ {
			if err := c.createPod(rs); err != nil {
				return err
			}
		}
	case delta < 0:
		victims := selectVictims(pods, -delta)
		for _, p := range victims {
			if err := c.store.Delete(types.PodKey(p.Namespace, p.Name)); err != nil {
				return err
			}
		}
	}

	c.updateStatus(rs, pods)
	return nil
}

func (c *ReplicaSetController) ownedPods(rs *types.ReplicaSet) ([]*types.Pod, error) {
	kvs, err := c.store.ListPrefix(types.PodPrefix(rs.Namespace))
	if err != nil {
		return nil, err
	}
	var owned []*types.Pod
	for _, kv := range kvs {
		var pod types.Pod
		if err := json.Unmarshal(kv.Value, &pod); err != nil {
			continue
		}
		if !pod.OwnedBy(rs.ID) {
			continue
		}
		if !rs.Spec.Selector.Subset(pod.Labels) {
			continue
		}
		owned = append(owned, &pod)
	}
	return owned, nil
}

func (c *ReplicaSetController) createPod(rs *types.ReplicaSet) error {
	labels := types.Labels{}
	for k, v := range rs.Spec.Selector {
		labels[k] = v
	}

	pod := types.Pod{
		ID:        uuid.New().String(),
		Name:      rs.Name + "-" + uuid.New().String()[:8],
		Namespace: rs.Namespace,
		Labels:    labels,
		Spec:      rs.Spec.Template,
		Status:    types.PodPending,
		OwnerRef: &types.OwnerRef{
			Kind:      "ReplicaSet",
			Namespace: rs.Namespace,
			Name:      rs.Name,
			UID:       rs.ID,
		},
		CreatedAt: time.Now(),
	}

	data, err := json.Marshal(&pod)
	if err != nil {
		return err
	}
	return c.store.Put(types.PodKey(pod.Namespace, pod.Name), data)
}

// selectVictims picks n Pods to delete, preferring Pending pods first,
// then highest restart_count, then youngest (most recently created).
func selectVictims(pods []*types.Pod, n int) []*types.Pod {
	ranked := make([]*types.Pod, len(pods))
	copy(ranked, pods)
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if (a.Status == types.PodPending) != (b.Status == types.PodPending) {
			return a.Status == types.PodPending
		}
		if a.RestartCount != b.RestartCount {
			return a.RestartCount > b.RestartCount
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

func (c *ReplicaSetController) updateStatus(rs *types.ReplicaSet, pods []*types.Pod) {
	var ready, available int
	for _, p := range pods {
		if p.Status == types.PodRunning {
			ready++
			available++
		}
	}
	want := types.ReplicaSetStatus{
		Replicas:  len(pods),
		Ready:     ready,
		Available: available,
	}
	if want == rs.Status {
		return
	}
	rs.Status = want

	data, err := json.Marshal(rs)
	if err != nil {
		return
	}
	_ = c.store.Put(types.ReplicaSetKey(rs.Namespace, rs.Name), data)
}
