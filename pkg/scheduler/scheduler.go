package scheduler

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/k3rs/k3rs/pkg/log"
	"github.com/k3rs/k3rs/pkg/metrics"
	"github.com/k3rs/k3rs/pkg/storage"
	"github.com/k3rs/k3rs/pkg/types"
)

// period is how often the scheduler sweeps for unscheduled pods.
const period = 5 * time.Second

// Scheduler binds Pending Pods to a Node by running Eligible/Pick
// against the Store's current Node set. It only runs while this
// process holds the controller-leader lease.
type Scheduler struct {
	store storage.Store
	robin atomic.Uint64
}

// New creates a Scheduler reading and writing through store.
func New(store storage.Store) *Scheduler {
	return &Scheduler{store: store}
}

// Run ticks every period until ctx is canceled, scheduling every
// pending Pod it finds across every namespace.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	s.sweep()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) sweep() {
	pods, err := s.listPendingPods()
	if err != nil {
		log.Error("scheduler: failed to list pods: " + err.Error())
		return
	}
	if len(pods) == 0 {
		return
	}

	nodes, err := s.listNodes()
	if err != nil {
		log.Error("scheduler: failed to list nodes: " + err.Error())
		return
	}

	for _, pod := range pods {
		s.schedulePod(pod, nodes)
	}
}

func (s *Scheduler) schedulePod(pod *types.Pod, nodes []*types.Node) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SchedulingLatency)

	eligible := Eligible(pod, nodes)
	if len(eligible) == 0 {
		metrics.SchedulingDeferredTotal.Inc()
		pod.StatusMessage = "SchedulingDeferred: NoEligibleNode"
		if err := s.putPod(pod); err != nil {
			log.Error("scheduler: failed to record deferred pod: " + err.Error())
		}
		return
	}

	idx := s.robin.Add(1)
	node := Pick(eligible, idx)

	pod.NodeName = node.Name
	pod.Status = types.PodScheduled
	pod.StatusMessage = ""
	if err := s.putPod(pod); err != nil {
		log.Error("scheduler: failed to assign pod: " + err.Error())
		return
	}

	req := pod.Spec.TotalRequests()
	node.Allocated.CPUMillis += req.CPUMillis
	node.Allocated.MemoryBytes += req.MemoryBytes
	node.Allocated.PodCount += req.PodCount
	if err := s.putNode(node); err != nil {
		log.Error("scheduler: failed to record node allocation: " + err.Error())
		return
	}

	metrics.PodsScheduled.Inc()
}

func (s *Scheduler) listPendingPods() ([]*types.Pod, error) {
	kvs, err := s.store.ListPrefix(types.PodKeyPrefix)
	if err != nil {
		return nil, err
	}
	var pods []*types.Pod
	for _, kv := range kvs {
		var pod types.Pod
		if err := json.Unmarshal(kv.Value, &pod); err != nil {
			continue
		}
		if pod.Status == types.PodPending && pod.NodeName == "" {
			pods = append(pods, &pod)
		}
	}
	return pods, nil
}

func (s *Scheduler) listNodes() ([]*types.Node, error) {
	kvs, err := s.store.ListPrefix(types.NodeKeyPrefix)
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

func (s *Scheduler) putPod(pod *types.Pod) error {
	data, err := json.Marshal(pod)
	if err != nil {
		return err
	}
	return s.store.Put(types.PodKey(pod.Namespace, pod.Name), data)
}

func (s *Scheduler) putNode(node *types.Node) error {
	data, err := json.Marshal(node)
	if err != nil {
		return err
	}
	return s.store.Put(types.NodeKey(node.Name), data)
}
