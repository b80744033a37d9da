package scheduler

import "github.com/k3rs/k3rs/pkg/types"

// Eligible filters nodes down to those that may run pod: Ready, not
// cordoned, covering every taint with a matching toleration (or the
// taint is merely PreferNoSchedule), selecting on every node_selector
// key, and able to fit the pod's total resource requests — CPU,
// memory, and pod count — within available capacity.
func Eligible(pod *types.Pod, nodes []*types.Node) []*types.Node {
	var out []*types.Node
	for _, n := range nodes {
		if isEligible(pod, n) {
			out = append(out, n)
		}
	}
	return out
}

func isEligible(pod *types.Pod, node *types.Node) bool {
	if node.Status != types.NodeReady {
		return false
	}
	if node.Unschedulable {
		return false
	}
	if !pod.Spec.NodeSelector.Subset(node.Labels) {
		return false
	}
	for _, taint := range node.Taints {
		if tolerates(pod.Spec.Tolerations, taint) {
			continue
		}
		if taint.Effect == types.NoSchedule || taint.Effect == types.NoExecute {
			return false
		}
	}
	req := pod.Spec.TotalRequests()
	avail := node.Available()
	if req.CPUMillis > avail.CPUMillis {
		return false
	}
	if req.MemoryBytes > avail.MemoryBytes {
		return false
	}
	if req.PodCount > avail.PodCount {
		return false
	}
	return true
}

func tolerates(tolerations []types.Toleration, taint types.Taint) bool {
	for _, t := range tolerations {
		if t.Matches(taint) {
			return true
		}
	}
	return false
}

// Pick selects one node out of eligible by round-robin index idx,
// breaking ties (idx wrapping) deterministically since eligible is
// ranked by node name before indexing.
func Pick(eligible []*types.Node, idx uint64) *types.Node {
	if len(eligible) == 0 {
		return nil
	}
	ranked := rankByName(eligible)
	return ranked[idx%uint64(len(ranked))]
}

func rankByName(nodes []*types.Node) []*types.Node {
	ranked := make([]*types.Node, len(nodes))
	copy(ranked, nodes)
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].Name < ranked[j-1].Name; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	return ranked
}
