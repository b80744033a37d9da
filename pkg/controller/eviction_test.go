package controller

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/k3rs/k3rs/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestEvictionControllerResetsPodsOnStaleNode(t *testing.T) {
	store := newTestStore(t)
	putNode(t, store, &types.Node{
		Name:          "worker-1",
		Status:        types.NodeUnknown,
		LastHeartbeat: time.Now().Add(-6 * time.Minute),
		UnknownSince:  time.Now().Add(-6 * time.Minute),
	})
	pod := &types.Pod{
		ID: "p1", Name: "app", Namespace: "default",
		Status: types.PodRunning, NodeName: "worker-1",
	}
	data, err := json.Marshal(pod)
	require.NoError(t, err)
	require.NoError(t, store.Put(types.PodKey(pod.Namespace, pod.Name), data))

	c := NewEvictionController(store, DefaultEvictionGrace)
	require.NoError(t, c.Reconcile(context.Background()))

	pods := listPods(t, store, "default")
	require.Len(t, pods, 1)
	require.Equal(t, types.PodPending, pods[0].Status)
	require.Empty(t, pods[0].NodeName)
}

func TestEvictionControllerSkipsControlPlanePods(t *testing.T) {
	store := newTestStore(t)
	putNode(t, store, &types.Node{
		Name:          "worker-1",
		Status:        types.NodeUnknown,
		LastHeartbeat: time.Now().Add(-10 * time.Minute),
		UnknownSince:  time.Now().Add(-6 * time.Minute),
	})
	pod := &types.Pod{
		ID: "p1", Name: "control", Namespace: "default",
		Status: types.PodRunning, NodeName: "worker-1",
		Labels: types.Labels{controlPlaneLabel: ""},
	}
	data, err := json.Marshal(pod)
	require.NoError(t, err)
	require.NoError(t, store.Put(types.PodKey(pod.Namespace, pod.Name), data))

	c := NewEvictionController(store, DefaultEvictionGrace)
	require.NoError(t, c.Reconcile(context.Background()))

	pods := listPods(t, store, "default")
	require.Len(t, pods, 1)
	require.Equal(t, types.PodRunning, pods[0].Status)
}

// TestEvictionControllerIgnoresFreshUnknownNode covers spec scenario
// S2's literal timeline: a Node that went Unknown 61s ago (i.e. the
// heartbeat stopped ~2m1s ago) must NOT yet be evicted — eviction
// grace is measured from UnknownSince, not from LastHeartbeat.
func TestEvictionControllerIgnoresFreshUnknownNode(t *testing.T) {
	store := newTestStore(t)
	putNode(t, store, &types.Node{
		Name:          "worker-1",
		Status:        types.NodeUnknown,
		LastHeartbeat: time.Now().Add(-2 * time.Minute),
		UnknownSince:  time.Now().Add(-61 * time.Second),
	})
	pod := &types.Pod{
		ID: "p1", Name: "app", Namespace: "default",
		Status: types.PodRunning, NodeName: "worker-1",
	}
	data, err := json.Marshal(pod)
	require.NoError(t, err)
	require.NoError(t, store.Put(types.PodKey(pod.Namespace, pod.Name), data))

	c := NewEvictionController(store, DefaultEvictionGrace)
	require.NoError(t, c.Reconcile(context.Background()))

	pods := listPods(t, store, "default")
	require.Equal(t, types.PodRunning, pods[0].Status)
}

// TestEvictionControllerIgnoresNodeWithoutUnknownSince covers a Node
// row that predates the UnknownSince field (or was hand-edited): with
// no transition timestamp recorded, eviction must not fire even if
// LastHeartbeat is arbitrarily old, since there is no reliable way to
// know how long it has actually been Unknown.
func TestEvictionControllerIgnoresNodeWithoutUnknownSince(t *testing.T) {
	store := newTestStore(t)
	putNode(t, store, &types.Node{
		Name:          "worker-1",
		Status:        types.NodeUnknown,
		LastHeartbeat: time.Now().Add(-1 * time.Hour),
	})
	pod := &types.Pod{
		ID: "p1", Name: "app", Namespace: "default",
		Status: types.PodRunning, NodeName: "worker-1",
	}
	data, err := json.Marshal(pod)
	require.NoError(t, err)
	require.NoError(t, store.Put(types.PodKey(pod.Namespace, pod.Name), data))

	c := NewEvictionController(store, DefaultEvictionGrace)
	require.NoError(t, c.Reconcile(context.Background()))

	pods := listPods(t, store, "default")
	require.Equal(t, types.PodRunning, pods[0].Status)
}
