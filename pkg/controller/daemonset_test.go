package controller

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/k3rs/k3rs/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestDaemonSetControllerCreatesPodPerQualifyingNode(t *testing.T) {
	store := newTestStore(t)
	putNode(t, store, &types.Node{Name: "worker-1", Status: types.NodeReady, LastHeartbeat: time.Now()})
	putNode(t, store, &types.Node{Name: "worker-2", Status: types.NodeNotReady, LastHeartbeat: time.Now()})

	ds := &types.DaemonSet{Name: "fluentd", Namespace: "default"}
	data, err := json.Marshal(ds)
	require.NoError(t, err)
	require.NoError(t, store.Put(types.DaemonSetKey(ds.Namespace, ds.Name), data))

	c := NewDaemonSetController(store)
	require.NoError(t, c.Reconcile(context.Background()))

	pods := listPods(t, store, "default")
	require.Len(t, pods, 1)
	require.Equal(t, "worker-1", pods[0].NodeName)
}

func TestDaemonSetControllerDeletesPodOnDisqualifiedNode(t *testing.T) {
	store := newTestStore(t)
	putNode(t, store, &types.Node{Name: "worker-1", Status: types.NodeNotReady, LastHeartbeat: time.Now()})

	ds := &types.DaemonSet{ID: "ds-1", Name: "fluentd", Namespace: "default"}
	data, err := json.Marshal(ds)
	require.NoError(t, err)
	require.NoError(t, store.Put(types.DaemonSetKey(ds.Namespace, ds.Name), data))

	pod := &types.Pod{
		ID: "p1", Name: "fluentd-abc", Namespace: "default",
		NodeName: "worker-1", Status: types.PodRunning,
		OwnerRef: &types.OwnerRef{Kind: "DaemonSet", Name: "fluentd", UID: "ds-1"},
	}
	podData, err := json.Marshal(pod)
	require.NoError(t, err)
	require.NoError(t, store.Put(types.PodKey(pod.Namespace, pod.Name), podData))

	c := NewDaemonSetController(store)
	require.NoError(t, c.Reconcile(context.Background()))

	require.Empty(t, listPods(t, store, "default"))
}
