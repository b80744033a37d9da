package controller

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/k3rs/k3rs/pkg/events"
	"github.com/k3rs/k3rs/pkg/storage"
	"github.com/k3rs/k3rs/pkg/types"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir(), events.NewLog(1000))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func putReplicaSet(t *testing.T, store storage.Store, rs *types.ReplicaSet) {
	t.Helper()
	data, err := json.Marshal(rs)
	require.NoError(t, err)
	require.NoError(t, store.Put(types.ReplicaSetKey(rs.Namespace, rs.Name), data))
}

func getReplicaSet(t *testing.T, store storage.Store, ns, name string) *types.ReplicaSet {
	t.Helper()
	data, err := store.Get(types.ReplicaSetKey(ns, name))
	require.NoError(t, err)
	var rs types.ReplicaSet
	require.NoError(t, json.Unmarshal(data, &rs))
	return &rs
}

func listPods(t *testing.T, store storage.Store, ns string) []*types.Pod {
	t.Helper()
	kvs, err := store.ListPrefix(types.PodPrefix(ns))
	require.NoError(t, err)
	var pods []*types.Pod
	for _, kv := range kvs {
		var pod types.Pod
		require.NoError(t, json.Unmarshal(kv.Value, &pod))
		pods = append(pods, &pod)
	}
	return pods
}

func TestReplicaSetControllerCreatesPodsOnShortfall(t *testing.T) {
	store := newTestStore(t)
	rs := &types.ReplicaSet{
		ID:        "rs-1",
		Name:      "web",
		Namespace: "default",
		Spec: types.ReplicaSetSpec{
			Replicas: 3,
			Selector: types.Labels{"app": "web"},
			Template: types.PodSpec{Containers: []types.ContainerSpec{{Name: "app", Image: "nginx"}}},
		},
	}
	putReplicaSet(t, store, rs)

	c := NewReplicaSetController(store)
	require.NoError(t, c.Reconcile(context.Background()))

	pods := listPods(t, store, "default")
	require.Len(t, pods, 3)
	for _, p := range pods {
		require.True(t, p.OwnedBy("rs-1"))
	}
}

func TestReplicaSetControllerDeletesExcessPreferringPending(t *testing.T) {
	store := newTestStore(t)
	rs := &types.ReplicaSet{
		ID:        "rs-1",
		Name:      "web",
		Namespace: "default",
		Spec: types.ReplicaSetSpec{
			Replicas: 1,
			Selector: types.Labels{"app": "web"},
		},
	}
	putReplicaSet(t, store, rs)

	running := &types.Pod{
		ID: "p1", Name: "web-running", Namespace: "default",
		Labels: types.Labels{"app": "web"}, Status: types.PodRunning,
		OwnerRef: &types.OwnerRef{UID: "rs-1"},
	}
	pending := &types.Pod{
		ID: "p2", Name: "web-pending", Namespace: "default",
		Labels: types.Labels{"app": "web"}, Status: types.PodPending,
		OwnerRef: &types.OwnerRef{UID: "rs-1"},
	}
	for _, p := range []*types.Pod{running, pending} {
		data, err := json.Marshal(p)
		require.NoError(t, err)
		require.NoError(t, store.Put(types.PodKey(p.Namespace, p.Name), data))
	}

	c := NewReplicaSetController(store)
	require.NoError(t, c.Reconcile(context.Background()))

	pods := listPods(t, store, "default")
	require.Len(t, pods, 1)
	require.Equal(t, "web-running", pods[0].Name)
}

func TestReplicaSetControllerIgnoresUnownedPods(t *testing.T) {
	store := newTestStore(t)
	rs := &types.ReplicaSet{
		ID:        "rs-1",
		Name:      "web",
		Namespace: "default",
		Spec: types.ReplicaSetSpec{
			Replicas: 0,
			Selector: types.Labels{"app": "web"},
		},
	}
	putReplicaSet(t, store, rs)

	other := &types.Pod{
		ID: "p1", Name: "unrelated", Namespace: "default",
		Labels: types.Labels{"app": "web"}, Status: types.PodRunning,
	}
	data, err := json.Marshal(other)
	require.NoError(t, err)
	require.NoError(t, store.Put(types.PodKey(other.Namespace, other.Name), data))

	c := NewReplicaSetController(store)
	require.NoError(t, c.Reconcile(context.Background()))

	pods := listPods(t, store, "default")
	require.Len(t, pods, 1)
	require.Equal(t, "unrelated", pods[0].Name)
}
