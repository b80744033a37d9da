package controller

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/k3rs/k3rs/pkg/types"
	"github.com/stretchr/testify/require"
)

func putNode(t *testing.T, store interface {
	Put(string, []byte) error
}, node *types.Node) {
	t.Helper()
	data, err := json.Marshal(node)
	require.NoError(t, err)
	require.NoError(t, store.Put(types.NodeKey(node.Name), data))
}

func getNode(t *testing.T, store interface {
	Get(string) ([]byte, error)
}, name string) *types.Node {
	t.Helper()
	data, err := store.Get(types.NodeKey(name))
	require.NoError(t, err)
	var node types.Node
	require.NoError(t, json.Unmarshal(data, &node))
	return &node
}

func TestNodeControllerMarksStaleHeartbeatNotReady(t *testing.T) {
	store := newTestStore(t)
	putNode(t, store, &types.Node{
		Name:          "worker-1",
		Status:        types.NodeReady,
		LastHeartbeat: time.Now().Add(-45 * time.Second),
	})

	c := NewNodeController(store)
	require.NoError(t, c.Reconcile(context.Background()))

	require.Equal(t, types.NodeNotReady, getNode(t, store, "worker-1").Status)
}

func TestNodeControllerMarksLongStaleUnknown(t *testing.T) {
	store := newTestStore(t)
	putNode(t, store, &types.Node{
		Name:          "worker-1",
		Status:        types.NodeReady,
		LastHeartbeat: time.Now().Add(-90 * time.Second),
	})

	c := NewNodeController(store)
	require.NoError(t, c.Reconcile(context.Background()))

	require.Equal(t, types.NodeUnknown, getNode(t, store, "worker-1").Status)
}

// TestNodeControllerStampsUnknownSince covers the transition timestamp
// EvictionController gates on: it must record the instant the Node
// became Unknown, not some derivative of LastHeartbeat.
func TestNodeControllerStampsUnknownSince(t *testing.T) {
	store := newTestStore(t)
	putNode(t, store, &types.Node{
		Name:          "worker-1",
		Status:        types.NodeReady,
		LastHeartbeat: time.Now().Add(-90 * time.Second),
	})

	before := time.Now()
	c := NewNodeController(store)
	require.NoError(t, c.Reconcile(context.Background()))
	after := time.Now()

	node := getNode(t, store, "worker-1")
	require.Equal(t, types.NodeUnknown, node.Status)
	require.False(t, node.UnknownSince.Before(before))
	require.False(t, node.UnknownSince.After(after))
}

// TestNodeControllerClearsUnknownSinceOnRecovery covers a Node that
// resumes heartbeating after sitting Unknown: the transition timestamp
// must clear so a later relapse into Unknown is timed from scratch.
func TestNodeControllerClearsUnknownSinceOnRecovery(t *testing.T) {
	store := newTestStore(t)
	putNode(t, store, &types.Node{
		Name:          "worker-1",
		Status:        types.NodeUnknown,
		UnknownSince:  time.Now().Add(-10 * time.Minute),
		LastHeartbeat: time.Now(),
	})

	c := NewNodeController(store)
	require.NoError(t, c.Reconcile(context.Background()))

	node := getNode(t, store, "worker-1")
	require.Equal(t, types.NodeReady, node.Status)
	require.True(t, node.UnknownSince.IsZero())
}

func TestNodeControllerForcesControlPlaneReady(t *testing.T) {
	store := newTestStore(t)
	putNode(t, store, &types.Node{
		Name:          "master-1",
		Status:        types.NodeReady,
		LastHeartbeat: time.Now().Add(-10 * time.Minute),
		Labels:        types.Labels{"node-role.kubernetes.io/control-plane": ""},
	})

	c := NewNodeController(store)
	require.NoError(t, c.Reconcile(context.Background()))

	require.Equal(t, types.NodeReady, getNode(t, store, "master-1").Status)
}

func TestNodeControllerLeavesFreshHeartbeatReady(t *testing.T) {
	store := newTestStore(t)
	putNode(t, store, &types.Node{
		Name:          "worker-1",
		Status:        types.NodeReady,
		LastHeartbeat: time.Now(),
	})

	c := NewNodeController(store)
	require.NoError(t, c.Reconcile(context.Background()))

	require.Equal(t, types.NodeReady, getNode(t, store, "worker-1").Status)
}
