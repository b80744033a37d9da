package controller

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/k3rs/k3rs/pkg/types"
	"github.com/stretchr/testify/require"
)

func putDeployment(t *testing.T, store interface {
	Put(string, []byte) error
}, dep *types.Deployment) {
	t.Helper()
	data, err := json.Marshal(dep)
	require.NoError(t, err)
	require.NoError(t, store.Put(types.DeploymentKey(dep.Namespace, dep.Name), data))
}

func TestDeploymentControllerCreatesInitialReplicaSet(t *testing.T) {
	store := newTestStore(t)
	dep := &types.Deployment{
		ID: "dep-1", Name: "web", Namespace: "default",
		Spec: types.DeploymentSpec{
			Replicas: 3,
			Selector: types.Labels{"app": "web"},
			Template: types.PodSpec{Containers: []types.ContainerSpec{{Name: "app", Image: "nginx:1"}}},
			Strategy: types.DefaultDeploymentStrategy(),
		},
	}
	putDeployment(t, store, dep)

	c := NewDeploymentController(store)
	require.NoError(t, c.Reconcile(context.Background()))

	kvs, err := store.ListPrefix(types.ReplicaSetPrefix("default"))
	require.NoError(t, err)
	require.Len(t, kvs, 1)
}

func TestDeploymentControllerReusesReplicaSetForSameTemplate(t *testing.T) {
	store := newTestStore(t)
	dep := &types.Deployment{
		ID: "dep-1", Name: "web", Namespace: "default",
		Spec: types.DeploymentSpec{
			Replicas: 2,
			Selector: types.Labels{"app": "web"},
			Template: types.PodSpec{Containers: []types.ContainerSpec{{Name: "app", Image: "nginx:1"}}},
			Strategy: types.DefaultDeploymentStrategy(),
		},
	}
	putDeployment(t, store, dep)

	c := NewDeploymentController(store)
	require.NoError(t, c.Reconcile(context.Background()))
	require.NoError(t, c.Reconcile(context.Background()))

	kvs, err := store.ListPrefix(types.ReplicaSetPrefix("default"))
	require.NoError(t, err)
	require.Len(t, kvs, 1)
}

// TestApplyRollingUpdateAdvancesByMaxSurge covers the literal spec
// formula for rolling-update growth: the new ReplicaSet should jump by
// up to strategy.MaxSurge replicas per tick, not by a flat 1, so a
// deployment configured with max_surge > 1 converges as fast as
// documented.
func TestApplyRollingUpdateAdvancesByMaxSurge(t *testing.T) {
	store := newTestStore(t)
	c := NewDeploymentController(store)

	dep := &types.Deployment{
		ID: "dep-1", Name: "web", Namespace: "default",
		Spec: types.DeploymentSpec{
			Replicas: 4,
			Strategy: types.DeploymentStrategy{Kind: types.StrategyRollingUpdate, MaxSurge: 2, MaxUnavailable: 0},
		},
	}
	newRS := &types.ReplicaSet{Namespace: "default", Name: "web-new"}
	oldRS := &types.ReplicaSet{
		Namespace: "default", Name: "web-old",
		Spec:   types.ReplicaSetSpec{Replicas: 4},
		Status: types.ReplicaSetStatus{Replicas: 4, Ready: 4, Available: 4},
	}

	c.applyRollingUpdate(dep, newRS, []*types.ReplicaSet{oldRS})

	got := getReplicaSet(t, store, "default", "web-new")
	require.Equal(t, 2, got.Spec.Replicas, "first tick should surge by MaxSurge (2), not by 1")

	newRS.Status.Replicas = 2
	newRS.Spec.Replicas = 2
	c.applyRollingUpdate(dep, newRS, []*types.ReplicaSet{oldRS})

	got = getReplicaSet(t, store, "default", "web-new")
	require.Equal(t, 4, got.Spec.Replicas, "second tick should reach Spec.Replicas in one more MaxSurge step")
}

func TestDeploymentControllerCreatesNewReplicaSetOnTemplateChange(t *testing.T) {
	store := newTestStore(t)
	dep := &types.Deployment{
		ID: "dep-1", Name: "web", Namespace: "default",
		Spec: types.DeploymentSpec{
			Replicas: 1,
			Selector: types.Labels{"app": "web"},
			Template: types.PodSpec{Containers: []types.ContainerSpec{{Name: "app", Image: "nginx:1"}}},
			Strategy: types.DefaultDeploymentStrategy(),
		},
	}
	putDeployment(t, store, dep)

	c := NewDeploymentController(store)
	require.NoError(t, c.Reconcile(context.Background()))

	dep.Spec.Template.Containers[0].Image = "nginx:2"
	putDeployment(t, store, dep)
	require.NoError(t, c.Reconcile(context.Background()))

	kvs, err := store.ListPrefix(types.ReplicaSetPrefix("default"))
	require.NoError(t, err)
	require.Len(t, kvs, 2)
}
