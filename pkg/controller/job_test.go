package controller

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/k3rs/k3rs/pkg/storage"
	"github.com/k3rs/k3rs/pkg/types"
	"github.com/stretchr/testify/require"
)

func putJob(t *testing.T, store storage.Store, job *types.Job) {
	t.Helper()
	data, err := json.Marshal(job)
	require.NoError(t, err)
	require.NoError(t, store.Put(types.JobKey(job.Namespace, job.Name), data))
}

func getJob(t *testing.T, store storage.Store, ns, name string) *types.Job {
	t.Helper()
	data, err := store.Get(types.JobKey(ns, name))
	require.NoError(t, err)
	var job types.Job
	require.NoError(t, json.Unmarshal(data, &job))
	return &job
}

func TestJobControllerCreatesUpToParallelism(t *testing.T) {
	store := newTestStore(t)
	putJob(t, store, &types.Job{
		ID: "job-1", Name: "batch", Namespace: "default",
		Spec: types.JobSpec{Completions: 3, Parallelism: 2, BackoffLimit: 6},
	})

	c := NewJobController(store)
	require.NoError(t, c.Reconcile(context.Background()))

	pods := listPods(t, store, "default")
	require.Len(t, pods, 2)
}

func TestJobControllerCompletesOnSuccessCount(t *testing.T) {
	store := newTestStore(t)
	job := &types.Job{
		ID: "job-1", Name: "batch", Namespace: "default",
		Spec: types.JobSpec{Completions: 1, Parallelism: 1, BackoffLimit: 6},
	}
	data, err := json.Marshal(job)
	require.NoError(t, err)
	require.NoError(t, store.Put(types.JobKey(job.Namespace, job.Name), data))

	pod := &types.Pod{
		ID: "p1", Name: "batch-abc", Namespace: "default",
		Status:   types.PodSucceeded,
		OwnerRef: &types.OwnerRef{UID: "job-1"},
	}
	podData, err := json.Marshal(pod)
	require.NoError(t, err)
	require.NoError(t, store.Put(types.PodKey(pod.Namespace, pod.Name), podData))

	c := NewJobController(store)
	require.NoError(t, c.Reconcile(context.Background()))

	got, err := store.Get(types.JobKey("default", "batch"))
	require.NoError(t, err)
	var reconciled types.Job
	require.NoError(t, json.Unmarshal(got, &reconciled))
	require.Equal(t, types.JobComplete, reconciled.Status.Phase)
}

func TestJobControllerSkipsTerminalJobs(t *testing.T) {
	store := newTestStore(t)
	job := &types.Job{
		ID: "job-1", Name: "batch", Namespace: "default",
		Spec:   types.JobSpec{Completions: 1, Parallelism: 1, BackoffLimit: 6},
		Status: types.JobStatus{Phase: types.JobFailed},
	}
	data, err := json.Marshal(job)
	require.NoError(t, err)
	require.NoError(t, store.Put(types.JobKey(job.Namespace, job.Name), data))

	c := NewJobController(store)
	require.NoError(t, c.Reconcile(context.Background()))

	require.Empty(t, listPods(t, store, "default"))
}
