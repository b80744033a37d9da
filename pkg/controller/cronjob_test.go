package controller

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/k3rs/k3rs/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestScheduleDueEveryMinute(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 37, 0, 0, time.UTC)
	require.True(t, scheduleDue("*", now))
}

func TestScheduleDueLiteralMinute(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 15, 0, 0, time.UTC)
	require.True(t, scheduleDue("15", now))
	require.False(t, scheduleDue("16", now))
}

func TestScheduleDueEveryNMinutes(t *testing.T) {
	due := time.Date(2026, 1, 1, 12, 20, 0, 0, time.UTC)
	notDue := time.Date(2026, 1, 1, 12, 21, 0, 0, time.UTC)
	require.True(t, scheduleDue("*/10", due))
	require.False(t, scheduleDue("*/10", notDue))
}

func TestCronJobControllerSkipsSuspended(t *testing.T) {
	store := newTestStore(t)
	putCronJob(t, store, &types.CronJob{
		ID: "cj-1", Name: "nightly", Namespace: "default",
		Spec: types.CronJobSpec{Schedule: "*", Suspend: true},
	})

	c := NewCronJobController(store)
	require.NoError(t, c.Reconcile(context.Background()))

	kvs, err := store.ListPrefix(types.JobPrefix("default"))
	require.NoError(t, err)
	require.Empty(t, kvs)
}

func TestCronJobControllerCreatesJobWhenDue(t *testing.T) {
	store := newTestStore(t)
	putCronJob(t, store, &types.CronJob{
		ID: "cj-1", Name: "nightly", Namespace: "default",
		Spec: types.CronJobSpec{Schedule: "*", JobTemplate: types.JobSpec{Completions: 1}},
	})

	c := NewCronJobController(store)
	require.NoError(t, c.Reconcile(context.Background()))

	kvs, err := store.ListPrefix(types.JobPrefix("default"))
	require.NoError(t, err)
	require.Len(t, kvs, 1)
}

func putCronJob(t *testing.T, store interface {
	Put(string, []byte) error
}, cj *types.CronJob) {
	t.Helper()
	data, err := json.Marshal(cj)
	require.NoError(t, err)
	require.NoError(t, store.Put(types.CronJobKey(cj.Namespace, cj.Name), data))
}
