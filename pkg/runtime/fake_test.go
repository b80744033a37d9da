package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFakeBackendLifecycle(t *testing.T) {
	b := NewFakeBackend()
	ctx := context.Background()

	require.NoError(t, b.PullImage(ctx, "nginx:latest"))

	id, err := b.CreateContainer(ctx, "pod-1", ContainerSpec{Name: "app", Image: "nginx:latest"})
	require.NoError(t, err)

	state, err := b.State(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StateCreated, state.State)

	require.NoError(t, b.StartContainer(ctx, id))
	state, err = b.State(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StateRunning, state.State)

	refs, err := b.List(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "pod-1", refs[0].PodID)

	b.SetExitCode(id, 0)
	state, err = b.State(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StateStopped, state.State)

	require.NoError(t, b.Cleanup(ctx, id))
	refs, err = b.List(ctx)
	require.NoError(t, err)
	require.Empty(t, refs)
}

func TestFakeBackendSpecRoundTrips(t *testing.T) {
	b := NewFakeBackend()
	ctx := context.Background()

	want := ContainerSpec{
		Name:        "app",
		Image:       "nginx:latest",
		Mounts:      []Mount{{Source: "/host/data", Target: "/data", ReadOnly: true}},
		CPUMillis:   250,
		MemoryBytes: 64 << 20,
	}
	id, err := b.CreateContainer(ctx, "pod-1", want)
	require.NoError(t, err)

	got, ok := b.Spec(id)
	require.True(t, ok)
	require.Equal(t, want, got)

	_, ok = b.Spec("missing")
	require.False(t, ok)
}

func TestFakeBackendPullFailure(t *testing.T) {
	b := NewFakeBackend()
	b.PullFail["broken:latest"] = true

	err := b.PullImage(context.Background(), "broken:latest")
	require.Error(t, err)
	var pullErr *ImagePullError
	require.ErrorAs(t, err, &pullErr)
}
