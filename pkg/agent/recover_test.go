package agent

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/k3rs/k3rs/pkg/log"
	"github.com/k3rs/k3rs/pkg/runtime"
	"github.com/stretchr/testify/require"
)

func TestRecoverAdoptsRunningDesiredContainer(t *testing.T) {
	store := newTestStore(t)
	backend := runtime.NewFakeBackend()
	pod := samplePod("web")
	putPod(t, store, pod)

	id, err := backend.CreateContainer(context.Background(), pod.ID, runtime.ContainerSpec{Name: "app", Image: "nginx:latest"})
	require.NoError(t, err)
	require.NoError(t, backend.StartContainer(context.Background(), id))

	sync := NewPodSync(store, backend, "worker-1")
	require.NoError(t, Recover(context.Background(), sync))

	require.Equal(t, map[string]string{pod.ID: id}, sync.View())

	refs, err := backend.List(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 1)
}

// TestRecoverLogsAdoptingDesiredContainer pins the exact log substring
// a boot-path black-box test greps for when a running container is
// adopted, since the wording itself is part of that contract.
func TestRecoverLogsAdoptingDesiredContainer(t *testing.T) {
	var buf bytes.Buffer
	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: &buf})

	store := newTestStore(t)
	backend := runtime.NewFakeBackend()
	pod := samplePod("web")
	putPod(t, store, pod)

	id, err := backend.CreateContainer(context.Background(), pod.ID, runtime.ContainerSpec{Name: "app", Image: "nginx:latest"})
	require.NoError(t, err)
	require.NoError(t, backend.StartContainer(context.Background(), id))

	sync := NewPodSync(store, backend, "worker-1")
	require.NoError(t, Recover(context.Background(), sync))

	require.True(t, strings.Contains(buf.String(), "adopting desired container "+id))
}

func TestRecoverStopsRunningUndesiredContainer(t *testing.T) {
	store := newTestStore(t)
	backend := runtime.NewFakeBackend()

	id, err := backend.CreateContainer(context.Background(), "pod-orphan", runtime.ContainerSpec{Name: "app", Image: "nginx:latest"})
	require.NoError(t, err)
	require.NoError(t, backend.StartContainer(context.Background(), id))

	sync := NewPodSync(store, backend, "worker-1")
	require.NoError(t, Recover(context.Background(), sync))

	refs, err := backend.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, refs)
	require.Empty(t, sync.View())
}

func TestRecoverLeavesDesiredWithoutContainerForNextTick(t *testing.T) {
	store := newTestStore(t)
	backend := runtime.NewFakeBackend()
	pod := samplePod("web")
	putPod(t, store, pod)

	sync := NewPodSync(store, backend, "worker-1")
	require.NoError(t, Recover(context.Background(), sync))

	require.Empty(t, sync.View())
	refs, err := backend.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, refs)
}

func TestRecoverIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	backend := runtime.NewFakeBackend()
	pod := samplePod("web")
	putPod(t, store, pod)

	id, err := backend.CreateContainer(context.Background(), pod.ID, runtime.ContainerSpec{Name: "app", Image: "nginx:latest"})
	require.NoError(t, err)
	require.NoError(t, backend.StartContainer(context.Background(), id))

	sync := NewPodSync(store, backend, "worker-1")
	require.NoError(t, Recover(context.Background(), sync))
	require.NoError(t, Recover(context.Background(), sync))

	require.Equal(t, map[string]string{pod.ID: id}, sync.View())
}
