package agent

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/k3rs/k3rs/pkg/log"
	"github.com/k3rs/k3rs/pkg/metrics"
	"github.com/k3rs/k3rs/pkg/runtime"
	"github.com/k3rs/k3rs/pkg/storage"
	"github.com/k3rs/k3rs/pkg/types"
)

// syncPeriod is the PodSync tick interval (§4.6).
const syncPeriod = 5 * time.Second

// stopGrace is the grace period passed to StopContainer when a
// container has no matching desired Pod.
const stopGrace = 10 * time.Second

// PodSync reconciles Pods scheduled to this node against the backend's
// actual container set. It owns the only in-memory map of pod-to-container
// identity on the agent; any external read takes View.
type PodSync struct {
	store    storage.Store
	backend  runtime.Backend
	nodeName string

	mu    sync.RWMutex
	known map[string]string // pod id -> container id

	cancel context.CancelFunc
}

// NewPodSync builds a PodSync for nodeName over store and backend.
func NewPodSync(store storage.Store, backend runtime.Backend, nodeName string) *PodSync {
	return &PodSync{
		store:    store,
		backend:  backend,
		nodeName: nodeName,
		known:    make(map[string]string),
	}
}

// Start launches the sync loop, ticking every syncPeriod until ctx is
// canceled or Stop is called. Start returns immediately.
func (s *PodSync) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.loop(ctx)
}

// Stop cancels the sync loop started by Start.
func (s *PodSync) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// View returns a snapshot of the pod-to-container map for read-only
// consumers such as a /metrics handler.
func (s *PodSync) View() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view := make(map[string]string, len(s.known))
	for k, v := range s.known {
		view[k] = v
	}
	return view
}

func (s *PodSync) loop(ctx context.Context) {
	ticker := time.NewTicker(syncPeriod)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *PodSync) tick(ctx context.Context) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ReconciliationDuration, "podsync")

	if err := s.Sync(ctx); err != nil {
		log.Error("podsync: " + err.Error())
	}
}

// Sync runs one reconciliation pass: list desired pods for this node,
// list actual containers, create/adopt what's missing and stop/cleanup
// what's orphaned.
func (s *PodSync) Sync(ctx context.Context) error {
	desired, err := s.desiredPods()
	if err != nil {
		return err
	}

	actual, err := s.backend.List(ctx)
	if err != nil {
		return err
	}

	byPod := make(map[string]runtime.ContainerRef, len(actual))
	for _, ref := range actual {
		byPod[ref.PodID] = ref
	}

	for _, pod := range desired {
		ref, exists := byPod[pod.ID]
		if !exists {
			s.createAndStart(ctx, pod)
			continue
		}
		s.reconcileRunning(ctx, pod, ref)
	}

	desiredIDs := make(map[string]bool, len(desired))
	for _, pod := range desired {
		desiredIDs[pod.ID] = true
	}
	for _, ref := range actual {
		if desiredIDs[ref.PodID] {
			continue
		}
		if err := s.backend.StopContainer(ctx, ref.ID, stopGrace); err != nil {
			log.Error("podsync: stop orphaned container " + ref.ID + ": " + err.Error())
			continue
		}
		if err := s.backend.Cleanup(ctx, ref.ID); err != nil {
			log.Error("podsync: cleanup orphaned container " + ref.ID + ": " + err.Error())
		}
		s.forget(ref.PodID)
	}

	return nil
}

func (s *PodSync) desiredPods() ([]types.Pod, error) {
	kvs, err := s.store.ListPrefix(types.PodKeyPrefix)
	if err != nil {
		return nil, err
	}

	pods := make([]types.Pod, 0, len(kvs))
	for _, kv := range kvs {
		var pod types.Pod
		if err := json.Unmarshal(kv.Value, &pod); err != nil {
			continue
		}
		if pod.NodeName != s.nodeName {
			continue
		}
		if pod.Status.Terminal() {
			continue
		}
		pods = append(pods, pod)
	}
	return pods, nil
}

func (s *PodSync) createAndStart(ctx context.Context, pod types.Pod) {
	if err := prepareVolumes(pod.Spec.Volumes); err != nil {
		pod.SetFailed("VolumeError", err.Error())
		s.putPod(&pod)
		return
	}

	spec := podContainerSpec(pod)

	if err := s.backend.PullImage(ctx, spec.Image); err != nil {
		pod.SetFailed("ImagePullError", err.Error())
		s.putPod(&pod)
		return
	}

	id, err := s.backend.CreateContainer(ctx, pod.ID, spec)
	if err != nil {
		pod.SetFailed("ContainerCreateError", err.Error())
		s.putPod(&pod)
		return
	}

	if err := s.backend.StartContainer(ctx, id); err != nil {
		pod.SetFailed("ContainerStartError", err.Error())
		s.putPod(&pod)
		return
	}

	s.remember(pod.ID, id)
	pod.Status = types.PodRunning
	pod.StatusMessage = ""
	pod.ContainerID = id
	pod.RuntimeInfo = &types.RuntimeInfo{Backend: "containerd"}
	s.putPod(&pod)
}

func (s *PodSync) reconcileRunning(ctx context.Context, pod types.Pod, ref runtime.ContainerRef) {
	s.remember(pod.ID, ref.ID)

	state, err := s.backend.State(ctx, ref.ID)
	if err != nil {
		log.Error("podsync: state for " + ref.ID + ": " + err.Error())
		return
	}

	var want types.PodStatus
	var message string
	switch state.State {
	case runtime.StateRunning, runtime.StateCreated:
		want = types.PodRunning
	case runtime.StateStopped:
		if state.ExitCode == 0 {
			want = types.PodSucceeded
		} else {
			want = types.PodFailed
			message = "container exited with code " + strconv.Itoa(state.ExitCode)
		}
	case runtime.StateFailed:
		want = types.PodFailed
		message = "container exited with code " + strconv.Itoa(state.ExitCode)
	default:
		want = pod.Status
	}

	if want == pod.Status && pod.ContainerID == ref.ID {
		return
	}

	pod.Status = want
	pod.ContainerID = ref.ID
	if message != "" {
		pod.StatusMessage = message
	}
	s.putPod(&pod)
}

func (s *PodSync) putPod(pod *types.Pod) {
	data, err := json.Marshal(pod)
	if err != nil {
		log.Error("podsync: marshal pod " + pod.ID + ": " + err.Error())
		return
	}
	if err := s.store.Put(types.PodKey(pod.Namespace, pod.Name), data); err != nil {
		log.Error("podsync: put pod " + pod.ID + ": " + err.Error())
	}
}

func (s *PodSync) remember(podID, containerID string) {
	s.mu.Lock()
	s.known[podID] = containerID
	s.mu.Unlock()
}

func (s *PodSync) forget(podID string) {
	s.mu.Lock()
	delete(s.known, podID)
	s.mu.Unlock()
}

// prepareVolumes ensures every HostPath volume a pod references exists
// on this node before the container that mounts it is created. Unlike
// a driver-backed volume manager, a k3rs Volume is just a host
// directory the caller names directly — there is no provisioning step
// beyond making sure the directory is there.
func prepareVolumes(volumes []types.Volume) error {
	for _, v := range volumes {
		if v.HostPath == "" {
			continue
		}
		if err := os.MkdirAll(v.HostPath, 0o750); err != nil {
			return err
		}
	}
	return nil
}

// podContainerSpec adapts a Pod's first container into the ContainerSpec
// shape the Backend contract speaks. Multi-container pods are out of
// scope: every desired pod in this module carries exactly one.
func podContainerSpec(pod types.Pod) runtime.ContainerSpec {
	if len(pod.Spec.Containers) == 0 {
		return runtime.ContainerSpec{Name: pod.Name}
	}
	c := pod.Spec.Containers[0]
	return runtime.ContainerSpec{
		Name:        c.Name,
		Image:       c.Image,
		Command:     c.Command,
		Args:        c.Args,
		Env:         c.Env,
		Mounts:      resolveMounts(pod.Spec.Volumes, c.VolumeMounts),
		CPUMillis:   c.Resources.CPUMillis,
		MemoryBytes: c.Resources.MemoryBytes,
	}
}

// resolveMounts joins a pod's named Volumes against one container's
// VolumeMounts by name, producing the runtime's host-bind-mount list.
// A VolumeMount naming a Volume that isn't declared, or one with no
// HostPath, is silently skipped — the container simply won't see that
// path, matching the permissive behavior of an unresolved mount in the
// teacher's own driver lookup.
func resolveMounts(volumes []types.Volume, mounts []types.VolumeMount) []runtime.Mount {
	byName := make(map[string]types.Volume, len(volumes))
	for _, v := range volumes {
		byName[v.Name] = v
	}

	out := make([]runtime.Mount, 0, len(mounts))
	for _, m := range mounts {
		v, ok := byName[m.Name]
		if !ok || v.HostPath == "" {
			continue
		}
		out = append(out, runtime.Mount{Source: v.HostPath, Target: m.MountPath, ReadOnly: m.ReadOnly})
	}
	return out
}
