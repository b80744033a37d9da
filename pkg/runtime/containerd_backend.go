package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/cio"
	"github.com/containerd/containerd/namespaces"
	"github.com/containerd/containerd/oci"
	specs "github.com/opencontainers/runtime-spec/specs-go"
)

const (
	// Namespace is the containerd namespace k3rs containers live in.
	Namespace = "k3rs"

	// DefaultSocketPath is the default containerd socket.
	DefaultSocketPath = "/run/containerd/containerd.sock"

	// podIDLabel is the container label Recovery and List read pod
	// identity back out of, set at CreateContainer time.
	podIDLabel = "io.k3rs.pod-id"
)

// ContainerdBackend implements Backend over a containerd client.
// create/start use containerd's own detached task model: once a task
// is started its process is reparented to containerd's shim, not to
// this process, satisfying the fail-static invariant of §4.6 without
// any extra double-fork bookkeeping here.
type ContainerdBackend struct {
	client    *containerd.Client
	namespace string
	logDir    string

	mu      sync.Mutex
	logPath map[string]string // container id -> log file path, set at create time
}

// NewContainerdBackend connects to containerd at socketPath (or
// DefaultSocketPath if empty) and stores container stdout/stderr logs
// under logDir.
func NewContainerdBackend(socketPath, logDir string) (*ContainerdBackend, error) {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}

	client, err := containerd.New(socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to containerd: %w", err)
	}

	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}

	return &ContainerdBackend{
		client:    client,
		namespace: Namespace,
		logDir:    logDir,
		logPath:   make(map[string]string),
	}, nil
}

// Close closes the underlying containerd client connection.
func (b *ContainerdBackend) Close() error {
	if b.client != nil {
		return b.client.Close()
	}
	return nil
}

func (b *ContainerdBackend) ctx(ctx context.Context) context.Context {
	return namespaces.WithNamespace(ctx, b.namespace)
}

func (b *ContainerdBackend) PullImage(ctx context.Context, ref string) error {
	ctx = b.ctx(ctx)
	if _, err := b.client.GetImage(ctx, ref); err == nil {
		return nil
	}
	if _, err := b.client.Pull(ctx, ref, containerd.WithPullUnpack); err != nil {
		return &ImagePullError{Ref: ref, Err: err}
	}
	return nil
}

func (b *ContainerdBackend) CreateContainer(ctx context.Context, podID string, spec ContainerSpec) (string, error) {
	ctx = b.ctx(ctx)

	image, err := b.client.GetImage(ctx, spec.Image)
	if err != nil {
		return "", &ContainerCreateError{PodID: podID, Err: err}
	}

	id := containerID(podID, spec.Name)

	env := make([]string, 0, len(spec.Env))
	for k, v := range spec.Env {
		env = append(env, k+"="+v)
	}

	opts := []oci.SpecOpts{
		oci.WithImageConfig(image),
		oci.WithEnv(env),
	}
	if len(spec.Command) > 0 {
		opts = append(opts, oci.WithProcessArgs(append(spec.Command, spec.Args...)...))
	}
	if len(spec.Mounts) > 0 {
		opts = append(opts, oci.WithMounts(toOCIMounts(spec.Mounts)))
	}
	if spec.MemoryBytes > 0 {
		opts = append(opts, oci.WithMemoryLimit(uint64(spec.MemoryBytes)))
	}
	if spec.CPUMillis > 0 {
		opts = append(opts, oci.WithCPUShares(cpuSharesFromMillis(spec.CPUMillis)))
	}

	container, err := b.client.NewContainer(
		ctx,
		id,
		containerd.WithImage(image),
		containerd.WithNewSnapshot(id+"-snapshot", image),
		containerd.WithNewSpec(opts...),
		containerd.WithContainerLabels(map[string]string{podIDLabel: podID}),
	)
	if err != nil {
		return "", &ContainerCreateError{PodID: podID, Err: err}
	}

	b.mu.Lock()
	b.logPath[container.ID()] = filepath.Join(b.logDir, container.ID()+".log")
	b.mu.Unlock()

	return container.ID(), nil
}

func (b *ContainerdBackend) StartContainer(ctx context.Context, id string) error {
	ctx = b.ctx(ctx)

	container, err := b.client.LoadContainer(ctx, id)
	if err != nil {
		return &ContainerStartError{ID: id, Err: err}
	}

	b.mu.Lock()
	logPath := b.logPath[id]
	b.mu.Unlock()

	var creator cio.Creator
	if logPath != "" {
		creator = cio.LogFile(logPath)
	} else {
		creator = cio.NullIO
	}

	task, err := container.NewTask(ctx, creator)
	if err != nil {
		return &ContainerStartError{ID: id, Err: err}
	}

	if err := task.Start(ctx); err != nil {
		return &ContainerStartError{ID: id, Err: err}
	}
	return nil
}

func (b *ContainerdBackend) StopContainer(ctx context.Context, id string, grace time.Duration) error {
	ctx = b.ctx(ctx)

	container, err := b.client.LoadContainer(ctx, id)
	if err != nil {
		return nil
	}
	task, err := container.Task(ctx, nil)
	if err != nil {
		return nil
	}

	stopCtx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()

	if err := task.Kill(stopCtx, syscall.SIGTERM); err != nil {
		return fmt.Errorf("stop container %s: %w", id, err)
	}

	statusC, err := task.Wait(stopCtx)
	if err != nil {
		return fmt.Errorf("stop container %s: %w", id, err)
	}

	select {
	case <-statusC:
	case <-stopCtx.Done():
		if err := task.Kill(ctx, syscall.SIGKILL); err != nil {
			return fmt.Errorf("force kill container %s: %w", id, err)
		}
	}

	_, err = task.Delete(ctx)
	return err
}

func (b *ContainerdBackend) State(ctx context.Context, id string) (ContainerState, error) {
	ctx = b.ctx(ctx)

	container, err := b.client.LoadContainer(ctx, id)
	if err != nil {
		return ContainerState{}, fmt.Errorf("load container %s: %w", id, err)
	}

	task, err := container.Task(ctx, nil)
	if err != nil {
		return ContainerState{State: StateCreated}, nil
	}

	status, err := task.Status(ctx)
	if err != nil {
		return ContainerState{}, fmt.Errorf("task status %s: %w", id, err)
	}

	switch status.Status {
	case containerd.Running, containerd.Paused:
		return ContainerState{State: StateRunning}, nil
	case containerd.Stopped:
		if status.ExitStatus == 0 {
			return ContainerState{State: StateStopped, ExitCode: 0}, nil
		}
		return ContainerState{State: StateFailed, ExitCode: int(status.ExitStatus)}, nil
	default:
		return ContainerState{State: StateCreated}, nil
	}
}

func (b *ContainerdBackend) List(ctx context.Context) ([]ContainerRef, error) {
	ctx = b.ctx(ctx)

	containers, err := b.client.Containers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	refs := make([]ContainerRef, 0, len(containers))
	for _, cont := range containers {
		labels, err := cont.Labels(ctx)
		if err != nil {
			continue
		}
		refs = append(refs, ContainerRef{ID: cont.ID(), PodID: labels[podIDLabel]})
	}
	return refs, nil
}

func (b *ContainerdBackend) Exec(ctx context.Context, id string, argv []string) (io.ReadWriteCloser, error) {
	return nil, fmt.Errorf("exec not supported on this backend")
}

func (b *ContainerdBackend) Logs(ctx context.Context, id string, tail int) (io.ReadCloser, error) {
	b.mu.Lock()
	path := b.logPath[id]
	b.mu.Unlock()
	if path == "" {
		path = filepath.Join(b.logDir, id+".log")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open logs for %s: %w", id, err)
	}
	if tail <= 0 {
		return f, nil
	}
	return tailReader(f, tail)
}

func (b *ContainerdBackend) Cleanup(ctx context.Context, id string) error {
	ctx = b.ctx(ctx)

	if err := b.StopContainer(ctx, id, 10*time.Second); err != nil {
		return fmt.Errorf("cleanup %s: stop failed: %w", id, err)
	}

	container, err := b.client.LoadContainer(ctx, id)
	if err != nil {
		return nil
	}
	if err := container.Delete(ctx, containerd.WithSnapshotCleanup); err != nil {
		return fmt.Errorf("cleanup %s: delete failed: %w", id, err)
	}

	b.mu.Lock()
	delete(b.logPath, id)
	b.mu.Unlock()

	if path := filepath.Join(b.logDir, id+".log"); path != "" {
		_ = os.Remove(path)
	}
	return nil
}

func containerID(podID, containerName string) string {
	return podID + "-" + containerName
}

// toOCIMounts converts a ContainerSpec's host bind-mounts to the OCI
// runtime-spec shape containerd expects.
func toOCIMounts(mounts []Mount) []specs.Mount {
	out := make([]specs.Mount, 0, len(mounts))
	for _, m := range mounts {
		options := []string{"rbind"}
		if m.ReadOnly {
			options = append(options, "ro")
		} else {
			options = append(options, "rw")
		}
		out = append(out, specs.Mount{
			Source:      m.Source,
			Destination: m.Target,
			Type:        "bind",
			Options:     options,
		})
	}
	return out
}

// cpuSharesFromMillis maps millicores onto the cgroup CPU shares scale,
// using the same 1000m == 1024 shares convention most container
// runtimes apply. A container with no CPU request still gets the
// cgroup default (2 shares is the kernel floor).
func cpuSharesFromMillis(millis int64) uint64 {
	shares := millis * 1024 / 1000
	if shares < 2 {
		shares = 2
	}
	return uint64(shares)
}
