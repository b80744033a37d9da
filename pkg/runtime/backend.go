package runtime

import (
	"context"
	"io"
	"time"
)

// State is the authoritative runtime-reported lifecycle phase of a
// container, returned by Backend.State.
type State string

const (
	StateCreated State = "Created"
	StateRunning State = "Running"
	StateStopped State = "Stopped"
	StateFailed  State = "Failed"
)

// ContainerState is the point-in-time status of one container.
type ContainerState struct {
	State    State
	ExitCode int
}

// ContainerRef pairs a runtime-owned container ID with the Pod it was
// created for, recovered from the container's own labels — this is how
// Backend.List lets Recovery re-derive pod identity without a
// side-channel map.
type ContainerRef struct {
	ID    string
	PodID string
}

// Backend is the narrow interface PodSync and Recovery depend on.
// Every operation must be safe to call concurrently with any other;
// the implementation owns its own serialization. PullImage,
// CreateContainer and StartContainer fail with the typed values in
// errors.go; the other operations return plain (often wrapped) errors.
type Backend interface {
	PullImage(ctx context.Context, ref string) error
	CreateContainer(ctx context.Context, podID string, spec ContainerSpec) (string, error)
	StartContainer(ctx context.Context, id string) error
	StopContainer(ctx context.Context, id string, grace time.Duration) error
	State(ctx context.Context, id string) (ContainerState, error)
	List(ctx context.Context) ([]ContainerRef, error)
	Exec(ctx context.Context, id string, argv []string) (io.ReadWriteCloser, error)
	Logs(ctx context.Context, id string, tail int) (io.ReadCloser, error)
	Cleanup(ctx context.Context, id string) error
}

// Mount is a host path bind-mounted into a container, the
// runtime-facing projection of a Pod's Volume+VolumeMount pair.
type Mount struct {
	Source   string
	Target   string
	ReadOnly bool
}

// ContainerSpec is the runtime-facing subset of a Pod's container
// template — enough for a Backend to materialize one container without
// importing pkg/types.
type ContainerSpec struct {
	Name        string
	Image       string
	Command     []string
	Args        []string
	Env         map[string]string
	Mounts      []Mount
	CPUMillis   int64
	MemoryBytes int64
}
