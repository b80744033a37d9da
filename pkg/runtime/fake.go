package runtime

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// FakeBackend is an in-memory Backend for exercising PodSync and
// Recovery without a real container runtime. It is not used by
// production code.
type FakeBackend struct {
	mu         sync.Mutex
	containers map[string]*fakeContainer
	PullFail   map[string]bool // image ref -> force PullImage failure
	nextID     int
}

type fakeContainer struct {
	podID string
	state ContainerState
	spec  ContainerSpec
}

// NewFakeBackend returns an empty FakeBackend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		containers: make(map[string]*fakeContainer),
		PullFail:   make(map[string]bool),
	}
}

func (b *FakeBackend) PullImage(ctx context.Context, ref string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.PullFail[ref] {
		return &ImagePullError{Ref: ref, Err: fmt.Errorf("fake pull failure")}
	}
	return nil
}

func (b *FakeBackend) CreateContainer(ctx context.Context, podID string, spec ContainerSpec) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := fmt.Sprintf("fake-%d", b.nextID)
	b.containers[id] = &fakeContainer{
		podID: podID,
		state: ContainerState{State: StateCreated},
		spec:  spec,
	}
	return id, nil
}

func (b *FakeBackend) StartContainer(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.containers[id]
	if !ok {
		return &ContainerStartError{ID: id, Err: fmt.Errorf("unknown container")}
	}
	c.state = ContainerState{State: StateRunning}
	return nil
}

func (b *FakeBackend) StopContainer(ctx context.Context, id string, grace time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.containers[id]
	if !ok {
		return nil
	}
	c.state = ContainerState{State: StateStopped}
	return nil
}

func (b *FakeBackend) State(ctx context.Context, id string) (ContainerState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.containers[id]
	if !ok {
		return ContainerState{}, fmt.Errorf("unknown container %s", id)
	}
	return c.state, nil
}

func (b *FakeBackend) List(ctx context.Context) ([]ContainerRef, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	refs := make([]ContainerRef, 0, len(b.containers))
	for id, c := range b.containers {
		refs = append(refs, ContainerRef{ID: id, PodID: c.podID})
	}
	return refs, nil
}

func (b *FakeBackend) Exec(ctx context.Context, id string, argv []string) (io.ReadWriteCloser, error) {
	return nil, fmt.Errorf("exec not supported on fake backend")
}

func (b *FakeBackend) Logs(ctx context.Context, id string, tail int) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (b *FakeBackend) Cleanup(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.containers, id)
	return nil
}

// Spec returns the ContainerSpec a fake container was created with, for
// tests asserting on mount/resource wiring.
func (b *FakeBackend) Spec(id string) (ContainerSpec, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.containers[id]
	if !ok {
		return ContainerSpec{}, false
	}
	return c.spec, true
}

// SetExitCode lets a test drive a running fake container to a
// Stopped/Failed terminal state with a specific exit code.
func (b *FakeBackend) SetExitCode(id string, exitCode int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.containers[id]
	if !ok {
		return
	}
	if exitCode == 0 {
		c.state = ContainerState{State: StateStopped, ExitCode: 0}
	} else {
		c.state = ContainerState{State: StateFailed, ExitCode: exitCode}
	}
}
