/*
Package runtime defines the Backend contract PodSync and Recovery
depend on (pull, create, start, stop, state, list, exec, logs,
cleanup) and ContainerdBackend, the containerd-backed implementation.

Pull, create and start failures are the typed values in errors.go —
ImagePullError, ContainerCreateError, ContainerStartError — so callers
can branch on those failure kinds without string matching. The other
operations return plain (often wrapped) errors.

create/start follow containerd's own detached task model: a task
started via container.NewTask/task.Start is owned by containerd's
shim, not by this process, so killing the agent never kills running
containers. Pod identity survives a restart in the container's own
labels (set at CreateContainer time) rather than a side-channel map,
so List/Recovery can rebuild it from containerd alone.

FakeBackend is an in-memory Backend for tests that don't have a live
containerd socket available.
*/
package runtime
