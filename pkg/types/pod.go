package types

import "time"

// PodStatus is the lifecycle phase of a Pod.
type PodStatus string

const (
	PodPending     PodStatus = "Pending"
	PodScheduled   PodStatus = "Scheduled"
	PodRunning     PodStatus = "Running"
	PodSucceeded   PodStatus = "Succeeded"
	PodFailed      PodStatus = "Failed"
	PodTerminating PodStatus = "Terminating"
)

// Terminal reports whether no further transition is expected without
// external intervention (scale, delete, reschedule).
func (s PodStatus) Terminal() bool {
	return s == PodSucceeded || s == PodFailed
}

// ContainerSpec describes one container within a Pod's template.
type ContainerSpec struct {
	Name         string            `json:"name"`
	Image        string            `json:"image"`
	Command      []string          `json:"command,omitempty"`
	Args         []string          `json:"args,omitempty"`
	Env          map[string]string `json:"env,omitempty"`
	Resources    ResourceList      `json:"resources"`
	VolumeMounts []VolumeMount     `json:"volume_mounts,omitempty"`
}

// VolumeMount binds a Volume into a container's filesystem.
type VolumeMount struct {
	Name      string `json:"name"`
	MountPath string `json:"mount_path"`
	ReadOnly  bool   `json:"read_only,omitempty"`
}

// Volume is a named storage source a Pod's containers may mount.
type Volume struct {
	Name     string `json:"name"`
	HostPath string `json:"host_path,omitempty"`
}

// Affinity constrains scheduling beyond plain node-selector matching.
// Reserved for future expansion; empty today but carried on PodSpec so
// the scheduler's contract matches spec §3 exactly.
type Affinity struct{}

// PodSpec is the declared intent of a Pod: what to run and where it may
// run.
type PodSpec struct {
	Containers   []ContainerSpec `json:"containers"`
	Volumes      []Volume        `json:"volumes,omitempty"`
	NodeSelector Labels          `json:"node_selector,omitempty"`
	Tolerations  []Toleration    `json:"tolerations,omitempty"`
	Affinity     *Affinity       `json:"affinity,omitempty"`
}

// TotalRequests sums resource requests across every container in the
// spec — the quantity the scheduler checks against a Node's available
// capacity.
func (s PodSpec) TotalRequests() ResourceList {
	total := ResourceList{PodCount: 1}
	for _, c := range s.Containers {
		total.CPUMillis += c.Resources.CPUMillis
		total.MemoryBytes += c.Resources.MemoryBytes
	}
	return total
}

// RuntimeInfo records which RuntimeBackend materialized a Pod's
// container, set by the agent once the container exists.
type RuntimeInfo struct {
	Backend string `json:"backend"`
	Version string `json:"version"`
}

// Pod is the unit of scheduling: one or more co-located containers bound
// to at most one Node.
type Pod struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Namespace     string       `json:"namespace"`
	Labels        Labels       `json:"labels,omitempty"`
	Spec          PodSpec      `json:"spec"`
	Status        PodStatus    `json:"status"`
	StatusMessage string       `json:"status_message,omitempty"`
	NodeName      string       `json:"node_name,omitempty"`
	OwnerRef      *OwnerRef    `json:"owner_ref,omitempty"`
	RestartCount  int          `json:"restart_count"`
	ContainerID   string       `json:"container_id,omitempty"`
	RuntimeInfo   *RuntimeInfo `json:"runtime_info,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// maxStatusMessage caps the truncated length of a recorded failure
// detail, per the error-handling design's "truncated to 512 bytes" rule.
const maxStatusMessage = 512

// SetFailed marks the Pod Failed with a bounded status message.
func (p *Pod) SetFailed(kind, detail string) {
	p.Status = PodFailed
	msg := kind + ": " + detail
	if len(msg) > maxStatusMessage {
		msg = msg[:maxStatusMessage]
	}
	p.StatusMessage = msg
}

// OwnedBy reports whether the Pod's owner reference points at id.
func (p *Pod) OwnedBy(id string) bool {
	return p.OwnerRef != nil && p.OwnerRef.UID == id
}
