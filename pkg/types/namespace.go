package types

import "time"

// Namespace partitions namespaced resources (Pod, Service, Deployment,
// ReplicaSet, DaemonSet, Job, CronJob, HPA, ConfigMap, Secret,
// Endpoints) into isolated groups sharing a name scope.
type Namespace struct {
	Name      string    `json:"name"`
	Labels    Labels    `json:"labels,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultNamespace is created implicitly if absent, matching the
// teacher repo's "default" cluster-wide scope convention.
const DefaultNamespace = "default"
