package types

import "time"

// DeploymentStrategyKind selects how a Deployment rolls a template
// change out across its managed ReplicaSets.
type DeploymentStrategyKind string

const (
	StrategyRecreate      DeploymentStrategyKind = "Recreate"
	StrategyRollingUpdate DeploymentStrategyKind = "RollingUpdate"
	StrategyBlueGreen     DeploymentStrategyKind = "BlueGreen"
	StrategyCanary        DeploymentStrategyKind = "Canary"
)

// DeploymentStrategy is a tagged union over DeploymentStrategyKind; only
// the fields relevant to Kind are meaningful.
type DeploymentStrategy struct {
	Kind           DeploymentStrategyKind `json:"kind"`
	MaxSurge       int                    `json:"max_surge,omitempty"`
	MaxUnavailable int                    `json:"max_unavailable,omitempty"`
	CanaryWeight   int                    `json:"canary_weight,omitempty"`
}

// DefaultDeploymentStrategy mirrors the RollingUpdate{maxSurge:1,
// maxUnavailable:0} default.
func DefaultDeploymentStrategy() DeploymentStrategy {
	return DeploymentStrategy{Kind: StrategyRollingUpdate, MaxSurge: 1, MaxUnavailable: 0}
}

// DeploymentSpec is the declared intent of a Deployment.
type DeploymentSpec struct {
	Replicas int                 `json:"replicas"`
	Selector Labels              `json:"selector"`
	Template PodSpec             `json:"template"`
	Strategy DeploymentStrategy  `json:"strategy"`
}

// DeploymentStatus is observed state aggregated from owned ReplicaSets.
type DeploymentStatus struct {
	Replicas  int `json:"replicas"`
	Ready     int `json:"ready"`
	Available int `json:"available"`
	Updated   int `json:"updated"`
}

// Deployment declares a desired Pod template and replica count, rolled
// out through one or more generations of ReplicaSets.
type Deployment struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	Namespace          string            `json:"namespace"`
	Labels             Labels            `json:"labels,omitempty"`
	Spec               DeploymentSpec    `json:"spec"`
	Status             DeploymentStatus  `json:"status"`
	Generation         int64             `json:"generation"`
	ObservedGeneration int64             `json:"observed_generation"`
	CreatedAt          time.Time         `json:"created_at"`
}

// ReplicaSetSpec is the declared intent of a ReplicaSet.
type ReplicaSetSpec struct {
	Replicas int     `json:"replicas"`
	Selector Labels  `json:"selector"`
	Template PodSpec `json:"template"`
}

// ReplicaSetStatus is observed state aggregated from owned Pods.
type ReplicaSetStatus struct {
	Replicas  int `json:"replicas"`
	Ready     int `json:"ready"`
	Available int `json:"available"`
}

// ReplicaSet ensures a fixed number of Pods matching a template exist.
// Usually owned by a Deployment, but may stand alone.
type ReplicaSet struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Namespace    string           `json:"namespace"`
	Spec         ReplicaSetSpec   `json:"spec"`
	Status       ReplicaSetStatus `json:"status"`
	OwnerRef     *OwnerRef        `json:"owner_ref,omitempty"`
	TemplateHash string           `json:"template_hash"`
	CreatedAt    time.Time        `json:"created_at"`
}

// DaemonSetSpec is the declared intent of a DaemonSet.
type DaemonSetSpec struct {
	Template     PodSpec `json:"template"`
	NodeSelector Labels  `json:"node_selector,omitempty"`
}

// DaemonSetStatus is observed state aggregated from owned Pods.
type DaemonSetStatus struct {
	DesiredNumberScheduled int `json:"desired_number_scheduled"`
	CurrentNumberScheduled int `json:"current_number_scheduled"`
	NumberReady            int `json:"number_ready"`
}

// DaemonSet ensures exactly one Pod runs on every eligible Node.
type DaemonSet struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Namespace string          `json:"namespace"`
	Spec      DaemonSetSpec   `json:"spec"`
	Status    DaemonSetStatus `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}
