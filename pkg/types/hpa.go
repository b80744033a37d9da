package types

import "time"

// MetricTarget is the utilization target an HPA scales against. Either
// field may be unset; an unset target is not evaluated.
type MetricTarget struct {
	CPUUtilizationPercent    *int `json:"cpu_utilization_percent,omitempty"`
	MemoryUtilizationPercent *int `json:"memory_utilization_percent,omitempty"`
}

// HPASpec is the declared intent of a HorizontalPodAutoscaler.
type HPASpec struct {
	TargetDeployment string       `json:"target_deployment"`
	MinReplicas      int          `json:"min_replicas"`
	MaxReplicas      int          `json:"max_replicas"`
	Metrics          MetricTarget `json:"metrics"`
}

// HPAStatus is observed state, including the last utilization samples
// used to drive the most recent scaling decision.
type HPAStatus struct {
	CurrentReplicas                 int        `json:"current_replicas"`
	DesiredReplicas                 int        `json:"desired_replicas"`
	CurrentCPUUtilizationPercent    *int       `json:"current_cpu_utilization_percent,omitempty"`
	CurrentMemoryUtilizationPercent *int       `json:"current_memory_utilization_percent,omitempty"`
	LastScaleTime                   *time.Time `json:"last_scale_time,omitempty"`
}

// HorizontalPodAutoscaler adjusts a target Deployment's replica count
// based on observed CPU/memory utilization, with 10% hysteresis.
type HorizontalPodAutoscaler struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Namespace string    `json:"namespace"`
	Spec      HPASpec   `json:"spec"`
	Status    HPAStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
