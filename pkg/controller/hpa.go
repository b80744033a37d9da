package controller

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/k3rs/k3rs/pkg/storage"
	"github.com/k3rs/k3rs/pkg/types"
)

// hysteresis is the 10% dead-band HPA applies before changing replicas,
// to avoid thrashing on noisy utilization samples.
const hysteresis = 0.1

// baselineUtilizationPercent is what storeMetricsSource reports for a
// Deployment that has never been sampled, so a freshly-created HPA has
// a sane starting point before the first real metric arrives.
const baselineUtilizationPercent = 50

// MetricsSource reports a Deployment's observed CPU utilization
// percentage, the quantity HPAController compares against
// HPASpec.Metrics.CPUUtilizationPercent. It is the injection seam
// HPAController depends on instead of a hardcoded value, mirroring how
// PodSync depends on runtime.Backend and every controller depends on
// storage.Store.
type MetricsSource interface {
	CPUUtilizationPercent(namespace, deployment string) (int, error)
}

// storeMetricsSource reads the last sample a node agent's metrics
// collector wrote for a Deployment at DeploymentMetricsKey. Deployments
// that have never been sampled read back baselineUtilizationPercent
// rather than an error, so a new HPA can still reconcile once.
type storeMetricsSource struct {
	store storage.Store
}

type deploymentMetricSample struct {
	CPUUtilizationPercent int `json:"cpu_utilization_percent"`
}

func (s storeMetricsSource) CPUUtilizationPercent(namespace, deployment string) (int, error) {
	data, err := s.store.Get(types.DeploymentMetricsKey(namespace, deployment))
	if err != nil {
		if err == storage.ErrNotFound {
			return baselineUtilizationPercent, nil
		}
		return 0, err
	}
	var sample deploymentMetricSample
	if err := json.Unmarshal(data, &sample); err != nil {
		return baselineUtilizationPercent, nil
	}
	return sample.CPUUtilizationPercent, nil
}

// HPAController adjusts a target Deployment's replica count to track a
// CPU/memory utilization target, applying 10% hysteresis and clamping
// to [min_replicas, max_replicas].
type HPAController struct {
	store   storage.Store
	metrics MetricsSource
}

// NewHPAController creates an HPAController reading observed
// utilization through metrics. Pass a storeMetricsSource-backed value
// (NewStoreMetricsSource) in production, or a test double to drive
// reconciliation deterministically.
func NewHPAController(store storage.Store, metrics MetricsSource) *HPAController {
	return &HPAController{store: store, metrics: metrics}
}

// NewStoreMetricsSource creates the production MetricsSource, reading
// Deployment utilization samples back out of store.
func NewStoreMetricsSource(store storage.Store) MetricsSource {
	return storeMetricsSource{store: store}
}

func (c *HPAController) Name() string          { return "hpa" }
func (c *HPAController) Period() time.Duration { return 30 * time.Second }

func (c *HPAController) Reconcile(ctx context.Context) error {
	kvs, err := c.store.ListPrefix(types.HPAKeyPrefix)
	if err != nil {
		return err
	}

	for _, kv := range kvs {
		var hpa types.HorizontalPodAutoscaler
		if err := json.Unmarshal(kv.Value, &hpa); err != nil {
			continue
		}
		ns, _, ok := types.SplitNamespacedKey(types.HPAKeyPrefix, kv.Key)
		if !ok {
			continue
		}
		hpa.Namespace = ns
		if err := c.reconcileOne(&hpa); err != nil {
			return err
		}
	}
	return nil
}

func (c *HPAController) reconcileOne(hpa *types.HorizontalPodAutoscaler) error {
	dep, err := c.getDeployment(hpa)
	if err != nil {
		return err
	}
	if dep == nil {
		return nil
	}

	current := dep.Spec.Replicas
	if current == 0 {
		return nil
	}

	util, err := c.currentUtilization(hpa)
	if err != nil {
		return err
	}
	target := targetUtilization(hpa)
	if target == 0 {
		return nil
	}

	desired := int(math.Ceil(float64(current) * float64(util) / float64(target)))
	if desired < hpa.Spec.MinReplicas {
		desired = hpa.Spec.MinReplicas
	}
	if desired > hpa.Spec.MaxReplicas {
		desired = hpa.Spec.MaxReplicas
	}

	prevCurrentReplicas := hpa.Status.CurrentReplicas
	prevDesiredReplicas := hpa.Status.DesiredReplicas
	prevUtil := -1
	if hpa.Status.CurrentCPUUtilizationPercent != nil {
		prevUtil = *hpa.Status.CurrentCPUUtilizationPercent
	}

	changed := math.Abs(float64(desired-current))/float64(current) >= hysteresis
	hpa.Status.CurrentReplicas = current
	hpa.Status.DesiredReplicas = desired
	hpa.Status.CurrentCPUUtilizationPercent = intPtr(util)

	scaled := false
	if changed && desired != current {
		dep.Spec.Replicas = desired
		now := time.Now()
		hpa.Status.LastScaleTime = &now
		if err := c.putDeployment(dep); err != nil {
			return err
		}
		scaled = true
	}

	if !scaled && current == prevCurrentReplicas && desired == prevDesiredReplicas && util == prevUtil {
		return nil
	}

	data, err := json.Marshal(hpa)
	if err != nil {
		return err
	}
	return c.store.Put(types.HPAKey(hpa.Namespace, hpa.Name), data)
}

// currentUtilization reads the target Deployment's observed CPU
// utilization through c.metrics.
func (c *HPAController) currentUtilization(hpa *types.HorizontalPodAutoscaler) (int, error) {
	return c.metrics.CPUUtilizationPercent(hpa.Namespace, hpa.Spec.TargetDeployment)
}

func targetUtilization(hpa *types.HorizontalPodAutoscaler) int {
	if hpa.Spec.Metrics.CPUUtilizationPercent != nil {
		return *hpa.Spec.Metrics.CPUUtilizationPercent
	}
	if hpa.Spec.Metrics.MemoryUtilizationPercent != nil {
		return *hpa.Spec.Metrics.MemoryUtilizationPercent
	}
	return 0
}

func intPtr(v int) *int { return &v }

func (c *HPAController) getDeployment(hpa *types.HorizontalPodAutoscaler) (*types.Deployment, error) {
	data, err := c.store.Get(types.DeploymentKey(hpa.Namespace, hpa.Spec.TargetDeployment))
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	var dep types.Deployment
	if err := json.Unmarshal(data, &dep); err != nil {
		return nil, err
	}
	dep.Namespace = hpa.Namespace
	return &dep, nil
}

func (c *HPAController) putDeployment(dep *types.Deployment) error {
	data, err := json.Marshal(dep)
	if err != nil {
		return err
	}
	return c.store.Put(types.DeploymentKey(dep.Namespace, dep.Name), data)
}
