package controller

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/k3rs/k3rs/pkg/storage"
	"github.com/k3rs/k3rs/pkg/types"
)

// DeploymentController rolls a Deployment's Pod template out across one
// or more generations of ReplicaSets, following the strategy in
// spec.Strategy (Recreate, RollingUpdate, BlueGreen, Canary).
type DeploymentController struct {
	store storage.Store
}

func NewDeploymentController(store storage.Store) *DeploymentController {
	return &DeploymentController{store: store}
}

func (c *DeploymentController) Name() string          { return "deployment" }
func (c *DeploymentController) Period() time.Duration { return 10 * time.Second }

func (c *DeploymentController) Reconcile(ctx context.Context) error {
	kvs, err := c.store.ListPrefix(types.DeploymentKeyPrefix)
	if err != nil {
		return err
	}

	for _, kv := range kvs {
		var dep types.Deployment
		if err := json.Unmarshal(kv.Value, &dep); err != nil {
			continue
		}
		ns, _, ok := types.SplitNamespacedKey(types.DeploymentKeyPrefix, kv.Key)
		if !ok {
			continue
		}
		dep.Namespace = ns
		if err := c.reconcileOne(&dep); err != nil {
			return err
		}
	}
	return nil
}

func templateHash(spec types.PodSpec) string {
	data, _ := json.Marshal(spec)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:12]
}

func (c *DeploymentController) reconcileOne(dep *types.Deployment) error {
	hash := templateHash(dep.Spec.Template)

	rsList, err := c.ownedReplicaSets(dep)
	if err != nil {
		return err
	}
	sort.Slice(rsList, func(i, j int) bool { return rsList[i].CreatedAt.Before(rsList[j].CreatedAt) })

	var current *types.ReplicaSet
	var older []*types.ReplicaSet
	for _, rs := range rsList {
		if rs.TemplateHash == hash {
			current = rs
		} else {
			older = append(older, rs)
		}
	}
	if current == nil {
		initial := 0
		switch dep.Spec.Strategy.Kind {
		case types.StrategyRecreate, types.StrategyBlueGreen:
			initial = dep.Spec.Replicas
		}
		current, err = c.createReplicaSet(dep, hash, initial)
		if err != nil {
			return err
		}
	}

	prevObservedGeneration := dep.ObservedGeneration
	prevStatus := dep.Status

	switch dep.Spec.Strategy.Kind {
	case types.StrategyRecreate:
		c.applyRecreate(dep, current, older)
	case types.StrategyBlueGreen:
		c.applyBlueGreen(dep, current, older)
	case types.StrategyCanary:
		c.applyCanary(dep, current, older)
	default:
		c.applyRollingUpdate(dep, current, older)
	}

	dep.ObservedGeneration = dep.Generation
	c.aggregateStatus(dep, append(older, current))
	if dep.ObservedGeneration == prevObservedGeneration && dep.Status == prevStatus {
		return nil
	}
	return c.putDeployment(dep)
}

func (c *DeploymentController) applyRecreate(dep *types.Deployment, current *types.ReplicaSet, older []*types.ReplicaSet) {
	allOldGone := true
	for _, rs := range older {
		if rs.Status.Replicas > 0 {
			allOldGone = false
		}
		c.scaleReplicaSet(rs, 0)
	}
	if allOldGone {
		c.scaleReplicaSet(current, dep.Spec.Replicas)
	}
}

func (c *DeploymentController) applyBlueGreen(dep *types.Deployment, current *types.ReplicaSet, older []*types.ReplicaSet) {
	c.scaleReplicaSet(current, dep.Spec.Replicas)
	if current.Status.Ready == dep.Spec.Replicas {
		for _, rs := range older {
			c.scaleReplicaSet(rs, 0)
		}
	}
}

func (c *DeploymentController) applyCanary(dep *types.Deployment, current *types.ReplicaSet, older []*types.ReplicaSet) {
	weight := dep.Spec.Strategy.CanaryWeight
	newReplicas := int(math.Ceil(float64(dep.Spec.Replicas) * float64(weight) / 100))
	c.scaleReplicaSet(current, newReplicas)
	oldReplicas := dep.Spec.Replicas - newReplicas
	for _, rs := range older {
		c.scaleReplicaSet(rs, oldReplicas)
	}
}

func (c *DeploymentController) applyRollingUpdate(dep *types.Deployment, current *types.ReplicaSet, older []*types.ReplicaSet) {
	strategy := dep.Spec.Strategy
	var oldTotal int
	for _, rs := range older {
		oldTotal += rs.Status.Replicas
	}

	targetNew := current.Status.Replicas + strategy.MaxSurge
	if targetNew > dep.Spec.Replicas+strategy.MaxSurge {
		targetNew = dep.Spec.Replicas + strategy.MaxSurge
	}
	if targetNew > dep.Spec.Replicas {
		targetNew = dep.Spec.Replicas
	}
	if current.Status.Replicas < targetNew {
		step := strategy.MaxSurge
		if step > targetNew-current.Status.Replicas {
			step = targetNew - current.Status.Replicas
		}
		c.scaleReplicaSet(current, current.Status.Replicas+step)
	} else {
		c.scaleReplicaSet(current, targetNew)
	}

	targetOld := dep.Spec.Replicas - current.Status.Ready
	if targetOld < 0 {
		targetOld = 0
	}
	if targetOld > oldTotal {
		targetOld = oldTotal
	}
	scaleDownOldReplicaSets(c, older, targetOld)
}

func scaleDownOldReplicaSets(c *DeploymentController, older []*types.ReplicaSet, target int) {
	remaining := target
	for _, rs := range older {
		if remaining >= rs.Status.Replicas {
			remaining -= rs.Status.Replicas
			continue
		}
		c.scaleReplicaSet(rs, remaining)
		remaining = 0
	}
}

func (c *DeploymentController) scaleReplicaSet(rs *types.ReplicaSet, replicas int) {
	if replicas < 0 {
		replicas = 0
	}
	if rs.Spec.Replicas == replicas {
		return
	}
	rs.Spec.Replicas = replicas
	data, err := json.Marshal(rs)
	if err != nil {
		return
	}
	_ = c.store.Put(types.ReplicaSetKey(rs.Namespace, rs.Name), data)
}

func (c *DeploymentController) createReplicaSet(dep *types.Deployment, hash string, replicas int) (*types.ReplicaSet, error) {
	rs := &types.ReplicaSet{
		ID:        uuid.New().String(),
		Name:      dep.Name + "-" + hash,
		Namespace: dep.Namespace,
		Spec: types.ReplicaSetSpec{
			Replicas: replicas,
			Selector: dep.Spec.Selector,
			Template: dep.Spec.Template,
		},
		OwnerRef: &types.OwnerRef{
			Kind:      "Deployment",
			Namespace: dep.Namespace,
			Name:      dep.Name,
			UID:       dep.ID,
		},
		TemplateHash: hash,
		CreatedAt:    time.Now(),
	}
	data, err := json.Marshal(rs)
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(types.ReplicaSetKey(rs.Namespace, rs.Name), data); err != nil {
		return nil, err
	}
	return rs, nil
}

func (c *DeploymentController) ownedReplicaSets(dep *types.Deployment) ([]*types.ReplicaSet, error) {
	kvs, err := c.store.ListPrefix(types.ReplicaSetPrefix(dep.Namespace))
	if err != nil {
		return nil, err
	}
	var owned []*types.ReplicaSet
	for _, kv := range kvs {
		var rs types.ReplicaSet
		if err := json.Unmarshal(kv.Value, &rs); err != nil {
			continue
		}
		if rs.OwnerRef == nil || rs.OwnerRef.UID != dep.ID {
			continue
		}
		owned = append(owned, &rs)
	}
	return owned, nil
}

func (c *DeploymentController) aggregateStatus(dep *types.Deployment, rsList []*types.ReplicaSet) {
	var replicas, ready, available, updated int
	hash := templateHash(dep.Spec.Template)
	for _, rs := range rsList {
		replicas += rs.Status.Replicas
		ready += rs.Status.Ready
		available += rs.Status.Available
		if rs.TemplateHash == hash {
			updated += rs.Status.Replicas
		}
	}
	dep.Status = types.DeploymentStatus{
		Replicas:  replicas,
		Ready:     ready,
		Available: available,
		Updated:   updated,
	}
}

func (c *DeploymentController) putDeployment(dep *types.Deployment) error {
	data, err := json.Marshal(dep)
	if err != nil {
		return err
	}
	return c.store.Put(types.DeploymentKey(dep.Namespace, dep.Name), data)
}
