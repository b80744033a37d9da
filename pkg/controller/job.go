package controller

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/k3rs/k3rs/pkg/storage"
	"github.com/k3rs/k3rs/pkg/types"
)

// JobController keeps parallelism active Pods running until a Job's
// Succeeded count reaches completions or its Failed count exceeds
// backoff_limit. The terminal transition is sticky — once Complete or
// Failed, no further Pods are created.
type JobController struct {
	store storage.Store
}

func NewJobController(store storage.Store) *JobController {
	return &JobController{store: store}
}

func (c *JobController) Name() string          { return "job" }
func (c *JobController) Period() time.Duration { return 10 * time.Second }

func (c *JobController) Reconcile(ctx context.Context) error {
	kvs, err := c.store.ListPrefix(types.JobKeyPrefix)
	if err != nil {
		return err
	}

	for _, kv := range kvs {
		var job types.Job
		if err := json.Unmarshal(kv.Value, &job); err != nil {
			continue
		}
		ns, _, ok := types.SplitNamespacedKey(types.JobKeyPrefix, kv.Key)
		if !ok {
			continue
		}
		job.Namespace = ns
		if err := c.reconcileOne(&job); err != nil {
			return err
		}
	}
	return nil
}

func (c *JobController) reconcileOne(job *types.Job) error {
	if job.Status.Phase == types.JobComplete || job.Status.Phase == types.JobFailed {
		return nil
	}

	pods, err := c.ownedPods(job)
	if err != nil {
		return err
	}

	var active, succeeded, failed int
	for _, p := range pods {
		switch p.Status {
		case types.PodSucceeded:
			succeeded++
		case types.PodFailed:
			failed++
		case types.PodTerminating:
		default:
			active++
		}
	}

	prevStatus := job.Status

	if job.Status.StartTime == nil {
		now := time.Now()
		job.Status.StartTime = &now
	}

	if succeeded >= job.Spec.Completions {
		job.Status.Phase = types.JobComplete
		now := time.Now()
		job.Status.CompletionTime = &now
	} else if failed > job.Spec.BackoffLimit {
		job.Status.Phase = types.JobFailed
		now := time.Now()
		job.Status.CompletionTime = &now
	} else {
		job.Status.Phase = types.JobRunning
		needed := job.Spec.Parallelism - active
		remaining := job.Spec.Completions - succeeded - active
		if needed > remaining {
			needed = remaining
		}
		for i := 0; i < needed; i++ {
			if err := c.createPod(job); err != nil {
				return err
			}
		}
	}

	job.Status.Active = active
	job.Status.Succeeded = succeeded
	job.Status.Failed = failed

	if job.Status == prevStatus {
		return nil
	}

	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return c.store.Put(types.JobKey(job.Namespace, job.Name), data)
}

func (c *JobController) ownedPods(job *types.Job) ([]*types.Pod, error) {
	kvs, err := c.store.ListPrefix(types.PodPrefix(job.Namespace))
	if err != nil {
		return nil, err
	}
	var owned []*types.Pod
	for _, kv := range kvs {
		var pod types.Pod
		if err := json.Unmarshal(kv.Value, &pod); err != nil {
			continue
		}
		if pod.OwnedBy(job.ID) {
			owned = append(owned, &pod)
		}
	}
	return owned, nil
}

func (c *JobController) createPod(job *types.Job) error {
	pod := types.Pod{
		ID:        uuid.New().String(),
		Name:      job.Name + "-" + uuid.New().String()[:8],
		Namespace: job.Namespace,
		Spec:      job.Spec.Template,
		Status:    types.PodPending,
		OwnerRef: &types.OwnerRef{
			Kind:      "Job",
			Namespace: job.Namespace,
			Name:      job.Name,
			UID:       job.ID,
		},
		CreatedAt: time.Now(),
	}
	data, err := json.Marshal(&pod)
	if err != nil {
		return err
	}
	return c.store.Put(types.PodKey(pod.Namespace, pod.Name), data)
}
