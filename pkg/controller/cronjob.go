package controller

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/k3rs/k3rs/pkg/storage"
	"github.com/k3rs/k3rs/pkg/types"
)

// CronJobController creates a Job from job_template whenever schedule
// is due: every tick it checks whether now falls within the current
// minute slot and no active Job already exists for that slot.
//
// schedule supports the minute-field subset: "*" (every minute), a
// literal minute "M", or "*/N" (every N minutes).
type CronJobController struct {
	store storage.Store
}

func NewCronJobController(store storage.Store) *CronJobController {
	return &CronJobController{store: store}
}

func (c *CronJobController) Name() string          { return "cronjob" }
func (c *CronJobController) Period() time.Duration { return 30 * time.Second }

func (c *CronJobController) Reconcile(ctx context.Context) error {
	kvs, err := c.store.ListPrefix(types.CronJobKeyPrefix)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, kv := range kvs {
		var cj types.CronJob
		if err := json.Unmarshal(kv.Value, &cj); err != nil {
			continue
		}
		ns, _, ok := types.SplitNamespacedKey(types.CronJobKeyPrefix, kv.Key)
		if !ok {
			continue
		}
		cj.Namespace = ns
		if err := c.reconcileOne(&cj, now); err != nil {
			return err
		}
	}
	return nil
}

func (c *CronJobController) reconcileOne(cj *types.CronJob, now time.Time) error {
	if cj.Spec.Suspend {
		return nil
	}
	if !scheduleDue(cj.Spec.Schedule, now) {
		return nil
	}
	if cj.Status.LastScheduleTime != nil && sameMinute(*cj.Status.LastScheduleTime, now) {
		return nil
	}

	active, err := c.hasActiveJobForSlot(cj, now)
	if err != nil {
		return err
	}
	if active {
		return nil
	}

	job, err := c.createJob(cj, now)
	if err != nil {
		return err
	}

	cj.Status.LastScheduleTime = &now
	cj.Status.ActiveJobs = append(cj.Status.ActiveJobs, job.Name)
	data, err := json.Marshal(cj)
	if err != nil {
		return err
	}
	return c.store.Put(types.CronJobKey(cj.Namespace, cj.Name), data)
}

// scheduleDue evaluates the minute-field subset against now's minute.
func scheduleDue(schedule string, now time.Time) bool {
	schedule = strings.TrimSpace(schedule)
	minute := now.Minute()
	switch {
	case schedule == "*":
		return true
	case strings.HasPrefix(schedule, "*/"):
		n, err := strconv.Atoi(schedule[2:])
		if err != nil || n <= 0 {
			return false
		}
		return minute%n == 0
	default:
		m, err := strconv.Atoi(schedule)
		if err != nil {
			return false
		}
		return minute == m
	}
}

func sameMinute(a, b time.Time) bool {
	return a.Truncate(time.Minute).Equal(b.Truncate(time.Minute))
}

// cronSlotLabel stamps a spawned Job's name with its minute slot so a
// restart of the controller can recognize the Job already covers it.
func cronSlotLabel(cj *types.CronJob, now time.Time) string {
	return cj.Name + "-" + now.Truncate(time.Minute).Format("20060102150405")
}

func (c *CronJobController) hasActiveJobForSlot(cj *types.CronJob, now time.Time) (bool, error) {
	slot := cronSlotLabel(cj, now)
	kvs, err := c.store.ListPrefix(types.JobPrefix(cj.Namespace))
	if err != nil {
		return false, err
	}
	for _, kv := range kvs {
		var job types.Job
		if err := json.Unmarshal(kv.Value, &job); err != nil {
			continue
		}
		if job.Name == slot {
			return true, nil
		}
	}
	return false, nil
}

func (c *CronJobController) createJob(cj *types.CronJob, now time.Time) (*types.Job, error) {
	job := &types.Job{
		ID:        uuid.New().String(),
		Name:      cronSlotLabel(cj, now),
		Namespace: cj.Namespace,
		Spec:      types.DefaultJobSpec(cj.Spec.JobTemplate),
		OwnerRef: &types.OwnerRef{
			Kind:      "CronJob",
			Namespace: cj.Namespace,
			Name:      cj.Name,
			UID:       cj.ID,
		},
		CreatedAt: now,
	}
	data, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(types.JobKey(job.Namespace, job.Name), data); err != nil {
		return nil, err
	}
	return job, nil
}
