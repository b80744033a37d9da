package types

import "time"

// JobPhase is the terminal-or-not condition of a Job.
type JobPhase string

const (
	JobRunning  JobPhase = "Running"
	JobComplete JobPhase = "Complete"
	JobFailed   JobPhase = "Failed"
)

// JobSpec is the declared intent of a Job: run Template to completion
// Completions times, at most Parallelism concurrently.
type JobSpec struct {
	Template     PodSpec `json:"template"`
	Completions  int     `json:"completions"`
	Parallelism  int     `json:"parallelism"`
	BackoffLimit int     `json:"backoff_limit"`
}

// DefaultJobSpec fills in the defaults the original implementation uses
// when a field is left zero: completions=1, parallelism=1, backoff=6.
func DefaultJobSpec(spec JobSpec) JobSpec {
	if spec.Completions == 0 {
		spec.Completions = 1
	}
	if spec.Parallelism == 0 {
		spec.Parallelism = 1
	}
	if spec.BackoffLimit == 0 {
		spec.BackoffLimit = 6
	}
	return spec
}

// JobStatus is observed state aggregated from owned Pods.
type JobStatus struct {
	Active         int        `json:"active"`
	Succeeded      int        `json:"succeeded"`
	Failed         int        `json:"failed"`
	Phase          JobPhase   `json:"phase"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	CompletionTime *time.Time `json:"completion_time,omitempty"`
}

// Job runs its Pod template to a fixed number of successful completions.
// Its terminal transition (Complete/Failed) is sticky: once set, no
// further Pods are created.
type Job struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Namespace string    `json:"namespace"`
	Spec      JobSpec   `json:"spec"`
	Status    JobStatus `json:"status"`
	OwnerRef  *OwnerRef `json:"owner_ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CronJobSpec is the declared intent of a CronJob.
type CronJobSpec struct {
	Schedule    string  `json:"schedule"`
	JobTemplate JobSpec `json:"job_template"`
	Suspend     bool    `json:"suspend,omitempty"`
}

// CronJobStatus is observed state.
type CronJobStatus struct {
	LastScheduleTime *time.Time `json:"last_schedule_time,omitempty"`
	ActiveJobs       []string   `json:"active_jobs,omitempty"`
}

// CronJob creates a Job from JobTemplate each time Schedule is due.
type CronJob struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Namespace string        `json:"namespace"`
	Spec      CronJobSpec   `json:"spec"`
	Status    CronJobStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}
