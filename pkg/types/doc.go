// Package types defines the resource kinds k3rs persists: Node, Pod,
// Deployment, ReplicaSet, DaemonSet, Job, CronJob, HorizontalPodAutoscaler,
// Namespace, Service, Endpoints, ConfigMap, Secret, Lease, and the
// ChangeEvent emitted by the Store on every mutation.
//
// Every kind follows the same shape: an opaque internal ID (never part of
// a key), a namespace/name pair unique per kind, a Spec describing
// declared intent and a Status describing observed state. Resources are
// created by API writers, mutated only by full-value Put, and deleted by
// Delete; controllers and the scheduler are the only writers of Status.
package types
