package types

import "strings"

// Key prefixes are the stable on-disk contract (spec §3, §6): backup
// and restore tooling, and every controller's ListPrefix call, depend
// on this exact scheme.
const (
	NodeKeyPrefix              = "/registry/nodes/"
	NamespaceKeyPrefix         = "/registry/namespaces/"
	PodKeyPrefix               = "/registry/pods/"
	ServiceKeyPrefix           = "/registry/services/"
	EndpointsKeyPrefix         = "/registry/endpoints/"
	DeploymentKeyPrefix        = "/registry/deployments/"
	ReplicaSetKeyPrefix        = "/registry/replicasets/"
	DaemonSetKeyPrefix         = "/registry/daemonsets/"
	JobKeyPrefix               = "/registry/jobs/"
	CronJobKeyPrefix           = "/registry/cronjobs/"
	HPAKeyPrefix               = "/registry/hpa/"
	ConfigMapKeyPrefix         = "/registry/configmaps/"
	SecretKeyPrefix            = "/registry/secrets/"
	LeaseKeyPrefix             = "/registry/leases/"
	EventKeyPrefix             = "/events/"
	DeploymentMetricsKeyPrefix = "/metrics/deployments/"
)

// LeaderLeaseKey is the one lease LeaderElection contends on.
const LeaderLeaseKey = LeaseKeyPrefix + "controller-leader"

// ClusterTokenKey holds the shared secret a node's agent must present to
// join this cluster's Store. The server seeds it on first start; agent
// join is a local comparison against this value, not a network handshake.
const ClusterTokenKey = "/registry/cluster/token"

// NodeKey returns the key for a cluster-scoped Node.
func NodeKey(name string) string { return NodeKeyPrefix + name }

// NamespaceKey returns the key for a Namespace.
func NamespaceKey(name string) string { return NamespaceKeyPrefix + name }

// namespacedKey builds "<prefix><ns>/<name>" for any namespaced kind.
func namespacedKey(prefix, ns, name string) string {
	return prefix + ns + "/" + name
}

// namespacedPrefix builds "<prefix><ns>/" — the ListPrefix argument for
// one kind scoped to one namespace.
func namespacedPrefix(prefix, ns string) string {
	return prefix + ns + "/"
}

func PodKey(ns, name string) string        { return namespacedKey(PodKeyPrefix, ns, name) }
func PodPrefix(ns string) string            { return namespacedPrefix(PodKeyPrefix, ns) }
func ServiceKey(ns, name string) string     { return namespacedKey(ServiceKeyPrefix, ns, name) }
func EndpointsKey(ns, name string) string   { return namespacedKey(EndpointsKeyPrefix, ns, name) }
func DeploymentKey(ns, name string) string  { return namespacedKey(DeploymentKeyPrefix, ns, name) }
func DeploymentPrefix(ns string) string      { return namespacedPrefix(DeploymentKeyPrefix, ns) }
func ReplicaSetKey(ns, name string) string  { return namespacedKey(ReplicaSetKeyPrefix, ns, name) }
func ReplicaSetPrefix(ns string) string      { return namespacedPrefix(ReplicaSetKeyPrefix, ns) }
func DaemonSetKey(ns, name string) string   { return namespacedKey(DaemonSetKeyPrefix, ns, name) }
func DaemonSetPrefix(ns string) string       { return namespacedPrefix(DaemonSetKeyPrefix, ns) }
func JobKey(ns, name string) string         { return namespacedKey(JobKeyPrefix, ns, name) }
func JobPrefix(ns string) string             { return namespacedPrefix(JobKeyPrefix, ns) }
func CronJobKey(ns, name string) string     { return namespacedKey(CronJobKeyPrefix, ns, name) }
func CronJobPrefix(ns string) string         { return namespacedPrefix(CronJobKeyPrefix, ns) }
func HPAKey(ns, name string) string         { return namespacedKey(HPAKeyPrefix, ns, name) }
func HPAPrefix(ns string) string             { return namespacedPrefix(HPAKeyPrefix, ns) }
func ConfigMapKey(ns, name string) string   { return namespacedKey(ConfigMapKeyPrefix, ns, name) }
func SecretKey(ns, name string) string      { return namespacedKey(SecretKeyPrefix, ns, name) }
func DeploymentMetricsKey(ns, name string) string { return namespacedKey(DeploymentMetricsKeyPrefix, ns, name) }

// SplitNamespacedKey extracts (namespace, name) from a "<prefix><ns>/<name>"
// key given its prefix. Returns ok=false if key doesn't match the shape.
func SplitNamespacedKey(prefix, key string) (ns, name string, ok bool) {
	rest := strings.TrimPrefix(key, prefix)
	if rest == key {
		return "", "", false
	}
	idx := strings.IndexByte(rest, '/')
	if idx < 0 {
		return "", "", false
	}
	return rest[:idx], rest[idx+1:], true
}

// NamespaceFromKey extracts the namespace component of a
// "/registry/namespaces/<name>" key.
func NamespaceFromKey(key string) string {
	return strings.TrimPrefix(key, NamespaceKeyPrefix)
}
