package types

import "regexp"

// rfc1123Name matches the RFC 1123 label subset used for every resource
// name: lowercase alphanumerics and hyphens, 1-63 chars, no leading or
// trailing hyphen.
var rfc1123Name = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// ValidName reports whether name is a legal RFC 1123 resource name.
func ValidName(name string) bool {
	return len(name) > 0 && len(name) <= 63 && rfc1123Name.MatchString(name)
}

// Labels is a string-to-string selector/metadata map attached to most
// resources.
type Labels map[string]string

// Subset reports whether every key/value in l also appears in other,
// i.e. l is a node-selector-style subset of other's labels.
func (l Labels) Subset(other Labels) bool {
	for k, v := range l {
		if other[k] != v {
			return false
		}
	}
	return true
}

// ResourceList captures the three resource dimensions the scheduler and
// capacity accounting track: CPU, memory, and pod count.
type ResourceList struct {
	CPUMillis   int64 `json:"cpu_millis"`
	MemoryBytes int64 `json:"memory_bytes"`
	PodCount    int64 `json:"pod_count"`
}

// OwnerRef is a weak back-reference from a child resource to the
// controller record that created it. It is a lookup tuple, never a
// pointer — resolving it means a Get against Store.
type OwnerRef struct {
	Kind      string `json:"kind"`
	Namespace string `json:"namespace,omitempty"`
	Name      string `json:"name"`
	UID       string `json:"uid"`
}

// TaintEffect is the repulsion strength of a Node taint.
type TaintEffect string

const (
	NoSchedule       TaintEffect = "NoSchedule"
	NoExecute        TaintEffect = "NoExecute"
	PreferNoSchedule TaintEffect = "PreferNoSchedule"
)

// Taint marks a Node as repulsive to Pods that don't carry a matching
// Toleration.
type Taint struct {
	Key    string      `json:"key"`
	Value  string      `json:"value,omitempty"`
	Effect TaintEffect `json:"effect"`
}

// TolerationOperator selects how a Toleration's Value is compared
// against a Taint's Value.
type TolerationOperator string

const (
	TolerationEqual  TolerationOperator = "Equal"
	TolerationExists TolerationOperator = "Exists"
)

// Toleration is the Pod-side counterpart to a Node Taint.
type Toleration struct {
	Key      string              `json:"key"`
	Operator TolerationOperator  `json:"operator,omitempty"`
	Value    string              `json:"value,omitempty"`
	Effect   TaintEffect         `json:"effect,omitempty"`
}

// Matches reports whether t tolerates taint.
func (t Toleration) Matches(taint Taint) bool {
	if t.Key != taint.Key {
		return false
	}
	if t.Operator == TolerationExists {
		return true
	}
	return t.Value == taint.Value
}
