package main

import "testing"

func TestFieldMatches(t *testing.T) {
	doc := map[string]any{
		"name": "web",
		"spec": map[string]any{
			"node_name": "node-1",
		},
	}
	if !fieldMatches(doc, "spec.node_name", "node-1") {
		t.Error("expected match on spec.node_name=node-1")
	}
	if fieldMatches(doc, "spec.node_name", "node-2") {
		t.Error("expected no match on spec.node_name=node-2")
	}
	if fieldMatches(doc, "spec.missing", "x") {
		t.Error("expected no match on a missing path")
	}
}

func TestKindPrefix(t *testing.T) {
	prefix, namespaced, ok := kindPrefix("pods")
	if !ok || !namespaced || prefix != "/registry/pods/" {
		t.Errorf("kindPrefix(pods) = %q, %v, %v", prefix, namespaced, ok)
	}

	prefix, namespaced, ok = kindPrefix("Node")
	if !ok || namespaced || prefix != "/registry/nodes/" {
		t.Errorf("kindPrefix(Node) = %q, %v, %v", prefix, namespaced, ok)
	}

	if _, _, ok = kindPrefix("bogus"); ok {
		t.Error("expected kindPrefix(bogus) to fail")
	}
}

func TestStatusOf(t *testing.T) {
	if got := statusOf(map[string]any{"status": "Running"}); got != "Running" {
		t.Errorf("statusOf string status = %q", got)
	}
	if got := statusOf(map[string]any{"status": map[string]any{"phase": "Failed"}}); got != "Failed" {
		t.Errorf("statusOf nested status = %q", got)
	}
	if got := statusOf(map[string]any{}); got != "-" {
		t.Errorf("statusOf missing status = %q", got)
	}
}
